package shell

import "strings"

// Quote wraps s in single quotes so the remote shell treats it as one literal word.
// Embedded single quotes are closed, escaped and reopened ('\'').
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Join quotes every argument and joins them with spaces.
func Join(args ...string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = Quote(arg)
	}
	return strings.Join(quoted, " ")
}

// Command joins a program name (left unquoted) with quoted arguments.
func Command(program string, args ...string) string {
	if len(args) == 0 {
		return program
	}
	return program + " " + Join(args...)
}
