// Package shell builds POSIX shell command lines from untrusted values.
//
// Every caller-controlled value (passwords, paths, JSON fragments) that ends
// up in a remote command line goes through [Quote], which wraps it in single
// quotes and escapes embedded single quotes.
package shell
