package artifact

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/imamik/k8zdb/internal/util/shell"
)

// ImportExtension is the extension of importable files.
const ImportExtension = ".sql"

// Notices logged when an upload yields nothing to import.
const (
	NoticeNoImportFile = "no import file found"
	NoticeAmbiguous    = "multiple import files found"
)

// Format is the packaging of an uploaded file.
type Format int

// Supported formats.
const (
	FormatPlain Format = iota
	FormatZip
	FormatTarGz
)

// DetectFormat classifies a file by name.
func DetectFormat(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz
	default:
		return FormatPlain
	}
}

// ExpandCommand extracts an archive into destDir on the host.
func ExpandCommand(format Format, archivePath, destDir string) (string, error) {
	switch format {
	case FormatZip:
		return fmt.Sprintf("mkdir -p %s && unzip -o -q %s -d %s",
			shell.Quote(destDir), shell.Quote(archivePath), shell.Quote(destDir)), nil
	case FormatTarGz:
		return fmt.Sprintf("mkdir -p %s && tar -xzf %s -C %s",
			shell.Quote(destDir), shell.Quote(archivePath), shell.Quote(destDir)), nil
	default:
		return "", fmt.Errorf("%s is not an archive", archivePath)
	}
}

// LocateCommand lists candidate import files below dir.
func LocateCommand(dir string) string {
	return fmt.Sprintf("find %s -type f -name %s ! -path %s ! -name %s",
		shell.Quote(dir),
		shell.Quote("*"+ImportExtension),
		shell.Quote("*/__MACOSX/*"),
		shell.Quote("._*"),
	)
}

// IsMetadata reports whether a path is an archive metadata entry.
func IsMetadata(p string) bool {
	if strings.Contains("/"+p+"/", "/__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(p), "._")
}

// ParseLocate extracts import candidates from LocateCommand output,
// filtering metadata entries again and sorting the result.
func ParseLocate(output string) []string {
	var files []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || IsMetadata(line) || !strings.HasSuffix(strings.ToLower(line), ImportExtension) {
			continue
		}
		files = append(files, line)
	}
	sort.Strings(files)
	return files
}

// SelectImportFile picks the single import file. With zero or several
// candidates it returns "" and a notice explaining why import is skipped.
func SelectImportFile(files []string) (string, string) {
	switch len(files) {
	case 0:
		return "", NoticeNoImportFile
	case 1:
		return files[0], ""
	default:
		return "", fmt.Sprintf("%s (%s), skipping import", NoticeAmbiguous, strings.Join(files, ", "))
	}
}

// IsImportFile reports whether a plain upload can be imported directly.
func IsImportFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ImportExtension) && !IsMetadata(name)
}
