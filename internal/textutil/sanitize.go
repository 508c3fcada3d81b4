package textutil

import "strings"

// fileNameReplacer rewrites characters that cannot appear in file names.
// Path separators and colons keep their position as dashes so identifiers
// like "acts/intro" stay readable; the rest carry no meaning in a name and
// are dropped.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a source identifier safe to use as a file name.
// Slashes, backslashes, and colons become dashes; other unsafe characters
// are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}
