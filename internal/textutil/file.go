package textutil

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxFileNameLength = 200

var urlPattern = regexp.MustCompile(`(?i)^https?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

var fileNameReplacer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_",
	`\`, "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeFileName replaces characters that are invalid on common
// filesystems, trims spaces and dots, and caps the length while keeping the
// extension.
func SanitizeFileName(name string) string {
	name = strings.Trim(fileNameReplacer.Replace(name), " .")
	if utf8.RuneCountInString(name) <= maxFileNameLength {
		return name
	}
	ext := filepath.Ext(name)
	base := []rune(strings.TrimSuffix(name, ext))
	keep := maxFileNameLength - utf8.RuneCountInString(ext)
	if keep < 0 {
		keep = 0
	}
	if keep > len(base) {
		keep = len(base)
	}
	return string(base[:keep]) + ext
}

// IsValidURL reports whether s looks like an absolute http(s) URL.
func IsValidURL(s string) bool {
	return urlPattern.MatchString(s)
}

// FileExtension returns the lowercase extension of name without the dot.
func FileExtension(name string) string {
	return strings.TrimPrefix(filepath.Ext(strings.ToLower(name)), ".")
}

// HasExtension reports whether name ends in one of exts (".mp4" style,
// case-insensitive).
func HasExtension(name string, exts []string) bool {
	ext := "." + FileExtension(name)
	if ext == "." {
		return false
	}
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
