package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	maxFilenameLength   = 128
)

// SecureFilename turns an entity name into something safe to hand out as a
// download name: ascii only, no separators or control characters, never
// empty and never a dot file.
func SecureFilename(name, fallback string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || unicode.IsSpace(r):
			b.WriteRune(' ')
		case r > unicode.MaxASCII || unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}

	name = strings.Join(strings.Fields(b.String()), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
	}
	if name == "" {
		return fallback
	}
	return name
}
