package slug

import (
	"regexp"
	"strings"
)

const maxLen = 48

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

// Make joins parts into a lowercase, dash-separated file name fragment of at
// most 48 characters.
func Make(parts ...string) string {
	s := strings.ToLower(strings.TrimSpace(strings.Join(parts, " ")))
	s = nonAlphaNum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
