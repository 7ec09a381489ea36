package post

import (
	"regexp"
	"strings"
)

var (
	tagPattern       = regexp.MustCompile(`(?i)(<([^>]+)>)`)
	shortcodePattern = regexp.MustCompile(`\[[^\]]*\]`)
)

// CleanText strips markup from s for use in plain-text metadata. Every tag is
// removed but only the first [shortcode] span is; later spans survive.
func CleanText(s string) string {
	if s == "" {
		return ""
	}

	s = tagPattern.ReplaceAllString(s, "")
	if loc := shortcodePattern.FindStringIndex(s); loc != nil {
		s = s[:loc[0]] + s[loc[1]:]
	}

	return strings.TrimSpace(s)
}
