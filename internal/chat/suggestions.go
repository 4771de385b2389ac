package chat

import (
	"regexp"
	"strings"
)

var suggestionsBlock = regexp.MustCompile(`(?s)\[SUGGESTIONS\](.*?)\[/SUGGESTIONS\]`)

// ParseSuggestions splits a completion into display text and the quick
// replies of its first [SUGGESTIONS]a|b[/SUGGESTIONS] block. Text without a
// block is returned unchanged.
func ParseSuggestions(raw string) (string, []string) {
	loc := suggestionsBlock.FindStringSubmatchIndex(raw)
	if loc == nil {
		return raw, []string{}
	}

	text := strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])

	segments := strings.Split(raw[loc[2]:loc[3]], "|")
	suggestions := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s != "" {
			suggestions = append(suggestions, s)
		}
	}
	return text, suggestions
}
