package dashboard

import (
	"regexp"
	"strings"
)

var hashtagPattern = regexp.MustCompile(`#[A-Za-z0-9_]+`)

// ExtractHashtags pulls hashtags out of post content in order of
// appearance, without the leading marker. The server stores whatever the
// composer derived here; it never re-parses the content.
func ExtractHashtags(content string) []string {
	matches := hashtagPattern.FindAllString(content, -1)

	tags := make([]string, 0, len(matches))
	for _, match := range matches {
		tags = append(tags, strings.TrimPrefix(match, "#"))
	}
	return tags
}
