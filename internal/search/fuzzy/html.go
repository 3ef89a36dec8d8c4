package fuzzy

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// StripHTML extracts plain text from an optionally HTML-formatted
// description: tags become spaces, common entities are decoded, and
// whitespace is collapsed.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}
	text := tagPattern.ReplaceAllString(html, " ")
	text = entityReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
