package render

import (
	"html/template"
	"regexp"
	"strings"
	"unicode"
)

var linkRe = regexp.MustCompile(
	`(?P<url>https?://[^\s<>"']+|www\.[^\s<>"']+)` +
		`|(?P<email>[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})` +
		`|(?P<phone>(?:\+\d{1,3}[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4})`,
)

var (
	urlGroup   = linkRe.SubexpIndex("url")
	emailGroup = linkRe.SubexpIndex("email")
	phoneGroup = linkRe.SubexpIndex("phone")
)

// Linkify escapes text and wraps email-, phone- and URL-shaped substrings in
// anchors.
func Linkify(text string) template.HTML {
	var b strings.Builder
	last := 0
	for _, m := range linkRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		var href string
		switch {
		case m[2*urlGroup] >= 0:
			end = start + len(strings.TrimRight(text[start:end], ".,;:!?)"))
			u := text[start:end]
			if strings.HasPrefix(u, "www.") {
				u = "https://" + u
			}
			href = u
		case m[2*emailGroup] >= 0:
			href = "mailto:" + text[start:end]
		case m[2*phoneGroup] >= 0:
			if !standalone(text, start, end) {
				continue
			}
			href = "tel:" + phoneDigits(text[start:end])
		}
		b.WriteString(template.HTMLEscapeString(text[last:start]))
		b.WriteString(`<a href="`)
		b.WriteString(template.HTMLEscapeString(href))
		b.WriteString(`" target="_blank" rel="noopener noreferrer">`)
		b.WriteString(template.HTMLEscapeString(text[start:end]))
		b.WriteString(`</a>`)
		last = end
	}
	b.WriteString(template.HTMLEscapeString(text[last:]))
	return template.HTML(b.String()) //nolint:gosec // every segment escaped above
}

// standalone rejects digit runs embedded in longer identifiers.
func standalone(text string, start, end int) bool {
	isWord := func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }
	if start > 0 && isWord(rune(text[start-1])) {
		return false
	}
	if end < len(text) && isWord(rune(text[end])) {
		return false
	}
	return true
}

func phoneDigits(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsDigit(r) || (i == 0 && r == '+') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
