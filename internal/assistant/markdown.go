package assistant

import (
	"regexp"
	"strings"
)

var (
	boldRe     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe   = regexp.MustCompile(`\*(.*?)\*`)
	bulletRe   = regexp.MustCompile(`(?m)^•[ \t]*(.*?)$`)
	numberedRe = regexp.MustCompile(`(?m)^(\d+)\.[ \t]*(.*?)$`)
)

// RenderMarkdown turns the small markdown subset the model and the canned
// answers use into inline HTML: bold, italic, bullet and numbered items
// grouped into <ul>, and newlines as <br>.
func RenderMarkdown(text string) string {
	text = boldRe.ReplaceAllString(text, "<strong>${1}</strong>")
	text = italicRe.ReplaceAllString(text, "<em>${1}</em>")
	text = bulletRe.ReplaceAllString(text, "<li>${1}</li>")
	text = numberedRe.ReplaceAllString(text, "<li>${1}. ${2}</li>")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines)+4)
	inList := false
	for _, line := range lines {
		isItem := strings.HasPrefix(strings.TrimSpace(line), "<li>")
		switch {
		case isItem && !inList:
			out = append(out, "<ul>")
			inList = true
		case !isItem && inList:
			out = append(out, "</ul>")
			inList = false
		}
		out = append(out, line)
	}
	if inList {
		out = append(out, "</ul>")
	}
	return strings.Join(out, "<br>")
}
