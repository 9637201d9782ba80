package parse

import (
	"html"
	"html/template"
	"math"
	"regexp"
	"strings"
)

var (
	boldRegex     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	bulletRegex   = regexp.MustCompile(`(?m)^[\-\*]\s+(.+)$`)
	numberedRegex = regexp.MustCompile(`(?m)^(\d+)\.\s+(.+)$`)
)

// RenderSummary converts a plain-text summary to HTML. The text is escaped
// before any markup is added. Bold markers become highlighted terms only
// when highlight is set.
func RenderSummary(raw string, highlight bool) template.HTML {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = html.EscapeString(s)

	if highlight {
		s = boldRegex.ReplaceAllString(s, `<strong class="key-term">$1</strong>`)
	}
	s = bulletRegex.ReplaceAllString(s, `<div class="summary-item">&bull; $1</div>`)
	s = numberedRegex.ReplaceAllString(s, `<div class="summary-item"><strong class="summary-num">$1.</strong> $2</div>`)
	s = strings.ReplaceAll(s, "\n\n", "</p><p>")
	s = strings.ReplaceAll(s, "\n", "<br>")

	return template.HTML("<p>" + s + "</p>")
}

// Stats compares the size of the notes with their summary.
type Stats struct {
	OriginalWords int
	SummaryWords  int
	Reduction     int // percent, rounded
}

// SummaryStats counts whitespace-separated words in both texts.
func SummaryStats(original, summary string) Stats {
	st := Stats{
		OriginalWords: len(strings.Fields(original)),
		SummaryWords:  len(strings.Fields(summary)),
	}
	if st.OriginalWords > 0 {
		st.Reduction = int(math.Round(float64(st.OriginalWords-st.SummaryWords) / float64(st.OriginalWords) * 100))
	}
	return st
}
