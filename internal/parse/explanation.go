package parse

import (
	"bytes"
	"errors"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Section markers the explanation prompt asks the model to emit.
const (
	MarkerDefinition  = "#DEFINITION#"
	MarkerExplanation = "#EXPLANATION#"
	MarkerExample     = "#EXAMPLE#"
	MarkerKeyPoints   = "#KEY_POINTS#"
)

// ErrMarkersMissing means the text lacks one of the required markers or has
// them out of order. Callers show the raw text instead.
var ErrMarkersMissing = errors.New("explanation markers missing or out of order")

// Explanation is a model answer split into its four sections.
// Section contents are kept verbatim, including surrounding whitespace.
type Explanation struct {
	Definition  string
	Explanation string
	Example     string
	KeyPoints   string
}

// Section is one titled part of an explanation, ready for display.
type Section struct {
	TitleID string // i18n message ID
	Body    template.HTML
}

// ParseExplanation splits raw on the section markers. #DEFINITION# is
// optional; text before #EXPLANATION# belongs to the definition either way.
// Each marker may appear at most once.
func ParseExplanation(raw string) (Explanation, error) {
	for _, m := range []string{MarkerDefinition, MarkerExplanation, MarkerExample, MarkerKeyPoints} {
		if strings.Count(raw, m) > 1 {
			return Explanation{}, ErrMarkersMissing
		}
	}
	iExpl := strings.Index(raw, MarkerExplanation)
	if iExpl < 0 {
		return Explanation{}, ErrMarkersMissing
	}
	rest := raw[iExpl+len(MarkerExplanation):]

	iEx := strings.Index(rest, MarkerExample)
	if iEx < 0 {
		return Explanation{}, ErrMarkersMissing
	}
	explanation := rest[:iEx]
	rest = rest[iEx+len(MarkerExample):]

	iKP := strings.Index(rest, MarkerKeyPoints)
	if iKP < 0 {
		return Explanation{}, ErrMarkersMissing
	}
	example := rest[:iKP]
	keyPoints := rest[iKP+len(MarkerKeyPoints):]

	// A definition marker after #EXPLANATION# is out of order.
	if strings.Contains(raw[iExpl:], MarkerDefinition) {
		return Explanation{}, ErrMarkersMissing
	}
	definition := strings.Replace(raw[:iExpl], MarkerDefinition, "", 1)

	return Explanation{
		Definition:  definition,
		Explanation: explanation,
		Example:     example,
		KeyPoints:   keyPoints,
	}, nil
}

// String joins the sections back together with their markers.
func (e Explanation) String() string {
	var sb strings.Builder
	sb.WriteString(MarkerDefinition)
	sb.WriteString(e.Definition)
	sb.WriteString(MarkerExplanation)
	sb.WriteString(e.Explanation)
	sb.WriteString(MarkerExample)
	sb.WriteString(e.Example)
	sb.WriteString(MarkerKeyPoints)
	sb.WriteString(e.KeyPoints)
	return sb.String()
}

// Sections returns the four sections normalised and rendered to HTML.
func (e Explanation) Sections() []Section {
	return []Section{
		{TitleID: "SectionDefinition", Body: RenderMarkdown(NormalizeSection(strings.TrimSpace(e.Definition)))},
		{TitleID: "SectionExplanation", Body: RenderMarkdown(NormalizeSection(strings.TrimSpace(e.Explanation)))},
		{TitleID: "SectionExample", Body: RenderMarkdown(NormalizeSection(strings.TrimSpace(e.Example)))},
		{TitleID: "SectionKeyPoints", Body: RenderMarkdown(NormalizeSection(strings.TrimSpace(e.KeyPoints)))},
	}
}

var (
	emptyLinkRegex  = regexp.MustCompile(`\[\]\(https?://[^\)]+\)`)
	preOpenRegex    = regexp.MustCompile(`<pre>\s*`)
	preCloseRegex   = regexp.MustCompile(`\s*</pre>`)
	codeTagRegex    = regexp.MustCompile(`(?s)<code>(.*?)</code>`)
	strongTagRegex  = regexp.MustCompile(`(?s)<strong>(.*?)</strong>`)
	markdownConvert = goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Table))
)

// NormalizeSection turns the HTML tags the explanation prompt allows into
// Markdown and drops empty link decorations.
func NormalizeSection(s string) string {
	s = emptyLinkRegex.ReplaceAllString(s, "")
	s = preOpenRegex.ReplaceAllString(s, "\n```\n")
	s = preCloseRegex.ReplaceAllString(s, "\n```\n")
	s = codeTagRegex.ReplaceAllString(s, "`$1`")
	s = strongTagRegex.ReplaceAllString(s, "**$1**")
	return s
}

// RenderMarkdown renders s as HTML. Raw HTML in s is omitted.
func RenderMarkdown(s string) template.HTML {
	var buf bytes.Buffer
	if err := markdownConvert.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}
