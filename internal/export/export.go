// Package export renders study results as downloadable plain text.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/pavelanni/studybuddy/internal/model"
	"github.com/pavelanni/studybuddy/internal/parse"
)

// SummaryFilename is the download name for summaries.
const SummaryFilename = "studybuddy_summary.txt"

var (
	emptyLinkRegex = regexp.MustCompile(`\[\]\(https?://[^\)]+\)`)
	preTagRegex    = regexp.MustCompile(`</?pre>`)
	codeTagRegex   = regexp.MustCompile(`(?s)<code>(.*?)</code>`)
	strongTagRegex = regexp.MustCompile(`(?s)<strong>(.*?)</strong>`)

	markerHeadings = strings.NewReplacer(
		parse.MarkerDefinition, "DEFINITION:\n",
		parse.MarkerExplanation, "\n\nEXPLANATION:\n",
		parse.MarkerExample, "\n\nEXAMPLE:\n",
		parse.MarkerKeyPoints, "\n\nKEY POINTS:\n",
	)
)

// ExplanationText renders an explanation with plain headings instead of markers.
func ExplanationText(e model.ExplanationExport) string {
	body := markerHeadings.Replace(e.Raw)
	body = emptyLinkRegex.ReplaceAllString(body, "")
	body = preTagRegex.ReplaceAllString(body, "\n")
	body = codeTagRegex.ReplaceAllString(body, "$1")
	body = strongTagRegex.ReplaceAllString(body, "$1")

	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", e.Topic)
	fmt.Fprintf(&sb, "Level: %s\n\n", e.Level)
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")
	sb.WriteString(body)
	sb.WriteString("\n")
	return sb.String()
}

// ExplanationFilename returns the download name for an explanation of topic.
func ExplanationFilename(topic string) string {
	return "explanation_" + truncateRunes(fileSafe(topic), 30) + ".txt"
}

// Performance returns the label for a quiz accuracy percentage.
func Performance(accuracy float64) string {
	switch {
	case accuracy >= 80:
		return "Excellent!"
	case accuracy >= 60:
		return "Good!"
	}
	return "Keep Practicing!"
}

// QuizResultsText renders a finished (or abandoned) quiz with every answer.
func QuizResultsText(q model.QuizExport) string {
	total := len(q.Items)
	correct := q.Correct()
	var accuracy float64
	if total > 0 {
		accuracy = float64(correct) / float64(total) * 100
	}
	rule := strings.Repeat("━", 64)

	var sb strings.Builder
	sb.WriteString("╔" + strings.Repeat("═", 64) + "╗\n")
	sb.WriteString("║" + center("QUIZ RESULTS - StudyBuddy", 64) + "║\n")
	sb.WriteString("╚" + strings.Repeat("═", 64) + "╝\n\n")

	fmt.Fprintf(&sb, "Topic: %s\n", q.Topic)
	fmt.Fprintf(&sb, "Difficulty: %s\n", q.Difficulty)
	if q.Date.IsZero() {
		sb.WriteString("Date: N/A\n\n")
	} else {
		fmt.Fprintf(&sb, "Date: %s\n\n", q.Date.Format("2006-01-02 15:04"))
	}

	sb.WriteString(rule + "\n\n")
	sb.WriteString("SCORE SUMMARY:\n")
	fmt.Fprintf(&sb, "  Correct Answers: %d / %d\n", correct, total)
	fmt.Fprintf(&sb, "  Accuracy: %.1f%%\n\n", accuracy)
	fmt.Fprintf(&sb, "Performance: %s\n\n", Performance(accuracy))
	sb.WriteString(rule + "\n\n")
	sb.WriteString("DETAILED RESULTS:\n\n")

	for i, item := range q.Items {
		var answer *model.AnswerRecord
		if i < len(q.Answers) {
			answer = q.Answers[i]
		}
		isCorrect := answer != nil && answer.Correct

		fmt.Fprintf(&sb, "\nQuestion %d:\n%s\n\n", i+1, item.Question)
		for j, opt := range item.Options {
			marker := ""
			switch {
			case j == item.CorrectIndex:
				marker = " ✓ (Correct Answer)"
			case answer != nil && j == answer.Selected:
				marker = " ✗ (Your Answer)"
			}
			fmt.Fprintf(&sb, "  %c. %s%s\n", 'A'+rune(j), opt, marker)
		}

		switch {
		case answer == nil:
			sb.WriteString("\nResult: Not answered\n")
		case isCorrect:
			sb.WriteString("\nResult: Correct\n")
		default:
			sb.WriteString("\nResult: Incorrect\n")
		}
		fmt.Fprintf(&sb, "Explanation: %s\n", item.Explanation)
		sb.WriteString("\n" + strings.Repeat("─", 64) + "\n")
	}

	sb.WriteString("\n" + rule + "\n\n")
	sb.WriteString("Generated by StudyBuddy - AI Study Companion\n")
	return sb.String()
}

// QuizFilename returns the download name for quiz results on topic.
func QuizFilename(topic string) string {
	return "quiz_results_" + fileSafe(topic) + ".txt"
}

// SummaryText returns the summary as downloaded.
func SummaryText(s model.SummaryExport) string {
	return s.Text
}

// fileSafe replaces spaces with underscores and drops characters that do not
// belong in a file name.
func fileSafe(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			return r
		}
		return -1
	}, s)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}
