package parse

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/studybuddy/internal/model"
)

const sampleExplanation = `#DEFINITION#
Photosynthesis turns light into chemical energy.

#EXPLANATION#
Plants use <strong>chlorophyll</strong> to capture light.
<pre>
6CO2 + 6H2O -> C6H12O6 + 6O2
</pre>

#EXAMPLE#
A leaf is a tiny solar panel. [](https://example.com/ref)

#KEY_POINTS#
- Needs light
- Produces oxygen
`

func TestParseExplanation(t *testing.T) {
	e, err := ParseExplanation(sampleExplanation)
	require.NoError(t, err)

	assert.Equal(t, "\nPhotosynthesis turns light into chemical energy.\n\n", e.Definition)
	assert.Contains(t, e.Explanation, "<strong>chlorophyll</strong>")
	assert.Equal(t, "\nA leaf is a tiny solar panel. [](https://example.com/ref)\n\n", e.Example)
	assert.Equal(t, "\n- Needs light\n- Produces oxygen\n", e.KeyPoints)
}

func TestParseExplanation_RoundTrip(t *testing.T) {
	inputs := []string{
		sampleExplanation,
		"#DEFINITION#a#EXPLANATION#b#EXAMPLE#c#KEY_POINTS#d",
		"#DEFINITION#  spaced  #EXPLANATION#\n\n#EXAMPLE##KEY_POINTS#",
	}
	for i, in := range inputs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			e, err := ParseExplanation(in)
			require.NoError(t, err)
			assert.Equal(t, in, e.String(), "text with a leading marker reproduces exactly")

			again, err := ParseExplanation(e.String())
			require.NoError(t, err)
			assert.Equal(t, e, again)
		})
	}
}

func TestParseExplanation_PrefixBelongsToDefinition(t *testing.T) {
	t.Run("no definition marker", func(t *testing.T) {
		e, err := ParseExplanation("Intro text #EXPLANATION#b#EXAMPLE#c#KEY_POINTS#d")
		require.NoError(t, err)
		assert.Equal(t, "Intro text ", e.Definition)

		again, err := ParseExplanation(e.String())
		require.NoError(t, err)
		assert.Equal(t, e, again)
	})

	t.Run("text before definition marker", func(t *testing.T) {
		e, err := ParseExplanation("Sure! #DEFINITION#def#EXPLANATION#b#EXAMPLE#c#KEY_POINTS#d")
		require.NoError(t, err)
		assert.Equal(t, "Sure! def", e.Definition)
	})
}

func TestParseExplanation_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain text", "Photosynthesis is how plants eat."},
		{"missing example", "#DEFINITION#a#EXPLANATION#b#KEY_POINTS#d"},
		{"missing key points", "#DEFINITION#a#EXPLANATION#b#EXAMPLE#c"},
		{"example before explanation", "#DEFINITION#a#EXAMPLE#c#EXPLANATION#b#KEY_POINTS#d"},
		{"definition last", "#EXPLANATION#b#EXAMPLE#c#KEY_POINTS#d#DEFINITION#a"},
		{"early markers repeated later", "#DEFINITION# d #KEY_POINTS# k0 #EXAMPLE# x0 #EXPLANATION# e #EXAMPLE# x #KEY_POINTS# k"},
		{"key points before explanation", "#DEFINITION#a#KEY_POINTS#k0#EXPLANATION#b#EXAMPLE#c#KEY_POINTS#d"},
		{"key points inside explanation", "#DEFINITION#a#EXPLANATION#b#KEY_POINTS#k#EXAMPLE#c#KEY_POINTS#d"},
		{"duplicate definition", "#DEFINITION#a#DEFINITION#a2#EXPLANATION#b#EXAMPLE#c#KEY_POINTS#d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExplanation(tt.raw)
			assert.ErrorIs(t, err, ErrMarkersMissing)
		})
	}
}

func TestNormalizeSection(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty link", "see [](https://x.org/a) here", "see  here"},
		{"http empty link", "[](http://x.org)", ""},
		{"code", "use <code>fmt.Println</code> now", "use `fmt.Println` now"},
		{"strong", "a <strong>key</strong> term", "a **key** term"},
		{"pre", "<pre>x := 1</pre>", "\n```\nx := 1\n```\n"},
		{"plain", "nothing to do", "nothing to do"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSection(tt.in))
		})
	}
}

func TestRenderMarkdown(t *testing.T) {
	got := string(RenderMarkdown("a **key** term and `code`"))
	assert.Contains(t, got, "<strong>key</strong>")
	assert.Contains(t, got, "<code>code</code>")

	unsafe := string(RenderMarkdown(`<script>alert(1)</script>`))
	assert.NotContains(t, unsafe, "<script>")

	link := string(RenderMarkdown(`[x](javascript:alert(1))`))
	assert.NotContains(t, link, "javascript:")
}

func TestExplanationSections(t *testing.T) {
	e, err := ParseExplanation(sampleExplanation)
	require.NoError(t, err)

	sections := e.Sections()
	require.Len(t, sections, 4)
	assert.Equal(t, "SectionDefinition", sections[0].TitleID)
	assert.Contains(t, string(sections[1].Body), "<strong>chlorophyll</strong>")
	assert.Contains(t, string(sections[1].Body), "<pre><code>")
	assert.NotContains(t, string(sections[2].Body), "example.com")
	assert.Contains(t, string(sections[3].Body), "<li>Needs light</li>")
}

func TestRenderSummary(t *testing.T) {
	t.Run("escapes before formatting", func(t *testing.T) {
		got := string(RenderSummary(`<b>x</b> & "y"`, false))
		assert.Equal(t, "<p>&lt;b&gt;x&lt;/b&gt; &amp; &#34;y&#34;</p>", got)
	})

	t.Run("bullets and numbers", func(t *testing.T) {
		got := string(RenderSummary("- one\n* two\n1. first", false))
		assert.Contains(t, got, `<div class="summary-item">&bull; one</div>`)
		assert.Contains(t, got, `<div class="summary-item">&bull; two</div>`)
		assert.Contains(t, got, `<strong class="summary-num">1.</strong> first</div>`)
	})

	t.Run("paragraphs and line breaks", func(t *testing.T) {
		got := string(RenderSummary("a\nb\n\nc", false))
		assert.Equal(t, "<p>a<br>b</p><p>c</p>", got)
	})

	t.Run("highlight on", func(t *testing.T) {
		got := string(RenderSummary("the **cell** wall", true))
		assert.Equal(t, `<p>the <strong class="key-term">cell</strong> wall</p>`, got)
	})

	t.Run("highlight off keeps markers", func(t *testing.T) {
		got := string(RenderSummary("the **cell** wall", false))
		assert.Equal(t, "<p>the **cell** wall</p>", got)
	})

	t.Run("windows line endings", func(t *testing.T) {
		got := string(RenderSummary("a\r\n\r\nb", false))
		assert.Equal(t, "<p>a</p><p>b</p>", got)
	})
}

func TestSummaryStats(t *testing.T) {
	st := SummaryStats(strings.Repeat("word ", 200), strings.Repeat("w ", 50))
	assert.Equal(t, 200, st.OriginalWords)
	assert.Equal(t, 50, st.SummaryWords)
	assert.Equal(t, 75, st.Reduction)

	assert.Equal(t, Stats{}, SummaryStats("", ""))
	assert.Equal(t, 67, SummaryStats("a b c", "a").Reduction)
}

func TestDecodeQuiz(t *testing.T) {
	payload := `[
		{"question":"Q1","options":["a","b","c","d"],"correct_index":0,"explanation":"e1"},
		{"question":"Q2","options":["a","b","c","d"],"correct_index":3,"explanation":"e2"}
	]`
	items, err := DecodeQuiz([]byte(payload))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, model.QuizItem{Question: "Q1", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 0, Explanation: "e1"}, items[0])
	assert.Equal(t, 3, items[1].CorrectIndex)

	_, err = DecodeQuiz([]byte(`[]`))
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = DecodeQuiz([]byte(`null`))
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = DecodeQuiz([]byte(`[null]`))
	assert.Error(t, err)

	_, err = DecodeQuiz([]byte(`{"question":"not a list"}`))
	assert.Error(t, err)

	_, err = DecodeQuiz([]byte(`[] []`))
	assert.Error(t, err)
}

func TestDecodeFlashcards_Filtering(t *testing.T) {
	payload := `[
		{"question":"Q1","answer":"A1"},
		{"question":"Q2","answer":""},
		{"question":"Q3","answer":"A3"},
		{"question":"Q4"},
		{"question":"Q5","answer":"A5"}
	]`
	cards, err := DecodeFlashcards([]byte(payload))
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, []string{"Q1", "Q3", "Q5"}, []string{cards[0].Question, cards[1].Question, cards[2].Question})
}

func TestDecodeFlashcards_Empty(t *testing.T) {
	tests := []string{
		`[]`,
		`[{"question":"","answer":""}]`,
		`[{"question":"  ","answer":"A"}]`,
		`[null]`,
	}
	for _, payload := range tests {
		_, err := DecodeFlashcards([]byte(payload))
		assert.ErrorIs(t, err, ErrEmptyResult, payload)
	}

	_, err := DecodeFlashcards([]byte(`[{"question":5}]`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyResult)
}
