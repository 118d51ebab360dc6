package serializer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func escapeAt(t *testing.T, text string, sol bool) string {
	t.Helper()
	st := newTestState("")
	st.onStartOfLine = sol
	st.onNewline = sol
	return st.escapeWikiText(text)
}

func TestEscape_FastPaths(t *testing.T) {
	cases := []string{
		"plain text",
		"   ",
		"one, two. three?",
		"x and y",
	}
	for _, text := range cases {
		require.Equal(t, text, escapeAt(t, text, true), "input %q", text)
		require.Equal(t, text, escapeAt(t, text, false), "input %q", text)
	}
}

func TestEscape_UnconditionalFences(t *testing.T) {
	require.Equal(t, "<nowiki>{{tpl}}</nowiki>", escapeAt(t, "{{tpl}}", false))
	require.Equal(t, "<nowiki>a }} b</nowiki>", escapeAt(t, "a }} b", false))
	require.Equal(t, "<nowiki>sig ~~~~</nowiki>", escapeAt(t, "sig ~~~~", false))
	// Leading space at start of line would open an indent-pre.
	require.Equal(t, "<nowiki> leading</nowiki>", escapeAt(t, " leading", true))
	// The same text mid-line is harmless.
	require.Equal(t, " leading", escapeAt(t, " leading", false))
}

func TestEscape_StartOfLineConstructs(t *testing.T) {
	require.Equal(t, "<nowiki>* item</nowiki>", escapeAt(t, "* item", true))
	require.Equal(t, "<nowiki>=h=</nowiki>", escapeAt(t, "=h=", true))
	require.Equal(t, "<nowiki>----</nowiki>", escapeAt(t, "----", true))

	// Mid-line, none of these re-parse as constructs.
	require.Equal(t, "* item", escapeAt(t, "* item", false))
	require.Equal(t, "----", escapeAt(t, "----", false))
}

func TestEscape_InlineConstructs(t *testing.T) {
	require.Equal(t, "<nowiki>a [[b]] c</nowiki>", escapeAt(t, "a [[b]] c", false))
	require.Equal(t, "<nowiki>''quoted''</nowiki>", escapeAt(t, "''quoted''", false))
	require.Equal(t, "<nowiki>a <b> c</nowiki>", escapeAt(t, "a <b> c", false))
	// A tag outside the wikitext whitelist survives a re-parse as text.
	require.Equal(t, "a <madeup> c", escapeAt(t, "a <madeup> c", false))
}

func TestEscape_URLsAreNotFenced(t *testing.T) {
	require.Equal(t, "see http://example.com now",
		escapeAt(t, "see http://example.com now", false))
	// Brackets around a non-URL stay literal.
	require.Equal(t, "[not a link]", escapeAt(t, "[not a link]", false))
	// Brackets around a URL would become an external link.
	require.Equal(t, "<nowiki>[http://example.com x]</nowiki>",
		escapeAt(t, "[http://example.com x]", false))
}

func TestEscape_TrailingNewlinesStayOutsideFence(t *testing.T) {
	require.Equal(t, "<nowiki>{{x}}</nowiki>\n\n", escapeAt(t, "{{x}}\n\n", false))
}

func TestEscape_LiteralNowikiTagsAreEntityEscaped(t *testing.T) {
	got := escapeAt(t, "a {{x}} <nowiki>b</nowiki>", false)
	require.Equal(t, "<nowiki>a {{x}} &lt;nowiki&gt;b&lt;/nowiki&gt;</nowiki>", got)
}

func TestEscape_ContextPredicates(t *testing.T) {
	st := newTestState("")
	st.onStartOfLine = false

	// Wikilink context: a closing bracket must not leak out.
	st.pushWTEHandler(wikiLinkEscape)
	require.Equal(t, "<nowiki>b]</nowiki>", st.escapeWikiText("b]"))
	require.Equal(t, "<nowiki>|x</nowiki>", st.escapeWikiText("|x"))
	require.Equal(t, "plain", st.escapeWikiText("plain"))
	st.popWTEHandler()
}

func TestEscape_QuoteContext(t *testing.T) {
	st := newTestState("")
	st.onStartOfLine = false
	st.pushWTEHandler(func(s *state, text string) bool {
		return len(text) > 0 && (text[0] == '\'' || text[len(text)-1] == '\'')
	})
	require.Equal(t, "<nowiki>'x</nowiki>", st.escapeWikiText("'x"))
	st.popWTEHandler()
}

func TestEscape_LineAnalysisBracketPair(t *testing.T) {
	st := newTestState("")
	st.onStartOfLine = false
	st.currLine = lineState{
		text:      "[[Foo" + "]] rest",
		numPieces: 2,
	}
	// The piece carrying the closing brackets completes a link pair
	// assembled across pieces.
	require.Equal(t, "<nowiki>]] rest</nowiki>", st.escapeWikiText("]] rest"))
}

func TestEscape_LineAnalysisHeadingPair(t *testing.T) {
	st := newTestState("")
	st.onStartOfLine = false
	st.currLine = lineState{
		text:      "= a = b =",
		numPieces: 2,
	}
	require.Equal(t, "<nowiki>= b =</nowiki>", st.escapeWikiText("= b ="))
}

func TestEscapeEntities(t *testing.T) {
	require.Equal(t, "AT&T", escapeEntities("AT&T"))
	require.Equal(t, "&amp;copy; 2012", escapeEntities("&copy; 2012"))
	require.Equal(t, "&amp;#160;", escapeEntities("&#160;"))
	require.Equal(t, "a & b", escapeEntities("a & b"))
}
