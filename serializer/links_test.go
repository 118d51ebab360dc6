package serializer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWikiLink_Simple(t *testing.T) {
	out := serializeHTML(t, `<p><a rel="mw:WikiLink" href="./Foo">Foo</a></p>`)
	require.Equal(t, "[[Foo]]\n", out)
}

func TestWikiLink_SimpleWithUnderscores(t *testing.T) {
	out := serializeHTML(t, `<p><a rel="mw:WikiLink" href="./Foo_bar">Foo bar</a></p>`)
	require.Equal(t, "[[Foo_bar]]\n", out)
}

func TestWikiLink_Piped(t *testing.T) {
	out := serializeHTML(t, `<p><a rel="mw:WikiLink" href="./Foo">display</a></p>`)
	require.Equal(t, "[[Foo|display]]\n", out)
}

func TestWikiLink_PipedStxNeverSimple(t *testing.T) {
	out := serializeHTML(t,
		`<p><a rel="mw:WikiLink" href="./Foo" data-parsoid='{"stx":"piped"}'>Foo</a></p>`)
	require.Equal(t, "[[Foo|Foo]]\n", out)
}

func TestWikiLink_PipeTrick(t *testing.T) {
	out := serializeHTML(t,
		`<p><a rel="mw:WikiLink" href="./Foo (bar)" data-parsoid='{"pipetrick":true}'>Foo</a></p>`)
	require.Equal(t, "[[Foo (bar)|]]\n", out)
}

func TestWikiLink_PipeTrickNamespace(t *testing.T) {
	out := serializeHTML(t,
		`<p><a rel="mw:WikiLink" href="./Help:Foo" data-parsoid='{"pipetrick":true}'>Foo</a></p>`)
	require.Equal(t, "[[Help:Foo|]]\n", out)
}

func TestWikiLink_EmptyContentGuard(t *testing.T) {
	out := serializeHTML(t, `<p><a rel="mw:WikiLink" href="./Foo"></a></p>`)
	require.Equal(t, "[[Foo|<nowiki/>]]\n", out)
}

func TestWikiLink_PrefixAndTail(t *testing.T) {
	out := serializeHTML(t,
		`<p><a rel="mw:WikiLink" href="./Foo" data-parsoid='{"prefix":"x","tail":"s"}'>xFoos</a></p>`)
	require.Equal(t, "x[[Foo]]s\n", out)
}

func TestWikiLink_ContentEscaped(t *testing.T) {
	out := serializeHTML(t, `<p><a rel="mw:WikiLink" href="./Foo">a]b</a></p>`)
	require.True(t, strings.Contains(out, "<nowiki>a]b</nowiki>"), "got %q", out)
}

func TestCategory_NoSortKey(t *testing.T) {
	out := serializeHTML(t, `<body><link rel="mw:WikiLink/Category" href="./Category:X">`)
	require.Equal(t, "[[Category:X]]", out)
}

func TestExtLink_WithContent(t *testing.T) {
	out := serializeHTML(t,
		`<p><a rel="mw:ExtLink" href="http://example.com">example</a></p>`)
	require.Equal(t, "[http://example.com example]\n", out)
}

func TestExtLink_Numbered(t *testing.T) {
	out := serializeHTML(t,
		`<p><a rel="mw:ExtLink/Numbered" href="http://example.com"></a></p>`)
	require.Equal(t, "[http://example.com]\n", out)
}

func TestExtLink_BareURL(t *testing.T) {
	out := serializeHTML(t,
		`<p><a rel="mw:ExtLink/URL" href="http://example.com">http://example.com</a></p>`)
	require.Equal(t, "http://example.com\n", out)
}

func TestExtLink_MagicISBN(t *testing.T) {
	out := serializeHTML(t,
		`<p><a rel="mw:ExtLink/ISBN" href="./Special:BookSources/123456789X">ISBN 123456789X</a></p>`)
	require.Equal(t, "ISBN 123456789X\n", out)
}

func TestExtLink_ComplexContentFallsBackToHTML(t *testing.T) {
	out := serializeHTML(t,
		`<p><a rel="mw:ExtLink" href="http://example.com"><b>x</b></a></p>`)
	require.Equal(t, "<a rel=\"mw:ExtLink\" href=\"http://example.com\">'''x'''</a>\n", out)
}

func TestLink_UnknownRelIsHTML(t *testing.T) {
	out := serializeHTML(t, `<p><a href="http://example.com">x</a></p>`)
	require.Equal(t, "<a href=\"http://example.com\">x</a>\n", out)
}

func TestSplitLinkContentString(t *testing.T) {
	prefix, body, tail := splitLinkContentString("xFoos", &DataParsoid{Prefix: "x", Tail: "s"})
	require.Equal(t, "x", prefix)
	require.Equal(t, "Foo", body)
	require.Equal(t, "s", tail)

	prefix, body, tail = splitLinkContentString("Foo", &DataParsoid{Tail: "bar"})
	require.Equal(t, "", prefix)
	require.Equal(t, "Foo", body)
	require.Equal(t, "", tail)
}

func TestStripPipeTrickChars(t *testing.T) {
	require.Equal(t, "Foo", stripPipeTrickChars("Foo (bar)"))
	require.Equal(t, "Foo", stripPipeTrickChars("Help:Foo"))
	require.Equal(t, "Foo", stripPipeTrickChars("Foo, Country"))
	require.Equal(t, "Foo", stripPipeTrickChars("Foo"))
}
