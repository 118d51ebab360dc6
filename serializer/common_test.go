package serializer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// parseBody parses an HTML fragment (or full document) and returns the
// body element.
func parseBody(t *testing.T, input string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(input))
	require.NoError(t, err)
	body := findBodyNode(doc)
	require.NotNil(t, body, "no body element in parsed input")
	return body
}

func findBodyNode(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBodyNode(c); body != nil {
			return body
		}
	}
	return nil
}

// serializeHTML runs the serializer over an HTML fragment without
// original source.
func serializeHTML(t *testing.T, input string) string {
	t.Helper()
	return serializeHTMLWithSrc(t, input, "")
}

// serializeHTMLWithSrc runs the serializer with original wikitext source
// available for separator splicing.
func serializeHTMLWithSrc(t *testing.T, input, src string) string {
	t.Helper()
	body := parseBody(t, input)
	out, err := SerializeToString(body, Options{
		Env: &Env{Page: Page{Name: "Test", Src: src}},
	})
	require.NoError(t, err)
	return out
}

// newTestState builds a bare state for unit tests of internal machinery.
func newTestState(src string) *state {
	st := newState(Options{Env: &Env{Page: Page{Src: src}}}, func(string, string) {})
	return st
}
