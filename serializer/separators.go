package serializer

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Separator kinds select which DSR offsets delimit the candidate span.
type sepKind int

const (
	sepStart sepKind = iota
	sepInterElement
	sepEnd
)

// sepValidRe accepts whitespace and comments only; anything else means
// the span contains content and must not be spliced as a separator.
var sepValidRe = regexp.MustCompile(`^(?:\s|<!--(?:[^-]|-[^-]|--[^>])*-->)*$`)

// emitSeparator reconstructs the whitespace between two adjacent nodes
// verbatim from the original wikitext. On any missing or implausible
// offset it returns silently and the handler-driven newlines apply.
func (st *state) emitSeparator(n1, n2 *html.Node, kind sepKind) {
	if st.src == "" {
		return
	}
	dp1 := st.dpFor(n1)
	dp2 := st.dpFor(n2)
	if dp1.DSR == nil || dp2.DSR == nil {
		return
	}
	d1, d2 := *dp1.DSR, *dp2.DSR

	var i1, i2 int
	switch kind {
	case sepStart:
		if d1[0] < 0 || d1[2] < 0 || d2[0] < 0 {
			return
		}
		i1, i2 = d1[0]+d1[2], d2[0]
	case sepInterElement:
		if d1[1] < 0 || d2[0] < 0 {
			return
		}
		i1, i2 = d1[1], d2[0]
	case sepEnd:
		if d1[1] < 0 || d2[1] < 0 || d2[3] < 0 {
			return
		}
		i1, i2 = d1[1], d2[1]-d2[3]
	}

	if i1 < 0 || i2 < i1 || i2 > len(st.src) {
		return
	}
	sep := st.src[i1:i2]
	if sep == "" {
		return
	}
	if !sepValidRe.MatchString(sep) {
		st.tracef("wts:sep", "rejecting separator candidate %q", sep)
		return
	}
	st.tracef("wts:sep", "spliced separator %q", sep)
	st.emitSourceSeparator(sep)
}

// emitSourceSeparator commits a source-derived separator, replacing any
// buffered handler newlines for the same boundary.
func (st *state) emitSourceSeparator(sep string) {
	if sep == "" {
		return
	}
	st.discardSeparator()
	st.pushChunk(sep)
	st.separatorEmittedFromSrc = true
	if strings.Contains(sep, "\n") {
		// A separator ending in spaces or a comment still leaves the
		// next emission in start-of-line position for wikitext purposes
		// only when a newline was crossed.
		st.onStartOfLine = true
	}
}
