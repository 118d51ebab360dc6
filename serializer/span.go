package serializer

import (
	"golang.org/x/net/html"
)

// serializeSpan handles generated-content span markers. Anything without
// a recognized typeof serializes as raw HTML.
func serializeSpan(st *state, n *html.Node) {
	typeOf, _ := nodeAttr(n, "typeof")
	dp := st.dpFor(n)

	switch {
	case hasTypeOf(typeOf, "mw:Nowiki"):
		st.emit("<nowiki>")
		st.inNoWiki = true
		st.serializeChildren(n)
		st.inNoWiki = false
		st.emit("</nowiki>")

	case hasTypeOf(typeOf, "mw:Entity"):
		// The entity's original spelling is recorded; the rendered
		// character in the DOM is its expansion.
		switch {
		case dp.Src != "":
			st.emit(dp.Src)
		case dp.SrcContent != "":
			st.emit(dp.SrcContent)
		default:
			st.emit(escapeEntities(nodeText(n)))
		}

	case hasTypeOf(typeOf, "mw:DiffMarker"):
		st.serializeChildren(n)

	default:
		tok := StartTag{Name: n.Data, Attrs: tokenAttrs(n), DP: dp, Node: n}
		st.serializeAsHTML(n, tok)
	}
}
