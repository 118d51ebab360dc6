package serializer

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/clems4ever/wikitext-serializer/wikitext"
)

// The walker is a single recursive pre-order traversal. Elements turn
// into start/end token pairs unless a node-level handler or a template
// skip takes over; separators between element children are spliced from
// the original source when the ranges allow it.

func isBlockNode(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && wikitext.IsBlockElement(n.Data)
}

func (st *state) serializeNode(n *html.Node) {
	switch n.Type {
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			st.serializeNode(c)
		}
	case html.ElementNode:
		st.serializeElement(n)
	case html.TextNode:
		st.gatherLine(n)
		st.serializeToken(Text{Value: n.Data})
	case html.CommentNode:
		st.serializeToken(Comment{Value: n.Data})
	}
}

func (st *state) serializeElement(n *html.Node) {
	dp := st.dpFor(n)
	typeOf, _ := nodeAttr(n, "typeof")

	// Template-generated content is skipped wholesale; the recorded
	// template source stands in for the entire subtree.
	if st.activeTemplateId == "" && isTemplateMarker(typeOf) {
		about, _ := nodeAttr(n, "about")
		st.activeTemplateId = about
		st.serializeToken(SelfClosing{
			Name:  "meta",
			Attrs: []Attribute{{Key: "typeof", Value: "mw:TemplateSource"}},
			DP:    dp,
			Node:  n,
		})
		return
	}

	// Separator metas carry preprocessed inter-element whitespace.
	if n.Data == "meta" && hasTypeOf(typeOf, "mw:Separator") {
		if sep, ok := nodeAttr(n, "data-sep"); ok {
			st.emitSourceSeparator(sep)
		}
		return
	}
	if hasTypeOf(typeOf, "mw:DiffMarker") && n.Data == "meta" {
		return
	}

	if h := lookupTagHandler(n.Data); h != nil && h.node != nil {
		h.node(st, n)
		return
	}

	if wikitext.IsVoidElement(n.Data) && n.FirstChild == nil {
		st.serializeToken(SelfClosing{Name: n.Data, Attrs: tokenAttrs(n), DP: dp, Node: n})
		return
	}

	st.serializeToken(StartTag{Name: n.Data, Attrs: tokenAttrs(n), DP: dp, Node: n})

	if n.Data == "pre" && dp.Stx == "html" {
		st.patchHTMLPre(n, dp)
	}

	st.serializeChildren(n)

	st.serializeToken(EndTag{Name: n.Data, Attrs: tokenAttrs(n), DP: dp, Node: n})
}

// serializeChildren walks the children of n, interposing separators at
// element boundaries.
func (st *state) serializeChildren(n *html.Node) {
	firstElem := firstElementChild(n)
	lastElem := lastElementChild(n)
	var prevElem *html.Node

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		// Within an active template scope, siblings sharing the about
		// id belong to the already-emitted template source.
		if st.activeTemplateId != "" {
			if about, _ := nodeAttr(c, "about"); c.Type == html.ElementNode && about == st.activeTemplateId {
				continue
			}
			st.activeTemplateId = ""
		}

		if c.Type == html.ElementNode && !isSeparatorMeta(c) {
			if c == firstElem && c == n.FirstChild {
				st.emitSeparator(n, c, sepStart)
			} else if prevElem != nil && c.PrevSibling == prevElem {
				st.emitSeparator(prevElem, c, sepInterElement)
			}
		}

		st.serializeNode(c)

		if c.Type == html.ElementNode && !isSeparatorMeta(c) {
			prevElem = c
			st.patchLinkTail(c)
			if c == lastElem && c == n.LastChild {
				st.emitSeparator(c, n, sepEnd)
			}
		}
	}
	st.activeTemplateId = ""
}

func isTemplateMarker(typeOf string) bool {
	for _, t := range strings.Fields(typeOf) {
		if strings.HasPrefix(t, "mw:Object/") || t == "mw:Object" {
			return true
		}
	}
	return false
}

func isSeparatorMeta(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "meta" {
		return false
	}
	typeOf, _ := nodeAttr(n, "typeof")
	return hasTypeOf(typeOf, "mw:Separator") || hasTypeOf(typeOf, "mw:DiffMarker")
}

// patchHTMLPre restores the newline wikitext strips right after an
// opening <pre> tag.
func (st *state) patchHTMLPre(n *html.Node, dp *DataParsoid) {
	if dp.StrippedNL {
		st.emit("\n")
	}
	if fc := n.FirstChild; fc != nil && fc.Type == html.TextNode && strings.HasPrefix(fc.Data, "\n") {
		st.emit("\n")
	}
}

// patchLinkTail guards a native wikilink against absorbing following
// letters into its link tail.
func (st *state) patchLinkTail(c *html.Node) {
	if c.Data != "a" {
		return
	}
	rel, _ := nodeAttr(c, "rel")
	if !strings.HasPrefix(rel, "mw:WikiLink") {
		return
	}
	dp := st.dpFor(c)
	if dp.Stx == "html" || dp.Tail != "" {
		return
	}
	next := c.NextSibling
	if next == nil || next.Type != html.TextNode || next.Data == "" {
		return
	}
	if ch := next.Data[0]; ch >= 'a' && ch <= 'z' {
		st.emit("<nowiki/>")
	}
}

// gatherLine fills the line accumulator with the complete inline text of
// the enclosing block element, for the multi-piece line analysis.
func (st *state) gatherLine(c *html.Node) {
	block := c.Parent
	for block != nil && !isBlockNode(block) {
		block = block.Parent
	}
	if block == nil || (st.currLine.scope == block && st.currLine.numPieces > 0) {
		return
	}
	var texts []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			texts = append(texts, n.Data)
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			collect(ch)
		}
	}
	collect(block)
	st.currLine = lineState{
		scope:     block,
		text:      strings.Join(texts, ""),
		numPieces: len(texts),
	}
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !isSeparatorMeta(c) {
			return c
		}
	}
	return nil
}

func lastElementChild(n *html.Node) *html.Node {
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode && !isSeparatorMeta(c) {
			return c
		}
	}
	return nil
}
