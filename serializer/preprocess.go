package serializer

import (
	"strings"

	"golang.org/x/net/html"
)

// The preprocessor runs once before the walk: it decodes round-trip
// metadata, collects template-generated attribute sources, coalesces
// text nodes, and normalizes inter-element whitespace.

var objectAttrProps = map[string]string{
	"mw:objectAttr":    "kvs",
	"mw:objectAttrKey": "ks",
	"mw:objectAttrVal": "vs",
}

func (st *state) preprocess(root *html.Node) error {
	if err := st.preprocessNode(root); err != nil {
		return err
	}
	return nil
}

func (st *state) preprocessNode(n *html.Node) error {
	if n.Type == html.ElementNode {
		dp, err := parseDataParsoid(n)
		if err != nil {
			return err
		}
		st.dp[n] = dp
	}

	st.coalesceText(n)

	if n.Type == html.ElementNode || n.Type == html.DocumentNode {
		if st.src != "" {
			st.extractSeparators(n)
		} else {
			st.normalizeSourceless(n)
		}
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isObjectAttrMeta(c) {
			dp, err := parseDataParsoid(c)
			if err != nil {
				return err
			}
			st.collectTemplateAttr(c, dp)
			n.RemoveChild(c)
			c = next
			continue
		}
		if err := st.preprocessNode(c); err != nil {
			return err
		}
		c = next
	}
	return nil
}

func isObjectAttrMeta(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "meta" {
		return false
	}
	property, ok := nodeAttr(n, "property")
	if !ok {
		return false
	}
	prop, _, found := strings.Cut(property, "#")
	if !found {
		return false
	}
	_, ok = objectAttrProps[prop]
	return ok
}

// collectTemplateAttr records the source of one template-generated
// attribute from a mw:objectAttr* meta.
func (st *state) collectTemplateAttr(n *html.Node, dp *DataParsoid) {
	property, ok := nodeAttr(n, "property")
	if !ok {
		return
	}
	prop, attr, found := strings.Cut(property, "#")
	if !found {
		return
	}
	bucket, ok := objectAttrProps[prop]
	if !ok {
		return
	}
	about, ok := nodeAttr(n, "about")
	if !ok || about == "" {
		return
	}

	sources := st.tplAttrs[about]
	if sources == nil {
		sources = &tplAttrSources{
			kvs: make(map[string]string),
			ks:  make(map[string]string),
			vs:  make(map[string]string),
		}
		st.tplAttrs[about] = sources
	}
	switch bucket {
	case "kvs":
		sources.kvs[attr] = dp.Src
	case "ks":
		sources.ks[attr] = dp.Src
	case "vs":
		sources.vs[attr] = dp.Src
	}
}

// coalesceText merges adjacent text children of n and drops empty ones.
func (st *state) coalesceText(n *html.Node) {
	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == html.TextNode {
			if c.Data == "" {
				n.RemoveChild(c)
			} else if next != nil && next.Type == html.TextNode {
				next.Data = c.Data + next.Data
				n.RemoveChild(c)
			}
		}
		c = next
	}
}

// extractSeparators replaces whitespace/comment runs between element
// children with a single mw:Separator meta carrying the concatenated
// source text. Diff markers float leftward past whitespace so they stay
// attached to the preceding content element.
func (st *state) extractSeparators(n *html.Node) {
	if n.Type == html.ElementNode {
		if n.Data == "pre" {
			return
		}
		if typeOf, _ := nodeAttr(n, "typeof"); hasTypeOf(typeOf, "mw:Entity") {
			return
		}
	}
	if firstElementChild(n) == nil {
		return
	}

	st.floatDiffMarkers(n)

	var run []*html.Node
	var seenElement bool
	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		switch {
		case isSeparatorCandidate(c):
			if seenElement {
				run = append(run, c)
			}
		case c.Type == html.ElementNode:
			if seenElement {
				st.collapseRun(n, run, c)
			}
			run = nil
			seenElement = true
		default:
			run = nil
		}
		c = next
	}
}

// collapseRun replaces run (all siblings preceding before) with one
// separator meta.
func (st *state) collapseRun(parent *html.Node, run []*html.Node, before *html.Node) {
	if len(run) == 0 {
		return
	}
	var sb strings.Builder
	for _, r := range run {
		if r.Type == html.CommentNode {
			sb.WriteString("<!--" + r.Data + "-->")
		} else {
			sb.WriteString(r.Data)
		}
	}
	meta := &html.Node{
		Type: html.ElementNode,
		Data: "meta",
		Attr: []html.Attribute{
			{Key: "typeof", Val: "mw:Separator"},
			{Key: "data-sep", Val: sb.String()},
		},
	}
	for _, r := range run {
		parent.RemoveChild(r)
	}
	parent.InsertBefore(meta, before)
	st.dp[meta] = &DataParsoid{}
}

// floatDiffMarkers moves mw:DiffMarker metas leftward past whitespace
// runs so separators collapse cleanly.
func (st *state) floatDiffMarkers(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && c.Data == "meta" {
			if typeOf, _ := nodeAttr(c, "typeof"); hasTypeOf(typeOf, "mw:DiffMarker") {
				target := c.PrevSibling
				for target != nil && isSeparatorCandidate(target) {
					target = target.PrevSibling
				}
				if target != nil && target.NextSibling != c {
					n.RemoveChild(c)
					n.InsertBefore(c, target.NextSibling)
				}
			}
		}
		c = next
	}
}

func isSeparatorCandidate(c *html.Node) bool {
	switch c.Type {
	case html.CommentNode:
		return true
	case html.TextNode:
		return strings.TrimSpace(c.Data) == ""
	}
	return false
}

// normalizeSourceless strips the syntactic newlines around block
// elements; the serializer regenerates them.
func (st *state) normalizeSourceless(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		if next := c.NextSibling; next != nil && isBlockNode(next) {
			c.Data = strings.TrimRight(c.Data, "\n")
		}
		if prev := c.PrevSibling; prev != nil && isBlockNode(prev) {
			c.Data = strings.TrimLeft(c.Data, "\n")
		}
	}
	// Drop text nodes the trimming emptied.
	st.coalesceText(n)
}
