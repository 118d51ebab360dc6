package serializer

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/clems4ever/wikitext-serializer/wikitext"
)

// serializeFigure reconstructs a wikitext file link from a figure (or a
// bare img): [[resource|opt|...|caption]]. Options come from the
// recorded optList, disambiguated against the image option tables.
func serializeFigure(st *state, n *html.Node) {
	img := findImg(n)
	if img == nil {
		st.logger.Warn().Msg("figure with no img; emitting nothing")
		st.emit("")
		return
	}

	resource, ok := nodeAttr(img, "resource")
	if !ok {
		resource, _ = nodeAttr(img, "src")
	}
	resource = hrefToTarget(resource)

	dp := st.dpFor(n)
	if n.Data == "img" {
		dp = st.dpFor(img)
	}

	var bits []string
	var width, height string
	sizePending := false
	flushSize := func() {
		if !sizePending {
			return
		}
		size := width
		if height != "" {
			size += "x" + height
		}
		bits = append(bits, strings.Replace(wikitext.PrefixImageOptions["width"], "$1", size, 1))
		width, height = "", ""
		sizePending = false
	}

	for _, opt := range dp.OptList {
		switch opt.K {
		case "width":
			if opt.V != nil {
				width = *opt.V
			}
			sizePending = true
			continue
		case "height":
			if opt.V != nil {
				height = *opt.V
			}
			sizePending = true
			continue
		}

		// Size is flushed one option after the last size key so both
		// dimensions are observed first.
		flushSize()

		switch {
		case opt.K == "caption":
			if opt.V == nil {
				if caption := findFigcaption(n); caption != nil {
					bits = append(bits, st.captureChildren(caption, extLinkEscape))
				}
			} else {
				bits = append(bits, *opt.V)
			}

		case opt.V != nil && wikitext.SimpleImageOptions["img_"+*opt.V] == opt.K:
			bits = append(bits, *opt.V)

		case wikitext.PrefixImageOptions[opt.K] != "":
			v := ""
			if opt.V != nil {
				v = *opt.V
			}
			bits = append(bits, strings.Replace(wikitext.PrefixImageOptions[opt.K], "$1", v, 1))

		default:
			st.logger.Debug().Str("option", opt.K).Msg("unrecognized image option dropped")
		}
	}
	flushSize()

	var sb strings.Builder
	sb.WriteString("[[")
	sb.WriteString(resource)
	for _, b := range bits {
		sb.WriteString("|")
		sb.WriteString(b)
	}
	sb.WriteString("]]")
	st.emit(sb.String())
}

// findImg locates the first img descendant of a figure.
func findImg(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "img" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if img := findImg(c); img != nil {
			return img
		}
	}
	return nil
}

// findFigcaption locates the figcaption child of a figure.
func findFigcaption(n *html.Node) *html.Node {
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode && c.Data == "figcaption" {
			return c
		}
	}
	return nil
}
