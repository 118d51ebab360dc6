package serializer

import (
	"strings"

	"github.com/clems4ever/wikitext-serializer/wikitext"
)

// The default HTML serializer handles elements with no wikitext handler
// and elements whose source syntax was literal HTML.

var attrValueEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// serializeHTMLTag emits an opening (or self-closing) HTML tag.
func (st *state) serializeHTMLTag(tok tagToken) string {
	dp := tok.dataParsoid()
	if dp != nil && dp.AutoInsertedStart {
		// Auto-inserted tags were never in the source; they produce no
		// output even when self-closing.
		return ""
	}
	name := tok.tagName()
	if dp != nil && dp.SrcTagName != "" {
		name = dp.SrcTagName
	}
	closing := ""
	if _, self := tok.(SelfClosing); self || (dp != nil && dp.SelfClose) {
		if !wikitext.IsVoidElement(name) || (dp != nil && dp.SelfClose) {
			closing = " /"
		}
	}
	attrs := st.serializeAttributes(tok)
	if attrs != "" {
		attrs = " " + attrs
	}
	return "<" + name + attrs + closing + ">"
}

// serializeHTMLEndTag emits a closing HTML tag.
func (st *state) serializeHTMLEndTag(tok tagToken) string {
	dp := tok.dataParsoid()
	if dp != nil && (dp.AutoInsertedEnd || dp.NoClose || dp.SelfClose) {
		return ""
	}
	name := tok.tagName()
	if dp != nil && dp.SrcTagName != "" {
		name = dp.SrcTagName
	}
	if wikitext.IsVoidElement(name) {
		return ""
	}
	return "</" + name + ">"
}

// internalAttr reports whether an attribute is serializer plumbing that
// must not round-trip into output.
func internalAttr(key, value string) bool {
	switch key {
	case "data-parsoid", "data-sep":
		return true
	case "typeof", "property":
		return strings.HasPrefix(value, "mw:")
	case "about":
		return strings.HasPrefix(value, "#mw")
	}
	return false
}

// serializeAttributes renders the attributes of a tag in source order,
// substituting template-generated sources recorded in tplAttrs.
func (st *state) serializeAttributes(tok tagToken) string {
	var shadow *tplAttrSources
	if about, ok := getAttr(tok.attrs(), "about"); ok {
		shadow = st.tplAttrs[about]
	}

	var parts []string
	for _, a := range tok.attrs() {
		if internalAttr(a.Key, a.Value) {
			continue
		}
		if shadow != nil {
			if src, ok := shadow.kvs[a.Key]; ok {
				parts = append(parts, src)
				continue
			}
			key, value := a.Key, a.Value
			if src, ok := shadow.ks[a.Key]; ok {
				key = src
			}
			if src, ok := shadow.vs[a.Key]; ok {
				value = src
			}
			parts = append(parts, key+`="`+attrValueEscaper.Replace(value)+`"`)
			continue
		}
		if a.Value == "" {
			parts = append(parts, a.Key)
			continue
		}
		parts = append(parts, a.Key+`="`+attrValueEscaper.Replace(a.Value)+`"`)
	}
	return strings.Join(parts, " ")
}

// shadowedAttrSource returns the recorded template source for one
// attribute value, when any.
func (st *state) shadowedAttrSource(tok tagToken, key string) (string, bool) {
	about, ok := getAttr(tok.attrs(), "about")
	if !ok {
		return "", false
	}
	shadow := st.tplAttrs[about]
	if shadow == nil {
		return "", false
	}
	src, ok := shadow.vs[key]
	return src, ok
}
