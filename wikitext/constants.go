package wikitext

import (
	"regexp"
	"strings"

	"mvdan.cc/xurls/v2"
)

// allowedHTMLTags is the set of HTML tags MediaWiki accepts verbatim in
// wikitext. Tags outside this set survive a re-parse as literal text, so
// the escape engine can ignore them.
var allowedHTMLTags = map[string]bool{
	"abbr": true, "b": true, "bdi": true, "bdo": true, "big": true,
	"blockquote": true, "br": true, "caption": true, "center": true,
	"cite": true, "code": true, "data": true, "dd": true, "del": true,
	"dfn": true, "div": true, "dl": true, "dt": true, "em": true,
	"font": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "hr": true, "i": true, "ins": true,
	"kbd": true, "li": true, "mark": true, "ol": true, "p": true,
	"pre": true, "rb": true, "rp": true, "rt": true, "rtc": true,
	"ruby": true, "s": true, "samp": true, "small": true, "span": true,
	"strike": true, "strong": true, "sub": true, "sup": true,
	"table": true, "td": true, "th": true, "time": true, "tr": true,
	"tt": true, "u": true, "ul": true, "var": true, "wbr": true,
	"gallery": true, "includeonly": true, "noinclude": true,
	"nowiki": true, "onlyinclude": true,
}

// voidElements have no closing tag in HTML serialization.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "command": true,
	"embed": true, "hr": true, "img": true, "input": true, "keygen": true,
	"link": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

// blockElements delimit logical lines in wikitext output. The walker uses
// this set to scope line accumulation and the preprocessor uses it to drop
// syntactic newlines around block boundaries.
var blockElements = map[string]bool{
	"body": true, "blockquote": true, "caption": true, "dd": true,
	"div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "form": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"hr": true, "li": true, "ol": true, "p": true, "pre": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// noEndTags lists wikitext-level tokens whose end tag carries no meaning
// on re-parse; an end token for one of these never forces escaping.
var noEndTags = map[string]bool{
	"br": true, "hr": true, "meta": true, "link": true, "img": true,
	"wbr": true, "extlink": true,
}

// SimpleImageOptions maps a localized image option word (keyed as
// "img_"+word) to the option kind it selects. The figure handler emits
// the bare word for these.
var SimpleImageOptions = map[string]string{
	"img_thumbnail": "format",
	"img_thumb":     "format",
	"img_framed":    "format",
	"img_frame":     "format",
	"img_frameless": "format",
	"img_border":    "border",
	"img_left":      "halign",
	"img_right":     "halign",
	"img_center":    "halign",
	"img_none":      "halign",
	"img_baseline":  "valign",
	"img_sub":       "valign",
	"img_super":     "valign",
	"img_top":       "valign",
	"img_text_top":  "valign",
	"img_middle":    "valign",
	"img_bottom":    "valign",
	"img_text_bottom": "valign",
}

// PrefixImageOptions maps an option kind to its localized magic word
// pattern; $1 is replaced by the option value.
var PrefixImageOptions = map[string]string{
	"link":    "link=$1",
	"alt":     "alt=$1",
	"page":    "page=$1",
	"lang":    "lang=$1",
	"upright": "upright=$1",
	"width":   "$1px",
}

// PagePropMagicWords maps a mw:PageProp/<name> suffix to the canonical
// double-underscore magic word.
var PagePropMagicWords = map[string]string{
	"notoc":            "__NOTOC__",
	"forcetoc":         "__FORCETOC__",
	"toc":              "__TOC__",
	"noeditsection":    "__NOEDITSECTION__",
	"newsectionlink":   "__NEWSECTIONLINK__",
	"nonewsectionlink": "__NONEWSECTIONLINK__",
	"nogallery":        "__NOGALLERY__",
	"hiddencat":        "__HIDDENCAT__",
	"index":            "__INDEX__",
	"noindex":          "__NOINDEX__",
	"staticredirect":   "__STATICREDIRECT__",
	"notitleconvert":   "__NOTITLECONVERT__",
	"nocontentconvert": "__NOCONTENTCONVERT__",
}

// urlSchemes are the protocols MediaWiki linkifies.
var urlSchemes = []string{
	"http://", "https://", "ftp://", "ftps://", "irc://", "ircs://",
	"news://", "gopher://", "mailto:",
}

var strictURL = xurls.Strict()

// IsAllowedHTMLTag reports whether name is an HTML tag wikitext accepts.
func IsAllowedHTMLTag(name string) bool {
	return allowedHTMLTags[strings.ToLower(name)]
}

// IsVoidElement reports whether name is an HTML void element.
func IsVoidElement(name string) bool {
	return voidElements[strings.ToLower(name)]
}

// IsBlockElement reports whether name starts a logical line.
func IsBlockElement(name string) bool {
	return blockElements[strings.ToLower(name)]
}

// HasNoEndTag reports whether an end token for name is inert on re-parse.
func HasNoEndTag(name string) bool {
	return noEndTags[name]
}

// HasURLScheme reports whether s begins with a linkifiable protocol.
func HasURLScheme(s string) bool {
	ls := strings.ToLower(s)
	for _, scheme := range urlSchemes {
		if strings.HasPrefix(ls, scheme) {
			return true
		}
	}
	return false
}

// IsValidURL reports whether s is, in its entirety, a URL that wikitext
// would turn into an external link.
func IsValidURL(s string) bool {
	if !HasURLScheme(s) {
		return false
	}
	loc := strictURL.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}

// FindURLs returns the byte ranges of every linkifiable URL in s.
func FindURLs(s string) [][]int {
	var out [][]int
	for _, loc := range strictURL.FindAllStringIndex(s, -1) {
		if HasURLScheme(s[loc[0]:loc[1]]) {
			out = append(out, loc)
		}
	}
	return out
}

var headingLineRe = regexp.MustCompile(`^(={1,6})[^\n]*=[ \t]*$`)

// looksLikeHeading reports whether a full line would re-parse as a heading.
func looksLikeHeading(line string) bool {
	trimmed := strings.TrimRight(line, " \t")
	if len(trimmed) < 2 || trimmed[0] != '=' {
		return false
	}
	return headingLineRe.MatchString(trimmed)
}
