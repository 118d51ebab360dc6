package serializer

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/clems4ever/wikitext-serializer/wikitext"
)

// result is what one handler invocation produces. Handlers are immutable;
// per-token flag adjustments happen on the result, never on the handler.
type result struct {
	text string
	// sep is separator material (newlines) routed through the one-slot
	// buffer so a source splice can replace it.
	sep        string
	startsLine bool
	endsLine   bool
	emitsNL    bool
	singleLine int
	ignore     bool
	solTrans   bool
}

// sideHandler serializes one side (start or end) of an element.
type sideHandler struct {
	startsLine bool
	endsLine   bool
	emitsNL    bool
	singleLine int
	ignore     bool
	solTrans   bool
	handle     func(st *state, tok tagToken, res *result)
}

func (sh *sideHandler) seed() result {
	return result{
		startsLine: sh.startsLine,
		endsLine:   sh.endsLine,
		emitsNL:    sh.emitsNL,
		singleLine: sh.singleLine,
		ignore:     sh.ignore,
		solTrans:   sh.solTrans,
	}
}

// nodeHandler consumes an entire DOM subtree, bypassing token emission.
type nodeHandler func(st *state, n *html.Node)

// tagHandler is the per-element entry of the registry.
type tagHandler struct {
	start *sideHandler
	end   *sideHandler
	node  nodeHandler
	// wtEscape builds the context predicate pushed on the escape stack
	// for the element's content.
	wtEscape func(tok tagToken) escapePred
	// sepNls marks handlers whose newlines are pure separators.
	sepNls bool
}

var tagHandlers map[string]*tagHandler

func init() {
	tagHandlers = map[string]*tagHandler{
		"body": {
			start: &sideHandler{},
			end:   &sideHandler{},
		},
		"ul": listHandler("*"),
		"ol": listHandler("#"),
		"dl": listHandler(""),
		"li": listItemHandler("li"),
		"dt": listItemHandler("dt"),
		"dd": listItemHandler("dd"),

		"h1": headingHandler(1),
		"h2": headingHandler(2),
		"h3": headingHandler(3),
		"h4": headingHandler(4),
		"h5": headingHandler(5),
		"h6": headingHandler(6),

		"b": quoteHandler("'''"),
		"i": quoteHandler("''"),

		"p":   pHandler(),
		"pre": preHandler(),

		"table":   tableHandler(),
		"tbody":   {start: &sideHandler{ignore: true}, end: &sideHandler{ignore: true}},
		"tr":      trHandler(),
		"td":      cellHandler("td"),
		"th":      cellHandler("th"),
		"caption": captionHandler(),

		"hr": {
			start: &sideHandler{startsLine: true, handle: func(st *state, tok tagToken, res *result) {
				dp := tok.dataParsoid()
				extra := 0
				if dp != nil {
					extra = dp.ExtraDashes
				}
				res.text = "----" + strings.Repeat("-", extra)
				res.endsLine = dp == nil || dp.LineContent == ""
			}},
		},
		"br": {
			start: &sideHandler{handle: func(st *state, tok tagToken, res *result) {
				res.text = "\n"
			}},
		},

		"meta": {
			start: &sideHandler{solTrans: true, handle: metaHandle},
		},

		"span":   {node: serializeSpan},
		"figure": {node: serializeFigure},
		"img":    {node: serializeFigure},
		"a":      {node: serializeLinkNode},
		"link":   {node: serializeLinkNode},
	}
}

func lookupTagHandler(name string) *tagHandler {
	return tagHandlers[name]
}

// --- headings ---

func headingHandler(level int) *tagHandler {
	delim := strings.Repeat("=", level)
	return &tagHandler{
		start: &sideHandler{startsLine: true, singleLine: 1, handle: func(st *state, tok tagToken, res *result) {
			res.text = delim
		}},
		end: &sideHandler{endsLine: true, singleLine: -1, handle: func(st *state, tok tagToken, res *result) {
			// An empty heading would collapse into one delimiter run on
			// re-parse; an empty fence keeps the two runs apart.
			if start, ok := st.prevToken.(StartTag); ok && start.Name == tok.tagName() {
				res.text = "<nowiki/>" + delim
				return
			}
			res.text = delim
		}},
		wtEscape: func(tok tagToken) escapePred {
			return func(st *state, text string) bool {
				line := strings.TrimSpace(st.currLine.text)
				return strings.HasPrefix(line, "=") && strings.HasSuffix(line, "=")
			}
		},
	}
}

// --- lists ---

func listHandler(bullet string) *tagHandler {
	return &tagHandler{
		start: &sideHandler{startsLine: true, handle: func(st *state, tok tagToken, res *result) {
			st.listStack = append(st.listStack, listFrame{listBullet: bullet})
		}},
		end: &sideHandler{endsLine: true, handle: func(st *state, tok tagToken, res *result) {
			if len(st.listStack) > 0 {
				st.listStack = st.listStack[:len(st.listStack)-1]
			}
		}},
	}
}

func listItemHandler(name string) *tagHandler {
	return &tagHandler{
		start: &sideHandler{startsLine: true, handle: func(st *state, tok tagToken, res *result) {
			dp := tok.dataParsoid()
			frame := st.currentListFrame()
			if frame == nil {
				// Stray item outside a list; serialize as HTML.
				res.text = st.serializeHTMLTag(tok)
				return
			}
			frame.itemCount++

			ch := frame.listBullet
			switch name {
			case "dt":
				ch = ";"
			case "dd":
				ch = ":"
			}
			frame.itemBullet = ch

			// dd on the same source line as its dt keeps the row syntax
			// ";term:def" and must not start a line.
			row := name == "dd" && dp != nil && dp.StxV == "row"
			if row {
				res.startsLine = false
				res.text = ch
				return
			}

			prevClose, isClose := st.prevTagToken.(EndTag)
			full := frame.itemCount == 1 ||
				st.onStartOfLine ||
				(isClose && prevClose.Name == name) ||
				(name == "dd" && isClose && prevClose.Name == "dt")
			if full {
				res.text = st.listBulletPrefix()
			} else {
				res.text = ch
			}
		}},
		end: &sideHandler{handle: func(st *state, tok tagToken, res *result) {
			if st.currentListFrame() == nil {
				res.text = st.serializeHTMLEndTag(tok)
			}
		}},
		wtEscape: func(tok tagToken) escapePred {
			return func(st *state, text string) bool {
				if len(st.listStack) == 0 {
					return false
				}
				return len(text) > 0 && strings.ContainsRune("#*:;", rune(text[0]))
			}
		},
	}
}

// --- quotes ---

var mergeableQuoteRe = regexp.MustCompile(`'''''$`)

func quoteHandler(quote string) *tagHandler {
	return &tagHandler{
		start: &sideHandler{handle: func(st *state, tok tagToken, res *result) {
			if mergeableQuoteRe.MatchString(st.lastRes) {
				res.text = "<nowiki/>" + quote
				return
			}
			res.text = quote
		}},
		end: &sideHandler{handle: func(st *state, tok tagToken, res *result) {
			res.text = quote
		}},
		wtEscape: func(tok tagToken) escapePred {
			return func(st *state, text string) bool {
				return strings.HasPrefix(text, "'") || strings.HasSuffix(text, "'")
			}
		},
	}
}

// --- paragraphs ---

// pSuppressed reports whether the p element is a structural wrapper whose
// tags must not surface: directly inside a list item or a table cell.
func pSuppressed(tok tagToken) bool {
	n := tok.node()
	if n == nil || n.Parent == nil {
		return false
	}
	switch n.Parent.Data {
	case "li", "dt", "dd", "td", "th":
		return true
	}
	return false
}

func pHandler() *tagHandler {
	return &tagHandler{
		sepNls: true,
		start: &sideHandler{handle: func(st *state, tok tagToken, res *result) {
			if pSuppressed(tok) {
				return
			}
			if st.lastRes == "" && !st.hasBufferedSeparator {
				return
			}
			// A blank line separates the paragraph from what precedes
			// it; after a br the break itself is enough. Whatever the
			// previous handler already contributed is deducted.
			nl := "\n\n"
			switch prev := st.prevTagToken.(type) {
			case EndTag:
				if prev.Name == "br" {
					nl = "\n"
				}
			case SelfClosing:
				if prev.Name == "br" {
					nl = "\n"
				}
			}
			if st.onNewline {
				nl = nl[1:]
			}
			res.sep = nl
		}},
		end: &sideHandler{handle: func(st *state, tok tagToken, res *result) {
			if pSuppressed(tok) {
				return
			}
			res.endsLine = true
		}},
	}
}

// --- pre ---

func preHandler() *tagHandler {
	return &tagHandler{
		start: &sideHandler{startsLine: true, handle: func(st *state, tok tagToken, res *result) {
			// html-syntax pre never reaches this handler; the stx check
			// routes it to the default HTML serializer.
			st.inIndentPre = true
			st.textTransform = func(s string) string {
				if s == "" {
					return s
				}
				out := strings.ReplaceAll(s, "\n", "\n ")
				if strings.HasSuffix(s, "\n") {
					out = out[:len(out)-1]
				}
				if st.onStartOfLine && !strings.HasPrefix(out, " ") {
					out = " " + out
				}
				return out
			}
		}},
		end: &sideHandler{handle: func(st *state, tok tagToken, res *result) {
			st.inIndentPre = false
			st.textTransform = nil
			res.endsLine = true
		}},
	}
}

// --- tables ---

func tableHandler() *tagHandler {
	return &tagHandler{
		start: &sideHandler{startsLine: true, handle: func(st *state, tok tagToken, res *result) {
			st.tableStack = append(st.tableStack, tableFrame{
				listStack:      st.listStack,
				singleLineMode: st.singleLineMode,
			})
			st.listStack = nil
			st.singleLineMode = 0

			dp := tok.dataParsoid()
			open := "{|"
			if dp != nil && dp.StartTagSrc != "" {
				open = dp.StartTagSrc
			}
			res.text = open + st.serializeAttributes(tok)
			res.endsLine = true
		}},
		end: &sideHandler{startsLine: true, endsLine: true, handle: func(st *state, tok tagToken, res *result) {
			if n := len(st.tableStack); n > 0 {
				frame := st.tableStack[n-1]
				st.tableStack = st.tableStack[:n-1]
				st.listStack = frame.listStack
				st.singleLineMode = frame.singleLineMode
			}
			dp := tok.dataParsoid()
			if dp != nil && dp.EndTagSrc != "" {
				res.text = dp.EndTagSrc
				return
			}
			res.text = "|}"
		}},
	}
}

func trHandler() *tagHandler {
	return &tagHandler{
		start: &sideHandler{startsLine: true, handle: func(st *state, tok tagToken, res *result) {
			dp := tok.dataParsoid()
			if dp == nil || dp.StartTagSrc == "" {
				// The first row of a table is implicit in wikitext.
				if prev, ok := st.prevTagToken.(StartTag); ok && (prev.Name == "tbody" || prev.Name == "table") {
					res.startsLine = false
					return
				}
			}
			open := "|-"
			if dp != nil && dp.StartTagSrc != "" {
				open = dp.StartTagSrc
			}
			res.text = open + st.serializeAttributes(tok)
			res.endsLine = true
		}},
		end: &sideHandler{},
	}
}

func cellHandler(name string) *tagHandler {
	rowDelim := "||"
	lineDelim := "|"
	if name == "th" {
		rowDelim = "!!"
		lineDelim = "!"
	}
	return &tagHandler{
		start: &sideHandler{startsLine: true, handle: func(st *state, tok tagToken, res *result) {
			dp := tok.dataParsoid()
			delim := lineDelim
			if dp != nil && dp.StxV == "row" {
				delim = rowDelim
				res.startsLine = false
			}
			if dp != nil && dp.StartTagSrc != "" {
				delim = dp.StartTagSrc
				if dp.StxV == "row" {
					res.startsLine = false
				}
			}
			attrs := st.serializeAttributes(tok)
			if attrs != "" {
				attrSep := "|"
				if dp != nil && dp.AttrSepSrc != "" {
					attrSep = dp.AttrSepSrc
				}
				res.text = delim + attrs + attrSep
				return
			}
			res.text = delim
		}},
		end: &sideHandler{},
		wtEscape: func(tok tagToken) escapePred {
			if name == "th" {
				return func(st *state, text string) bool {
					return strings.Contains(text, "!!")
				}
			}
			return func(st *state, text string) bool {
				if strings.Contains(text, "|") {
					return true
				}
				dp := tok.dataParsoid()
				if len(text) > 0 && (text[0] == '-' || text[0] == '+') &&
					dp != nil && dp.DSR != nil && (*dp.DSR)[2] == 1 &&
					dp.StxV != "row" && len(tok.attrs()) == 0 {
					return true
				}
				return false
			}
		},
	}
}

func captionHandler() *tagHandler {
	return &tagHandler{
		start: &sideHandler{startsLine: true, handle: func(st *state, tok tagToken, res *result) {
			dp := tok.dataParsoid()
			open := "|+"
			if dp != nil && dp.StartTagSrc != "" {
				open = dp.StartTagSrc
			}
			attrs := st.serializeAttributes(tok)
			if attrs != "" {
				res.text = open + attrs + "|"
				return
			}
			res.text = open
		}},
		end: &sideHandler{endsLine: true},
	}
}

// --- meta ---

func metaHandle(st *state, tok tagToken, res *result) {
	attrs := tok.attrs()
	typeOf, _ := getAttr(attrs, "typeof")
	property, _ := getAttr(attrs, "property")
	content, _ := getAttr(attrs, "content")
	dp := tok.dataParsoid()

	switch {
	case hasTypeOf(typeOf, "mw:TemplateSource"):
		// Synthesized by the walker for skipped template content; the
		// recorded source is emitted verbatim.
		if dp != nil {
			res.text = dp.Src
		}

	case hasTypeOf(typeOf, "mw:tag"):
		res.text = "<" + content + ">"
		switch content {
		case "nowiki":
			st.inNoWiki = true
		case "/nowiki":
			st.inNoWiki = false
		}

	case hasTypeOf(typeOf, "mw:IncludeOnly"):
		res.text = includeSrc(dp, "<includeonly>")
	case hasTypeOf(typeOf, "mw:IncludeOnly/End"):
		res.text = includeSrc(dp, "</includeonly>")
	case hasTypeOf(typeOf, "mw:NoInclude"):
		res.text = includeSrc(dp, "<noinclude>")
	case hasTypeOf(typeOf, "mw:NoInclude/End"):
		res.text = includeSrc(dp, "</noinclude>")
	case hasTypeOf(typeOf, "mw:OnlyInclude"):
		res.text = includeSrc(dp, "<onlyinclude>")
	case hasTypeOf(typeOf, "mw:OnlyInclude/End"):
		res.text = includeSrc(dp, "</onlyinclude>")

	case hasTypeOf(typeOf, "mw:DiffMarker"), hasTypeOf(typeOf, "mw:Separator"):
		// Handled out-of-band by the walker.

	case strings.HasPrefix(property, "mw:PageProp/"):
		if dp != nil && dp.MagicSrc != "" {
			res.text = dp.MagicSrc
			return
		}
		name := strings.ToLower(strings.TrimPrefix(property, "mw:PageProp/"))
		if magic, ok := wikitextPagePropMagic(name); ok {
			res.text = magic
			return
		}
		res.text = st.serializeHTMLTag(tok)
		res.solTrans = false

	default:
		res.text = st.serializeHTMLTag(tok)
		res.solTrans = false
	}
}

func includeSrc(dp *DataParsoid, fallback string) string {
	if dp != nil && dp.Src != "" {
		return dp.Src
	}
	return fallback
}

// wikitextPagePropMagic resolves a page property name to its canonical
// magic word.
func wikitextPagePropMagic(name string) (string, bool) {
	magic, ok := wikitext.PagePropMagicWords[name]
	return magic, ok
}
