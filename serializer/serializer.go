// Package serializer converts an annotated HTML DOM back into MediaWiki
// wikitext. The DOM is expected to carry per-node round-trip metadata in
// data-parsoid attributes, as produced by the wikitext parsing pipeline.
package serializer

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Serialize walks the DOM rooted at root and emits wikitext chunks in
// document order through onChunk. onEnd fires after the last chunk.
// Fatal errors are handed to env.ErrCB and returned; recoverable
// anomalies are logged and serialization continues.
func Serialize(root *html.Node, opts Options, onChunk ChunkCB, onEnd func()) (err error) {
	st := newState(opts, onChunk)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("serialization aborted: %v", r)
			if opts.Env != nil && opts.Env.ErrCB != nil {
				opts.Env.ErrCB(err)
			}
		}
	}()

	if err := st.preprocess(root); err != nil {
		if opts.Env != nil && opts.Env.ErrCB != nil {
			opts.Env.ErrCB(err)
		}
		return err
	}

	st.serializeNode(root)
	st.serializeToken(EOF{})

	if onEnd != nil {
		onEnd()
	}
	return nil
}

// SerializeToString runs Serialize into a buffer.
func SerializeToString(root *html.Node, opts Options) (string, error) {
	var sb strings.Builder
	err := Serialize(root, opts, func(chunk, _ string) {
		sb.WriteString(chunk)
	}, nil)
	return sb.String(), err
}

// serializeToken drives one token through the handler machinery. This is
// the only place output chunks are produced for token-based emission.
func (st *state) serializeToken(tok Token) {
	st.prevToken = st.curToken
	st.curToken = tok

	switch t := tok.(type) {
	case StartTag, EndTag, SelfClosing:
		st.prevTagToken = st.currTagToken
		st.currTagToken = tok
		st.serializeTagToken(tok.(tagToken))

	case Text:
		st.serializeTextToken(t.Value)

	case Comment:
		st.emit("<!--" + t.Value + "-->")

	case Newline:
		st.emit("\n")

	case EOF:
		st.flushSeparator()
	}
}

func (st *state) serializeTagToken(tt tagToken) {
	h, side, isEnd := st.lookupHandler(tt)

	if side == nil {
		// Default HTML serialization for unregistered or html-syntax
		// elements.
		if isEnd {
			st.emit(st.serializeHTMLEndTag(tt))
		} else {
			st.emit(st.serializeHTMLTag(tt))
			if start, ok := tt.(StartTag); ok && start.Name == "pre" {
				st.inHTMLPre = true
			}
		}
		if end, ok := tt.(EndTag); ok && end.Name == "pre" {
			st.inHTMLPre = false
		}
		return
	}

	if side.ignore {
		return
	}

	res := side.seed()
	if side.handle != nil {
		side.handle(st, tt, &res)
	}

	// Reset the line accumulator when a new block scope opens.
	if _, ok := tt.(StartTag); ok && isBlockNode(tt.node()) {
		st.currLine = lineState{scope: tt.node()}
	}

	if res.startsLine && !st.onStartOfLine && st.singleLineMode == 0 {
		st.bufferNewlines("\n")
	}
	if res.sep != "" {
		st.bufferNewlines(res.sep)
	}

	text := res.text
	if st.textTransform != nil && text != "" && !isIndentPreSafe(tt) {
		text = st.textTransform(text)
	}

	wasSOL := st.onStartOfLine
	st.emit(text)
	if text != "" && res.solTrans && wasSOL {
		// Start-of-line transparent output keeps line state unchanged.
		st.onStartOfLine = true
	}

	if res.emitsNL {
		st.pushChunk("\n")
	}
	if res.endsLine && !st.onNewline {
		st.bufferNewlines("\n")
	}

	st.singleLineMode += res.singleLine
	if st.singleLineMode < 0 {
		st.singleLineMode = 0
	}

	if !isEnd {
		if _, ok := tt.(StartTag); ok && h.wtEscape != nil {
			st.pushWTEHandler(h.wtEscape(tt))
		}
	} else if h.wtEscape != nil {
		st.popWTEHandler()
	}
}

// isIndentPreSafe exempts the pre element's own tokens from the indent
// transform it installs.
func isIndentPreSafe(tt tagToken) bool {
	return tt.tagName() == "pre"
}

func (st *state) serializeTextToken(text string) {
	if st.singleLineMode > 0 {
		text = strings.ReplaceAll(text, "\n", "")
	}
	res := escapeEntities(text)
	if !st.inNoWiki && !st.inHTMLPre {
		res = st.escapeWikiText(res)
	}
	if st.textTransform != nil {
		res = st.textTransform(res)
	}
	st.emit(res)
}

// lookupHandler resolves the handler and the relevant side for a tag
// token. A nil side means default HTML serialization. Literal-HTML
// syntax forces the default serializer; tbody/tr/td/li/dd/dt inherit
// that choice from their structural parent.
func (st *state) lookupHandler(tt tagToken) (*tagHandler, *sideHandler, bool) {
	_, isEnd := tt.(EndTag)

	if htmlSyntax(st, tt) {
		return nil, nil, isEnd
	}

	h := lookupTagHandler(tt.tagName())
	if h == nil {
		return nil, nil, isEnd
	}
	if isEnd {
		return h, h.end, true
	}
	return h, h.start, false
}

var stxInheritors = map[string]bool{
	"tbody": true, "tr": true, "td": true, "th": true,
	"li": true, "dd": true, "dt": true,
}

func htmlSyntax(st *state, tt tagToken) bool {
	if dp := tt.dataParsoid(); dp != nil && dp.Stx == "html" {
		return true
	}
	if !stxInheritors[tt.tagName()] {
		return false
	}
	for n := parentElement(tt.node()); n != nil; n = parentElement(n) {
		if !stxInheritors[n.Data] && n.Data != "table" && n.Data != "ul" &&
			n.Data != "ol" && n.Data != "dl" {
			return false
		}
		if dp := st.dpFor(n); dp != nil && dp.Stx == "html" {
			return true
		}
		if n.Data == "table" || n.Data == "ul" || n.Data == "ol" || n.Data == "dl" {
			return false
		}
	}
	return false
}

func parentElement(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}
