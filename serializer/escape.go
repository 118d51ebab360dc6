package serializer

import (
	"regexp"
	"strings"

	"github.com/clems4ever/wikitext-serializer/wikitext"
)

// The escape engine decides whether a text run must be wrapped in a
// <nowiki> fence so that a re-parse yields the same text. Strategy: if
// any substring would require escaping, the whole run is fenced.

var (
	wtSpecialCharsRe = regexp.MustCompile(`[<>\[\]\-\+\|'!=#\*:;~{}]`)
	leadingSpaceRe   = regexp.MustCompile(`^[ \t]+[^\s]`)

	// non-start-of-line hazards
	nonSolHazardRe = regexp.MustCompile(`''|[<>]|\]`)

	// start-of-line hazards
	solHazardRe = regexp.MustCompile(`(?m)^[ \t#*:;=]|[<\[\]>\|'!]|^-{4}`)

	braceRe = regexp.MustCompile(`\{\{\{|\{\{|\}\}\}|\}\}`)
	sigRe   = regexp.MustCompile(`~{3,5}`)

	headingPairRe = regexp.MustCompile(`^=[^\n]*=$`)

	nowikiTagRe = regexp.MustCompile(`<(/?)nowiki\s*(/?)>`)

	trailingNLRe = regexp.MustCompile(`\n+$`)

	onlyWhitespaceRe = regexp.MustCompile(`^\s*$`)
)

// escapeWikiText returns text, fenced when a re-parse of it in the
// current context would produce anything but the same text.
func (st *state) escapeWikiText(text string) string {
	if text == "" {
		return text
	}
	sol := st.onStartOfLine && st.singleLineMode == 0

	// Fast paths: nothing in the text can possibly need escaping.
	if onlyWhitespaceRe.MatchString(text) {
		return text
	}
	if !wtSpecialCharsRe.MatchString(text) &&
		!(sol && leadingSpaceRe.MatchString(text)) {
		return text
	}

	// Unconditional fences.
	if braceRe.MatchString(text) {
		st.tracef("wts:escape", "fencing braces in %q", text)
		return st.wrapInNowiki(text)
	}
	if sol && !st.inIndentPre && leadingSpaceRe.MatchString(text) {
		return st.wrapInNowiki(text)
	}
	if sigRe.MatchString(text) {
		return st.wrapInNowiki(text)
	}

	// Contextual fencing: the innermost open construct knows hazards
	// the generic screens below would wave through (pipes in cells and
	// links, delimiter runs in headers).
	if pred := st.topWTEHandler(); pred != nil && pred(st, text) {
		st.tracef("wts:escape", "context predicate fenced %q", text)
		return st.wrapInNowiki(text)
	}

	// Line-level analysis: a line assembled from several pieces may form
	// a heading or a link even though no single piece does.
	if st.lineAnalysisFences(text) {
		return st.wrapInNowiki(text)
	}

	// Cheap hazard screens before running the tokenizer.
	if sol {
		if !solHazardRe.MatchString(text) {
			return text
		}
	} else {
		if !nonSolHazardRe.MatchString(text) && !strings.Contains(text, "[") {
			return text
		}
	}

	// Tokenizer-driven check: re-tokenize and look for any non-text
	// construct.
	probe := text
	if !sol || st.inIndentPre {
		// Inside indent-pre the emitted leading space neutralizes
		// start-of-line constructs on every line.
		probe = "_" + probe
	}
	if st.inIndentPre {
		probe = strings.ReplaceAll(probe, "\n", "\n_")
	}
	if tokensRequireFence(wikitext.Tokenize(probe)) {
		st.tracef("wts:escape", "tokenizer fenced %q", text)
		return st.wrapInNowiki(text)
	}
	return text
}

// tokensRequireFence scans mini-tokenizer output for constructs that a
// re-parse would materialize.
func tokensRequireFence(toks []wikitext.Token) bool {
	for _, tok := range toks {
		if tok.HTML {
			// A tag outside the wikitext whitelist survives as text.
			if !wikitext.IsAllowedHTMLTag(tok.Name) {
				continue
			}
			return true
		}
		switch tok.Kind {
		case wikitext.End:
			if wikitext.HasNoEndTag(tok.Name) {
				continue
			}
			return true
		case wikitext.SelfClose:
			if tok.Name == "urllink" {
				continue
			}
			if tok.Name == "extlink" && !wikitext.IsValidURL(tok.Attr) {
				continue
			}
			return true
		case wikitext.Start:
			return true
		case wikitext.Entity:
			// Entities are neutralized by ampersand escaping before the
			// fence decision; nothing to do here.
			continue
		}
	}
	return false
}

// lineAnalysisFences applies the multi-piece line checks: when the full
// line of the enclosing block forms a heading pair or a bracket pair,
// individual pieces carrying the delimiters must be fenced.
func (st *state) lineAnalysisFences(text string) bool {
	cl := &st.currLine
	if cl.numPieces <= 1 {
		return false
	}
	if !cl.processed {
		cl.processed = true
		line := strings.TrimRight(cl.text, "\n")
		cl.hasHeadingPair = headingPairRe.MatchString(line)
		cl.hasBracketPair = hasBracketPair(cl.text)
	}
	if cl.hasHeadingPair && (strings.HasPrefix(text, "=") || strings.HasSuffix(strings.TrimRight(text, "\n"), "=")) {
		return true
	}
	if cl.hasBracketPair && strings.Contains(text, "]") {
		return true
	}
	return false
}

// hasBracketPair runs the links-only tokenizer pass over the full line.
func hasBracketPair(line string) bool {
	var open bool
	for _, tok := range wikitext.TokenizeLinksOnly(line) {
		switch {
		case tok.Name == "wikilink" && tok.Kind == wikitext.Start:
			open = true
		case tok.Name == "wikilink" && tok.Kind == wikitext.End:
			if open {
				return true
			}
		case tok.Name == "extlink" && wikitext.IsValidURL(tok.Attr):
			return true
		}
	}
	return false
}

var entityRe = regexp.MustCompile(`&([A-Za-z][A-Za-z0-9]*|#[0-9]+|#[xX][0-9A-Fa-f]+);`)

// escapeEntities neutralizes character references in literal text so a
// re-parse does not decode them.
func escapeEntities(text string) string {
	return entityRe.ReplaceAllString(text, "&amp;$1;")
}

// wrapInNowiki fences text. Trailing newlines stay outside the fence and
// literal nowiki tags inside are entity-escaped first.
func (st *state) wrapInNowiki(text string) string {
	body := nowikiTagRe.ReplaceAllString(text, "&lt;${1}nowiki${2}&gt;")
	trailing := ""
	if m := trailingNLRe.FindString(body); m != "" {
		trailing = m
		body = body[:len(body)-len(m)]
	}
	if body == "" {
		return trailing
	}
	return "<nowiki>" + body + "</nowiki>" + trailing
}
