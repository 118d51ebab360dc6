package serializer

import (
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// Page describes the page being serialized. Src is the original wikitext
// when available; its presence enables separator splicing.
type Page struct {
	Name string
	Src  string
}

// ParsoidConf carries serializer tuning owned by the host.
type ParsoidConf struct {
	// TraceFlags enables per-subsystem trace logging, e.g. "wts:sep",
	// "wts:escape", "wts:link".
	TraceFlags map[string]bool
}

// WikiConf carries wiki-level configuration supplied by the host.
type WikiConf struct {
	// InterwikiPrefixes lists the wiki's interwiki prefixes. The
	// serializer does not read it: link kinds come from the rel attribute.
	InterwikiPrefixes map[string]bool
}

// Conf groups wiki and serializer configuration.
type Conf struct {
	Wiki    WikiConf
	Parsoid ParsoidConf
}

// Env is the parser environment collaborators hand to the serializer.
type Env struct {
	Page Page
	Conf Conf
	// NormalizeTitle canonicalizes a wiki title for link comparison.
	// When noUnderscores is set, underscores are treated as spaces.
	NormalizeTitle func(s string, noUnderscores bool) string
	// ErrCB receives fatal errors before they propagate.
	ErrCB  func(error)
	Logger zerolog.Logger
}

func (e *Env) normalizeTitle(s string, noUnderscores bool) string {
	if e != nil && e.NormalizeTitle != nil {
		return e.NormalizeTitle(s, noUnderscores)
	}
	if noUnderscores {
		s = strings.ReplaceAll(s, "_", " ")
	}
	return s
}

func (e *Env) trace(flag string) bool {
	return e != nil && e.Conf.Parsoid.TraceFlags[flag]
}

// Options parameterizes one Serialize call.
type Options struct {
	Env *Env
	// OldID is opaque revision info forwarded to the chunk callback as
	// serializeInfo; the serializer never interprets it.
	OldID string
}

// ChunkCB receives output chunks in document order. serializeInfo is an
// out-of-band string forwarded verbatim from Options.OldID.
type ChunkCB func(chunk string, serializeInfo string)

// listFrame tracks one open native-syntax list.
type listFrame struct {
	// listBullet is the bullet char contributed by the list element:
	// "*", "#", or "" for dl (items pick ";" or ":").
	listBullet string
	// itemBullet is the bullet of the currently open item at this level.
	itemBullet string
	itemCount  int
}

// tableFrame snapshots list and line state on table entry; lists never
// cross a table boundary.
type tableFrame struct {
	listStack      []listFrame
	singleLineMode int
}

// escapePred is a context predicate consulted by the escape engine. It
// reports whether text must be fenced in the construct that pushed it.
type escapePred func(st *state, text string) bool

// tplAttrSources records the verbatim source of template-generated
// attributes for one about id.
type tplAttrSources struct {
	kvs map[string]string
	ks  map[string]string
	vs  map[string]string
}

// lineState accumulates the inline text of the current block element for
// the line-level escape analysis.
type lineState struct {
	text           string
	numPieces      int
	processed      bool
	hasBracketPair bool
	hasHeadingPair bool
	// scope is the block element the accumulator was gathered for.
	scope *html.Node
}

// state is the single mutable record threaded through one serialization.
type state struct {
	env           *Env
	serializeInfo string

	onNewline      bool
	onStartOfLine  bool
	singleLineMode int

	listStack       []listFrame
	tableStack      []tableFrame
	wteHandlerStack []escapePred

	tplAttrs map[string]*tplAttrSources

	currLine lineState

	// src is the original wikitext; "" disables separator splicing.
	src                     string
	bufferedSeparator       string
	hasBufferedSeparator    bool
	separatorEmittedFromSrc bool

	prevToken    Token
	curToken     Token
	prevTagToken Token
	currTagToken Token

	inNoWiki    bool
	inHTMLPre   bool
	inIndentPre bool

	// lastRes holds the last 100 emitted characters for the quote
	// adjacency check.
	lastRes string

	// activeTemplateId is the about id whose expanded subtree is being
	// skipped while its source is emitted verbatim.
	activeTemplateId string

	// textTransform rewrites handler output; indent-pre installs one.
	textTransform func(string) string

	// dp is the side table of decoded data-parsoid records, populated
	// by the preprocessor.
	dp map[*html.Node]*DataParsoid

	chunkCB ChunkCB

	logger zerolog.Logger
}

// initialState is the immutable template cloned into every call.
var initialState = state{
	onNewline:     true,
	onStartOfLine: true,
}

// newState clones the frozen template for one Serialize call.
func newState(opts Options, cb ChunkCB) *state {
	st := initialState
	st.env = opts.Env
	st.serializeInfo = opts.OldID
	st.tplAttrs = make(map[string]*tplAttrSources)
	st.dp = make(map[*html.Node]*DataParsoid)
	st.chunkCB = cb
	st.logger = zerolog.Nop()
	if opts.Env != nil {
		st.src = opts.Env.Page.Src
		st.logger = opts.Env.Logger
	}
	return &st
}

func (st *state) tracef(flag, format string, args ...interface{}) {
	if st.env.trace(flag) {
		st.logger.Debug().Str("trace", flag).Msgf(format, args...)
	}
}

// dpFor returns the decoded metadata for n, defaulting to an empty
// record so handlers never see nil.
func (st *state) dpFor(n *html.Node) *DataParsoid {
	if dp, ok := st.dp[n]; ok {
		return dp
	}
	dp, err := parseDataParsoid(n)
	if err != nil {
		// The preprocessor surfaces decode failures as fatal; reaching
		// this point means the node was created after preprocessing.
		st.logger.Warn().Err(err).Msg("ignoring malformed data-parsoid")
		dp = &DataParsoid{}
	}
	st.dp[n] = dp
	return dp
}

// emit sends a chunk to the host and updates line-position tracking.
func (st *state) emit(chunk string) {
	if chunk == "" {
		return
	}
	st.flushSeparator()
	st.pushChunk(chunk)
}

// pushChunk writes a chunk without touching the separator buffer. The
// separator engine uses it directly.
func (st *state) pushChunk(chunk string) {
	if chunk == "" {
		return
	}
	st.chunkCB(chunk, st.serializeInfo)
	st.separatorEmittedFromSrc = false
	st.noteEmitted(chunk)
}

func (st *state) noteEmitted(chunk string) {
	st.lastRes += chunk
	if len(st.lastRes) > 100 {
		st.lastRes = st.lastRes[len(st.lastRes)-100:]
	}
	last := chunk[len(chunk)-1]
	st.onNewline = last == '\n'
	st.onStartOfLine = st.onNewline
}

// bufferNewlines queues separator newlines. With original source at hand
// they stay buffered so a successful source splice can replace them;
// without source they are emitted immediately.
func (st *state) bufferNewlines(nl string) {
	if nl == "" {
		return
	}
	if st.src == "" {
		st.pushChunk(nl)
		return
	}
	st.bufferedSeparator += nl
	st.hasBufferedSeparator = true
	st.onNewline = true
	st.onStartOfLine = true
}

// flushSeparator commits the buffered newlines unless a source-derived
// separator already covered the boundary.
func (st *state) flushSeparator() {
	if !st.hasBufferedSeparator {
		return
	}
	sep := st.bufferedSeparator
	st.bufferedSeparator = ""
	st.hasBufferedSeparator = false
	if st.separatorEmittedFromSrc {
		return
	}
	st.pushChunk(sep)
}

// discardSeparator drops the buffer after a successful source splice.
func (st *state) discardSeparator() {
	st.bufferedSeparator = ""
	st.hasBufferedSeparator = false
}

func (st *state) pushWTEHandler(p escapePred) {
	st.wteHandlerStack = append(st.wteHandlerStack, p)
}

func (st *state) popWTEHandler() {
	if len(st.wteHandlerStack) > 0 {
		st.wteHandlerStack = st.wteHandlerStack[:len(st.wteHandlerStack)-1]
	}
}

func (st *state) topWTEHandler() escapePred {
	if len(st.wteHandlerStack) == 0 {
		return nil
	}
	return st.wteHandlerStack[len(st.wteHandlerStack)-1]
}

func (st *state) currentListFrame() *listFrame {
	if len(st.listStack) == 0 {
		return nil
	}
	return &st.listStack[len(st.listStack)-1]
}

// listBulletPrefix is the cumulative bullet string of every open list
// item on the current path.
func (st *state) listBulletPrefix() string {
	var sb strings.Builder
	for i := range st.listStack {
		sb.WriteString(st.listStack[i].itemBullet)
	}
	return sb.String()
}
