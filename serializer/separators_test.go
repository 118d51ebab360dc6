package serializer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeparator_InterElementSplice(t *testing.T) {
	st := newTestState("= a =\n\n= b =\n")
	var chunks []string
	st.chunkCB = func(chunk, _ string) { chunks = append(chunks, chunk) }

	body := parseBody(t,
		`<h1 data-parsoid='{"dsr":[0,5,1,1]}'>a</h1><h1 data-parsoid='{"dsr":[7,12,1,1]}'>b</h1>`)
	h1 := firstElementChild(body)
	h2 := lastElementChild(body)
	require.NoError(t, st.preprocess(body))

	st.emitSeparator(h1, h2, sepInterElement)
	require.Equal(t, []string{"\n\n"}, chunks)
	require.True(t, st.separatorEmittedFromSrc)
}

func TestSeparator_RejectsContentSpans(t *testing.T) {
	st := newTestState("= a =x\n= b =\n")
	var chunks []string
	st.chunkCB = func(chunk, _ string) { chunks = append(chunks, chunk) }

	body := parseBody(t,
		`<h1 data-parsoid='{"dsr":[0,5,1,1]}'>a</h1><h1 data-parsoid='{"dsr":[7,12,1,1]}'>b</h1>`)
	require.NoError(t, st.preprocess(body))

	// src[5:7] is "x\n", not pure whitespace: no splice.
	st.emitSeparator(firstElementChild(body), lastElementChild(body), sepInterElement)
	require.Empty(t, chunks)
	require.False(t, st.separatorEmittedFromSrc)
}

func TestSeparator_CommentsAreValid(t *testing.T) {
	st := newTestState("= a =\n<!-- note -->\n= b =\n")
	var chunks []string
	st.chunkCB = func(chunk, _ string) { chunks = append(chunks, chunk) }

	body := parseBody(t,
		`<h1 data-parsoid='{"dsr":[0,5,1,1]}'>a</h1><h1 data-parsoid='{"dsr":[20,25,1,1]}'>b</h1>`)
	require.NoError(t, st.preprocess(body))

	st.emitSeparator(firstElementChild(body), lastElementChild(body), sepInterElement)
	require.Equal(t, []string{"\n<!-- note -->\n"}, chunks)
}

func TestSeparator_MissingDSRAbandons(t *testing.T) {
	st := newTestState("a\n\nb\n")
	var chunks []string
	st.chunkCB = func(chunk, _ string) { chunks = append(chunks, chunk) }

	body := parseBody(t, `<p>a</p><p data-parsoid='{"dsr":[3,4,0,0]}'>b</p>`)
	require.NoError(t, st.preprocess(body))

	st.emitSeparator(firstElementChild(body), lastElementChild(body), sepInterElement)
	require.Empty(t, chunks)
}

func TestSeparator_BufferedNewlineReplacedBySplice(t *testing.T) {
	src := "= a =\n\n\n= b =\n"
	out := serializeHTMLWithSrc(t,
		`<html><body data-parsoid='{"dsr":[0,14,0,0]}'>`+
			`<h1 data-parsoid='{"dsr":[0,5,1,1]}'> a </h1>`+
			`<h1 data-parsoid='{"dsr":[8,13,1,1]}'> b </h1></body></html>`,
		src)
	require.Equal(t, src, out)
}

func TestSeparator_FallbackToHandlerNewlines(t *testing.T) {
	// No source at all: handler-driven newlines reconstruct the shape.
	out := serializeHTML(t, "<h1>a</h1><h1>b</h1>")
	require.Equal(t, "=a=\n=b=\n", out)
}

func TestState_BufferedSeparatorRequiresSrc(t *testing.T) {
	st := newTestState("")
	var chunks []string
	st.chunkCB = func(chunk, _ string) { chunks = append(chunks, chunk) }

	// Without source the newline is emitted immediately, never buffered.
	st.bufferNewlines("\n")
	require.False(t, st.hasBufferedSeparator)
	require.Equal(t, []string{"\n"}, chunks)

	st2 := newTestState("some src")
	st2.chunkCB = func(chunk, _ string) {}
	st2.bufferNewlines("\n")
	require.True(t, st2.hasBufferedSeparator)
}
