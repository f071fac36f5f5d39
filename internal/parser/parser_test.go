package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResultAndTranscript(t *testing.T) {
	t.Parallel()

	out := Parse("result: Hello there, transcript: hi")
	assert.Equal(t, Ok, out.Kind)
	assert.Equal(t, "Hello there", out.Result)
	assert.Equal(t, "hi", out.Transcript)
}

func TestParseMultilineResult(t *testing.T) {
	t.Parallel()

	out := Parse("RESULT: line one\nline two,\nTranscript: open the settings panel")
	assert.Equal(t, Ok, out.Kind)
	assert.Equal(t, "line one\nline two", out.Result)
	assert.Equal(t, "open the settings panel", out.Transcript)
}

func TestParseStripsTrailingCommasAndWhitespace(t *testing.T) {
	t.Parallel()

	out := Parse("result: Sure thing, ,  \n transcript: ok")
	assert.Equal(t, Ok, out.Kind)
	assert.Equal(t, "Sure thing", out.Result)
}

func TestParseRejectionSentinel(t *testing.T) {
	t.Parallel()

	cases := []string{
		"QZOP",
		"result: QZOP, transcript: noise",
		"some preamble QZOP trailing words",
	}
	for _, input := range cases {
		out := Parse(input)
		assert.Equal(t, Rejected, out.Kind, "input %q", input)
	}
}

func TestParseMissingTranscriptIsMalformed(t *testing.T) {
	t.Parallel()

	out := Parse("result: I can help with that.")
	assert.Equal(t, Malformed, out.Kind)
	assert.Empty(t, out.Transcript)
}

func TestParseMissingResultIsMalformed(t *testing.T) {
	t.Parallel()

	out := Parse("transcript: hello")
	assert.Equal(t, Malformed, out.Kind)
	assert.Empty(t, out.Result)
}

func TestParseCarriesResultOnMalformed(t *testing.T) {
	t.Parallel()

	// A result section without a transcript terminator never matches the
	// result pattern, so only the degenerate empty-section case applies.
	out := Parse("result:  , transcript: ")
	assert.Equal(t, Malformed, out.Kind)
	assert.Empty(t, out.Result)
}

func TestParseEmptyInput(t *testing.T) {
	t.Parallel()

	out := Parse("")
	assert.Equal(t, Malformed, out.Kind)
}
