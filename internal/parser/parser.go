// Package parser extracts the structured result/transcript pair from the
// backend's free-text voice response.
package parser

import (
	"regexp"
	"strings"
)

// rejectionSentinel is the token the backend emits when the captured audio
// was not valid speech.
const rejectionSentinel = "QZOP"

// Kind tags a parse outcome.
type Kind int

const (
	// Ok means both sections were extracted and are non-empty.
	Ok Kind = iota
	// Rejected means the backend judged the input invalid speech; the
	// turn must be discarded without an AI message.
	Rejected
	// Malformed means the response did not match the expected shape; the
	// caller falls back to Result (when present) or generic copy.
	Malformed
)

// Outcome is the tagged parse result.
type Outcome struct {
	Kind       Kind
	Result     string
	Transcript string
}

var (
	resultPattern     = regexp.MustCompile(`(?is)result:\s*(.+?)\s*transcript:`)
	transcriptPattern = regexp.MustCompile(`(?is)transcript:\s*(.+)$`)
	trailingJunk      = regexp.MustCompile(`[,\s]+$`)
)

// Parse classifies a backend voice response. Labels are case-insensitive
// and the result section may span lines; trailing commas and whitespace
// are stripped from it.
func Parse(text string) Outcome {
	if strings.Contains(text, rejectionSentinel) {
		return Outcome{Kind: Rejected}
	}

	var result, transcript string
	if m := resultPattern.FindStringSubmatch(text); m != nil {
		result = trailingJunk.ReplaceAllString(strings.TrimSpace(m[1]), "")
	}
	if m := transcriptPattern.FindStringSubmatch(text); m != nil {
		transcript = strings.TrimSpace(m[1])
	}

	if result == "" || transcript == "" {
		return Outcome{Kind: Malformed, Result: result}
	}
	return Outcome{Kind: Ok, Result: result, Transcript: transcript}
}
