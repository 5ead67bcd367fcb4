// Package antifake implements the anti-fake video agent: transcript
// parsing, manipulation-signal detection and coherence/integrity scoring
// for timestamped transcripts.
package antifake

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Segment is one parsed transcript unit in transcript order
type Segment struct {
	Index     int
	Timestamp time.Duration // -1 when the segment carried no parsable timestamp
	Speaker   string
	Text      string
}

// NoTimestamp marks segments whose timestamp token was absent or malformed.
const NoTimestamp = time.Duration(-1)

var (
	// Matches [00:00:10], [00:10], 00:00:10 and 0:10 style tokens.
	timestampToken = regexp.MustCompile(`\[(\d{1,2}):(\d{2})(?::(\d{2}))?\]|(?:^|\s)(\d{1,2}):(\d{2}):(\d{2})(?:\s|$)`)

	speakerTag = regexp.MustCompile(`^\s*([A-Z][\w.\- ]{0,30}):\s*`)
)

// ParseTranscript splits a transcript into ordered segments. Timestamps may
// appear mid-line; text between two timestamp tokens belongs to the first.
// Malformed timestamp tokens are skipped with their surrounding text kept,
// so the coherence pass still sees every utterance.
func ParseTranscript(transcript string) []Segment {
	matches := timestampToken.FindAllStringSubmatchIndex(transcript, -1)

	var segments []Segment
	appendSegment := func(ts time.Duration, chunk string) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			return
		}

		speaker := ""
		if m := speakerTag.FindStringSubmatch(chunk); m != nil {
			speaker = strings.TrimSpace(m[1])
			chunk = strings.TrimSpace(chunk[len(m[0]):])
		}
		if chunk == "" && speaker == "" {
			return
		}

		segments = append(segments, Segment{
			Index:     len(segments),
			Timestamp: ts,
			Speaker:   speaker,
			Text:      chunk,
		})
	}

	if len(matches) == 0 {
		// No timestamps at all: treat each non-empty line as a segment.
		for _, line := range strings.Split(transcript, "\n") {
			appendSegment(NoTimestamp, line)
		}
		return segments
	}

	// Text before the first timestamp still participates.
	if lead := transcript[:matches[0][0]]; strings.TrimSpace(lead) != "" {
		appendSegment(NoTimestamp, lead)
	}

	for i, m := range matches {
		end := len(transcript)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		chunk := transcript[m[1]:end]

		ts, ok := parseTimestamp(transcript, m)
		if !ok {
			ts = NoTimestamp
		}
		appendSegment(ts, chunk)
	}

	return segments
}

// parseTimestamp converts a matched token into an offset. Bracketed
// two-part tokens read as MM:SS; three-part tokens read as HH:MM:SS.
func parseTimestamp(s string, m []int) (time.Duration, bool) {
	group := func(i int) (int, bool) {
		if m[2*i] < 0 {
			return 0, false
		}
		n, err := strconv.Atoi(s[m[2*i]:m[2*i+1]])
		if err != nil {
			return 0, false
		}
		return n, true
	}

	var h, mm, ss int
	if v, ok := group(1); ok {
		// Bracketed form.
		second, _ := group(2)
		if third, ok := group(3); ok {
			h, mm, ss = v, second, third
		} else {
			mm, ss = v, second
		}
	} else if v, ok := group(4); ok {
		mm2, _ := group(5)
		ss2, _ := group(6)
		h, mm, ss = v, mm2, ss2
	} else {
		return 0, false
	}

	if mm > 59 || ss > 59 {
		return 0, false
	}

	return time.Duration(h)*time.Hour + time.Duration(mm)*time.Minute + time.Duration(ss)*time.Second, true
}
