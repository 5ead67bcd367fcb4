// Package detect classifies raw input as plain text or a video transcript.
// Detection is a pure function: deterministic, no side effects, no I/O.
package detect

import (
	"regexp"
	"strings"

	"github.com/verax-io/verax/pkg/verax/report"
)

var (
	// Timestamp-shaped tokens: 00:00:10, 1:02:03, [00:00:10], [00:10]
	timestampPattern = regexp.MustCompile(`(?m)(^|[\s\[(])\d{1,2}:\d{2}(:\d{2})?([\])\s]|$)`)

	// Speaker tags at the start of a line: "Speaker:", "Dr. Smith:", "HOST:"
	speakerPattern = regexp.MustCompile(`(?m)^\s*[A-Z][\w.\- ]{0,30}:\s`)

	// Bracketed transcript cues: [music], [applause], [laughter], [inaudible]
	cuePattern = regexp.MustCompile(`(?i)\[(music|applause|laughter|inaudible|crosstalk|silence)\]`)
)

// DetectMode classifies raw input. Any timestamp-shaped token or transcript
// marker routes to video; everything else is plain text.
func DetectMode(input string) report.Mode {
	if input == "" {
		return report.ModeText
	}

	if timestampPattern.MatchString(input) {
		return report.ModeVideo
	}
	if cuePattern.MatchString(input) {
		return report.ModeVideo
	}
	if strings.Contains(strings.ToLower(input), "transcript") {
		return report.ModeVideo
	}
	if speakerPattern.MatchString(input) {
		return report.ModeVideo
	}

	return report.ModeText
}
