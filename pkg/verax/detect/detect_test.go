package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verax-io/verax/pkg/verax/report"
)

func TestDetectModeTimestamps(t *testing.T) {
	cases := []string{
		"[00:00:10] Speaker: welcome to the show",
		"00:01:30 and then the discussion continued",
		"Some text with a 12:45:01 marker inside",
		"[00:10] short bracketed stamp",
	}
	for _, input := range cases {
		assert.Equal(t, report.ModeVideo, DetectMode(input), "input: %q", input)
	}
}

func TestDetectModeTranscriptMarkers(t *testing.T) {
	assert.Equal(t, report.ModeVideo, DetectMode("Speaker: the economy is growing"))
	assert.Equal(t, report.ModeVideo, DetectMode("intro [music] and then talking"))
	assert.Equal(t, report.ModeVideo, DetectMode("This is the transcript of the interview."))
}

func TestDetectModePlainText(t *testing.T) {
	cases := []string{
		"Water boils at 100 degrees Celsius at sea level.",
		"The study covered 5000 participants over three years.",
		"Numbers like 3.14 or years like 1969 are not timestamps.",
	}
	for _, input := range cases {
		assert.Equal(t, report.ModeText, DetectMode(input), "input: %q", input)
	}
}

func TestDetectModeMixedContentPrefersVideo(t *testing.T) {
	// A single timestamp-shaped token inside otherwise plain prose still
	// routes to video.
	input := "The interview covered many topics. At [00:14:02] the guest changed the subject entirely."
	assert.Equal(t, report.ModeVideo, DetectMode(input))
}

func TestDetectModeDeterministic(t *testing.T) {
	input := "[00:00:10] Speaker: hello"
	first := DetectMode(input)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DetectMode(input))
	}
}

func TestDetectModeEmpty(t *testing.T) {
	assert.Equal(t, report.ModeText, DetectMode(""))
}
