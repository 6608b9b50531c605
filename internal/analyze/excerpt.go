// Package analyze turns a transcript into a filtered list of flagged claims.
package analyze

import (
	"strings"

	"github.com/ppiankov/lieblocker/internal/model"
)

// WordsPerMinute approximates the speaking rate used to size the excerpt
const WordsPerMinute = 155

// TruncateTranscript keeps roughly the first minutes of speech.
// A transcript within budget is returned unchanged; otherwise the first
// minutes*WordsPerMinute words are joined by single spaces and "..." is appended.
func TruncateTranscript(transcript string, minutes int) string {
	if minutes <= 0 {
		minutes = model.DefaultAnalysisDurationMinutes
	}
	target := minutes * WordsPerMinute

	words := strings.Fields(transcript)
	if len(words) <= target {
		return transcript
	}
	return strings.Join(words[:target], " ") + "..."
}
