package model

// VideoID identifies a video; it is the "v" query parameter of a watch URL
type VideoID string

// VideoMetadata is scraped from the watch page alongside the transcript
type VideoMetadata struct {
	Title       string  `json:"title"`
	ChannelName string  `json:"channelName"`
	VideoID     VideoID `json:"videoId,omitempty"`
}

const (
	UnknownTitle   = "Unknown Title"
	UnknownChannel = "Unknown Channel"
)

// TranscriptSegment is one caption line as it appears in the transcript panel
type TranscriptSegment struct {
	TimestampText string `json:"timestamp"`
	Text          string `json:"text"`
}

// Line renders the segment the way it is sent to the model
func (s TranscriptSegment) Line() string {
	if s.TimestampText != "" && s.Text != "" {
		return s.TimestampText + " " + s.Text
	}
	return s.Text
}
