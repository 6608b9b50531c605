// Package messaging carries the typed messages exchanged between the agent
// and its coordinator as JSON objects with a "type" discriminator.
package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/model"
)

// Type is the wire discriminator
type Type string

const (
	TypePing                Type = "ping"
	TypeAnalyzeVideo        Type = "analyzeVideo"
	TypeSkipLiesToggle      Type = "skipLiesToggle"
	TypeJumpToTimestamp     Type = "jumpToTimestamp"
	TypePageUpdate          Type = "pageUpdate"
	TypePlaybackState       Type = "playbackState"
	TypeStartAnalysis       Type = "startAnalysis"
	TypeAnalysisProgress    Type = "analysisProgress"
	TypeLiesUpdate          Type = "liesUpdate"
	TypeAnalysisResult      Type = "analysisResult"
	TypeLieSkipped          Type = "lieSkipped"
	TypeGetCurrentVideoLies Type = "getCurrentVideoLies"
	TypeSeekTo              Type = "seekTo"
)

// Progress stages of the analysis flow
const (
	StageStarting   = "starting"
	StageValidation = "validation"
	StageTranscript = "transcript"
	StageAnalysis   = "analysis"
)

// ErrUnknownType is returned by Decode for a type outside the variant set
var ErrUnknownType = errors.New("unknown message type")

// Message is one of the variants below
type Message interface {
	MessageType() Type
	sealed()
}

type Ping struct{}

type AnalyzeVideo struct{}

type SkipLiesToggle struct {
	Enabled bool `json:"enabled"`
}

type JumpToTimestamp struct {
	Timestamp float64 `json:"timestamp"`
}

// PageUpdate reports a navigation; HTML is the rendered DOM when available
type PageUpdate struct {
	URL  string `json:"url"`
	HTML string `json:"html,omitempty"`
}

// PlaybackState mirrors the media element
type PlaybackState struct {
	CurrentTime float64 `json:"currentTime"`
	Paused      bool    `json:"paused"`
}

type StartAnalysis struct {
	VideoID model.VideoID `json:"videoId"`
}

type AnalysisProgress struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type LiesUpdate struct {
	Claims     []model.Claim `json:"claims"`
	VideoID    model.VideoID `json:"videoId"`
	IsComplete bool          `json:"isComplete"`
}

// AnalysisResult is the human-readable summary of a run
type AnalysisResult struct {
	Data string `json:"data"`
}

type LieSkipped struct {
	VideoID   model.VideoID `json:"videoId"`
	Timestamp float64       `json:"timestamp"`
	Duration  float64       `json:"duration"`
	Claim     string        `json:"claim"`
}

type GetCurrentVideoLies struct {
	VideoID model.VideoID `json:"videoId"`
}

type SeekTo struct {
	Time float64 `json:"time"`
}

func (Ping) MessageType() Type                { return TypePing }
func (AnalyzeVideo) MessageType() Type        { return TypeAnalyzeVideo }
func (SkipLiesToggle) MessageType() Type      { return TypeSkipLiesToggle }
func (JumpToTimestamp) MessageType() Type     { return TypeJumpToTimestamp }
func (PageUpdate) MessageType() Type          { return TypePageUpdate }
func (PlaybackState) MessageType() Type       { return TypePlaybackState }
func (StartAnalysis) MessageType() Type       { return TypeStartAnalysis }
func (AnalysisProgress) MessageType() Type    { return TypeAnalysisProgress }
func (LiesUpdate) MessageType() Type          { return TypeLiesUpdate }
func (AnalysisResult) MessageType() Type      { return TypeAnalysisResult }
func (LieSkipped) MessageType() Type          { return TypeLieSkipped }
func (GetCurrentVideoLies) MessageType() Type { return TypeGetCurrentVideoLies }
func (SeekTo) MessageType() Type              { return TypeSeekTo }

func (Ping) sealed()                {}
func (AnalyzeVideo) sealed()        {}
func (SkipLiesToggle) sealed()      {}
func (JumpToTimestamp) sealed()     {}
func (PageUpdate) sealed()          {}
func (PlaybackState) sealed()       {}
func (StartAnalysis) sealed()       {}
func (AnalysisProgress) sealed()    {}
func (LiesUpdate) sealed()          {}
func (AnalysisResult) sealed()      {}
func (LieSkipped) sealed()          {}
func (GetCurrentVideoLies) sealed() {}
func (SeekTo) sealed()              {}

// Encode renders m as a JSON object with its type set
func Encode(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.MessageType(), err)
	}
	return sjson.SetBytes(body, "type", string(m.MessageType()))
}

// Decode reads a message, dispatching on its type field
func Decode(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("decode message: invalid JSON")
	}
	typ := Type(gjson.GetBytes(data, "type").String())

	switch typ {
	case TypePing:
		return Ping{}, nil
	case TypeAnalyzeVideo:
		return AnalyzeVideo{}, nil
	case TypeSkipLiesToggle:
		return decodeAs[SkipLiesToggle](data)
	case TypeJumpToTimestamp:
		return decodeAs[JumpToTimestamp](data)
	case TypePageUpdate:
		return decodeAs[PageUpdate](data)
	case TypePlaybackState:
		return decodeAs[PlaybackState](data)
	case TypeStartAnalysis:
		return decodeAs[StartAnalysis](data)
	case TypeAnalysisProgress:
		return decodeAs[AnalysisProgress](data)
	case TypeLiesUpdate:
		return decodeAs[LiesUpdate](data)
	case TypeAnalysisResult:
		return decodeAs[AnalysisResult](data)
	case TypeLieSkipped:
		return decodeAs[LieSkipped](data)
	case TypeGetCurrentVideoLies:
		return decodeAs[GetCurrentVideoLies](data)
	case TypeSeekTo:
		return decodeAs[SeekTo](data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
}

func decodeAs[T Message](data []byte) (Message, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.MessageType(), err)
	}
	return m, nil
}
