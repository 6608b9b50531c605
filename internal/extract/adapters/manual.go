package adapters

import (
	"context"
	"fmt"

	"github.com/ppiankov/lieblocker/internal/extract"
)

// ManualSegmentSelectors match creator-provided caption segments
var ManualSegmentSelectors = []string{
	`ytd-transcript-segment-renderer[manual="true"]`,
	"ytd-transcript-segment-renderer.manual",
	".transcript-segment.manual",
}

// ManualStrategy reads manual segments already present on the page.
// It never clicks anything.
type ManualStrategy struct{}

// NewManualStrategy creates the strategy
func NewManualStrategy() *ManualStrategy {
	return &ManualStrategy{}
}

// Name returns the strategy name
func (s *ManualStrategy) Name() string {
	return "manual"
}

// Extract reads manual segments
func (s *ManualStrategy) Extract(ctx context.Context, page extract.Page) (string, error) {
	doc, err := page.Document(ctx)
	if err != nil {
		return "", err
	}
	segments, _ := firstNonEmpty(doc, ManualSegmentSelectors)
	if segments == nil {
		return "", fmt.Errorf("no manual transcript segments found")
	}
	return collect(segments, s.Name())
}
