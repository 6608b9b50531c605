package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/lieblocker/internal/extract"
)

// GenericSegmentSelectors match any caption segment
var GenericSegmentSelectors = []string{
	"ytd-transcript-segment-renderer",
	".transcript-segment",
	`[role="button"][data-start]`,
	".ytd-transcript-segment-renderer",
}

// GenericStrategy is the last resort: open the panel and take every segment
type GenericStrategy struct {
	settle time.Duration
}

// NewGenericStrategy creates the strategy with the given settle delay
func NewGenericStrategy(settle time.Duration) *GenericStrategy {
	return &GenericStrategy{settle: settle}
}

// Name returns the strategy name
func (s *GenericStrategy) Name() string {
	return "dom"
}

// Extract reads every segment without indicator filtering
func (s *GenericStrategy) Extract(ctx context.Context, page extract.Page) (string, error) {
	doc, err := openPanel(ctx, page, s.settle)
	if err != nil {
		return "", err
	}
	segments, _ := firstNonEmpty(doc, GenericSegmentSelectors)
	if segments == nil {
		return "", fmt.Errorf("no transcript segments found")
	}
	return collect(segments, s.Name())
}
