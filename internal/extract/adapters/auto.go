package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/lieblocker/internal/extract"
)

// AutoSegmentSelectors match auto-generated caption segments, most specific first
var AutoSegmentSelectors = []string{
	`ytd-transcript-segment-renderer[auto-generated="true"]`,
	`ytd-transcript-segment-renderer:not([manual="true"])`,
	"ytd-transcript-segment-renderer",
	".transcript-segment",
	`[role="button"][data-start]`,
}

// AutoGeneratedStrategy opens the transcript panel and prefers segments that
// look auto-generated
type AutoGeneratedStrategy struct {
	settle time.Duration
}

// NewAutoGeneratedStrategy creates the strategy with the given settle delay
func NewAutoGeneratedStrategy(settle time.Duration) *AutoGeneratedStrategy {
	return &AutoGeneratedStrategy{settle: settle}
}

// Name returns the strategy name
func (s *AutoGeneratedStrategy) Name() string {
	return "auto-generated"
}

// Extract reads auto-generated segments
func (s *AutoGeneratedStrategy) Extract(ctx context.Context, page extract.Page) (string, error) {
	doc, err := openPanel(ctx, page, s.settle)
	if err != nil {
		return "", err
	}

	segments, _ := firstNonEmpty(doc, AutoSegmentSelectors)
	if segments == nil {
		return "", fmt.Errorf("no auto-generated transcript segments found")
	}

	auto := segments.FilterFunction(func(_ int, seg *goquery.Selection) bool {
		return looksAutoGenerated(seg)
	})
	if auto.Length() == 0 {
		auto = segments
	}
	return collect(auto, s.Name())
}

// looksAutoGenerated keeps segments marked auto-generated, or carrying no
// manual marker and no auto-generated class on themselves or an ancestor
func looksAutoGenerated(seg *goquery.Selection) bool {
	if _, ok := seg.Attr("auto-generated"); ok {
		return true
	}
	manual, _ := seg.Attr("manual")
	autoClass := seg.HasClass("auto-generated") || seg.Closest(".auto-generated").Length() > 0
	return manual != "true" && !autoClass
}
