package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/lieblocker/internal/extract"
)

// openPanel clicks the transcript control when the panel is closed, waits
// for it to settle and returns a fresh snapshot
func openPanel(ctx context.Context, page extract.Page, settle time.Duration) (*goquery.Document, error) {
	doc, err := page.Document(ctx)
	if err != nil {
		return nil, err
	}

	control, ok := extract.FindTranscriptButton(doc)
	if !ok {
		return nil, fmt.Errorf("transcript button not found")
	}

	if !extract.IsTranscriptPanelOpen(doc) {
		if err := page.Activate(ctx, control); err != nil {
			return nil, fmt.Errorf("activate transcript control: %w", err)
		}
	}

	if err := extract.Settle(ctx, settle); err != nil {
		return nil, err
	}
	return page.Document(ctx)
}

// firstNonEmpty returns the matches of the first selector that finds anything
func firstNonEmpty(doc *goquery.Document, selectors []string) (*goquery.Selection, string) {
	for _, selector := range selectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return sel, selector
		}
	}
	return nil, ""
}

func collect(sel *goquery.Selection, name string) (string, error) {
	text := extract.JoinSegments(extract.Segments(sel))
	if !extract.LongEnough(text) {
		return "", fmt.Errorf("%s transcript too short", name)
	}
	return text, nil
}
