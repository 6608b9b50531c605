package extract

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ppiankov/lieblocker/internal/model"
)

// MinTranscriptLength is the shortest transcript (in characters) a strategy may return
const MinTranscriptLength = 100

// TranscriptButtonSelectors locate the "Show transcript" control, most specific first
var TranscriptButtonSelectors = []string{
	`button[aria-label*="transcript"]`,
	`button[aria-label*="Transcript"]`,
	`button[aria-label*="Show transcript"]`,
	`button[title*="transcript"]`,
	`button[title*="Transcript"]`,
	`[role="button"][aria-label*="transcript"]`,
	`[role="button"][aria-label*="Transcript"]`,
	`ytd-button-renderer:has([aria-label*="transcript"])`,
	`yt-button-shape:has([aria-label*="transcript"])`,
}

// TranscriptPanelSelectors match an open transcript panel
var TranscriptPanelSelectors = []string{
	"ytd-transcript-renderer",
	"#transcript",
	".transcript-container",
	`[data-testid="transcript"]`,
}

var (
	segmentTimestampSelectors = []string{"[data-start]", ".segment-timestamp", ".ytd-transcript-segment-renderer:first-child"}
	segmentTextSelectors      = []string{".segment-text, .ytd-transcript-segment-renderer:last-child", "div:last-child"}
)

// FindTranscriptButton returns the first transcript control on the page.
// Selector matches win over the text/aria-label scan.
func FindTranscriptButton(doc *goquery.Document) (Control, bool) {
	for _, selector := range TranscriptButtonSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return Control{Selector: selector, Label: controlLabel(sel)}, true
		}
	}

	var found Control
	ok := false
	doc.Find(`button, [role="button"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		aria, _ := sel.Attr("aria-label")
		if strings.Contains(strings.ToLower(sel.Text()), "transcript") ||
			strings.Contains(strings.ToLower(aria), "transcript") {
			found = Control{Label: controlLabel(sel)}
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

func controlLabel(sel *goquery.Selection) string {
	if text := NormalizeText(sel.Text()); text != "" {
		return text
	}
	if label, ok := sel.Attr("aria-label"); ok {
		return NormalizeText(label)
	}
	return ""
}

// IsTranscriptPanelOpen reports whether a visible transcript panel exists
func IsTranscriptPanelOpen(doc *goquery.Document) bool {
	for _, selector := range TranscriptPanelSelectors {
		open := false
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if !IsHidden(sel.Get(0)) {
				open = true
				return false
			}
			return true
		})
		if open {
			return true
		}
	}
	return false
}

// IsHidden reports whether n or an ancestor carries the hidden attribute or
// an inline display:none
func IsHidden(n *html.Node) bool {
	for node := n; node != nil; node = node.Parent {
		if node.Type != html.ElementNode {
			continue
		}
		for _, attr := range node.Attr {
			switch attr.Key {
			case "hidden":
				return true
			case "style":
				style := strings.ReplaceAll(strings.ToLower(attr.Val), " ", "")
				if strings.Contains(style, "display:none") {
					return true
				}
			}
		}
	}
	return false
}

// Segment reads one caption segment element
func Segment(sel *goquery.Selection) model.TranscriptSegment {
	var seg model.TranscriptSegment
	if ts := firstMatch(sel, segmentTimestampSelectors); ts != nil {
		seg.TimestampText = NormalizeText(ts.Text())
	}
	if text := firstMatch(sel, segmentTextSelectors); text != nil {
		seg.Text = NormalizeText(text.Text())
	}
	return seg
}

func firstMatch(sel *goquery.Selection, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if found := sel.Find(selector).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// Segments reads every element in sel as a caption segment
func Segments(sel *goquery.Selection) []model.TranscriptSegment {
	segments := make([]model.TranscriptSegment, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		segments = append(segments, Segment(s))
	})
	return segments
}

// JoinSegments renders segments one per line, dropping empty lines
func JoinSegments(segments []model.TranscriptSegment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		if line := strings.TrimSpace(seg.Line()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// LongEnough reports whether a transcript clears MinTranscriptLength
func LongEnough(transcript string) bool {
	return utf8.RuneCountInString(transcript) > MinTranscriptLength
}

// NormalizeText collapses runs of whitespace
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Settle waits for d or until ctx is done
func Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
