package extract

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/lieblocker/internal/model"
)

func mustPage(t *testing.T, markup string) *StaticPage {
	t.Helper()
	page, err := NewStaticPage(markup)
	if err != nil {
		t.Fatalf("NewStaticPage: %v", err)
	}
	return page
}

func TestFindTranscriptButton_BySelector(t *testing.T) {
	page := mustPage(t, `<html><body>
		<button aria-label="Like">Like</button>
		<button aria-label="Show transcript">Show transcript</button>
	</body></html>`)
	doc, _ := page.Document(context.Background())

	control, ok := FindTranscriptButton(doc)
	if !ok {
		t.Fatal("expected a transcript button")
	}
	if control.Selector != `button[aria-label*="transcript"]` {
		t.Errorf("unexpected selector %q", control.Selector)
	}
	if control.Label != "Show transcript" {
		t.Errorf("Label = %q", control.Label)
	}
}

func TestFindTranscriptButton_TextFallback(t *testing.T) {
	page := mustPage(t, `<html><body>
		<div role="button">Share</div>
		<div role="button"><span>Open TRANSCRIPT</span></div>
	</body></html>`)
	doc, _ := page.Document(context.Background())

	control, ok := FindTranscriptButton(doc)
	if !ok {
		t.Fatal("expected text fallback to find the control")
	}
	if control.Selector != "" || control.Label != "Open TRANSCRIPT" {
		t.Errorf("unexpected control %+v", control)
	}
}

func TestFindTranscriptButton_None(t *testing.T) {
	page := mustPage(t, `<html><body><button>Subscribe</button></body></html>`)
	doc, _ := page.Document(context.Background())
	if _, ok := FindTranscriptButton(doc); ok {
		t.Error("expected no transcript control")
	}
}

func TestIsTranscriptPanelOpen(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   bool
	}{
		{"renderer present", `<ytd-transcript-renderer><p>x</p></ytd-transcript-renderer>`, true},
		{"id present", `<div id="transcript">x</div>`, true},
		{"hidden attribute", `<div id="transcript" hidden>x</div>`, false},
		{"hidden ancestor", `<div style="display: none"><div class="transcript-container">x</div></div>`, false},
		{"absent", `<div id="comments"></div>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := mustPage(t, "<html><body>"+tt.markup+"</body></html>")
			doc, _ := page.Document(context.Background())
			if got := IsTranscriptPanelOpen(doc); got != tt.want {
				t.Errorf("IsTranscriptPanelOpen = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSegments_JoinSkipsEmptyLines(t *testing.T) {
	page := mustPage(t, `<html><body>
		<ytd-transcript-segment-renderer>
			<div class="segment-timestamp">0:01</div>
			<div class="segment-text">  hello   world </div>
		</ytd-transcript-segment-renderer>
		<ytd-transcript-segment-renderer>
			<div class="segment-timestamp">0:05</div>
			<div class="segment-text"></div>
		</ytd-transcript-segment-renderer>
		<ytd-transcript-segment-renderer>
			<div class="segment-text">no timestamp here</div>
		</ytd-transcript-segment-renderer>
	</body></html>`)
	doc, _ := page.Document(context.Background())

	segments := Segments(doc.Find("ytd-transcript-segment-renderer"))
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if segments[0] != (model.TranscriptSegment{TimestampText: "0:01", Text: "hello world"}) {
		t.Errorf("unexpected first segment %+v", segments[0])
	}

	got := JoinSegments(segments)
	want := "0:01 hello world\nno timestamp here"
	if got != want {
		t.Errorf("JoinSegments = %q, want %q", got, want)
	}
}

func TestLongEnough(t *testing.T) {
	if LongEnough(strings.Repeat("a", MinTranscriptLength)) {
		t.Error("exactly the minimum must not qualify")
	}
	if !LongEnough(strings.Repeat("a", MinTranscriptLength+1)) {
		t.Error("one over the minimum must qualify")
	}
}

func TestSettle_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Settle(ctx, time.Hour); err == nil {
		t.Error("expected cancelled context error")
	}
	if err := Settle(context.Background(), 0); err != nil {
		t.Errorf("zero delay: %v", err)
	}
}

func TestStaticPage_RecordsActivations(t *testing.T) {
	page := mustPage(t, `<html><body></body></html>`)
	if err := page.Activate(context.Background(), Control{Label: "Show transcript"}); err != nil {
		t.Fatal(err)
	}
	if got := page.Activations(); len(got) != 1 || got[0].Label != "Show transcript" {
		t.Errorf("unexpected activations %+v", got)
	}
}
