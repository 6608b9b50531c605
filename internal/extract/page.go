// Package extract reads watch-page markup: transcript controls, the
// transcript panel and its caption segments.
package extract

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Control identifies an interactive element the extractor wants clicked
type Control struct {
	Selector string // selector that located the control, empty for text matches
	Label    string // visible text or aria-label of the control
}

// Page is the watch page as seen by the extractor.
// Document returns the current markup; Activate asks the page to click a control.
type Page interface {
	Document(ctx context.Context) (*goquery.Document, error)
	Activate(ctx context.Context, control Control) error
}

// StaticPage serves a fixed HTML snapshot. Activations are recorded but do
// not change the markup; snapshots pushed by the coordinator already carry
// the open panel when one exists.
type StaticPage struct {
	mu          sync.Mutex
	root        *html.Node
	activations []Control
}

// NewStaticPage parses an HTML snapshot
func NewStaticPage(markup string) (*StaticPage, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return &StaticPage{root: root}, nil
}

// Document wraps the parsed snapshot in a goquery document
func (p *StaticPage) Document(ctx context.Context) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return goquery.NewDocumentFromNode(p.root), nil
}

// Activate records the control
func (p *StaticPage) Activate(ctx context.Context, control Control) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.activations = append(p.activations, control)
	p.mu.Unlock()
	return nil
}

// Activations returns the controls activated so far
func (p *StaticPage) Activations() []Control {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Control, len(p.activations))
	copy(out, p.activations)
	return out
}

// Replace swaps in a newer snapshot of the same page
func (p *StaticPage) Replace(markup string) error {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.root = root
	p.mu.Unlock()
	return nil
}
