// Package session owns the state of the video currently shown and answers
// the coordinator's messages.
package session

import (
	"sync"

	"github.com/ppiankov/lieblocker/internal/extract"
	"github.com/ppiankov/lieblocker/internal/model"
)

// State is the per-page session. A video change resets the claims.
type State struct {
	mu      sync.Mutex
	videoID model.VideoID
	url     string
	claims  []model.Claim
	skip    bool
	page    extract.Page
}

// Reset switches to id and discards the claims of the previous video
func (s *State) Reset(id model.VideoID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videoID = id
	s.claims = nil
}

func (s *State) VideoID() model.VideoID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoID
}

// SetPage records the latest page snapshot and its URL
func (s *State) SetPage(rawURL string, page extract.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = rawURL
	if page != nil {
		s.page = page
	}
}

func (s *State) Page() (string, extract.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, s.page
}

// Claims returns a copy of the current claim list
func (s *State) Claims() []model.Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Claim(nil), s.claims...)
}

// SetClaims replaces the claims when id is still the current video
func (s *State) SetClaims(id model.VideoID, claims []model.Claim) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.videoID {
		return false
	}
	s.claims = append([]model.Claim(nil), claims...)
	return true
}

func (s *State) SkipEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skip
}

func (s *State) SetSkip(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skip = enabled
}
