// Package playback skips flagged segments while a video plays.
package playback

import (
	"sync"
	"time"
)

// Player is the media element the guard watches
type Player interface {
	CurrentTime() float64
	Paused() bool
	Seek(position float64)
}

// ClockPlayer simulates a playing video: the position advances with the
// wall clock at Rate seconds of media per second.
type ClockPlayer struct {
	mu       sync.Mutex
	position float64
	paused   bool
	rate     float64
	since    time.Time
	seeks    []float64
	now      func() time.Time
}

// NewClockPlayer starts paused at position; a non-positive rate means 1
func NewClockPlayer(position, rate float64) *ClockPlayer {
	if rate <= 0 {
		rate = 1
	}
	return &ClockPlayer{position: position, paused: true, rate: rate, now: time.Now}
}

func (p *ClockPlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked()
}

func (p *ClockPlayer) currentLocked() float64 {
	if p.paused {
		return p.position
	}
	return p.position + p.now().Sub(p.since).Seconds()*p.rate
}

func (p *ClockPlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *ClockPlayer) Seek(position float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = position
	p.since = p.now()
	p.seeks = append(p.seeks, position)
}

// Play resumes advancing
func (p *ClockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return
	}
	p.paused = false
	p.since = p.now()
}

// Pause freezes the position
func (p *ClockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		return
	}
	p.position = p.currentLocked()
	p.paused = true
}

// Seeks returns every seek target in order
func (p *ClockPlayer) Seeks() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.seeks...)
}

// StaleSyncWindow bounds how long a RemotePlayer waits for a seek to land
// before trusting reported positions again
const StaleSyncWindow = 2 * time.Second

// seekTolerance absorbs keyframe rounding when a seek lands
const seekTolerance = 0.25

// RemotePlayer mirrors a player that lives in another process. Its state
// is pushed with Sync; seeks are forwarded through send.
type RemotePlayer struct {
	mu       sync.Mutex
	position float64
	paused   bool
	send     func(position float64)

	// pending seek target; Syncs reporting an earlier position were sent
	// before the seek reached the remote side
	target  float64
	pending bool
	until   time.Time
	now     func() time.Time
}

// NewRemotePlayer creates a paused remote player at 0
func NewRemotePlayer(send func(position float64)) *RemotePlayer {
	return &RemotePlayer{paused: true, send: send, now: time.Now}
}

// Sync records the latest state reported by the remote side. While a seek
// is in flight, positions before its target are dropped.
func (p *RemotePlayer) Sync(position float64, paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = paused
	if p.pending {
		if position < p.target-seekTolerance && p.now().Before(p.until) {
			return
		}
		p.pending = false
		if position < p.target && position >= p.target-seekTolerance {
			position = p.target
		}
	}
	p.position = position
}

func (p *RemotePlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *RemotePlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *RemotePlayer) Seek(position float64) {
	p.mu.Lock()
	p.position = position
	p.target = position
	p.pending = true
	p.until = p.now().Add(StaleSyncWindow)
	send := p.send
	p.mu.Unlock()
	if send != nil {
		send(position)
	}
}
