// Package playlist holds the playback request and the sequencing state machine
// that decides what happens when a source ends.
package playlist

import (
	"errors"
	"fmt"
)

// DefaultFPS is the frame rate used when a request does not set one.
const DefaultFPS = 24

// MaxSmoothFPS is the highest rate the pump is expected to sustain.
// Higher rates are accepted but may drop frames.
const MaxSmoothFPS = 25

var (
	// ErrEmptyPlaylist is returned for a request without sources.
	ErrEmptyPlaylist = errors.New("playlist: no sources")
	// ErrInvalidFPS is returned for a non-positive frame rate.
	ErrInvalidFPS = errors.New("playlist: fps must be positive")
	// ErrEmptySource is returned for a blank source identifier.
	ErrEmptySource = errors.New("playlist: empty source identifier")
)

// Request is an ordered list of sources with playback parameters.
// It is immutable once handed to a player.
type Request struct {
	Sources    []string
	FPS        int
	Loop       bool
	OnComplete func(ok bool)
}

// Validate checks the request can be played.
func (r *Request) Validate() error {
	if len(r.Sources) == 0 {
		return ErrEmptyPlaylist
	}
	for i, s := range r.Sources {
		if s == "" {
			return fmt.Errorf("%w at index %d", ErrEmptySource, i)
		}
	}
	if r.FPS <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFPS, r.FPS)
	}
	return nil
}

// Action is the kind of a sequencing decision.
type Action int

const (
	// Open opens the source at Decision.Index.
	Open Action = iota
	// Restart wraps a looping playlist back to index 0.
	Restart
	// Complete ends the session successfully.
	Complete
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case Open:
		return "open"
	case Restart:
		return "restart"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Decision is what to do after a source finished cleanly.
type Decision struct {
	Action Action
	Index  int
}

// Sequencer tracks the position in a request.
type Sequencer struct {
	req      *Request
	index    int
	finished bool
	reported bool
}

// NewSequencer creates a sequencer positioned at index 0.
func NewSequencer(req *Request) *Sequencer {
	return &Sequencer{req: req}
}

// Request returns the request being sequenced.
func (s *Sequencer) Request() *Request {
	return s.req
}

// Current returns the index of the current source.
func (s *Sequencer) Current() int {
	return s.index
}

// CurrentSource returns the identifier of the current source.
func (s *Sequencer) CurrentSource() string {
	return s.req.Sources[s.index]
}

// Len returns the number of sources.
func (s *Sequencer) Len() int {
	return len(s.req.Sources)
}

// Finished reports whether the session ended.
func (s *Sequencer) Finished() bool {
	return s.finished
}

// Reset starts a new session at index 0. The completion guard is kept, so a
// request reports completion at most once.
func (s *Sequencer) Reset() {
	s.index = 0
	s.finished = false
}

// Advance moves past the current source after it completed cleanly.
func (s *Sequencer) Advance() Decision {
	if s.finished {
		return Decision{Action: Complete, Index: s.index}
	}
	next := s.index + 1
	if next < len(s.req.Sources) {
		s.index = next
		return Decision{Action: Open, Index: next}
	}
	if s.req.Loop {
		s.index = 0
		return Decision{Action: Restart, Index: 0}
	}
	s.finished = true
	return Decision{Action: Complete, Index: s.index}
}

// Fail ends the session after a source failed. Failed sources are not retried.
func (s *Sequencer) Fail() {
	s.finished = true
}

// Finish returns true the first time it is called for this request and false
// afterwards. Looping requests never report, not even after a failure.
func (s *Sequencer) Finish() bool {
	if s.req.Loop || s.reported {
		return false
	}
	s.reported = true
	return true
}
