package summarizer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/user/fsvideo/pkg/ports"
)

// Recorder is a PlaybackObserver that accumulates a Summary.
type Recorder struct {
	clock    clockwork.Clock
	settings Settings

	mu      sync.Mutex
	started  time.Time
	sources  []SourceInfo
	finished bool
	ok       bool
	elapsed  time.Duration
	done     chan struct{}
}

// NewRecorder creates a Recorder. A nil clock uses the real clock.
func NewRecorder(settings Settings, clock clockwork.Clock) *Recorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Recorder{
		clock:    clock,
		settings: settings,
		done:     make(chan struct{}),
	}
}

// SourceStarted implements ports.PlaybackObserver.
func (r *Recorder) SourceStarted(index int, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started.IsZero() {
		r.started = r.clock.Now()
	}
}

// SourceFinished implements ports.PlaybackObserver.
func (r *Recorder) SourceFinished(result ports.SourceResult) {
	info := SourceInfo{
		Index:  result.Index,
		ID:     result.ID,
		Frames: result.Frames,
		Drops:  result.Drops,
		OK:     result.OK,
	}
	if result.Err != nil {
		info.Error = result.Err.Error()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, info)
}

// PlaybackFinished implements ports.PlaybackObserver. Only the first
// report counts.
func (r *Recorder) PlaybackFinished(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.finished = true
	r.ok = ok
	if !r.started.IsZero() {
		r.elapsed = r.clock.Since(r.started)
	}
	close(r.done)
}

// Done is closed when the session ends.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

// Summary returns a snapshot of what was recorded so far.
func (r *Recorder) Summary() *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := NewBuilder().
		WithGeneratedAt(r.clock.Now()).
		WithSettings(r.settings)
	for _, src := range r.sources {
		b.WithSource(src)
	}
	if r.finished {
		b.WithOutcome(r.ok, r.elapsed)
	}
	return b.Build()
}

var _ ports.PlaybackObserver = (*Recorder)(nil)
