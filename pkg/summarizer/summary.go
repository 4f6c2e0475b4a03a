package summarizer

import (
	"time"
)

// Summary contains all data collected during a playback session.
type Summary struct {
	GeneratedAt time.Time

	Settings Settings
	Sources  []SourceInfo
	Outcome  Outcome
}

// Settings contains the playback configuration.
type Settings struct {
	FPS           int
	Loop          bool
	SurfaceWidth  int
	SurfaceHeight int
	Filters       []string
	Output        string
}

// SourceInfo describes one played source.
type SourceInfo struct {
	Index  int
	ID     string
	Frames int
	Drops  int
	OK     bool
	Error  string
}

// Outcome describes how the session ended.
type Outcome struct {
	Finished   bool
	OK         bool
	DurationMs int
}

// TotalFrames returns the frames drawn across all sources.
func (s *Summary) TotalFrames() int {
	n := 0
	for _, src := range s.Sources {
		n += src.Frames
	}
	return n
}

// TotalDrops returns the dropped frames across all sources.
func (s *Summary) TotalDrops() int {
	n := 0
	for _, src := range s.Sources {
		n += src.Drops
	}
	return n
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithGeneratedAt overrides the report timestamp.
func (b *Builder) WithGeneratedAt(t time.Time) *Builder {
	b.summary.GeneratedAt = t
	return b
}

// WithSettings sets playback settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithSource appends a source result.
func (b *Builder) WithSource(info SourceInfo) *Builder {
	b.summary.Sources = append(b.summary.Sources, info)
	return b
}

// WithOutcome sets the session outcome.
func (b *Builder) WithOutcome(ok bool, duration time.Duration) *Builder {
	b.summary.Outcome = Outcome{
		Finished:   true,
		OK:         ok,
		DurationMs: int(duration.Milliseconds()),
	}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
