// Package pump implements the frame pump: a periodic pull-transform-fit-draw
// cycle over one frame source at a time.
//
// A Pump is not safe for concurrent use. Every method, and every tick, must run
// on the same serial queue (see renderqueue).
package pump

import (
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/ideamans/go-l10n"

	"github.com/user/fsvideo/pkg/geometry"
	"github.com/user/fsvideo/pkg/ports"
)

var (
	// ErrNoSource is returned when starting a pump that has no loaded source.
	ErrNoSource = errors.New("pump: no source loaded")
	// ErrInvalidFPS is returned when loading with a non-positive frame rate.
	ErrInvalidFPS = errors.New("pump: fps must be positive")
)

// State is the pump lifecycle state.
type State int

const (
	// Idle has a source loaded but no timer armed.
	Idle State = iota
	// Reading has the timer armed; each tick draws one frame.
	Reading
	// Draining is entered when the source ends; the timer is cancelled and
	// the result is reported.
	Draining
	// Stopped is terminal until a new source is loaded.
	Stopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reading:
		return "reading"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Scheduler arms and cancels the periodic tick. *renderqueue.Queue implements it.
type Scheduler interface {
	Arm(interval time.Duration, fn func()) error
	Disarm()
}

// Compositor draws a frame onto the surface.
type Compositor interface {
	// SurfaceSize returns the current destination size.
	SurfaceSize() geometry.Dimension
	// Compose draws the source crop of img over the whole surface and presents it.
	Compose(img image.Image, geom geometry.DrawGeometry) error
}

// Result is reported once when a source terminates.
type Result struct {
	Frames int   // Frames composed
	Drops  int   // Frames pulled but not composed
	OK     bool  // Clean end of stream
	Err    error // Failure cause when OK is false
}

// Pump pulls frames from a source at a fixed interval and composes them.
type Pump struct {
	sched       Scheduler
	compositor  Compositor
	transformer ports.Transformer
	logger      ports.Logger

	// OnFirstFrame, if set, receives the geometry of the first composed frame
	// of each source.
	OnFirstFrame func(geom geometry.DrawGeometry)

	state    State
	source   ports.FrameSource
	interval time.Duration
	paused   bool
	onDone   func(Result)
	frames   int
	drops    int
}

// New creates a stopped Pump.
func New(sched Scheduler, compositor Compositor, logger ports.Logger) *Pump {
	return &Pump{
		sched:       sched,
		compositor:  compositor,
		transformer: ports.Identity,
		logger:      logger.WithComponent("pump"),
		state:       Stopped,
	}
}

// SetTransformer sets the per-frame transform. Nil restores the identity.
// It takes effect on the next tick.
func (p *Pump) SetTransformer(t ports.Transformer) {
	if t == nil {
		t = ports.Identity
	}
	p.transformer = t
}

// Load re-arms the pump with a new source. Any current source is halted
// without a report. onDone is called exactly once when src terminates.
func (p *Pump) Load(src ports.FrameSource, fps int, onDone func(Result)) error {
	if fps <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFPS, fps)
	}
	p.Halt()

	p.source = src
	p.interval = geometry.Interval(fps)
	p.onDone = onDone
	p.paused = false
	p.frames = 0
	p.drops = 0
	p.state = Idle
	return nil
}

// Start arms the timer: Idle becomes Reading. Starting a paused pump resumes it.
func (p *Pump) Start() error {
	switch p.state {
	case Idle:
		if err := p.sched.Arm(p.interval, p.tick); err != nil {
			return fmt.Errorf("arm timer: %w", err)
		}
		p.state = Reading
		p.logger.Debug(l10n.F("Pumping every %s", p.interval))
		return nil
	case Reading:
		return p.Resume()
	default:
		return ErrNoSource
	}
}

// Pause cancels the timer and keeps the source open at its position.
func (p *Pump) Pause() {
	if p.state != Reading || p.paused {
		return
	}
	p.paused = true
	p.sched.Disarm()
	p.logger.Debug(l10n.T("Pump paused"))
}

// Resume re-arms the timer of a paused pump.
func (p *Pump) Resume() error {
	if p.state != Reading || !p.paused {
		return nil
	}
	if err := p.sched.Arm(p.interval, p.tick); err != nil {
		return fmt.Errorf("arm timer: %w", err)
	}
	p.paused = false
	p.logger.Debug(l10n.T("Pump resumed"))
	return nil
}

// Halt cancels the timer and closes the source without reporting a result.
func (p *Pump) Halt() {
	if p.state == Reading {
		p.sched.Disarm()
	}
	if p.source != nil {
		if err := p.source.Close(); err != nil {
			p.logger.Warn(l10n.F("Failed to close source: %s", err))
		}
		p.source = nil
	}
	p.onDone = nil
	p.paused = false
	p.state = Stopped
}

// State returns the lifecycle state.
func (p *Pump) State() State {
	return p.state
}

// Paused reports whether a reading pump is paused.
func (p *Pump) Paused() bool {
	return p.paused
}

// Frames returns the number of frames composed from the current source.
func (p *Pump) Frames() int {
	return p.frames
}

// Source returns the loaded source, or nil.
func (p *Pump) Source() ports.FrameSource {
	return p.source
}

// tick performs one pull-transform-fit-draw cycle.
func (p *Pump) tick() {
	if p.state != Reading || p.paused {
		return
	}

	frame, err := p.source.Next()
	if err != nil {
		p.drain(err)
		return
	}

	// A sample without a picture is skipped, not treated as the end.
	if frame.Image == nil {
		return
	}

	img := p.transformer.Transform(frame.Image)
	if img == nil {
		p.drops++
		p.logger.Warn(l10n.F("Transform returned no image for frame %d", frame.Index))
		return
	}

	surface := p.compositor.SurfaceSize()
	if !surface.Valid() {
		p.drops++
		return
	}

	geom := geometry.Fit(geometry.DimensionOf(img.Bounds()), surface)
	if err := p.compositor.Compose(img, geom); err != nil {
		p.drops++
		p.logger.Warn(l10n.F("Failed to compose frame %d: %s", frame.Index, err))
		return
	}

	if p.frames == 0 && p.OnFirstFrame != nil {
		p.OnFirstFrame(geom)
	}
	p.frames++
}

// drain cancels the timer, closes the source and reports the result once.
func (p *Pump) drain(cause error) {
	p.state = Draining
	p.sched.Disarm()

	result := Result{Frames: p.frames, Drops: p.drops}

	// Only a completed session is a clean end, whatever error ended the pull.
	if p.source.Status() == ports.StatusCompleted {
		result.OK = true
	} else if errors.Is(cause, io.EOF) {
		result.Err = fmt.Errorf("%w: stream ended with status %s", ports.ErrDecodeFailure, p.source.Status())
	} else {
		result.Err = cause
	}

	if err := p.source.Close(); err != nil {
		p.logger.Warn(l10n.F("Failed to close source: %s", err))
	}
	p.source = nil
	p.state = Stopped

	done := p.onDone
	p.onDone = nil
	if done != nil {
		done(result)
	}
}
