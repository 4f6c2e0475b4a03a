// Package player is the public playback surface: it owns the render queue,
// the frame pump and the playlist sequencer, and marshals every control call
// onto the queue.
package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ideamans/go-l10n"
	"github.com/jonboulle/clockwork"

	"github.com/user/fsvideo/pkg/geometry"
	"github.com/user/fsvideo/pkg/playlist"
	"github.com/user/fsvideo/pkg/ports"
	"github.com/user/fsvideo/pkg/pump"
	"github.com/user/fsvideo/pkg/renderqueue"
)

// ErrNoRequest is returned by Play when no playlist was set.
var ErrNoRequest = errors.New("player: no playback request")

// State is the playback session state.
type State int

const (
	// Idle has a request (or none) but no session.
	Idle State = iota
	// Playing has the frame timer armed.
	Playing
	// Paused keeps the open source and index with the timer cancelled.
	Paused
	// Finished ended after the last source or a failure.
	Finished
	// Closed is terminal.
	Closed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config holds optional collaborators.
type Config struct {
	Clock    clockwork.Clock        // Frame clock; nil uses the real clock
	Observer ports.PlaybackObserver // Playback events; nil ignores them
	Sink     ports.DebugSink        // Receives per-source geometry JSON when enabled
}

// PlayOption configures a playback request.
type PlayOption func(*playlist.Request)

// WithFPS sets the frame rate. Rates above playlist.MaxSmoothFPS are accepted.
func WithFPS(fps int) PlayOption {
	return func(r *playlist.Request) { r.FPS = fps }
}

// WithLoop restarts the playlist at the first source after the last one.
func WithLoop(loop bool) PlayOption {
	return func(r *playlist.Request) { r.Loop = loop }
}

// WithCompletion sets the callback invoked once when a non-looping playlist
// ends. ok is false after any source failure. The callback runs on its own
// goroutine and may call back into the Player.
func WithCompletion(fn func(ok bool)) PlayOption {
	return func(r *playlist.Request) { r.OnComplete = fn }
}

// Player plays a playlist of sources onto a compositor.
type Player struct {
	queue    *renderqueue.Queue
	pump     *pump.Pump
	opener   ports.SourceOpener
	observer ports.PlaybackObserver
	sink     ports.DebugSink
	logger   ports.Logger

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once

	// Owned by the queue.
	seq   *playlist.Sequencer
	state State
}

// New creates a Player and starts its render queue.
func New(ctx context.Context, opener ports.SourceOpener, compositor pump.Compositor, logger ports.Logger, cfg Config) (*Player, error) {
	if cfg.Observer == nil {
		cfg.Observer = ports.NopObserver{}
	}

	ctx, cancel := context.WithCancel(ctx)
	queue := renderqueue.New(cfg.Clock)
	if err := queue.Start(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("start render queue: %w", err)
	}

	p := &Player{
		queue:    queue,
		pump:     pump.New(queue, compositor, logger),
		opener:   opener,
		observer: cfg.Observer,
		sink:     cfg.Sink,
		logger:   logger.WithComponent("player"),
		ctx:      ctx,
		cancel:   cancel,
	}
	p.pump.OnFirstFrame = p.saveGeometry
	return p, nil
}

// PlayPlaylist replaces the playback request. Any current session is halted:
// its timer is cancelled and its source closed. Playback starts with Play.
func (p *Player) PlayPlaylist(sources []string, opts ...PlayOption) error {
	req := &playlist.Request{
		Sources: append([]string(nil), sources...),
		FPS:     playlist.DefaultFPS,
	}
	for _, opt := range opts {
		opt(req)
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if req.FPS > playlist.MaxSmoothFPS {
		p.logger.Warn(l10n.F("Frame rate %d exceeds %d fps, frames may be dropped", req.FPS, playlist.MaxSmoothFPS))
	}

	return p.queue.Do(func() {
		p.pump.Halt()
		p.seq = playlist.NewSequencer(req)
		p.state = Idle
		p.logger.Info(l10n.F("Playlist set: %d sources at %d fps", len(req.Sources), req.FPS))
	})
}

// PlaySingle replaces the playback request with a one-source playlist.
func (p *Player) PlaySingle(source string, opts ...PlayOption) error {
	return p.PlayPlaylist([]string{source}, opts...)
}

// Play starts or resumes playback. A paused session resumes at the same index
// with the same source. Otherwise a new session opens the first source; if
// that fails the error is returned and completion reports false.
func (p *Player) Play() error {
	var err error
	if qerr := p.queue.Do(func() { err = p.play() }); qerr != nil {
		return qerr
	}
	return err
}

// Pause cancels the frame timer. The index and the open source are kept.
func (p *Player) Pause() error {
	return p.queue.Do(func() {
		if p.state != Playing {
			return
		}
		p.pump.Pause()
		p.state = Paused
		p.logger.Info(l10n.F("Paused at source %d", p.seq.Current()))
	})
}

// SetFilter sets the per-frame transform. Nil restores the identity.
func (p *Player) SetFilter(t ports.Transformer) error {
	return p.queue.Do(func() {
		p.pump.SetTransformer(t)
	})
}

// State returns the session state.
func (p *Player) State() State {
	state := Closed
	_ = p.queue.Do(func() { state = p.state })
	return state
}

// Index returns the current source index, or -1 without a request.
func (p *Player) Index() int {
	index := -1
	_ = p.queue.Do(func() {
		if p.seq != nil {
			index = p.seq.Current()
		}
	})
	return index
}

// Close halts playback and stops the render queue. No completion is reported.
// The open source is closed even when the parent context was cancelled first.
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		err := p.queue.Do(func() {
			p.pump.Halt()
			p.state = Closed
		})
		p.queue.Stop()
		if err != nil {
			// The loop has exited, so the pump is no longer shared.
			p.pump.Halt()
			p.state = Closed
		}
		p.cancel()
	})
}

func (p *Player) play() error {
	if p.seq == nil {
		return ErrNoRequest
	}

	switch p.state {
	case Playing:
		return nil
	case Paused:
		if err := p.pump.Resume(); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		p.state = Playing
		p.logger.Info(l10n.F("Resumed at source %d", p.seq.Current()))
		return nil
	case Finished:
		p.seq.Reset()
	case Closed:
		return renderqueue.ErrStopped
	}

	p.state = Playing
	return p.openCurrent()
}

// openCurrent opens the sequencer's current source and starts pumping it.
// A failure ends the session.
func (p *Player) openCurrent() error {
	index, id := p.seq.Current(), p.seq.CurrentSource()
	req := p.seq.Request()

	src, err := p.opener.Open(p.ctx, id)
	if err != nil {
		return p.openFailed(index, id, err)
	}
	if err := p.pump.Load(src, req.FPS, p.sourceDone(index, id)); err != nil {
		_ = src.Close()
		return p.openFailed(index, id, err)
	}
	if err := p.pump.Start(); err != nil {
		p.pump.Halt()
		return p.openFailed(index, id, err)
	}

	p.logger.Info(l10n.F("Playing source %d: %s", index, id))
	p.observer.SourceStarted(index, id)
	return nil
}

func (p *Player) openFailed(index int, id string, err error) error {
	err = fmt.Errorf("open source %d (%s): %w", index, id, err)
	p.logger.Error(l10n.F("Failed to open source %d: %s", index, err))
	p.observer.SourceFinished(ports.SourceResult{Index: index, ID: id, Err: err})
	p.fail()
	return err
}

// sourceDone returns the pump callback for one source. It runs on the queue.
func (p *Player) sourceDone(index int, id string) func(pump.Result) {
	return func(r pump.Result) {
		p.observer.SourceFinished(ports.SourceResult{
			Index:  index,
			ID:     id,
			Frames: r.Frames,
			Drops:  r.Drops,
			OK:     r.OK,
			Err:    r.Err,
		})

		if !r.OK {
			p.logger.Error(l10n.F("Source %d failed: %s", index, r.Err))
			p.fail()
			return
		}
		p.logger.Debug(l10n.F("Source %d ended after %d frames", index, r.Frames))

		switch d := p.seq.Advance(); d.Action {
		case playlist.Open, playlist.Restart:
			if d.Action == playlist.Restart {
				p.logger.Debug(l10n.T("Playlist restarted"))
			}
			// A failure here has already ended the session.
			_ = p.openCurrent()
		case playlist.Complete:
			p.finish(true)
		}
	}
}

func (p *Player) fail() {
	p.seq.Fail()
	p.pump.Halt()
	p.finish(false)
}

func (p *Player) finish(ok bool) {
	p.state = Finished
	p.logger.Info(l10n.F("Playback finished (ok=%t)", ok))
	p.observer.PlaybackFinished(ok)

	if !p.seq.Finish() {
		return
	}
	if cb := p.seq.Request().OnComplete; cb != nil {
		go cb(ok)
	}
}

// saveGeometry dumps the draw geometry of a source's first frame.
func (p *Player) saveGeometry(geom geometry.DrawGeometry) {
	if p.sink == nil || !p.sink.Enabled() || p.seq == nil {
		return
	}
	data, err := json.MarshalIndent(geom, "", "  ")
	if err != nil {
		return
	}
	if err := p.sink.SaveGeometryJSON(p.seq.Current(), data); err != nil {
		p.logger.Warn(l10n.F("Failed to save geometry: %s", err))
	}
}
