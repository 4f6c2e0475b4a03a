package player

import (
	"context"
	"errors"
	"image"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/user/fsvideo/pkg/adapters/logger"
	"github.com/user/fsvideo/pkg/compositor"
	"github.com/user/fsvideo/pkg/mocks"
	"github.com/user/fsvideo/pkg/playlist"
	"github.com/user/fsvideo/pkg/ports"
	"github.com/user/fsvideo/pkg/renderqueue"
)

// countingClock tracks how many tickers are running at once.
type countingClock struct {
	clockwork.Clock

	mu        sync.Mutex
	active    int
	maxActive int
	created   int
}

func (c *countingClock) NewTicker(d time.Duration) clockwork.Ticker {
	c.mu.Lock()
	c.active++
	c.created++
	if c.active > c.maxActive {
		c.maxActive = c.active
	}
	c.mu.Unlock()
	return &countingTicker{Ticker: c.Clock.NewTicker(d), clock: c}
}

func (c *countingClock) stats() (active, maxActive, created int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.maxActive, c.created
}

type countingTicker struct {
	clockwork.Ticker
	clock   *countingClock
	stopped bool
}

func (t *countingTicker) Stop() {
	t.Ticker.Stop()
	if t.stopped {
		return
	}
	t.stopped = true
	t.clock.mu.Lock()
	t.clock.active--
	t.clock.mu.Unlock()
}

type advancer interface {
	Advance(d time.Duration)
}

type fixture struct {
	player   *Player
	opener   *mocks.Opener
	surface  *mocks.Surface
	fake     advancer
	clock    *countingClock
	observer *recordingObserver
}

func newFixture(t *testing.T, opener *mocks.Opener) *fixture {
	t.Helper()
	return newFixtureContext(t, context.Background(), opener)
}

func newFixtureContext(t *testing.T, ctx context.Context, opener *mocks.Opener) *fixture {
	t.Helper()
	fc := clockwork.NewFakeClock()
	clock := &countingClock{Clock: fc}
	surface := mocks.NewSurface(160, 90)
	observer := &recordingObserver{}

	p, err := New(ctx, opener, compositor.New(surface), logger.NewNoop(), Config{
		Clock:    clock,
		Observer: observer,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(p.Close)

	return &fixture{player: p, opener: opener, surface: surface, fake: fc, clock: clock, observer: observer}
}

// advanceUntil drives the fake clock one frame interval at a time until cond holds.
func (f *fixture) advanceUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		f.fake.Advance(40 * time.Millisecond)
		time.Sleep(time.Millisecond)
	}
}

// advanceFor drives the clock n frame intervals.
func (f *fixture) advanceFor(n int) {
	for i := 0; i < n; i++ {
		f.fake.Advance(40 * time.Millisecond)
		time.Sleep(time.Millisecond)
	}
}

type completions struct {
	mu    sync.Mutex
	calls []bool
	ch    chan bool
}

func newCompletions() *completions {
	return &completions{ch: make(chan bool, 8)}
}

func (c *completions) fn(ok bool) {
	c.mu.Lock()
	c.calls = append(c.calls, ok)
	c.mu.Unlock()
	c.ch <- ok
}

func (c *completions) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []int
	finished []ports.SourceResult
	ends     []bool
}

func (o *recordingObserver) SourceStarted(index int, id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, index)
}

func (o *recordingObserver) SourceFinished(r ports.SourceResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, r)
}

func (o *recordingObserver) PlaybackFinished(ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ends = append(o.ends, ok)
}

func (o *recordingObserver) results() []ports.SourceResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ports.SourceResult(nil), o.finished...)
}

func threeSources() *mocks.Opener {
	return mocks.NewOpener().
		Add("a", mocks.SourceSpec{Frames: 2}).
		Add("b", mocks.SourceSpec{Frames: 2}).
		Add("c", mocks.SourceSpec{Frames: 2})
}

func TestPlayer_PlaylistCompletesOnce(t *testing.T) {
	f := newFixture(t, threeSources())
	done := newCompletions()

	if err := f.player.PlayPlaylist([]string{"a", "b", "c"}, WithFPS(25), WithCompletion(done.fn)); err != nil {
		t.Fatalf("PlayPlaylist failed: %v", err)
	}
	if len(f.opener.Opened()) != 0 {
		t.Fatal("PlayPlaylist must not start playback")
	}
	if err := f.player.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	f.advanceUntil(t, func() bool { return done.count() > 0 })

	ok := <-done.ch
	if !ok {
		t.Error("expected completion(true)")
	}
	if got := f.opener.Opened(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected open order: %v", got)
	}
	for i, src := range f.opener.Sources() {
		if src.Closed() != 1 {
			t.Errorf("source %d closed %d times", i, src.Closed())
		}
	}

	// Nothing fires again.
	f.advanceFor(10)
	if done.count() != 1 {
		t.Errorf("expected exactly one completion, got %d", done.count())
	}
	if f.player.State() != Finished {
		t.Errorf("expected finished, got %s", f.player.State())
	}
	if f.surface.Presents() != 6 {
		t.Errorf("expected 6 presented frames, got %d", f.surface.Presents())
	}
}

func TestPlayer_CompletionNotBeforeLastSource(t *testing.T) {
	opener := threeSources()
	done := newCompletions()
	f := newFixture(t, opener)

	_ = f.player.PlayPlaylist([]string{"a", "b", "c"}, WithCompletion(done.fn))
	_ = f.player.Play()

	f.advanceUntil(t, func() bool { return len(opener.Opened()) == 3 })
	if done.count() != 0 {
		t.Error("completion fired before the last source finished")
	}
	f.advanceUntil(t, func() bool { return done.count() == 1 })
}

func TestPlayer_LoopRestartsWithoutCompletion(t *testing.T) {
	opener := mocks.NewOpener().
		Add("a", mocks.SourceSpec{Frames: 1}).
		Add("b", mocks.SourceSpec{Frames: 1})
	f := newFixture(t, opener)
	done := newCompletions()

	_ = f.player.PlayPlaylist([]string{"a", "b"}, WithLoop(true), WithCompletion(done.fn))
	_ = f.player.Play()

	f.advanceUntil(t, func() bool { return len(opener.Opened()) >= 5 })

	if got := opener.Opened()[:5]; !reflect.DeepEqual(got, []string{"a", "b", "a", "b", "a"}) {
		t.Errorf("unexpected loop order: %v", got)
	}
	if done.count() != 0 {
		t.Error("looping playlist must not complete")
	}
	if f.player.State() != Playing {
		t.Errorf("expected playing, got %s", f.player.State())
	}
}

func TestPlayer_OpenFailureStopsPlaylist(t *testing.T) {
	opener := threeSources().FailOpen("b", errors.New("no video track"))
	f := newFixture(t, opener)
	done := newCompletions()

	_ = f.player.PlayPlaylist([]string{"a", "b", "c"}, WithCompletion(done.fn))
	_ = f.player.Play()

	f.advanceUntil(t, func() bool { return done.count() > 0 })
	if ok := <-done.ch; ok {
		t.Error("expected completion(false)")
	}

	f.advanceFor(10)
	if got := opener.Opened(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("third source must never open, opened %v", got)
	}
	if done.count() != 1 {
		t.Errorf("expected one completion, got %d", done.count())
	}

	results := f.observer.results()
	last := results[len(results)-1]
	if last.Index != 1 || !errors.Is(last.Err, ports.ErrOpenFailure) {
		t.Errorf("expected open failure for source 1, got %+v", last)
	}
}

func TestPlayer_FirstOpenFailureReturnedFromPlay(t *testing.T) {
	opener := mocks.NewOpener().FailOpen("a", errors.New("unreadable"))
	f := newFixture(t, opener)
	done := newCompletions()

	_ = f.player.PlaySingle("a", WithCompletion(done.fn))
	err := f.player.Play()
	if !errors.Is(err, ports.ErrOpenFailure) {
		t.Fatalf("expected ErrOpenFailure, got %v", err)
	}

	select {
	case ok := <-done.ch:
		if ok {
			t.Error("expected completion(false)")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("completion not reported")
	}
	if f.player.State() != Finished {
		t.Errorf("expected finished, got %s", f.player.State())
	}
}

func TestPlayer_DecodeFailureStopsPlaylist(t *testing.T) {
	opener := mocks.NewOpener().
		Add("a", mocks.SourceSpec{Frames: 1, Err: errors.New("bad sample")}).
		Add("b", mocks.SourceSpec{Frames: 1})
	f := newFixture(t, opener)
	done := newCompletions()

	_ = f.player.PlayPlaylist([]string{"a", "b"}, WithCompletion(done.fn))
	_ = f.player.Play()

	f.advanceUntil(t, func() bool { return done.count() > 0 })
	if ok := <-done.ch; ok {
		t.Error("expected completion(false)")
	}
	if got := opener.Opened(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("no source may open after a failure, opened %v", got)
	}
}

func TestPlayer_ReplacementHaltsBeforeNewSource(t *testing.T) {
	opener := mocks.NewOpener().
		Add("long", mocks.SourceSpec{Frames: 1000}).
		Add("next", mocks.SourceSpec{Frames: 1000})
	f := newFixture(t, opener)

	firstClosedAtOpen := -1
	opener.OnOpen = func(id string) {
		if id == "next" {
			firstClosedAtOpen = opener.Sources()[0].Closed()
		}
	}

	_ = f.player.PlaySingle("long")
	_ = f.player.Play()
	f.advanceFor(3)

	if err := f.player.PlaySingle("next"); err != nil {
		t.Fatalf("PlaySingle failed: %v", err)
	}
	if f.player.State() != Idle {
		t.Errorf("expected idle after replacement, got %s", f.player.State())
	}
	if active, _, _ := f.clock.stats(); active != 0 {
		t.Errorf("timer still armed after replacement: %d active", active)
	}

	_ = f.player.Play()
	f.advanceFor(3)

	if firstClosedAtOpen != 1 {
		t.Errorf("first source must be closed before the next opens, closed=%d", firstClosedAtOpen)
	}
	if _, maxActive, created := f.clock.stats(); maxActive != 1 || created != 2 {
		t.Errorf("expected one ticker at a time, max=%d created=%d", maxActive, created)
	}
}

func TestPlayer_PauseResumeKeepsSource(t *testing.T) {
	opener := mocks.NewOpener().
		Add("a", mocks.SourceSpec{Frames: 1}).
		Add("b", mocks.SourceSpec{Frames: 1000})
	f := newFixture(t, opener)

	_ = f.player.PlayPlaylist([]string{"a", "b"})
	_ = f.player.Play()
	f.advanceUntil(t, func() bool { return f.player.Index() == 1 && f.surface.Presents() >= 3 })

	if err := f.player.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if f.player.State() != Paused {
		t.Fatalf("expected paused, got %s", f.player.State())
	}
	if active, _, _ := f.clock.stats(); active != 0 {
		t.Error("timer must be cancelled while paused")
	}

	src := opener.Sources()[1]
	pulled := src.Pulled()
	f.advanceFor(10)
	if src.Pulled() != pulled {
		t.Error("frames pulled while paused")
	}

	if err := f.player.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	f.advanceUntil(t, func() bool { return src.Pulled() > pulled })

	if f.player.Index() != 1 {
		t.Errorf("expected index 1 after resume, got %d", f.player.Index())
	}
	if len(opener.Opened()) != 2 {
		t.Errorf("resume must not reopen, opened %v", opener.Opened())
	}
	if src.Closed() != 0 {
		t.Error("resume must keep the same open source")
	}
}

func TestPlayer_PlayAfterFinishRestarts(t *testing.T) {
	opener := mocks.NewOpener().Add("a", mocks.SourceSpec{Frames: 1})
	f := newFixture(t, opener)
	done := newCompletions()

	_ = f.player.PlaySingle("a", WithCompletion(done.fn))
	_ = f.player.Play()
	f.advanceUntil(t, func() bool { return done.count() == 1 })

	_ = f.player.Play()
	f.advanceUntil(t, func() bool { return f.player.State() == Finished && len(opener.Opened()) == 2 })
	f.advanceFor(3)

	if done.count() != 1 {
		t.Errorf("completion must fire at most once per request, got %d", done.count())
	}
}

func TestPlayer_PlayWithoutRequest(t *testing.T) {
	f := newFixture(t, mocks.NewOpener())
	if err := f.player.Play(); !errors.Is(err, ErrNoRequest) {
		t.Errorf("expected ErrNoRequest, got %v", err)
	}
	if f.player.Index() != -1 {
		t.Errorf("expected index -1, got %d", f.player.Index())
	}
}

func TestPlayer_RejectsEmptyPlaylist(t *testing.T) {
	f := newFixture(t, mocks.NewOpener())
	if err := f.player.PlayPlaylist(nil); !errors.Is(err, playlist.ErrEmptyPlaylist) {
		t.Errorf("expected ErrEmptyPlaylist, got %v", err)
	}
}

func TestPlayer_CloseIsTerminal(t *testing.T) {
	opener := mocks.NewOpener().Add("a", mocks.SourceSpec{Frames: 1000})
	f := newFixture(t, opener)

	_ = f.player.PlaySingle("a")
	_ = f.player.Play()
	f.advanceFor(2)

	f.player.Close()
	f.player.Close()

	if opener.Sources()[0].Closed() != 1 {
		t.Error("Close must close the open source")
	}
	if f.player.State() != Closed {
		t.Errorf("expected closed, got %s", f.player.State())
	}
	if err := f.player.Play(); !errors.Is(err, renderqueue.ErrStopped) {
		t.Errorf("expected stopped queue error, got %v", err)
	}
}

func TestPlayer_CloseAfterContextCancelClosesSource(t *testing.T) {
	opener := mocks.NewOpener().Add("a", mocks.SourceSpec{Frames: 1000})
	ctx, cancel := context.WithCancel(context.Background())
	f := newFixtureContext(t, ctx, opener)

	if err := f.player.PlaySingle("a"); err != nil {
		t.Fatalf("PlaySingle failed: %v", err)
	}
	if err := f.player.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	f.advanceFor(2)

	cancel()
	f.player.Close()

	sources := opener.Sources()
	if len(sources) != 1 {
		t.Fatalf("expected 1 opened source, got %d", len(sources))
	}
	if n := sources[0].Closed(); n != 1 {
		t.Errorf("expected source closed once, got %d", n)
	}
	if f.player.State() != Closed {
		t.Errorf("expected closed, got %s", f.player.State())
	}
	if active, _, _ := f.clock.stats(); active != 0 {
		t.Errorf("expected no running ticker, got %d", active)
	}
}

func TestPlayer_ObserverEvents(t *testing.T) {
	f := newFixture(t, threeSources())
	done := newCompletions()

	_ = f.player.PlayPlaylist([]string{"a", "b"}, WithCompletion(done.fn))
	_ = f.player.Play()
	f.advanceUntil(t, func() bool { return done.count() == 1 })

	f.observer.mu.Lock()
	defer f.observer.mu.Unlock()
	if !reflect.DeepEqual(f.observer.started, []int{0, 1}) {
		t.Errorf("unexpected started events: %v", f.observer.started)
	}
	if len(f.observer.finished) != 2 || f.observer.finished[1].Frames != 2 {
		t.Errorf("unexpected finished events: %+v", f.observer.finished)
	}
	if !reflect.DeepEqual(f.observer.ends, []bool{true}) {
		t.Errorf("unexpected playback events: %v", f.observer.ends)
	}
}

func TestPlayer_SetFilter(t *testing.T) {
	opener := mocks.NewOpener().Add("a", mocks.SourceSpec{Frames: 1000})
	f := newFixture(t, opener)

	var mu sync.Mutex
	calls := 0
	if err := f.player.SetFilter(ports.TransformFunc(func(img image.Image) image.Image {
		mu.Lock()
		calls++
		mu.Unlock()
		return img
	})); err != nil {
		t.Fatalf("SetFilter failed: %v", err)
	}

	_ = f.player.PlaySingle("a")
	_ = f.player.Play()
	f.advanceUntil(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	})
}
