package ports

// SourceResult is what a frame pump reports when a source terminates.
type SourceResult struct {
	Index  int    // Position in the playlist
	ID     string // Source identifier
	Frames int    // Frames drawn
	Drops  int    // Frames that failed to compose
	OK     bool   // True for a clean end of stream
	Err    error  // Failure cause when OK is false
}

// PlaybackObserver is notified about playlist progress.
// Calls are made from the render queue and must not block.
type PlaybackObserver interface {
	// SourceStarted is called after a source was opened and pumping began.
	SourceStarted(index int, id string)

	// SourceFinished is called once per opened source, or for a source that
	// failed to open (with Frames = 0).
	SourceFinished(result SourceResult)

	// PlaybackFinished is called when a session ends; ok is false after a failure.
	PlaybackFinished(ok bool)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) SourceStarted(index int, id string)  {}
func (NopObserver) SourceFinished(result SourceResult) {}
func (NopObserver) PlaybackFinished(ok bool)           {}

var _ PlaybackObserver = NopObserver{}
