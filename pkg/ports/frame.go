// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrOpenFailure is returned when a source cannot be opened
	// (unreadable container, no decodable video track).
	ErrOpenFailure = errors.New("source: open failed")

	// ErrDecodeFailure is returned when a decode session ends in a
	// terminal state other than completed.
	ErrDecodeFailure = errors.New("source: decode failed")
)

// SourceStatus is the state of a decode session.
type SourceStatus int

const (
	// StatusActive means frames may still be pulled.
	StatusActive SourceStatus = iota
	// StatusCompleted means the source was read to its end.
	StatusCompleted
	// StatusFailed means the session ended without reaching the end.
	StatusFailed
)

// String returns the string representation of the status.
func (s SourceStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Frame is one decoded picture. It is only valid for the tick that pulled it.
type Frame struct {
	Image  image.Image
	Width  int
	Height int
	Index  int // Ordinal within the source, starting at 0
}

// NewFrame builds a Frame from an image, taking its intrinsic size from the bounds.
func NewFrame(img image.Image, index int) Frame {
	b := img.Bounds()
	return Frame{
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
		Index:  index,
	}
}

// FrameSource is a synchronous pull interface over a single media file.
type FrameSource interface {
	// Next returns the next frame. It returns io.EOF once the source has
	// completed cleanly, or an error wrapping ErrDecodeFailure when it failed.
	// After a non-nil error every further call returns the same error.
	Next() (Frame, error)

	// Status reports the decode session status.
	Status() SourceStatus

	// Close releases the decode session. It is safe to call more than once.
	Close() error
}

// SourceOpener opens frame sources by identifier (path or URI).
type SourceOpener interface {
	// Open starts a decode session. Failures wrap ErrOpenFailure.
	Open(ctx context.Context, id string) (FrameSource, error)
}

// SourceOpenerFunc is a function adapter for SourceOpener.
type SourceOpenerFunc func(ctx context.Context, id string) (FrameSource, error)

// Open implements SourceOpener.
func (f SourceOpenerFunc) Open(ctx context.Context, id string) (FrameSource, error) {
	return f(ctx, id)
}
