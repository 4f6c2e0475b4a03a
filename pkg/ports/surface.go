package ports

import (
	"image"
	"image/color"

	"github.com/user/fsvideo/pkg/geometry"
)

// Surface abstracts the drawable a frame is composed onto.
//
// Drawing requires the surface's context to be current. Acquire makes it
// current for the calling goroutine and the returned DrawContext must be
// released on every path.
type Surface interface {
	// Size returns the current drawable size in pixels. It may change
	// between ticks (window resize).
	Size() geometry.Dimension

	// Acquire makes the drawing context current.
	Acquire() (DrawContext, error)
}

// DrawContext is a current drawing context on a Surface.
type DrawContext interface {
	// Clear fills the drawable with a color.
	Clear(c color.Color)

	// DrawImage draws the src crop of img scaled into dst.
	DrawImage(img image.Image, src, dst geometry.Rect) error

	// Present publishes what was drawn.
	Present() error

	// Release gives the context back. It is safe to call more than once.
	Release()
}

// FramePresenter receives every presented surface image.
// img is a fresh copy; the surface never writes to it again.
type FramePresenter interface {
	Present(img image.Image) error
}

// FramePresenterFunc is a function adapter for FramePresenter.
type FramePresenterFunc func(img image.Image) error

// Present implements FramePresenter.
func (f FramePresenterFunc) Present(img image.Image) error {
	return f(img)
}

// Presenters fans a presented image out to several presenters.
// The first error is returned after all presenters ran.
type Presenters []FramePresenter

// Present implements FramePresenter.
func (p Presenters) Present(img image.Image) error {
	var first error
	for _, presenter := range p {
		if err := presenter.Present(img); err != nil && first == nil {
			first = err
		}
	}
	return first
}
