// Package compositor draws fitted frames onto a ports.Surface.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/user/fsvideo/pkg/geometry"
	"github.com/user/fsvideo/pkg/ports"
)

// ErrNoSurface is returned when composing without a surface.
var ErrNoSurface = errors.New("compositor: no surface")

// DefaultBackground is the clear colour used when none is configured.
var DefaultBackground color.Color = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}

// Compositor clears the surface, draws the source crop of a frame over the
// whole surface, and presents it.
type Compositor struct {
	surface    ports.Surface
	background color.Color
	sink       ports.DebugSink
	presented  int
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithBackground sets the clear colour.
func WithBackground(c color.Color) Option {
	return func(comp *Compositor) {
		if c != nil {
			comp.background = c
		}
	}
}

// WithDebugSink dumps every presented frame to sink when it is enabled.
func WithDebugSink(sink ports.DebugSink) Option {
	return func(comp *Compositor) {
		comp.sink = sink
	}
}

// New creates a Compositor for surface.
func New(surface ports.Surface, opts ...Option) *Compositor {
	c := &Compositor{
		surface:    surface,
		background: DefaultBackground,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SurfaceSize returns the current surface size, or zero without a surface.
func (c *Compositor) SurfaceSize() geometry.Dimension {
	if c.surface == nil {
		return geometry.Dimension{}
	}
	return c.surface.Size()
}

// Compose draws img with geom and presents the result.
// The draw context is released on every path.
func (c *Compositor) Compose(img image.Image, geom geometry.DrawGeometry) error {
	if c.surface == nil {
		return ErrNoSurface
	}

	dc, err := c.surface.Acquire()
	if err != nil {
		return fmt.Errorf("acquire surface: %w", err)
	}
	defer dc.Release()

	dc.Clear(c.background)
	if err := dc.DrawImage(img, geom.Source, geom.Dest); err != nil {
		return fmt.Errorf("draw frame: %w", err)
	}
	if err := dc.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}

	if c.sink != nil && c.sink.Enabled() {
		// Debug output failures never affect playback.
		_ = c.sink.SaveFrame(c.presented, img)
	}
	c.presented++
	return nil
}

// Presented returns the number of frames presented so far.
func (c *Compositor) Presented() int {
	return c.presented
}
