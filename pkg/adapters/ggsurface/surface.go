// Package ggsurface provides a software drawing surface using the gg library.
package ggsurface

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/fsvideo/pkg/geometry"
	"github.com/user/fsvideo/pkg/ports"
)

// ErrBusy is returned when a draw context is acquired twice.
var ErrBusy = errors.New("ggsurface: draw context already acquired")

// Quality selects the scaling kernel.
type Quality string

const (
	// QualityFast uses approximate bilinear scaling.
	QualityFast Quality = "fast"
	// QualitySmooth uses Catmull-Rom scaling.
	QualitySmooth Quality = "smooth"
)

func (q Quality) scaler() draw.Scaler {
	if q == QualitySmooth {
		return draw.CatmullRom
	}
	return draw.ApproxBiLinear
}

// Surface is an off-screen canvas. Presented frames are copied and handed to
// an optional presenter.
type Surface struct {
	mu        sync.Mutex
	dc        *gg.Context
	presenter ports.FramePresenter
	scaler    draw.Scaler
	busy      bool
	last      *image.RGBA
	presented int
}

// New creates a surface of the given size.
func New(width, height int, quality Quality, presenter ports.FramePresenter) *Surface {
	return &Surface{
		dc:        gg.NewContext(width, height),
		presenter: presenter,
		scaler:    quality.scaler(),
	}
}

// Size returns the canvas size.
func (s *Surface) Size() geometry.Dimension {
	s.mu.Lock()
	defer s.mu.Unlock()
	return geometry.Dimension{Width: s.dc.Width(), Height: s.dc.Height()}
}

// Resize replaces the canvas. The next frame is fitted to the new size.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dc = gg.NewContext(width, height)
}

// Acquire makes the canvas current.
func (s *Surface) Acquire() (ports.DrawContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return nil, ErrBusy
	}
	s.busy = true
	return &Context{s: s, dc: s.dc}, nil
}

// Last returns a copy of the last presented frame, or nil.
func (s *Surface) Last() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	return s.last
}

// Presented returns the number of presented frames.
func (s *Surface) Presented() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}

// EncodePNG encodes img as PNG.
func (s *Surface) EncodePNG(img image.Image) ([]byte, error) {
	return EncodePNG(img)
}

// EncodePNG encodes img as PNG through a gg context.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := gg.NewContextForImage(img).EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Context implements ports.DrawContext on the surface canvas.
type Context struct {
	s        *Surface
	dc       *gg.Context
	released bool
}

// Clear fills the canvas with c.
func (c *Context) Clear(col color.Color) {
	c.dc.SetColor(col)
	c.dc.Clear()
}

// DrawImage scales the src crop of img onto the dst rectangle of the canvas.
func (c *Context) DrawImage(img image.Image, src, dst geometry.Rect) error {
	if c.released {
		return ErrBusy
	}
	target, ok := c.dc.Image().(*image.RGBA)
	if !ok {
		return fmt.Errorf("unexpected canvas type %T", c.dc.Image())
	}
	srcRect := src.Image(img.Bounds().Min).Intersect(img.Bounds())
	dstRect := dst.Image(image.Point{}).Intersect(target.Bounds())
	if srcRect.Empty() || dstRect.Empty() {
		return nil
	}
	c.s.scaler.Scale(target, dstRect, img, srcRect, draw.Over, nil)
	return nil
}

// Present copies the canvas and hands it to the presenter.
func (c *Context) Present() error {
	if c.released {
		return ErrBusy
	}
	canvas := c.dc.Image()
	b := canvas.Bounds()
	frame := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(frame, frame.Bounds(), canvas, b.Min, draw.Src)

	c.s.mu.Lock()
	c.s.last = frame
	c.s.presented++
	presenter := c.s.presenter
	c.s.mu.Unlock()

	if presenter != nil {
		if err := presenter.Present(frame); err != nil {
			return fmt.Errorf("present frame: %w", err)
		}
	}
	return nil
}

// Release ends the draw. Idempotent.
func (c *Context) Release() {
	if c.released {
		return
	}
	c.released = true
	c.s.mu.Lock()
	c.s.busy = false
	c.s.mu.Unlock()
}

var (
	_ ports.Surface      = (*Surface)(nil)
	_ ports.DrawContext  = (*Context)(nil)
	_ ports.ImageEncoder = (*Surface)(nil)
)
