package mocks

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/user/fsvideo/pkg/geometry"
	"github.com/user/fsvideo/pkg/ports"
)

// Draw records one DrawImage call.
type Draw struct {
	Bounds image.Rectangle
	Src    geometry.Rect
	Dst    geometry.Rect
}

// Surface is a mock implementation of ports.Surface that records draws.
type Surface struct {
	mu sync.Mutex

	size geometry.Dimension

	AcquireErr error
	DrawErr    error
	PresentErr error

	acquired int
	released int
	current  bool
	draws    []Draw
	presents int
}

// NewSurface creates a mock surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{size: geometry.Dimension{Width: width, Height: height}}
}

// SetSize changes the reported size (simulates a resize).
func (m *Surface) SetSize(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size = geometry.Dimension{Width: width, Height: height}
}

func (m *Surface) Size() geometry.Dimension {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

func (m *Surface) Acquire() (ports.DrawContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AcquireErr != nil {
		return nil, m.AcquireErr
	}
	if m.current {
		return nil, errors.New("mock surface: context already current")
	}
	m.current = true
	m.acquired++
	return &drawContext{s: m}, nil
}

// Draws returns the recorded draws.
func (m *Surface) Draws() []Draw {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Draw(nil), m.draws...)
}

// Presents returns the number of successful presents.
func (m *Surface) Presents() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.presents
}

// Balanced reports whether every Acquire was matched by a Release.
func (m *Surface) Balanced() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired == m.released && !m.current
}

type drawContext struct {
	s        *Surface
	released bool
}

func (c *drawContext) Clear(col color.Color) {}

func (c *drawContext) DrawImage(img image.Image, src, dst geometry.Rect) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.DrawErr != nil {
		return c.s.DrawErr
	}
	c.s.draws = append(c.s.draws, Draw{Bounds: img.Bounds(), Src: src, Dst: dst})
	return nil
}

func (c *drawContext) Present() error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.PresentErr != nil {
		return c.s.PresentErr
	}
	c.s.presents++
	return nil
}

func (c *drawContext) Release() {
	if c.released {
		return
	}
	c.released = true
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.current = false
	c.s.released++
}

var _ ports.Surface = (*Surface)(nil)
