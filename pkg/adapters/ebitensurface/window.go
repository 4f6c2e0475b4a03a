// Package ebitensurface shows presented frames in an ebiten window.
//
// Frames are composed on the CPU by a software surface and handed to the
// Window through Present; the texture upload happens in Draw on ebiten's
// main thread.
package ebitensurface

import (
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/draw"

	"github.com/user/fsvideo/pkg/geometry"
	"github.com/user/fsvideo/pkg/ports"
)

// Options configures the window.
type Options struct {
	Title  string
	Width  int
	Height int

	// OnResize is called when the window's layout size changes.
	OnResize func(size geometry.Dimension)
	// OnTogglePause is called when the space key is pressed.
	OnTogglePause func()
}

// Window is an ebiten.Game that draws the latest presented frame.
type Window struct {
	opts Options

	mu      sync.Mutex
	frame   *image.RGBA
	dirty   bool
	size    geometry.Dimension
	quit    bool
	texture *ebiten.Image
}

// NewWindow creates a window. Call Run on the main goroutine to show it.
func NewWindow(opts Options) *Window {
	if opts.Title == "" {
		opts.Title = "fsvideo"
	}
	return &Window{
		opts: opts,
		size: geometry.Dimension{Width: opts.Width, Height: opts.Height},
	}
}

// Present stores img as the next frame to draw. Safe for concurrent use.
func (w *Window) Present(img image.Image) error {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.frame = rgba
	w.dirty = true
	return nil
}

// Size returns the current layout size.
func (w *Window) Size() geometry.Dimension {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Close ends Run at the next update.
func (w *Window) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.quit = true
}

// Run opens the window and blocks until it is closed.
func (w *Window) Run() error {
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(w.opts.Width, w.opts.Height)
	ebiten.SetWindowTitle(w.opts.Title)
	return ebiten.RunGame(w)
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	w.mu.Lock()
	quit := w.quit
	w.mu.Unlock()

	if quit || inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && w.opts.OnTogglePause != nil {
		w.opts.OnTogglePause()
	}
	return nil
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	frame, dirty := w.frame, w.dirty
	w.dirty = false
	w.mu.Unlock()

	if frame == nil {
		return
	}

	b := frame.Bounds()
	if w.texture == nil || w.texture.Bounds().Dx() != b.Dx() || w.texture.Bounds().Dy() != b.Dy() {
		if w.texture != nil {
			w.texture.Deallocate()
		}
		w.texture = ebiten.NewImage(b.Dx(), b.Dy())
		dirty = true
	}
	if dirty {
		w.texture.WritePixels(frame.Pix)
	}

	// A frame composed before a resize is stretched until the next one arrives.
	op := &ebiten.DrawImageOptions{}
	sb := screen.Bounds()
	op.GeoM.Scale(float64(sb.Dx())/float64(b.Dx()), float64(sb.Dy())/float64(b.Dy()))
	screen.DrawImage(w.texture, op)
}

// Layout implements ebiten.Game. The surface follows the window size.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := geometry.Dimension{Width: outsideWidth, Height: outsideHeight}

	w.mu.Lock()
	changed := size != w.size
	w.size = size
	w.mu.Unlock()

	if changed && w.opts.OnResize != nil {
		w.opts.OnResize(size)
	}
	return outsideWidth, outsideHeight
}

var (
	_ ebiten.Game          = (*Window)(nil)
	_ ports.FramePresenter = (*Window)(nil)
)
