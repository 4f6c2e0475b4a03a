// Package geometry provides the aspect-fit crop calculation used for every drawn frame.
package geometry

import (
	"image"
	"math"
	"time"
)

// Dimension represents width and height in pixels.
type Dimension struct {
	Width  int
	Height int
}

// Valid reports whether both sides are positive.
func (d Dimension) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// DimensionOf returns the size of an image rectangle.
func DimensionOf(r image.Rectangle) Dimension {
	return Dimension{Width: r.Dx(), Height: r.Dy()}
}

// Rect is a rectangle in floating point coordinates.
// Source crops are fractional, so they are not snapped to pixels here.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// FullRect returns the rectangle covering d with its origin at zero.
func FullRect(d Dimension) Rect {
	return Rect{Width: float64(d.Width), Height: float64(d.Height)}
}

// Max returns the bottom-right corner.
func (r Rect) Max() (x, y float64) {
	return r.X + r.Width, r.Y + r.Height
}

// Image converts the rectangle to integer pixel bounds offset by origin.
// The result is rounded outward so the full crop is always sampled.
func (r Rect) Image(origin image.Point) image.Rectangle {
	maxX, maxY := r.Max()
	return image.Rect(
		origin.X+int(math.Floor(r.X)),
		origin.Y+int(math.Floor(r.Y)),
		origin.X+int(math.Ceil(maxX)),
		origin.Y+int(math.Ceil(maxY)),
	)
}

// DrawGeometry describes how one frame is mapped onto the surface.
type DrawGeometry struct {
	// Surface is the destination drawable size at the time of the tick.
	Surface Dimension
	// Source is the crop of the frame, in frame coordinates.
	Source Rect
	// Dest is the destination rectangle; always the whole surface.
	Dest Rect
}

// Fit computes the draw geometry for a frame of size frame onto surface.
func Fit(frame, surface Dimension) DrawGeometry {
	return DrawGeometry{
		Surface: surface,
		Source:  AspectFit(frame, surface),
		Dest:    FullRect(surface),
	}
}

// AspectFit returns the sub-rectangle of the source that has the destination's
// aspect ratio, centered on the cropped axis. Drawing it into the whole
// destination preserves the source aspect ratio by cropping instead of padding.
//
// The horizontal crop width is dstAR/srcAR times the source width. That ratio
// is below one whenever the source is relatively wider, so the crop always
// stays inside the source.
//
// A non-positive dimension yields the zero Rect.
func AspectFit(src, dst Dimension) Rect {
	r, _ := AspectFitChecked(src, dst)
	return r
}

// AspectFitChecked is AspectFit that also reports whether the inputs were usable.
func AspectFitChecked(src, dst Dimension) (Rect, bool) {
	if !src.Valid() || !dst.Valid() {
		return Rect{}, false
	}

	full := FullRect(src)

	// srcW/srcH == dstW/dstH without floating point error.
	lhs := int64(src.Width) * int64(dst.Height)
	rhs := int64(dst.Width) * int64(src.Height)
	if lhs == rhs {
		return full, true
	}

	srcAR := float64(src.Width) / float64(src.Height)
	dstAR := float64(dst.Width) / float64(dst.Height)

	if lhs < rhs {
		// Source is relatively taller: crop vertically.
		h := srcAR / dstAR * full.Height
		return Rect{X: 0, Y: (full.Height - h) / 2, Width: full.Width, Height: h}, true
	}

	// Source is relatively wider: crop horizontally, dstAR < srcAR here.
	w := dstAR / srcAR * full.Width
	return Rect{X: (full.Width - w) / 2, Y: 0, Width: w, Height: full.Height}, true
}

// Interval returns the tick period for a frame rate.
// Non-positive rates return zero.
func Interval(fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Second / time.Duration(fps)
}
