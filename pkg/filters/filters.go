// Package filters provides built-in per-frame transforms.
package filters

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/user/fsvideo/pkg/ports"
)

// ErrUnknownFilter is returned by Parse for an unsupported filter name.
var ErrUnknownFilter = errors.New("filters: unknown filter")

// Names lists the filters Parse accepts.
var Names = []string{"grayscale", "invert", "sepia", "caption"}

// toRGBA returns a copy of img as *image.RGBA with origin (0, 0).
// Frames are never modified in place.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// pixelFunc maps the colour channels of one RGBA pixel.
type pixelFunc func(r, g, b uint8) (uint8, uint8, uint8)

func perPixel(fn pixelFunc) ports.Transformer {
	return ports.TransformFunc(func(img image.Image) image.Image {
		if img == nil {
			return nil
		}
		dst := toRGBA(img)
		pix := dst.Pix
		for i := 0; i+3 < len(pix); i += 4 {
			pix[i], pix[i+1], pix[i+2] = fn(pix[i], pix[i+1], pix[i+2])
		}
		return dst
	})
}

// Grayscale converts frames to luma (BT.601 weights).
func Grayscale() ports.Transformer {
	return perPixel(func(r, g, b uint8) (uint8, uint8, uint8) {
		y := uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
		return y, y, y
	})
}

// Invert negates the colour channels. Alpha is kept.
func Invert() ports.Transformer {
	return perPixel(func(r, g, b uint8) (uint8, uint8, uint8) {
		return 255 - r, 255 - g, 255 - b
	})
}

// Sepia applies the classic sepia tone matrix.
func Sepia() ports.Transformer {
	return perPixel(func(r, g, b uint8) (uint8, uint8, uint8) {
		fr, fg, fb := float64(r), float64(g), float64(b)
		return clamp(0.393*fr + 0.769*fg + 0.189*fb),
			clamp(0.349*fr + 0.686*fg + 0.168*fb),
			clamp(0.272*fr + 0.534*fg + 0.131*fb)
	})
}

func clamp(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v + 0.5)
}

// Caption draws text on a dark band along the bottom of the frame.
func Caption(text string) ports.Transformer {
	return ports.TransformFunc(func(img image.Image) image.Image {
		if img == nil {
			return nil
		}
		b := img.Bounds()
		dc := gg.NewContext(b.Dx(), b.Dy())
		dc.DrawImage(img, -b.Min.X, -b.Min.Y)

		face := basicfont.Face7x13
		band := float64(face.Height) * 2
		h := float64(b.Dy())

		dc.SetColor(color.RGBA{A: 160})
		dc.DrawRectangle(0, h-band, float64(b.Dx()), band)
		dc.Fill()

		dc.SetFontFace(face)
		dc.SetColor(color.White)
		dc.DrawStringAnchored(text, float64(b.Dx())/2, h-band/2, 0.5, 0.35)
		return dc.Image()
	})
}

// Chain applies transforms in order. Nil entries are skipped; a nil result
// stops the chain.
func Chain(ts ...ports.Transformer) ports.Transformer {
	var active []ports.Transformer
	for _, t := range ts {
		if t != nil {
			active = append(active, t)
		}
	}
	switch len(active) {
	case 0:
		return ports.Identity
	case 1:
		return active[0]
	}
	return ports.TransformFunc(func(img image.Image) image.Image {
		for _, t := range active {
			if img == nil {
				return nil
			}
			img = t.Transform(img)
		}
		return img
	})
}

// Parse builds a filter from a name. Caption takes its text after '=',
// as in "caption=Hello".
func Parse(spec string) (ports.Transformer, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(spec), "=")
	switch strings.ToLower(name) {
	case "grayscale", "greyscale":
		return Grayscale(), nil
	case "invert":
		return Invert(), nil
	case "sepia":
		return Sepia(), nil
	case "caption":
		return Caption(arg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
}

// ParseChain parses each spec and chains the results in order.
func ParseChain(specs []string) (ports.Transformer, error) {
	ts := make([]ports.Transformer, 0, len(specs))
	for _, s := range specs {
		t, err := Parse(s)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	return Chain(ts...), nil
}
