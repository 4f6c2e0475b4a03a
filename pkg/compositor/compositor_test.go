package compositor

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/user/fsvideo/pkg/geometry"
	"github.com/user/fsvideo/pkg/mocks"
)

func testFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 64, 48))
}

func TestCompositor_ComposeDrawsAndPresents(t *testing.T) {
	surface := mocks.NewSurface(100, 100)
	c := New(surface)

	geom := geometry.Fit(geometry.Dimension{Width: 64, Height: 48}, surface.Size())
	if err := c.Compose(testFrame(), geom); err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	draws := surface.Draws()
	if len(draws) != 1 {
		t.Fatalf("expected 1 draw, got %d", len(draws))
	}
	if draws[0].Src != geom.Source || draws[0].Dst != geom.Dest {
		t.Errorf("unexpected draw geometry: %+v", draws[0])
	}
	if surface.Presents() != 1 {
		t.Errorf("expected 1 present, got %d", surface.Presents())
	}
	if !surface.Balanced() {
		t.Error("draw context not released")
	}
	if c.Presented() != 1 {
		t.Errorf("expected Presented()=1, got %d", c.Presented())
	}
}

func TestCompositor_ReleasesOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *mocks.Surface)
	}{
		{"draw error", func(s *mocks.Surface) { s.DrawErr = errors.New("draw") }},
		{"present error", func(s *mocks.Surface) { s.PresentErr = errors.New("present") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface := mocks.NewSurface(10, 10)
			tt.setup(surface)
			c := New(surface)

			err := c.Compose(testFrame(), geometry.Fit(geometry.Dimension{Width: 64, Height: 48}, surface.Size()))
			if err == nil {
				t.Fatal("expected error")
			}
			if !surface.Balanced() {
				t.Error("draw context leaked on failure")
			}
			if c.Presented() != 0 {
				t.Error("failed compose must not count as presented")
			}
		})
	}
}

func TestCompositor_AcquireError(t *testing.T) {
	surface := mocks.NewSurface(10, 10)
	surface.AcquireErr = errors.New("context lost")
	c := New(surface)

	err := c.Compose(testFrame(), geometry.DrawGeometry{})
	if !errors.Is(err, surface.AcquireErr) {
		t.Errorf("expected wrapped acquire error, got %v", err)
	}
}

func TestCompositor_NoSurface(t *testing.T) {
	c := New(nil)
	if c.SurfaceSize().Valid() {
		t.Error("expected zero size without a surface")
	}
	if err := c.Compose(testFrame(), geometry.DrawGeometry{}); !errors.Is(err, ErrNoSurface) {
		t.Errorf("expected ErrNoSurface, got %v", err)
	}
}

func TestCompositor_Options(t *testing.T) {
	sink := mocks.NewDebugSink(true)
	red := color.RGBA{R: 255, A: 255}
	c := New(mocks.NewSurface(10, 10), WithBackground(red), WithDebugSink(sink), WithBackground(nil))

	if c.background != color.Color(red) {
		t.Errorf("expected red background, got %v", c.background)
	}

	frame := testFrame()
	if err := c.Compose(frame, geometry.Fit(geometry.DimensionOf(frame.Bounds()), c.SurfaceSize())); err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if sink.Frames[0] != frame {
		t.Error("expected frame saved to debug sink")
	}
}
