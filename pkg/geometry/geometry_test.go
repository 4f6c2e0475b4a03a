package geometry

import (
	"image"
	"math"
	"testing"
	"time"
)

const epsilon = 1e-9

func TestInterval(t *testing.T) {
	tests := []struct {
		fps  int
		want time.Duration
	}{
		{25, 40 * time.Millisecond},
		{24, time.Second / 24},
		{1, time.Second},
		{0, 0},
		{-3, 0},
	}

	for _, tt := range tests {
		if got := Interval(tt.fps); got != tt.want {
			t.Errorf("Interval(%d) = %v, want %v", tt.fps, got, tt.want)
		}
	}
}

func TestAspectFit_EqualRatioIsFullSource(t *testing.T) {
	tests := []struct {
		src, dst Dimension
	}{
		{Dimension{1920, 1080}, Dimension{1280, 720}},
		{Dimension{640, 480}, Dimension{320, 240}},
		{Dimension{100, 100}, Dimension{7, 7}},
		{Dimension{3, 1}, Dimension{300, 100}},
	}

	for _, tt := range tests {
		got := AspectFit(tt.src, tt.dst)
		if got != FullRect(tt.src) {
			t.Errorf("AspectFit(%v, %v) = %+v, want full source", tt.src, tt.dst, got)
		}
	}
}

func TestAspectFit_TallSourceCropsVertically(t *testing.T) {
	// 4:3 source onto 16:9 surface
	got := AspectFit(Dimension{640, 480}, Dimension{1600, 900})

	if got.X != 0 || got.Width != 640 {
		t.Errorf("expected full width, got x=%v w=%v", got.X, got.Width)
	}
	wantH := 480 * (640.0 / 480.0) / (1600.0 / 900.0)
	if math.Abs(got.Height-wantH) > epsilon {
		t.Errorf("expected height %v, got %v", wantH, got.Height)
	}
	if math.Abs(got.Y-(480-wantH)/2) > epsilon {
		t.Errorf("expected centered y, got %v", got.Y)
	}
}

func TestAspectFit_WideSourceCropsHorizontally(t *testing.T) {
	// 16:9 source onto a square surface
	got := AspectFit(Dimension{1920, 1080}, Dimension{500, 500})

	if got.Y != 0 || got.Height != 1080 {
		t.Errorf("expected full height, got y=%v h=%v", got.Y, got.Height)
	}
	if math.Abs(got.Width-1080) > epsilon {
		t.Errorf("expected width 1080, got %v", got.Width)
	}
	if math.Abs(got.X-420) > epsilon {
		t.Errorf("expected x 420, got %v", got.X)
	}
}

func TestAspectFit_CropMatchesDestinationRatio(t *testing.T) {
	tests := []struct {
		src, dst Dimension
	}{
		{Dimension{1920, 1080}, Dimension{1080, 1920}},
		{Dimension{4096, 1080}, Dimension{640, 480}},
		{Dimension{640, 480}, Dimension{1920, 1080}},
		{Dimension{90, 1080}, Dimension{16, 7}},
	}

	for _, tt := range tests {
		got := AspectFit(tt.src, tt.dst)
		want := float64(tt.dst.Width) / float64(tt.dst.Height)
		if ar := got.Width / got.Height; math.Abs(ar-want) > 1e-6 {
			t.Errorf("AspectFit(%v, %v) ratio = %v, want %v", tt.src, tt.dst, ar, want)
		}
		if got.Width > float64(tt.src.Width)+epsilon || got.Height > float64(tt.src.Height)+epsilon {
			t.Errorf("AspectFit(%v, %v) = %+v is larger than the source", tt.src, tt.dst, got)
		}
	}
}

func TestAspectFit_Containment(t *testing.T) {
	sizes := []int{1, 2, 3, 7, 16, 90, 480, 640, 1080, 1920, 4096}

	for _, sw := range sizes {
		for _, sh := range sizes {
			for _, dw := range sizes {
				for _, dh := range sizes {
					src := Dimension{sw, sh}
					r := AspectFit(src, Dimension{dw, dh})
					maxX, maxY := r.Max()
					if r.X < -epsilon || r.Y < -epsilon ||
						maxX > float64(sw)+epsilon || maxY > float64(sh)+epsilon {
						t.Fatalf("AspectFit(%v, %dx%d) = %+v escapes source", src, dw, dh, r)
					}
					if r.Width <= 0 || r.Height <= 0 {
						t.Fatalf("AspectFit(%v, %dx%d) = %+v is empty", src, dw, dh, r)
					}
				}
			}
		}
	}
}

func TestAspectFit_PreservesDestinationRatio(t *testing.T) {
	src := Dimension{1280, 720}
	dst := Dimension{300, 400}

	r := AspectFit(src, dst)
	got := r.Width / r.Height
	want := float64(dst.Width) / float64(dst.Height)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("crop ratio %v, want %v", got, want)
	}
}

func TestAspectFitChecked_InvalidInput(t *testing.T) {
	cases := [][2]Dimension{
		{{0, 10}, {10, 10}},
		{{10, -1}, {10, 10}},
		{{10, 10}, {0, 10}},
		{{10, 10}, {10, 0}},
	}

	for _, c := range cases {
		r, ok := AspectFitChecked(c[0], c[1])
		if ok {
			t.Errorf("AspectFitChecked(%v, %v) reported ok", c[0], c[1])
		}
		if r != (Rect{}) {
			t.Errorf("expected zero rect, got %+v", r)
		}
	}
}

func TestFit(t *testing.T) {
	g := Fit(Dimension{100, 50}, Dimension{200, 100})

	if g.Surface != (Dimension{200, 100}) {
		t.Errorf("unexpected surface %v", g.Surface)
	}
	if g.Dest != (Rect{Width: 200, Height: 100}) {
		t.Errorf("dest should cover surface, got %+v", g.Dest)
	}
	if g.Source != (Rect{Width: 100, Height: 50}) {
		t.Errorf("unexpected source %+v", g.Source)
	}
}

func TestRect_Image(t *testing.T) {
	r := Rect{X: 0.5, Y: 10, Width: 99, Height: 20.2}
	got := r.Image(image.Pt(5, 5))
	want := image.Rect(5, 15, 105, 36)
	if got != want {
		t.Errorf("Image() = %v, want %v", got, want)
	}
}
