// Package ffmpegrecorder encodes presented frames to an H.264 MP4 file with
// an ffmpeg child process.
package ffmpegrecorder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/image/draw"

	"github.com/user/fsvideo/pkg/adapters/ffmpegpath"
	"github.com/user/fsvideo/pkg/ports"
)

var (
	// ErrNotStarted is returned when presenting before Start or after Close.
	ErrNotStarted = errors.New("ffmpegrecorder: not started")
	// ErrInvalidOptions is returned for a non-positive size or frame rate.
	ErrInvalidOptions = errors.New("ffmpegrecorder: invalid options")
)

// Options configures the encoder.
type Options struct {
	FFmpegPath string // Empty searches the usual locations
	Width      int
	Height     int
	FPS        int
	CRF        int // 0 uses 23
}

// Recorder implements ports.FramePresenter by piping RGBA frames to ffmpeg.
type Recorder struct {
	width  int
	height int

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  bytes.Buffer
	scratch *image.RGBA
	frames  int
	closed  bool
}

// Args returns the ffmpeg arguments for writing output.
func Args(opts Options, output string) []string {
	crf := opts.CRF
	if crf <= 0 || crf > 51 {
		crf = 23
	}
	return []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-r", fmt.Sprintf("%d", opts.FPS),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-crf", fmt.Sprintf("%d", crf),
		"-movflags", "+faststart",
		output,
	}
}

// Start launches ffmpeg writing to output.
func Start(output string, opts Options) (*Recorder, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 {
		return nil, fmt.Errorf("%w: %dx%d at %d fps", ErrInvalidOptions, opts.Width, opts.Height, opts.FPS)
	}
	// yuv420p needs even dimensions.
	opts.Width &^= 1
	opts.Height &^= 1

	bin, err := ffmpegpath.Find(opts.FFmpegPath)
	if err != nil {
		return nil, err
	}

	r := &Recorder{width: opts.Width, height: opts.Height}
	r.cmd = exec.Command(bin, Args(opts, output)...)
	r.cmd.Stderr = &r.stderr

	stdin, err := r.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	if err := r.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return newRecorder(stdin, opts.Width, opts.Height, r), nil
}

func newRecorder(stdin io.WriteCloser, width, height int, base *Recorder) *Recorder {
	if base == nil {
		base = &Recorder{width: width, height: height}
	}
	base.stdin = stdin
	base.scratch = image.NewRGBA(image.Rect(0, 0, width, height))
	return base
}

// Present writes one frame. Frames of another size are scaled to fit.
func (r *Recorder) Present(img image.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stdin == nil || r.closed {
		return ErrNotStarted
	}

	b := img.Bounds()
	if b.Dx() == r.width && b.Dy() == r.height {
		draw.Draw(r.scratch, r.scratch.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(r.scratch, r.scratch.Bounds(), img, b, draw.Src, nil)
	}

	if _, err := r.stdin.Write(r.scratch.Pix); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	r.frames++
	return nil
}

// Frames returns the number of frames written.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Close ends the input and waits for ffmpeg to finish the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.stdin != nil {
		r.stdin.Close()
		r.stdin = nil
	}
	if r.cmd == nil {
		return nil
	}
	if err := r.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encoding failed: %w\nstderr: %s", err, strings.TrimSpace(r.stderr.String()))
	}
	return nil
}

var _ ports.FramePresenter = (*Recorder)(nil)
