// Package ffmpegsource decodes video files into frames with an ffmpeg child
// process writing raw RGBA to a pipe.
package ffmpegsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/ideamans/go-l10n"

	"github.com/user/fsvideo/pkg/adapters/ffmpegpath"
	"github.com/user/fsvideo/pkg/adapters/mediaprobe"
	"github.com/user/fsvideo/pkg/ports"
)

// ErrInvalidSize is returned when the probed frame size is unusable.
var ErrInvalidSize = errors.New("ffmpegsource: invalid frame size")

// Opener opens video files as frame sources.
type Opener struct {
	ffmpegPath string
	logger     ports.Logger
}

// NewOpener creates an Opener. An empty ffmpegPath searches the usual locations.
func NewOpener(ffmpegPath string, logger ports.Logger) *Opener {
	return &Opener{
		ffmpegPath: ffmpegPath,
		logger:     logger.WithComponent("ffmpeg"),
	}
}

// Open probes path and starts a decode session.
func (o *Opener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	info, err := mediaprobe.ProbeFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrOpenFailure, err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: %w: %dx%d", ports.ErrOpenFailure, ErrInvalidSize, info.Width, info.Height)
	}

	bin, err := ffmpegpath.Find(o.ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrOpenFailure, err)
	}

	src, err := Start(ctx, bin, path, info.Width, info.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrOpenFailure, err)
	}
	o.logger.Debug(l10n.F("Decoding %s (%s, %dx%d)", path, info.Codec, info.Width, info.Height))
	return src, nil
}

var _ ports.SourceOpener = (*Opener)(nil)

// Source reads fixed-size RGBA frames from a decoder pipe.
type Source struct {
	mu sync.Mutex

	r      io.ReadCloser
	width  int
	height int
	wait   func() error
	stop   func()

	index  int
	status ports.SourceStatus
	err    error
	waited bool
	closed bool
}

// Start runs ffmpeg on path and returns a source reading its output.
// Frames are width x height; auto-rotation is disabled so the probed
// sample entry size matches the decoded frames.
func Start(ctx context.Context, ffmpegPath, path string, width, height int) (*Source, error) {
	ctx, cancel := context.WithCancel(ctx)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-nostdin",
		"-loglevel", "error",
		"-noautorotate",
		"-i", path,
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"pipe:1",
	)
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	wait := func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("ffmpeg decoding failed: %w\nstderr: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil
	}
	return newSource(stdout, width, height, wait, cancel), nil
}

// newSource wraps a frame stream. wait reports how the producer exited and
// stop aborts it.
func newSource(r io.ReadCloser, width, height int, wait func() error, stop func()) *Source {
	return &Source{
		r:      r,
		width:  width,
		height: height,
		wait:   wait,
		stop:   stop,
	}
}

// Next reads the next frame. The end of the stream returns io.EOF when the
// decoder exited cleanly and a decode failure otherwise.
func (s *Source) Next() (ports.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return ports.Frame{}, s.err
	}
	if s.closed {
		return ports.Frame{}, s.fail(errors.New("source closed"))
	}

	buf := make([]byte, s.width*s.height*4)
	_, err := io.ReadFull(s.r, buf)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		if werr := s.finish(); werr != nil {
			return ports.Frame{}, s.fail(werr)
		}
		s.status = ports.StatusCompleted
		s.err = io.EOF
		return ports.Frame{}, s.err
	case errors.Is(err, io.ErrUnexpectedEOF):
		werr := s.finish()
		if werr == nil {
			werr = errors.New("truncated frame")
		}
		return ports.Frame{}, s.fail(werr)
	default:
		return ports.Frame{}, s.fail(err)
	}

	img := &image.RGBA{
		Pix:    buf,
		Stride: s.width * 4,
		Rect:   image.Rect(0, 0, s.width, s.height),
	}
	frame := ports.NewFrame(img, s.index)
	s.index++
	return frame, nil
}

// Status returns the decode session status.
func (s *Source) Status() ports.SourceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Close aborts the decoder and releases the pipe. Idempotent.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.stop != nil {
		s.stop()
	}
	err := s.r.Close()
	if !s.waited {
		// The exit status of an aborted decoder is irrelevant.
		_ = s.finish()
	}
	return err
}

func (s *Source) finish() error {
	s.waited = true
	if s.wait == nil {
		return nil
	}
	return s.wait()
}

func (s *Source) fail(cause error) error {
	s.status = ports.StatusFailed
	s.err = fmt.Errorf("%w: %w", ports.ErrDecodeFailure, cause)
	return s.err
}

var _ ports.FrameSource = (*Source)(nil)
