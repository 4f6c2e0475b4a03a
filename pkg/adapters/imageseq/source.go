// Package imageseq plays a directory of still images as a frame source,
// one image per frame in name order.
package imageseq

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/user/fsvideo/pkg/ports"
)

var (
	// ErrNotDirectory is returned when the identifier is not a directory.
	ErrNotDirectory = errors.New("imageseq: not a directory")
	// ErrNoImages is returned for a directory without supported images.
	ErrNoImages = errors.New("imageseq: no images found")
)

// Extensions lists the supported file extensions.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// IsImage reports whether name has a supported extension.
func IsImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Opener opens image directories.
type Opener struct {
	fs ports.FileSystem
}

// NewOpener creates an Opener reading through fs.
func NewOpener(fs ports.FileSystem) *Opener {
	return &Opener{fs: fs}
}

// Open lists the images in dir. Images are decoded lazily by Next.
func (o *Opener) Open(ctx context.Context, dir string) (ports.FrameSource, error) {
	isDir, err := o.fs.IsDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrOpenFailure, err)
	}
	if !isDir {
		return nil, fmt.Errorf("%w: %w: %s", ports.ErrOpenFailure, ErrNotDirectory, dir)
	}

	files, err := o.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read dir: %w", ports.ErrOpenFailure, err)
	}

	var paths []string
	for _, name := range files {
		if IsImage(name) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %w in %s", ports.ErrOpenFailure, ErrNoImages, dir)
	}

	return &Source{fs: o.fs, paths: paths}, nil
}

var _ ports.SourceOpener = (*Opener)(nil)

// Source yields one decoded image per Next.
type Source struct {
	mu     sync.Mutex
	fs     ports.FileSystem
	paths  []string
	next   int
	status ports.SourceStatus
	err    error
}

// Len returns the number of images.
func (s *Source) Len() int {
	return len(s.paths)
}

// Next decodes the next image. A file that cannot be decoded fails the source.
func (s *Source) Next() (ports.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return ports.Frame{}, s.err
	}
	if s.next >= len(s.paths) {
		s.status = ports.StatusCompleted
		s.err = io.EOF
		return ports.Frame{}, s.err
	}

	path := s.paths[s.next]
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return ports.Frame{}, s.fail(fmt.Errorf("read %s: %w", path, err))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ports.Frame{}, s.fail(fmt.Errorf("decode %s: %w", path, err))
	}

	frame := ports.NewFrame(img, s.next)
	s.next++
	return frame, nil
}

// Status returns the source status.
func (s *Source) Status() ports.SourceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Close releases nothing; images are read on demand.
func (s *Source) Close() error {
	return nil
}

func (s *Source) fail(cause error) error {
	s.status = ports.StatusFailed
	s.err = fmt.Errorf("%w: %w", ports.ErrDecodeFailure, cause)
	return s.err
}

var _ ports.FrameSource = (*Source)(nil)
