package mocks

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/user/fsvideo/pkg/ports"
)

// SourceSpec describes the frames a mock source yields.
type SourceSpec struct {
	Frames int   // Frames before the end
	Width  int   // Frame width (default 64)
	Height int   // Frame height (default 48)
	Err    error // If set, the source fails with this error instead of completing
}

// FrameSource is a scripted implementation of ports.FrameSource.
type FrameSource struct {
	mu sync.Mutex

	ID   string
	Spec SourceSpec

	pulled int
	closed int
	status ports.SourceStatus
	err    error
}

// NewFrameSource creates a mock source for spec.
func NewFrameSource(id string, spec SourceSpec) *FrameSource {
	if spec.Width == 0 {
		spec.Width = 64
	}
	if spec.Height == 0 {
		spec.Height = 48
	}
	return &FrameSource{ID: id, Spec: spec}
}

func (m *FrameSource) Next() (ports.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return ports.Frame{}, m.err
	}
	if m.pulled >= m.Spec.Frames {
		if m.Spec.Err != nil {
			m.status = ports.StatusFailed
			m.err = fmt.Errorf("%w: %w", ports.ErrDecodeFailure, m.Spec.Err)
		} else {
			m.status = ports.StatusCompleted
			m.err = io.EOF
		}
		return ports.Frame{}, m.err
	}

	img := image.NewRGBA(image.Rect(0, 0, m.Spec.Width, m.Spec.Height))
	img.Set(0, 0, color.RGBA{R: uint8(m.pulled), A: 255})
	frame := ports.NewFrame(img, m.pulled)
	m.pulled++
	return frame, nil
}

func (m *FrameSource) Status() ports.SourceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *FrameSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// Pulled returns the number of frames handed out.
func (m *FrameSource) Pulled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pulled
}

// Closed returns how many times Close was called.
func (m *FrameSource) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ ports.FrameSource = (*FrameSource)(nil)

// Opener is a mock implementation of ports.SourceOpener.
// Every Open creates a fresh FrameSource from the registered spec.
type Opener struct {
	mu sync.Mutex

	specs    map[string]SourceSpec
	failures map[string]error

	opened  []string
	sources []*FrameSource

	// OnOpen, if set, is called with the id before the source is created.
	OnOpen func(id string)
}

// NewOpener creates an empty mock Opener.
func NewOpener() *Opener {
	return &Opener{
		specs:    make(map[string]SourceSpec),
		failures: make(map[string]error),
	}
}

// Add registers a source spec.
func (m *Opener) Add(id string, spec SourceSpec) *Opener {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.specs[id] = spec
	return m
}

// FailOpen makes opening id fail with err.
func (m *Opener) FailOpen(id string, err error) *Opener {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id] = err
	return m
}

func (m *Opener) Open(ctx context.Context, id string) (ports.FrameSource, error) {
	if m.OnOpen != nil {
		m.OnOpen(id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.opened = append(m.opened, id)
	if err, ok := m.failures[id]; ok {
		return nil, fmt.Errorf("%w: %s: %w", ports.ErrOpenFailure, id, err)
	}
	spec, ok := m.specs[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown source %s", ports.ErrOpenFailure, id)
	}
	src := NewFrameSource(id, spec)
	m.sources = append(m.sources, src)
	return src, nil
}

// Opened returns the ids passed to Open, in order.
func (m *Opener) Opened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.opened...)
}

// Sources returns the sources created so far, in order.
func (m *Opener) Sources() []*FrameSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*FrameSource(nil), m.sources...)
}

var _ ports.SourceOpener = (*Opener)(nil)
