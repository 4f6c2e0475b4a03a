package mocks

import (
	"image"
	"sync"

	"github.com/user/fsvideo/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Frames   map[int]image.Image
	Geometry map[int][]byte
	Summary  []byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:  enabled,
		Frames:   make(map[int]image.Image),
		Geometry: make(map[int][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[index] = img
	return nil
}

func (m *DebugSink) SaveGeometryJSON(source int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Geometry[source] = data
	return nil
}

func (m *DebugSink) SaveSummary(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Summary = data
	return nil
}

// GeometryFor returns the saved geometry JSON for a source index.
func (m *DebugSink) GeometryFor(source int) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.Geometry[source]
	return data, ok
}

var _ ports.DebugSink = (*DebugSink)(nil)
