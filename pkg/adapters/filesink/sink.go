// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/fsvideo/pkg/ports"
)

// Sink saves debug output to files under a base directory:
//
//	frames/frame-00000.png
//	geometry/source-000.json
//	summary.md
type Sink struct {
	baseDir string
	fs      ports.FileSystem
	encoder ports.ImageEncoder
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, encoder ports.ImageEncoder) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
		encoder: encoder,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveFrame saves a presented frame as PNG.
func (s *Sink) SaveFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.encoder.EncodePNG(img)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%05d.png", index))
	return s.fs.WriteFile(path, data)
}

// SaveGeometryJSON saves the draw geometry of a source.
func (s *Sink) SaveGeometryJSON(source int, data []byte) error {
	path := filepath.Join(s.baseDir, "geometry", fmt.Sprintf("source-%03d.json", source))
	return s.fs.WriteFile(path, data)
}

// SaveSummary saves the playback summary.
func (s *Sink) SaveSummary(data []byte) error {
	path := filepath.Join(s.baseDir, "summary.md")
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
