package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving composed frames and playback reports for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveFrame saves a composed frame, after filters and before scaling.
	SaveFrame(index int, img image.Image) error

	// SaveGeometryJSON saves the draw geometry of a source's first frame.
	SaveGeometryJSON(source int, data []byte) error

	// SaveSummary saves the formatted playback summary.
	SaveSummary(data []byte) error
}
