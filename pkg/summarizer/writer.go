package summarizer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/fsvideo/pkg/ports"
)

// Writer writes formatted summaries to files.
type Writer struct {
	formatter Formatter
}

// NewWriter creates a new Writer with the given Formatter.
func NewWriter(formatter Formatter) *Writer {
	return &Writer{
		formatter: formatter,
	}
}

// Write formats the summary and writes it to the specified path.
// Creates parent directories if they don't exist.
func (w *Writer) Write(path string, summary *Summary) error {
	content := w.formatter.Format(summary)

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// Save formats the summary into a debug sink. Disabled sinks are skipped.
func (w *Writer) Save(sink ports.DebugSink, summary *Summary) error {
	if sink == nil || !sink.Enabled() {
		return nil
	}
	return sink.SaveSummary([]byte(w.formatter.Format(summary)))
}
