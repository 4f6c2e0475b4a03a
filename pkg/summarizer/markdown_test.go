package summarizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/user/fsvideo/pkg/mocks"
)

func sampleSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Settings: Settings{
			FPS:           24,
			SurfaceWidth:  640,
			SurfaceHeight: 360,
			Filters:       []string{"grayscale", "caption=hi"},
			Output:        "out.mp4",
		},
		Sources: []SourceInfo{
			{Index: 0, ID: "intro.mp4", Frames: 120, OK: true},
			{Index: 1, ID: "broken|clip.mp4", Frames: 7, Drops: 2, Error: "decode failure"},
		},
		Outcome: Outcome{Finished: true, OK: false, DurationMs: 5250},
	}
}

func TestMarkdownFormatter_Format(t *testing.T) {
	result := NewMarkdownFormatter().Format(sampleSummary())

	checks := []string{
		"# Playback Summary",
		"2024-01-15 10:30:00",
		"24 fps",
		"640x360",
		"grayscale, caption=hi",
		"out.mp4",
		"| 0 | intro.mp4 | 120 | 0 | OK |",
		"broken\\|clip.mp4",
		"Failed: decode failure",
		"Total Frames: 127",
		"Total Dropped: 2",
		"5.25 s",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q\n%s", check, result)
		}
	}
}

func TestMarkdownFormatter_EmptySession(t *testing.T) {
	result := NewMarkdownFormatter().Format(&Summary{})

	for _, check := range []string{"No sources played", "Not finished", "| Filters | None |"} {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
	if strings.Contains(result, "Output") {
		t.Error("empty output should be omitted")
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	translator := func(key string) string {
		translations := map[string]string{
			"Playback Summary": "再生サマリー",
			"Completed":        "完了",
		}
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	s := sampleSummary()
	s.Outcome.OK = true
	result := NewMarkdownFormatter(WithTranslator(translator)).Format(s)

	if !strings.Contains(result, "# 再生サマリー") {
		t.Error("expected translated title")
	}
	if !strings.Contains(result, "完了") {
		t.Error("expected translated result")
	}
}

// staticFormatter renders every summary as the same text.
type staticFormatter string

func (f staticFormatter) Format(*Summary) string {
	return string(f)
}

func TestWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "summary.md")
	w := NewWriter(staticFormatter("content"))

	if err := w.Write(path, NewSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestWriter_Save(t *testing.T) {
	w := NewWriter(staticFormatter("md"))

	disabled := mocks.NewDebugSink(false)
	if err := w.Save(disabled, NewSummary()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if disabled.Summary != nil {
		t.Error("disabled sink should not receive a summary")
	}

	enabled := mocks.NewDebugSink(true)
	if err := w.Save(enabled, NewSummary()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if string(enabled.Summary) != "md" {
		t.Errorf("unexpected summary %q", enabled.Summary)
	}
}
