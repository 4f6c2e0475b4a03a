package summarizer

import (
	"fmt"
	"strings"
)

// Translator maps a label to its display text.
type Translator func(key string) string

// Option configures a MarkdownFormatter.
type Option func(*MarkdownFormatter)

// WithTranslator sets the label translator.
func WithTranslator(t Translator) Option {
	return func(f *MarkdownFormatter) {
		if t != nil {
			f.t = t
		}
	}
}

// MarkdownFormatter renders a Summary as markdown.
type MarkdownFormatter struct {
	t Translator
}

// NewMarkdownFormatter creates a formatter with untranslated labels.
func NewMarkdownFormatter(opts ...Option) *MarkdownFormatter {
	f := &MarkdownFormatter{t: func(key string) string { return key }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.t

	fmt.Fprintf(&b, "# %s\n\n", t("Playback Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	fmt.Fprintf(&b, "| %s | %d fps |\n", t("Frame Rate"), s.Settings.FPS)
	fmt.Fprintf(&b, "| %s | %s |\n", t("Loop"), f.yesNo(s.Settings.Loop))
	if s.Settings.SurfaceWidth > 0 && s.Settings.SurfaceHeight > 0 {
		fmt.Fprintf(&b, "| %s | %dx%d |\n", t("Surface"), s.Settings.SurfaceWidth, s.Settings.SurfaceHeight)
	}
	filters := t("None")
	if len(s.Settings.Filters) > 0 {
		filters = strings.Join(s.Settings.Filters, ", ")
	}
	fmt.Fprintf(&b, "| %s | %s |\n", t("Filters"), filters)
	if s.Settings.Output != "" {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Output"), s.Settings.Output)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Sources"))
	if len(s.Sources) == 0 {
		fmt.Fprintf(&b, "%s\n\n", t("No sources played"))
	} else {
		fmt.Fprintf(&b, "| # | %s | %s | %s | %s |\n|---|---|---|---|---|\n",
			t("Source"), t("Frames"), t("Dropped"), t("Result"))
		for _, src := range s.Sources {
			result := t("OK")
			if !src.OK {
				result = t("Failed")
				if src.Error != "" {
					result += ": " + escapeCell(src.Error)
				}
			}
			fmt.Fprintf(&b, "| %d | %s | %d | %d | %s |\n",
				src.Index, escapeCell(src.ID), src.Frames, src.Drops, result)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", t("Outcome"))
	switch {
	case !s.Outcome.Finished:
		fmt.Fprintf(&b, "- %s: %s\n", t("Result"), t("Not finished"))
	case s.Outcome.OK:
		fmt.Fprintf(&b, "- %s: %s\n", t("Result"), t("Completed"))
	default:
		fmt.Fprintf(&b, "- %s: %s\n", t("Result"), t("Failed"))
	}
	fmt.Fprintf(&b, "- %s: %d\n", t("Total Frames"), s.TotalFrames())
	fmt.Fprintf(&b, "- %s: %d\n", t("Total Dropped"), s.TotalDrops())
	if s.Outcome.DurationMs > 0 {
		fmt.Fprintf(&b, "- %s: %.2f s\n", t("Duration"), float64(s.Outcome.DurationMs)/1000)
	}

	return b.String()
}

func (f *MarkdownFormatter) yesNo(v bool) string {
	if v {
		return f.t("Yes")
	}
	return f.t("No")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
