// Package main provides the CLI entry point for fsvideo.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/fsvideo/pkg/adapters/ebitensurface"
	"github.com/user/fsvideo/pkg/adapters/ffmpegrecorder"
	"github.com/user/fsvideo/pkg/adapters/ffmpegsource"
	"github.com/user/fsvideo/pkg/adapters/filesink"
	"github.com/user/fsvideo/pkg/adapters/ggsurface"
	"github.com/user/fsvideo/pkg/adapters/imageseq"
	"github.com/user/fsvideo/pkg/adapters/logger"
	"github.com/user/fsvideo/pkg/adapters/mediaprobe"
	"github.com/user/fsvideo/pkg/adapters/nullsink"
	"github.com/user/fsvideo/pkg/adapters/osfilesystem"
	"github.com/user/fsvideo/pkg/adapters/playlistwatch"
	"github.com/user/fsvideo/pkg/adapters/s3fetch"
	"github.com/user/fsvideo/pkg/adapters/smartsource"
	"github.com/user/fsvideo/pkg/compositor"
	"github.com/user/fsvideo/pkg/config"
	"github.com/user/fsvideo/pkg/geometry"
	"github.com/user/fsvideo/pkg/player"
	"github.com/user/fsvideo/pkg/playlist"
	"github.com/user/fsvideo/pkg/ports"
	"github.com/user/fsvideo/pkg/summarizer"
)

var version = "dev"

// errLoopNeedsLimit is returned when rendering a looping playlist without a duration limit.
var errLoopNeedsLimit = errors.New("a looping render needs --max-duration")

// errWatchWithSources is returned when --watch is combined with positional
// sources, which would override every reloaded playlist.
var errWatchWithSources = errors.New("--watch reloads sources from --config and cannot be combined with positional sources")

func main() {
	app := &cli.App{
		Name:      "fsvideo",
		Usage:     l10n.T("Play image sequences and videos onto a drawing surface"),
		Version:   version,
		ArgsUsage: "SOURCE...",
		Commands: []*cli.Command{
			playCommand(),
			renderCommand(),
			probeCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

func playbackFlags() []cli.Flag {
	playback := l10n.T("Playback")
	surface := l10n.T("Surface")
	logging := l10n.T("Logging")
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: playback, Usage: l10n.T("Playlist config file (YAML)")},
		&cli.IntFlag{Name: "fps", Aliases: []string{"r"}, Category: playback, Usage: l10n.F("Frame rate (default: %d)", playlist.DefaultFPS)},
		&cli.BoolFlag{Name: "loop", Aliases: []string{"l"}, Category: playback, Usage: l10n.T("Restart the playlist after the last source")},
		&cli.StringSliceFlag{Name: "filter", Aliases: []string{"f"}, Category: playback, Usage: l10n.T("Frame filter (grayscale, invert, sepia, caption=TEXT), repeatable")},
		&cli.StringFlag{Name: "ffmpeg", Category: playback, Usage: l10n.T("Path to ffmpeg executable")},

		&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Category: surface, Usage: l10n.T("Surface width in pixels")},
		&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Category: surface, Usage: l10n.T("Surface height in pixels")},
		&cli.StringFlag{Name: "background", Category: surface, Usage: l10n.T("Background color (hex, e.g., #808080)")},
		&cli.StringFlag{Name: "quality", Category: surface, Usage: l10n.T("Scaling quality (fast, smooth)")},

		&cli.StringFlag{Name: "debug-dir", Aliases: []string{"d"}, Category: logging, Usage: l10n.T("Directory for presented frames and geometry")},
		&cli.StringFlag{Name: "log-level", Category: logging, Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Category: logging, Usage: l10n.T("Suppress all log output")},
	}
}

func playCommand() *cli.Command {
	flags := append(playbackFlags(),
		&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Category: l10n.T("Playback"), Usage: l10n.T("Reload the playlist when the config file changes")},
		&cli.StringFlag{Name: "title", Category: l10n.T("Surface"), Usage: l10n.T("Window title")},
	)
	return &cli.Command{
		Name:      "play",
		Usage:     l10n.T("Play sources in a window"),
		ArgsUsage: "SOURCE...",
		Flags:     flags,
		Action:    runPlay,
	}
}

func renderCommand() *cli.Command {
	output := l10n.T("Output")
	flags := append(playbackFlags(),
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Category: output, Usage: l10n.T("Output MP4 file path")},
		&cli.IntFlag{Name: "crf", Category: output, Usage: l10n.T("Video CRF value (0-51, lower is better)")},
		&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Category: output, Usage: l10n.T("Output playback summary to file (Markdown format)")},
		&cli.DurationFlag{Name: "max-duration", Category: output, Usage: l10n.T("Stop rendering after this duration")},
	)
	return &cli.Command{
		Name:      "render",
		Usage:     l10n.T("Play sources headless and record the result"),
		ArgsUsage: "SOURCE...",
		Flags:     flags,
		Action:    runRender,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show container, codec and size of sources"),
		ArgsUsage: "SOURCE...",
		Action:    runProbe,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Println(l10n.F("fsvideo version %s", version))
			return nil
		},
	}
}

// loadConfig reads the config file and environment, then applies flags and
// positional sources on top.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.Context, c.String("config"))
	if err != nil {
		return cfg, err
	}

	if c.Args().Len() > 0 {
		cfg.Sources = c.Args().Slice()
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Int("fps")
	}
	if c.IsSet("loop") {
		cfg.Loop = c.Bool("loop")
	}
	if c.IsSet("filter") {
		cfg.Filters = c.StringSlice("filter")
	}
	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("background") {
		cfg.Background = c.String("background")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.String("quality")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("title") {
		cfg.Title = c.String("title")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("crf") {
		cfg.CRF = c.Int("crf")
	}
	if c.IsSet("summary") {
		cfg.Summary = c.String("summary")
	}
	if c.IsSet("max-duration") {
		cfg.MaxDuration = c.Duration("max-duration")
	}

	return cfg, cfg.Validate()
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(cfg.Level())
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context, log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn(l10n.T("Interrupted, shutting down..."))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// stack holds the playback pieces shared by play and render.
type stack struct {
	cfg      config.Config
	log      ports.Logger
	fs       *osfilesystem.FileSystem
	surface  *ggsurface.Surface
	sink     ports.DebugSink
	player   *player.Player
	recorder *summarizer.Recorder
}

func newStack(ctx context.Context, cfg config.Config, log ports.Logger, presenter ports.FramePresenter, settings summarizer.Settings) (*stack, error) {
	s := &stack{cfg: cfg, log: log, fs: osfilesystem.New()}

	opener, err := newOpener(ctx, cfg, s.fs, log)
	if err != nil {
		return nil, err
	}

	size := cfg.SurfaceSize()
	s.surface = ggsurface.New(size.Width, size.Height, cfg.SurfaceQuality(), presenter)

	if cfg.DebugDir != "" {
		if err := s.fs.MkdirAll(cfg.DebugDir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		s.sink = filesink.New(cfg.DebugDir, s.fs, s.surface)
	} else {
		s.sink = nullsink.New()
	}

	comp := compositor.New(s.surface,
		compositor.WithBackground(cfg.BackgroundColor()),
		compositor.WithDebugSink(s.sink),
	)

	settings.FPS = cfg.FPS
	settings.Loop = cfg.Loop
	settings.SurfaceWidth = size.Width
	settings.SurfaceHeight = size.Height
	settings.Filters = cfg.Filters
	s.recorder = summarizer.NewRecorder(settings, nil)

	s.player, err = player.New(ctx, opener, comp, log, player.Config{
		Observer: s.recorder,
		Sink:     s.sink,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newOpener(ctx context.Context, cfg config.Config, fs ports.FileSystem, log ports.Logger) (ports.SourceOpener, error) {
	opts := smartsource.Options{
		Images: imageseq.NewOpener(fs),
		Video:  ffmpegsource.NewOpener(cfg.FFmpegPath, log),
	}
	if cfg.HasRemoteSources() {
		fetcher, err := s3fetch.New(ctx, cfg.S3FetchConfig())
		if err != nil {
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		opts.Remote = fetcher
	}
	return smartsource.New(fs, opts, log), nil
}

// load applies cfg's filter chain and playlist to the player and starts it.
func (s *stack) load(cfg config.Config, onComplete func(ok bool)) error {
	tr, err := cfg.Transformer()
	if err != nil {
		return err
	}
	if err := s.player.SetFilter(tr); err != nil {
		return err
	}

	opts := append(cfg.PlayOptions(), player.WithCompletion(onComplete))
	if err := s.player.PlayPlaylist(cfg.Sources, opts...); err != nil {
		return err
	}
	return s.player.Play()
}

func (s *stack) writeSummary(path string) {
	summary := s.recorder.Summary()
	writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(summarizer.WithTranslator(l10n.T)))

	if err := writer.Save(s.sink, summary); err != nil {
		s.log.Warn(l10n.F("Failed to write summary: %s", err))
	}
	if path == "" {
		return
	}
	if err := writer.Write(path, summary); err != nil {
		s.log.Warn(l10n.F("Failed to write summary: %s", err))
		return
	}
	s.log.Info(l10n.F("Summary saved to %s", path))
}

// watchPath returns the config file to watch, or "" when watching is off.
func watchPath(watch bool, configPath string) string {
	if !watch {
		return ""
	}
	return configPath
}

// checkWatch rejects flag combinations where a reload could not change the playlist.
func checkWatch(watch bool, sources []string) error {
	if watch && len(sources) > 0 {
		return errWatchWithSources
	}
	return nil
}

func runPlay(c *cli.Context) error {
	if err := checkWatch(c.Bool("watch"), c.Args().Slice()); err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	var s *stack
	size := cfg.SurfaceSize()
	window := ebitensurface.NewWindow(ebitensurface.Options{
		Title:  cfg.Title,
		Width:  size.Width,
		Height: size.Height,
		OnResize: func(d geometry.Dimension) {
			s.surface.Resize(d.Width, d.Height)
		},
		OnTogglePause: func() {
			go togglePause(s.player, log)
		},
	})

	s, err = newStack(ctx, cfg, log, window, summarizer.Settings{})
	if err != nil {
		return err
	}
	defer s.player.Close()

	onComplete := func(ok bool) {
		if !ok {
			log.Warn(l10n.T("Playback ended with a failure"))
		}
		window.Close()
	}
	if err := s.load(cfg, onComplete); err != nil {
		return err
	}

	if path := watchPath(c.Bool("watch"), c.String("config")); path != "" {
		w, err := playlistwatch.New(path)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer w.Close()
		go reloadOnChange(c, s, w, onComplete)
	}

	go func() {
		<-ctx.Done()
		window.Close()
	}()

	return window.Run()
}

func togglePause(p *player.Player, log ports.Logger) {
	var err error
	if p.State() == player.Playing {
		err = p.Pause()
	} else {
		err = p.Play()
	}
	if err != nil {
		log.Warn(l10n.F("Failed to toggle pause: %s", err))
	}
}

func reloadOnChange(c *cli.Context, s *stack, w *playlistwatch.Watcher, onComplete func(ok bool)) {
	for {
		select {
		case path, ok := <-w.Events:
			if !ok {
				return
			}
			cfg, err := loadConfig(c)
			if err != nil {
				s.log.Warn(l10n.F("Ignoring invalid config %s: %s", path, err))
				continue
			}
			s.log.Info(l10n.F("Reloading playlist from %s", path))
			if err := s.load(cfg, onComplete); err != nil {
				s.log.Error(l10n.F("Failed to reload playlist: %s", err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Warn(l10n.F("Config watcher error: %s", err))
		}
	}
}

func runRender(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Loop && cfg.MaxDuration <= 0 {
		return errLoopNeedsLimit
	}
	log := newLogger(c, cfg)

	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	var presenters ports.Presenters
	var rec *ffmpegrecorder.Recorder
	if cfg.Output != "" {
		rec, err = ffmpegrecorder.Start(cfg.Output, ffmpegrecorder.Options{
			FFmpegPath: cfg.FFmpegPath,
			Width:      cfg.Width,
			Height:     cfg.Height,
			FPS:        cfg.FPS,
			CRF:        cfg.CRF,
		})
		if err != nil {
			return err
		}
		presenters = append(presenters, rec)
	}

	s, err := newStack(ctx, cfg, log, presenters, summarizer.Settings{Output: cfg.Output})
	if err != nil {
		if rec != nil {
			_ = rec.Close()
		}
		return err
	}

	log.Info(l10n.F("Rendering %d sources at %d fps...", len(cfg.Sources), cfg.FPS))

	// The recorder also sees failures of looping playlists, which report
	// no completion.
	playErr := s.load(cfg, nil)

	var limit <-chan time.Time
	if cfg.MaxDuration > 0 {
		timer := time.NewTimer(cfg.MaxDuration)
		defer timer.Stop()
		limit = timer.C
	}

	ok := playErr == nil
	if playErr == nil {
		select {
		case <-s.recorder.Done():
			ok = s.recorder.Summary().Outcome.OK
		case <-limit:
			log.Info(l10n.F("Stopped after %s", cfg.MaxDuration))
		case <-ctx.Done():
			ok = false
		}
	}
	s.player.Close()

	if rec != nil {
		if err := rec.Close(); err != nil {
			return err
		}
		log.Info(l10n.F("Output saved to %s", cfg.Output))
	}
	s.writeSummary(cfg.Summary)

	if playErr != nil {
		return playErr
	}
	if !ok {
		return errors.New(l10n.T("playback failed"))
	}
	return nil
}

func runProbe(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return errors.New(l10n.T("at least one source is required"))
	}

	fs := osfilesystem.New()
	images := imageseq.NewOpener(fs)
	for _, path := range c.Args().Slice() {
		if isDir, err := fs.IsDir(path); err == nil && isDir {
			src, err := images.Open(c.Context, path)
			if err != nil {
				fmt.Printf("%s: %s\n", path, err)
				continue
			}
			if seq, ok := src.(*imageseq.Source); ok {
				fmt.Println(l10n.F("%s: image sequence, %d frames", path, seq.Len()))
			}
			_ = src.Close()
			continue
		}

		info, err := mediaprobe.ProbeFile(path)
		if err != nil {
			fmt.Printf("%s: %s\n", path, err)
			continue
		}
		fmt.Println(l10n.F("%s: %s %dx%d, %d samples, %s", path, info.Codec, info.Width, info.Height, info.Samples, info.Duration.Round(time.Millisecond)))
	}
	return nil
}
