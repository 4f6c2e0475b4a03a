// Package config provides configuration loading and management.
package config

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/user/fsvideo/pkg/adapters/ggsurface"
	"github.com/user/fsvideo/pkg/adapters/s3fetch"
	"github.com/user/fsvideo/pkg/filters"
	"github.com/user/fsvideo/pkg/geometry"
	"github.com/user/fsvideo/pkg/player"
	"github.com/user/fsvideo/pkg/playlist"
	"github.com/user/fsvideo/pkg/ports"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FSVIDEO_"

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("config: invalid configuration")

// Config represents the full configuration for fsvideo.
type Config struct {
	// Playlist
	Sources []string `yaml:"sources" env:"SOURCES, overwrite" validate:"dive,required"`
	FPS     int      `yaml:"fps" env:"FPS, overwrite" validate:"gt=0"`
	Loop    bool     `yaml:"loop" env:"LOOP, overwrite"`
	Filters []string `yaml:"filters" env:"FILTERS, overwrite" validate:"dive,filter"`

	// Surface
	Width      int    `yaml:"width" env:"WIDTH, overwrite" validate:"gt=0"`
	Height     int    `yaml:"height" env:"HEIGHT, overwrite" validate:"gt=0"`
	Background string `yaml:"background" env:"BACKGROUND, overwrite" validate:"hexcolor"`
	Quality    string `yaml:"quality" env:"QUALITY, overwrite" validate:"oneof=fast smooth"`
	Title      string `yaml:"title" env:"TITLE, overwrite"`

	// Decoding and recording
	FFmpegPath  string        `yaml:"ffmpeg_path" env:"FFMPEG_PATH, overwrite"`
	Output      string        `yaml:"output" env:"OUTPUT, overwrite"`
	CRF         int           `yaml:"crf" env:"CRF, overwrite" validate:"gte=0,lte=51"`
	MaxDuration time.Duration `yaml:"max_duration" env:"MAX_DURATION, overwrite" validate:"gte=0"`
	Summary     string        `yaml:"summary" env:"SUMMARY, overwrite"`

	// Remote sources
	S3 S3Config `yaml:"s3" env:", prefix=S3_"`

	// Debug
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL, overwrite" validate:"oneof=debug info warn error quiet"`
	DebugDir string `yaml:"debug_dir" env:"DEBUG_DIR, overwrite"`
}

// S3Config holds credentials for s3:// sources.
type S3Config struct {
	Region          string `yaml:"region" env:"REGION, overwrite"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT, overwrite" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID, overwrite"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY, overwrite"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		FPS: playlist.DefaultFPS,

		Width:      640,
		Height:     360,
		Background: "#808080",
		Quality:    string(ggsurface.QualityFast),
		Title:      "fsvideo",

		CRF: 23,

		LogLevel: "info",
	}
}

// Load reads path over the defaults, then applies FSVIDEO_ environment
// overrides and validates the result. An empty path skips the file.
func Load(ctx context.Context, path string) (Config, error) {
	return LoadWith(ctx, path, envconfig.OsLookuper())
}

// LoadWith is Load with an explicit environment lookuper.
func LoadWith(ctx context.Context, path string, lookuper envconfig.Lookuper) (Config, error) {
	cfg := Defaults()

	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	}); err != nil {
		return cfg, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("filter", func(fl validator.FieldLevel) bool {
		_, err := filters.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field constraints. Sources are checked separately by
// the playlist request, since command line arguments may supply them.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// PlayOptions converts the playlist settings to player options.
func (c Config) PlayOptions() []player.PlayOption {
	return []player.PlayOption{
		player.WithFPS(c.FPS),
		player.WithLoop(c.Loop),
	}
}

// SurfaceSize returns the configured surface size.
func (c Config) SurfaceSize() geometry.Dimension {
	return geometry.Dimension{Width: c.Width, Height: c.Height}
}

// Transformer builds the configured filter chain. No filters gives the identity.
func (c Config) Transformer() (ports.Transformer, error) {
	if len(c.Filters) == 0 {
		return ports.Identity, nil
	}
	return filters.ParseChain(c.Filters)
}

// BackgroundColor parses Background.
func (c Config) BackgroundColor() color.Color {
	return ParseColor(c.Background)
}

// Level returns the parsed log level.
func (c Config) Level() ports.LogLevel {
	return ports.ParseLogLevel(c.LogLevel)
}

// SurfaceQuality returns the scaling quality of the software surface.
func (c Config) SurfaceQuality() ggsurface.Quality {
	return ggsurface.Quality(c.Quality)
}

// S3FetchConfig converts the S3 settings for s3fetch.
func (c Config) S3FetchConfig() s3fetch.Config {
	return s3fetch.Config{
		Region:          c.S3.Region,
		Endpoint:        c.S3.Endpoint,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
	}
}

// HasRemoteSources reports whether any source is an s3:// URI.
func (c Config) HasRemoteSources() bool {
	for _, s := range c.Sources {
		if s3fetch.IsURI(s) {
			return true
		}
	}
	return false
}

// ParseColor parses "#rgb", "#rgba", "#rrggbb" or "#rrggbbaa".
// Anything else gives the default mid grey.
func ParseColor(hex string) color.Color {
	fallback := color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}

	hex = strings.TrimPrefix(hex, "#")
	for i := 0; i < len(hex); i++ {
		if hexValue(hex[i]) < 0 {
			return fallback
		}
	}

	nibble := func(i int) uint8 { return uint8(hexValue(hex[i])) }
	byteAt := func(i int) uint8 { return nibble(i)<<4 | nibble(i+1) }

	switch len(hex) {
	case 3, 4:
		c := color.NRGBA{R: nibble(0) * 17, G: nibble(1) * 17, B: nibble(2) * 17, A: 0xff}
		if len(hex) == 4 {
			c.A = nibble(3) * 17
		}
		return c
	case 6, 8:
		c := color.NRGBA{R: byteAt(0), G: byteAt(2), B: byteAt(4), A: 0xff}
		if len(hex) == 8 {
			c.A = byteAt(6)
		}
		return c
	default:
		return fallback
	}
}

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c - 'a' + 10)
	case c >= 'A' && c <= 'F':
		return int(c - 'A' + 10)
	default:
		return -1
	}
}
