// Package smartsource provides a source opener that picks the right decoder
// for an identifier: image directories, video files, or s3:// objects.
package smartsource

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ideamans/go-l10n"

	"github.com/user/fsvideo/pkg/adapters/s3fetch"
	"github.com/user/fsvideo/pkg/ports"
)

// Kind is the kind of source an identifier resolves to.
type Kind string

const (
	KindImages  Kind = "images"
	KindVideo   Kind = "video"
	KindUnknown Kind = "unknown"
)

var (
	// ErrUnsupportedSource is returned for identifiers no decoder handles.
	ErrUnsupportedSource = errors.New("smartsource: unsupported source")
	// ErrRemoteDisabled is returned for s3:// identifiers without a fetcher.
	ErrRemoteDisabled = errors.New("smartsource: remote sources not configured")
)

// VideoExtensions lists the container extensions routed to the video decoder.
var VideoExtensions = []string{".mp4", ".m4v", ".mov"}

// Fetcher downloads a remote identifier to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (path string, cleanup func(), err error)
}

// Options holds the decoders to route to. Nil entries disable that kind.
type Options struct {
	Images ports.SourceOpener
	Video  ports.SourceOpener
	Remote Fetcher
}

// Opener routes Open calls by identifier.
type Opener struct {
	fs     ports.FileSystem
	opts   Options
	logger ports.Logger
}

// New creates a routing Opener.
func New(fs ports.FileSystem, opts Options, logger ports.Logger) *Opener {
	return &Opener{
		fs:     fs,
		opts:   opts,
		logger: logger.WithComponent("source"),
	}
}

// Classify returns the kind of a local path.
func (o *Opener) Classify(path string) Kind {
	if isDir, err := o.fs.IsDir(path); err == nil && isDir {
		return KindImages
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range VideoExtensions {
		if ext == e {
			return KindVideo
		}
	}
	return KindUnknown
}

// Open resolves remote identifiers, then opens the source with the decoder
// for its kind. Downloaded files are removed when the source is closed.
func (o *Opener) Open(ctx context.Context, id string) (ports.FrameSource, error) {
	path := id
	cleanup := func() {}

	if s3fetch.IsURI(id) {
		if o.opts.Remote == nil {
			return nil, fmt.Errorf("%w: %w: %s", ports.ErrOpenFailure, ErrRemoteDisabled, id)
		}
		o.logger.Debug(l10n.F("Fetching %s", id))
		local, done, err := o.opts.Remote.Fetch(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ports.ErrOpenFailure, err)
		}
		path, cleanup = local, done
	}

	var opener ports.SourceOpener
	switch kind := o.Classify(path); kind {
	case KindImages:
		opener = o.opts.Images
	case KindVideo:
		opener = o.opts.Video
	}
	if opener == nil {
		cleanup()
		return nil, fmt.Errorf("%w: %w: %s", ports.ErrOpenFailure, ErrUnsupportedSource, id)
	}

	src, err := opener.Open(ctx, path)
	if err != nil {
		cleanup()
		if !errors.Is(err, ports.ErrOpenFailure) {
			err = fmt.Errorf("%w: %w", ports.ErrOpenFailure, err)
		}
		return nil, err
	}
	return &cleanupSource{FrameSource: src, cleanup: cleanup}, nil
}

var _ ports.SourceOpener = (*Opener)(nil)

// cleanupSource runs cleanup after the wrapped source is closed.
type cleanupSource struct {
	ports.FrameSource
	cleanup func()
	closed  bool
}

func (s *cleanupSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.FrameSource.Close()
	s.cleanup()
	return err
}
