package smartsource

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/fsvideo/pkg/adapters/logger"
	"github.com/user/fsvideo/pkg/mocks"
	"github.com/user/fsvideo/pkg/ports"
)

type fakeFetcher struct {
	path     string
	err      error
	cleanups int
}

func (f *fakeFetcher) Fetch(ctx context.Context, uri string) (string, func(), error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return f.path, func() { f.cleanups++ }, nil
}

func newTestOpener(fetcher Fetcher) (*Opener, *mocks.Opener, *mocks.Opener) {
	fs := mocks.NewFileSystem()
	_ = fs.WriteFile(filepath.Join("stills", "001.png"), []byte("png"))

	images := mocks.NewOpener().Add("stills", mocks.SourceSpec{Frames: 1})
	video := mocks.NewOpener().
		Add("clip.mp4", mocks.SourceSpec{Frames: 1}).
		Add("CLIP.MOV", mocks.SourceSpec{Frames: 1}).
		Add("/tmp/fsvideo-1.mp4", mocks.SourceSpec{Frames: 1})

	opts := Options{Images: images, Video: video}
	if fetcher != nil {
		opts.Remote = fetcher
	}
	return New(fs, opts, logger.NewNoop()), images, video
}

func TestOpener_Routes(t *testing.T) {
	o, images, video := newTestOpener(nil)

	for _, id := range []string{"stills", "clip.mp4", "CLIP.MOV"} {
		src, err := o.Open(context.Background(), id)
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", id, err)
		}
		_ = src.Close()
	}

	if got := images.Opened(); len(got) != 1 || got[0] != "stills" {
		t.Errorf("unexpected image opens: %v", got)
	}
	if got := video.Opened(); len(got) != 2 {
		t.Errorf("unexpected video opens: %v", got)
	}
}

func TestOpener_Unsupported(t *testing.T) {
	o, _, _ := newTestOpener(nil)

	_, err := o.Open(context.Background(), "slides.pdf")
	if !errors.Is(err, ports.ErrOpenFailure) || !errors.Is(err, ErrUnsupportedSource) {
		t.Errorf("expected unsupported source, got %v", err)
	}
}

func TestOpener_InnerFailureWrapped(t *testing.T) {
	o, _, _ := newTestOpener(nil)

	_, err := o.Open(context.Background(), "missing.mp4")
	if !errors.Is(err, ports.ErrOpenFailure) {
		t.Errorf("expected ErrOpenFailure, got %v", err)
	}
}

func TestOpener_RemoteDisabled(t *testing.T) {
	o, _, _ := newTestOpener(nil)

	_, err := o.Open(context.Background(), "s3://media/clip.mp4")
	if !errors.Is(err, ErrRemoteDisabled) {
		t.Errorf("expected ErrRemoteDisabled, got %v", err)
	}
}

func TestOpener_RemoteCleanupOnClose(t *testing.T) {
	fetcher := &fakeFetcher{path: "/tmp/fsvideo-1.mp4"}
	o, _, video := newTestOpener(fetcher)

	src, err := o.Open(context.Background(), "s3://media/clip.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := video.Opened(); len(got) != 1 || got[0] != "/tmp/fsvideo-1.mp4" {
		t.Errorf("expected the downloaded path to be opened, got %v", got)
	}
	if fetcher.cleanups != 0 {
		t.Fatal("cleanup must wait for Close")
	}

	_ = src.Close()
	_ = src.Close()
	if fetcher.cleanups != 1 {
		t.Errorf("expected one cleanup, got %d", fetcher.cleanups)
	}
	if video.Sources()[0].Closed() != 1 {
		t.Error("inner source not closed")
	}
}

func TestOpener_RemoteFetchFailure(t *testing.T) {
	o, _, _ := newTestOpener(&fakeFetcher{err: errors.New("no such key")})

	_, err := o.Open(context.Background(), "s3://media/clip.mp4")
	if !errors.Is(err, ports.ErrOpenFailure) {
		t.Errorf("expected ErrOpenFailure, got %v", err)
	}
}

func TestOpener_RemoteCleanupOnOpenFailure(t *testing.T) {
	fetcher := &fakeFetcher{path: "/tmp/unknown.mp4"}
	o, _, _ := newTestOpener(fetcher)

	if _, err := o.Open(context.Background(), "s3://media/unknown.mp4"); err == nil {
		t.Fatal("expected open failure")
	}
	if fetcher.cleanups != 1 {
		t.Errorf("download must be removed after a failed open, got %d cleanups", fetcher.cleanups)
	}
}
