package main

import (
	"errors"
	"testing"
)

func TestCheckWatch(t *testing.T) {
	tests := []struct {
		name    string
		watch   bool
		sources []string
		wantErr error
	}{
		{name: "watch with config only", watch: true},
		{name: "sources without watch", sources: []string{"a.mp4"}},
		{name: "watch with sources", watch: true, sources: []string{"a.mp4"}, wantErr: errWatchWithSources},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkWatch(tt.watch, tt.sources)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("checkWatch() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWatchPath(t *testing.T) {
	if got := watchPath(false, "playlist.yaml"); got != "" {
		t.Errorf("expected no watch path when disabled, got %q", got)
	}
	if got := watchPath(true, ""); got != "" {
		t.Errorf("expected no watch path without config, got %q", got)
	}
	if got := watchPath(true, "playlist.yaml"); got != "playlist.yaml" {
		t.Errorf("expected playlist.yaml, got %q", got)
	}
}
