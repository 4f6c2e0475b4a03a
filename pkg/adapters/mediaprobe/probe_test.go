package mediaprobe

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
)

func TestCodecFor(t *testing.T) {
	tests := []struct {
		box  string
		want Codec
	}{
		{"avc1", CodecH264},
		{"avc3", CodecH264},
		{"hvc1", CodecHEVC},
		{"hev1", CodecHEVC},
		{"av01", CodecAV1},
		{"vp09", CodecVP9},
		{"mp4a", CodecUnknown},
	}

	for _, tt := range tests {
		if got := codecFor(tt.box); got != tt.want {
			t.Errorf("codecFor(%q) = %s, want %s", tt.box, got, tt.want)
		}
	}
}

func TestProbeFile_VideoTrack(t *testing.T) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(90000, "video", "en")
	trak := init.Moov.Trak
	trak.Tkhd.Width = mp4.Fixed32(1280 << 16)
	trak.Tkhd.Height = mp4.Fixed32(720 << 16)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox("avc1", 640, 360, nil))

	info, err := probeFile(&mp4.File{Moov: init.Moov})
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if info.Codec != CodecH264 {
		t.Errorf("expected h264, got %s", info.Codec)
	}
	if info.Width != 640 || info.Height != 360 {
		t.Errorf("expected sample entry size 640x360, got %dx%d", info.Width, info.Height)
	}
	if info.Timescale != 90000 {
		t.Errorf("expected timescale 90000, got %d", info.Timescale)
	}
}

func TestProbeFile_NoVideoTrack(t *testing.T) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(48000, "audio", "en")

	_, err := probeFile(&mp4.File{Moov: init.Moov})
	if !errors.Is(err, ErrNoVideoTrack) {
		t.Errorf("expected ErrNoVideoTrack, got %v", err)
	}

	if _, err := probeFile(&mp4.File{}); !errors.Is(err, ErrNoVideoTrack) {
		t.Errorf("expected ErrNoVideoTrack for empty file, got %v", err)
	}
}

func TestProbeReader_NotMP4(t *testing.T) {
	_, err := ProbeReader(bytes.NewReader([]byte("definitely not a container")))
	if err == nil {
		t.Error("expected error for non-mp4 data")
	}
}

func TestProbeFile_Missing(t *testing.T) {
	if _, err := ProbeFile("/nonexistent/clip.mp4"); err == nil {
		t.Error("expected error for missing file")
	}
}
