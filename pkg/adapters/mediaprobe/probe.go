// Package mediaprobe inspects MP4/MOV containers for their video track.
package mediaprobe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecVP9     Codec = "vp9"
	CodecUnknown Codec = "unknown"
)

// ErrNoVideoTrack is returned when a container has no video track.
var ErrNoVideoTrack = errors.New("mediaprobe: no video track found")

// Info describes the first video track of a container.
type Info struct {
	Codec      Codec
	Width      int
	Height     int
	Timescale  uint32
	Duration   time.Duration // Zero when the header carries none
	Samples    int           // Zero for fragmented files
	Fragmented bool
}

// ProbeFile probes the container at path.
func ProbeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ProbeReader(f)
}

// ProbeReader probes a container and rewinds reader afterwards.
func ProbeReader(reader io.ReadSeeker) (Info, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("seek: %w", err)
	}

	return probeFile(mp4File)
}

func probeFile(mp4File *mp4.File) (Info, error) {
	var moovs []*mp4.MoovBox
	if mp4File.Init != nil && mp4File.Init.Moov != nil {
		moovs = append(moovs, mp4File.Init.Moov)
	}
	if mp4File.Moov != nil {
		moovs = append(moovs, mp4File.Moov)
	}

	for _, moov := range moovs {
		for _, trak := range moov.Traks {
			if info, ok := probeTrack(trak); ok {
				info.Fragmented = mp4File.IsFragmented()
				return info, nil
			}
		}
	}

	return Info{}, ErrNoVideoTrack
}

func probeTrack(trak *mp4.TrakBox) (Info, bool) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return Info{}, false
	}
	if trak.Mdia.Hdlr.HandlerType != "vide" {
		return Info{}, false
	}

	info := Info{Codec: CodecUnknown}

	if trak.Tkhd != nil {
		info.Width = int(trak.Tkhd.Width >> 16)
		info.Height = int(trak.Tkhd.Height >> 16)
	}

	if mdhd := trak.Mdia.Mdhd; mdhd != nil {
		info.Timescale = mdhd.Timescale
		if mdhd.Timescale > 0 {
			info.Duration = time.Duration(float64(mdhd.Duration) / float64(mdhd.Timescale) * float64(time.Second))
		}
	}

	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return info, true
	}
	stbl := trak.Mdia.Minf.Stbl

	if stbl.Stsz != nil {
		info.Samples = int(stbl.Stsz.SampleNumber)
	}

	if stbl.Stsd == nil {
		return info, true
	}
	for _, child := range stbl.Stsd.Children {
		if child == nil {
			continue
		}
		codec := codecFor(child.Type())
		if codec == CodecUnknown {
			continue
		}
		info.Codec = codec
		// The sample entry holds the coded size; the track header may be
		// scaled or rotated.
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok && vse.Width > 0 && vse.Height > 0 {
			info.Width = int(vse.Width)
			info.Height = int(vse.Height)
		}
		break
	}

	return info, true
}

func codecFor(boxType string) Codec {
	switch boxType {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "vp09":
		return CodecVP9
	default:
		return CodecUnknown
	}
}
