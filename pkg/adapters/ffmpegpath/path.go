// Package ffmpegpath locates the ffmpeg executable.
package ffmpegpath

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// ErrNotFound is returned when no ffmpeg executable can be found.
var ErrNotFound = errors.New("ffmpegpath: ffmpeg not found")

// Find resolves the ffmpeg executable in the following order:
// 1. explicitPath, if non-empty
// 2. FFMPEG_PATH environment variable
// 3. PATH
// 4. common install locations
func Find(explicitPath string) (string, error) {
	if explicitPath != "" {
		if path := resolveExecutable(explicitPath); path != "" {
			return path, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrNotFound, explicitPath)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	for _, p := range commonPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrNotFound
}

// Available reports whether Find succeeds without an explicit path.
func Available() bool {
	_, err := Find("")
	return err == nil
}

func commonPaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files (x86)\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		return []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/opt/homebrew/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
}

// resolveExecutable returns nameOrPath if it exists as a file, or its PATH
// lookup for a bare command name.
func resolveExecutable(nameOrPath string) string {
	if _, err := os.Stat(nameOrPath); err == nil {
		return nameOrPath
	}
	if path, err := exec.LookPath(nameOrPath); err == nil {
		return path
	}
	return ""
}
