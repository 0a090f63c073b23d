package encode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
var ErrFFmpegNotFound = errors.New("encode: ffmpeg not found")

var codecArgs = map[string][]string{
	".mp3":  {"-codec:a", "libmp3lame", "-q:a", "2"},
	".flac": {"-codec:a", "flac"},
	".ogg":  {"-codec:a", "libvorbis", "-q:a", "5"},
	".m4a":  {"-codec:a", "aac", "-b:a", "192k"},
	".aac":  {"-codec:a", "aac", "-b:a", "192k"},
}

// Compressed reports whether path names a container that needs ffmpeg.
func Compressed(path string) bool {
	_, ok := codecArgs[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LookFFmpeg resolves name (a bare command or a path) to an executable.
func LookFFmpeg(name string) (string, error) {
	if name == "" {
		name = "ffmpeg"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}
	return path, nil
}

// Transcoder converts an intermediate WAV into a compressed container.
type Transcoder struct {
	// Path is the ffmpeg executable.
	Path string
}

// Args returns the ffmpeg argument list used to convert in to out.
func (t Transcoder) Args(in, out string) ([]string, error) {
	codec, ok := codecArgs[strings.ToLower(filepath.Ext(out))]
	if !ok {
		return nil, fmt.Errorf("encode: no ffmpeg codec for %q", filepath.Ext(out))
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", in}
	args = append(args, codec...)
	return append(args, out), nil
}

// Transcode runs ffmpeg to convert in to out. The subprocess is killed if
// ctx is cancelled.
func (t Transcoder) Transcode(ctx context.Context, in, out string) error {
	args, err := t.Args(in, out)
	if err != nil {
		return err
	}

	// #nosec G204 - the binary comes from configuration, arguments are built here
	cmd := exec.CommandContext(ctx, t.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", filepath.Base(out), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
