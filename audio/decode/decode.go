// Package decode opens audio files and normalizes them to the canonical
// stream format.
//
// Container decoders are looked up by lower-cased file extension. Each one
// produces interleaved float32 at the file's native rate and channel
// count; [Open] then interposes channel conversion and resampling so the
// returned [Source] always reads as [audio.Canonical].
package decode

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/algo-fxplayer/audio"
)

// Info describes a file at its native format.
type Info struct {
	Container string
	Format    audio.Format
	// Frames is the native frame count, or -1 if the container does not
	// say.
	Frames int64
}

// BitDepth returns the native sample size in bits.
func (i Info) BitDepth() int {
	return i.Format.Encoding.BytesPerSample() * 8
}

// Duration returns the native play time, 0 when Frames is unknown.
func (i Info) Duration() time.Duration {
	if i.Frames < 0 {
		return 0
	}
	return i.Format.Duration(i.Frames)
}

// Decoder reads one container at its native format.
//
// Read returns whole interleaved frames. Seek moves to an absolute native
// frame and returns the frame it actually landed on, which may be earlier
// for containers that only seek to block boundaries.
type Decoder interface {
	Info() Info
	Read(buf []float32) (int, error)
	Seek(frame int64) (int64, error)
	Close() error
}

// OpenFunc creates a Decoder that takes ownership of f.
type OpenFunc func(f *os.File) (Decoder, error)

var (
	openersMu sync.RWMutex
	openers   = map[string]OpenFunc{
		".wav":  openWAV,
		".wave": openWAV,
		".mp3":  openMP3,
		".flac": openFLAC,
		".ogg":  openOGG,
		".oga":  openOGG,
	}
)

// Register installs open for files ending in ext, replacing any existing
// decoder for that extension.
func Register(ext string, open OpenFunc) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[ext] = open
}

// Extensions lists the registered extensions in sorted order.
func Extensions() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	out := make([]string, 0, len(openers))
	for ext := range openers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Supported reports whether path has a registered extension.
func Supported(path string) bool {
	_, err := lookup(path)
	return err == nil
}

func lookup(path string) (OpenFunc, error) {
	ext := strings.ToLower(filepath.Ext(path))
	openersMu.RLock()
	open, ok := openers[ext]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", audio.ErrUnsupportedFormat, ext)
	}
	return open, nil
}

// openDecoder resolves the container for path and opens it.
func openDecoder(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", audio.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	open, err := lookup(path)
	if err != nil {
		f.Close()
		return nil, err
	}

	dec, err := open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return dec, nil
}

// Probe returns the native description of path without building the
// normalizer.
func Probe(path string) (Info, error) {
	dec, err := openDecoder(path)
	if err != nil {
		return Info{}, err
	}
	defer dec.Close()
	return dec.Info(), nil
}

func unsupported(container string, err error) error {
	return fmt.Errorf("%w: %s: %v", audio.ErrUnsupportedFormat, container, err)
}
