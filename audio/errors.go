package audio

import "errors"

var (
	// ErrSourceNotFound indicates that the input file does not exist.
	ErrSourceNotFound = errors.New("audio: source not found")
	// ErrUnsupportedFormat indicates an unknown container or codec.
	ErrUnsupportedFormat = errors.New("audio: unsupported format")
	// ErrFormatMismatch indicates a stream that violates the canonical
	// format contract expected by the device sink.
	ErrFormatMismatch = errors.New("audio: format mismatch")
	// ErrNoSourceLoaded is returned by transport operations that need a
	// loaded source.
	ErrNoSourceLoaded = errors.New("audio: no source loaded")
	// ErrNotSeekable indicates a stream that cannot reposition.
	ErrNotSeekable = errors.New("audio: stream not seekable")
	// ErrRebuildInProgress marks a rebuild request dropped because another
	// rebuild was running.
	ErrRebuildInProgress = errors.New("audio: rebuild in progress")
	// ErrDeviceInit indicates that the output device could not be opened
	// or failed while playing.
	ErrDeviceInit = errors.New("audio: device init failure")
)
