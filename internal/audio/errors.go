package audio

import "errors"

var (
	// ErrNoSource is returned by Play when nothing has been loaded.
	ErrNoSource = errors.New("no audio source")

	// ErrDeviceUnavailable is returned when the audio output cannot be
	// opened.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrDecode wraps failures to fetch or decode a source.
	ErrDecode = errors.New("failed to decode audio")

	// ErrClosed is returned by operations on a closed Media.
	ErrClosed = errors.New("media closed")
)
