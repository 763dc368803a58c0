package playback

import (
	"errors"
	"fmt"
)

// Display strings for playback failures.
const (
	MsgPlayFailed = "Unable to play audio. Please try again later."
	MsgNoAudio    = "No audio available for this article yet."
	MsgLoadFailed = "Error loading audio file"
)

// ErrInvalidSpeed is returned by SetSpeed for rates outside Speeds.
var ErrInvalidSpeed = errors.New("unsupported playback speed")

// Reason classifies a PlaybackError.
type Reason string

const (
	ReasonDecode        Reason = "decode"
	ReasonMissingSource Reason = "missing_source"
	ReasonBlocked       Reason = "blocked"
)

// PlaybackError is returned when playback cannot start.
type PlaybackError struct {
	Reason  Reason
	Message string // display text
	Cause   error
}

func (e *PlaybackError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *PlaybackError) Unwrap() error {
	return e.Cause
}
