//go:build nocgo
// +build nocgo

package audio

import "errors"

// OpenOto always fails in builds without cgo.
func OpenOto(sampleRate int) (Output, error) {
	return nil, errors.New("audio not available in nocgo build")
}
