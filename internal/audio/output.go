//go:build !nocgo
// +build !nocgo

package audio

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/ebitengine/oto/v3"
)

type otoOutput struct {
	ctx *oto.Context
}

func (o otoOutput) NewPlayer(r io.Reader) Player {
	return o.ctx.NewPlayer(r)
}

// OpenOto opens the process-wide oto context. oto allows only one context
// per process, so callers share the returned Output.
func OpenOto(sampleRate int) (Output, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	}
	if runtime.GOOS == "darwin" {
		opts.BufferSize = 100 * time.Millisecond
	}

	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}
	<-ready
	return otoOutput{ctx: ctx}, nil
}
