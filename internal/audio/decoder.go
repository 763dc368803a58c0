package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// Decoder turns encoded audio into mono signed 16-bit little-endian PCM.
type Decoder interface {
	Decode(ctx context.Context, encoded []byte, rate float64) ([]byte, error)
}

// FFmpeg decodes with an ffmpeg subprocess.
type FFmpeg struct {
	Path       string        // ffmpeg binary, "ffmpeg" if empty
	SampleRate int           // output sample rate
	Timeout    time.Duration // zero means no timeout
}

// Check verifies that the ffmpeg binary can be executed.
func (f FFmpeg) Check() error {
	path, err := exec.LookPath(f.path())
	if err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	if err := exec.Command(path, "-version").Run(); err != nil {
		return fmt.Errorf("cannot execute ffmpeg: %w", err)
	}
	return nil
}

// Decode pipes encoded through ffmpeg. Rates other than 1 are applied with
// the atempo filter, clamped to its 0.5 to 2.0 range.
func (f FFmpeg) Decode(ctx context.Context, encoded []byte, rate float64) ([]byte, error) {
	if len(encoded) == 0 {
		return nil, errors.New("empty audio input")
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.path(), f.args(rate)...)
	cmd.Stdin = bytes.NewReader(encoded)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffmpeg interrupted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	pcm := stdout.Bytes()
	if len(pcm) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output: %s", strings.TrimSpace(stderr.String()))
	}
	log.Debug("decoded audio",
		"input", humanize.Bytes(uint64(len(encoded))),
		"output", humanize.Bytes(uint64(len(pcm))),
		"rate", rate,
		"elapsed", time.Since(start))
	return pcm, nil
}

func (f FFmpeg) path() string {
	if f.Path == "" {
		return "ffmpeg"
	}
	return f.Path
}

func (f FFmpeg) args(rate float64) []string {
	sampleRate := f.SampleRate
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
	}
	if rate != 1 && rate > 0 {
		args = append(args, "-filter:a", fmt.Sprintf("atempo=%.2f", clampRate(rate)))
	}
	return append(args, "pipe:1")
}

func clampRate(rate float64) float64 {
	switch {
	case rate < 0.5:
		return 0.5
	case rate > 2:
		return 2
	default:
		return rate
	}
}
