package audio

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/articlereader/articlereader/internal/cache"
)

// DefaultSampleRate of decoded PCM.
const DefaultSampleRate = 44100

const (
	channels       = 1
	bytesPerSample = 2
	frameSize      = channels * bytesPerSample
)

// Output creates players for PCM streams. It is satisfied by the oto
// context and by test doubles.
type Output interface {
	NewPlayer(r io.Reader) Player
}

// Player plays one PCM stream. *oto.Player implements it.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	BufferedSize() int
	Seek(offset int64, whence int) (int64, error)
	SetVolume(volume float64)
	Close() error
}

// Config configures a Device.
type Config struct {
	SampleRate int
	Decoder    Decoder
	Loader     Loader
	Cache      *cache.Manager // optional cache of decoded PCM

	// Open opens the output on first use. Defaults to OpenOto.
	Open func(sampleRate int) (Output, error)
}

// Device owns the audio output shared by all elements it creates. The
// output is opened on the first Play, so a machine without sound still
// runs everything that does not need it.
type Device struct {
	cfg Config

	once   sync.Once
	output Output
	err    error
}

// NewDevice creates a device. Nothing is opened until an element plays.
func NewDevice(cfg Config) *Device {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Decoder == nil {
		cfg.Decoder = FFmpeg{SampleRate: cfg.SampleRate}
	}
	if cfg.Loader == nil {
		cfg.Loader = SourceLoader{}
	}
	if cfg.Open == nil {
		cfg.Open = OpenOto
	}
	return &Device{cfg: cfg}
}

// NewElement creates an independent media element on this device.
func (d *Device) NewElement() *Element {
	return newElement(d)
}

func (d *Device) open() (Output, error) {
	d.once.Do(func() {
		d.output, d.err = d.cfg.Open(d.cfg.SampleRate)
	})
	if d.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, d.err)
	}
	return d.output, nil
}

// decode returns the PCM of src at rate. encoded holds the source bytes if
// they were already fetched; the bytes used are returned for reuse.
func (d *Device) decode(ctx context.Context, src string, rate float64, encoded []byte) (pcm, enc []byte, err error) {
	load := func() ([]byte, error) {
		if encoded == nil {
			if encoded, err = d.cfg.Loader.Load(ctx, src); err != nil {
				return nil, err
			}
		}
		return d.cfg.Decoder.Decode(ctx, encoded, rate)
	}

	if d.cfg.Cache != nil && IsRemote(src) {
		pcm, err = d.cfg.Cache.GetOrLoad(cache.Key(src, rate), load)
	} else {
		pcm, err = load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return pcm, encoded, nil
}

// seconds returns the duration of n bytes of stream at the device rate.
func (d *Device) seconds(n int64) float64 {
	return float64(n) / float64(d.cfg.SampleRate*frameSize)
}

// offset returns the frame-aligned byte offset of a stream time.
func (d *Device) offset(seconds float64) int64 {
	n := int64(seconds * float64(d.cfg.SampleRate*frameSize))
	return n - n%frameSize
}
