package main

import (
	"fmt"
	"net/http"

	"github.com/articlereader/articlereader/internal/api"
	"github.com/articlereader/articlereader/internal/audio"
	"github.com/articlereader/articlereader/internal/cache"
	"github.com/articlereader/articlereader/internal/preview"
	"github.com/articlereader/articlereader/utils"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// app holds the long-lived pieces shared by the dashboard and the
// subcommands.
type app struct {
	gw     *api.Client
	cache  *cache.Manager
	device *audio.Device
}

func httpClient() *http.Client {
	return &http.Client{Timeout: viper.GetDuration("api.timeout")}
}

func newGateway() (*api.Client, error) {
	gw, err := api.NewClient(api.Config{
		BaseURL:           viper.GetString("api.base_url"),
		HTTPClient:        httpClient(),
		RequestsPerMinute: viper.GetInt("api.requests_per_minute"),
		UserAgent:         "articlereader/" + Version,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create gateway: %w", err)
	}
	return gw, nil
}

func cacheDir() string {
	base, err := gap.NewScope(gap.User, "articlereader").CacheDir()
	if err != nil {
		log.Debug("could not find cache directory", "error", err)
	}
	return utils.DefaultDir(viper.GetString("cache.dir"), base, "audio")
}

func cacheConfig() cache.Config {
	cfg := cache.DefaultConfig(cacheDir())
	cfg.MemoryCapacity = viper.GetInt64("cache.memory_mb") << 20
	cfg.DiskCapacity = viper.GetInt64("cache.disk_mb") << 20
	cfg.CompressionLevel = viper.GetInt("cache.compression_level")
	return cfg
}

func newApp() (*app, error) {
	gw, err := newGateway()
	if err != nil {
		return nil, err
	}

	mgr, err := cache.NewManager(cacheConfig())
	if err != nil {
		return nil, fmt.Errorf("unable to open audio cache: %w", err)
	}
	if n := mgr.Prune(); n > 0 {
		log.Debug("pruned audio cache", "entries", n)
	}

	rate := viper.GetInt("audio.sample_rate")
	decoder := audio.FFmpeg{
		Path:       viper.GetString("audio.ffmpeg"),
		SampleRate: rate,
		Timeout:    viper.GetDuration("audio.decode_timeout"),
	}
	if err := decoder.Check(); err != nil {
		log.Warn("audio decoding unavailable", "error", err)
	}

	dev := audio.NewDevice(audio.Config{
		SampleRate: rate,
		Decoder:    decoder,
		Loader:     audio.SourceLoader{Client: httpClient()},
		Cache:      mgr,
	})
	return &app{gw: gw, cache: mgr, device: dev}, nil
}

func (a *app) newPreviewer() *preview.Previewer {
	return preview.New(a.gw, func() audio.Media {
		return a.device.NewElement()
	}, preview.Config{SampleText: viper.GetString("voice.sample_text")})
}

func (a *app) Close() {
	stats := a.cache.Stats()
	log.Debug("closing audio cache", "stats", stats)
	if err := a.cache.Close(); err != nil {
		log.Warn("failed to close audio cache", "error", err)
	}
}
