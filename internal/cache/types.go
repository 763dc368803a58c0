package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrClosed is returned by operations on a closed Manager.
	ErrClosed = errors.New("cache closed")
)

// Level is a cache tier.
type Level int

const (
	LevelMemory Level = iota
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds the counters of one cache tier.
type Stats struct {
	Capacity  int64
	Size      int64
	ItemCount int64
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64

	LastAccess time.Time
	LastEvict  time.Time
}

func (s *Stats) updateHitRate() {
	if s.Hits+s.Misses > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Hits+s.Misses)
	}
}

// Config holds configuration for a Manager.
type Config struct {
	MemoryCapacity int64 // bytes; 0 disables the memory tier

	DiskCapacity     int64  // bytes; 0 disables the disk tier
	DiskPath         string // directory for cache files
	CompressionLevel int    // zstd level, 0 stores files uncompressed

	// MaxAge expires disk entries on Prune. Zero keeps entries until
	// evicted.
	MaxAge time.Duration
}

// DefaultConfig returns the default configuration rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		MemoryCapacity:   64 << 20,
		DiskCapacity:     512 << 20,
		DiskPath:         dir,
		CompressionLevel: 3,
		MaxAge:           7 * 24 * time.Hour,
	}
}

// Key returns the cache key of src decoded at the given playback rate.
func Key(src string, rate float64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%.2f", src, rate)))
	return hex.EncodeToString(sum[:16])
}
