package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"
)

// Manager looks values up in memory first, then on disk. Disk hits are
// promoted to memory.
type Manager struct {
	memory *MemoryCache // nil when disabled
	disk   *DiskCache   // nil when disabled
	maxAge time.Duration

	loads singleflight.Group

	mu     sync.Mutex
	closed bool
	writes sync.WaitGroup
	stats  ManagerStats
}

// ManagerStats aggregates the counters of both tiers.
type ManagerStats struct {
	MemoryHits int64
	DiskHits   int64
	Misses     int64
	Promotions int64
	Loads      int64

	Memory Stats
	Disk   Stats
}

// NewManager creates a manager from cfg. A tier with zero capacity is
// disabled.
func NewManager(cfg Config) (*Manager, error) {
	m := &Manager{maxAge: cfg.MaxAge}
	if cfg.MemoryCapacity > 0 {
		m.memory = NewMemoryCache(cfg.MemoryCapacity)
	}
	if cfg.DiskCapacity > 0 {
		if cfg.DiskPath == "" {
			return nil, errors.New("disk cache enabled without a path")
		}
		disk, err := NewDiskCache(cfg.DiskPath, cfg.DiskCapacity, cfg.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
		m.disk = disk
	}
	return m, nil
}

// Get returns the value cached under key.
func (m *Manager) Get(key string) ([]byte, bool) {
	if m.memory != nil {
		if data, ok := m.memory.Get(key); ok {
			m.count(func(s *ManagerStats) { s.MemoryHits++ })
			return data, true
		}
	}
	if m.disk != nil {
		if data, ok := m.disk.Get(key); ok {
			m.count(func(s *ManagerStats) { s.DiskHits++ })
			m.promote(key, data)
			return data, true
		}
	}
	m.count(func(s *ManagerStats) { s.Misses++ })
	return nil, false
}

// Put stores value in memory right away and on disk in the background.
func (m *Manager) Put(key string, value []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.disk != nil {
		m.writes.Add(1)
	}
	m.mu.Unlock()

	if m.memory != nil {
		if err := m.memory.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
			return fmt.Errorf("memory cache: %w", err)
		}
	}
	if m.disk != nil {
		go func() {
			defer m.writes.Done()
			if err := m.disk.Put(key, value); err != nil {
				log.Warn("failed to write decoded audio to disk cache",
					"key", key, "size", humanize.Bytes(uint64(len(value))), "error", err)
			}
		}()
	}
	return nil
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Concurrent calls for the same key share one load.
func (m *Manager) GetOrLoad(key string, load func() ([]byte, error)) ([]byte, error) {
	if data, ok := m.Get(key); ok {
		return data, nil
	}
	v, err, _ := m.loads.Do(key, func() (any, error) {
		if data, ok := m.Get(key); ok {
			return data, nil
		}
		data, err := load()
		if err != nil {
			return nil, err
		}
		m.count(func(s *ManagerStats) { s.Loads++ })
		if err := m.Put(key, data); err != nil {
			log.Debug("loaded value not cached", "key", key, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Delete removes key from both tiers.
func (m *Manager) Delete(key string) {
	if m.memory != nil {
		m.memory.Delete(key)
	}
	if m.disk != nil {
		m.disk.Delete(key)
	}
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	if m.memory != nil {
		m.memory.Clear()
	}
	if m.disk != nil {
		return m.disk.Clear()
	}
	return nil
}

// Prune drops entries older than the configured max age.
func (m *Manager) Prune() int {
	if m.maxAge <= 0 {
		return 0
	}
	removed := 0
	if m.memory != nil {
		removed += m.memory.Prune(m.maxAge)
	}
	if m.disk != nil {
		removed += m.disk.RemoveOlderThan(time.Now().Add(-m.maxAge))
	}
	if removed > 0 {
		log.Debug("pruned decoded audio cache", "removed", removed)
	}
	return removed
}

// Stats returns the counters of the manager and both tiers.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	s := m.stats
	m.mu.Unlock()

	if m.memory != nil {
		s.Memory = m.memory.Stats()
	}
	if m.disk != nil {
		s.Disk = m.disk.Stats()
	}
	return s
}

// Close waits for pending disk writes and saves the disk index.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.writes.Wait()
	if m.disk != nil {
		if err := m.disk.Close(); err != nil {
			return fmt.Errorf("failed to close disk cache: %w", err)
		}
	}
	return nil
}

func (m *Manager) promote(key string, data []byte) {
	if m.memory == nil {
		return
	}
	if err := m.memory.Put(key, data); err == nil {
		m.count(func(s *ManagerStats) { s.Promotions++ })
	}
}

func (m *Manager) count(f func(*ManagerStats)) {
	m.mu.Lock()
	f(&m.stats)
	m.mu.Unlock()
}
