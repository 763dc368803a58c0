// Package cache stores decoded PCM audio so that replaying an article, or
// switching back to a playback rate used before, skips the ffmpeg decode.
// Entries live in an in-memory LRU (L1) backed by a zstd-compressed disk
// cache (L2).
package cache
