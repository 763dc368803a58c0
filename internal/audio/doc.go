// Package audio is the media element of the dashboard. A Media loads one
// source at a time, plays it through the shared oto context and reports
// progress as events, much like an HTML audio element.
//
// Sources are fetched over HTTP or read from disk, decoded to 16-bit PCM by
// ffmpeg and kept in memory while they play. Speed changes re-decode the
// source with ffmpeg's atempo filter so pitch is preserved.
package audio
