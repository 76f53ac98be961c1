// Package audio plays synthesized WAV payloads on the local audio device.
// The Output interface isolates the playback queue from the device so tests
// can drive playback without hardware.
package audio

import "errors"

// Common playback errors.
var (
	// ErrNoAudio is returned when Play receives an empty payload.
	ErrNoAudio = errors.New("audio payload is empty")
	// ErrClosed is returned when the output has been closed.
	ErrClosed = errors.New("audio output is closed")
	// ErrInvalidVolume is returned for volumes outside [0.0, 1.0].
	ErrInvalidVolume = errors.New("volume must be between 0.0 and 1.0")
)

// Output is a single-slot audio sink. Play replaces whatever is currently
// playing; the finished callback fires once when a payload plays to its
// natural end, and never after Stop.
type Output interface {
	// Play decodes a WAV payload and starts playing it, replacing any
	// current playback.
	Play(wavData []byte) error

	// Pause suspends playback, keeping position. No-op when idle.
	Pause()

	// Resume continues paused playback. No-op when not paused.
	Resume()

	// Stop halts playback and discards the current payload. The finished
	// callback is not invoked.
	Stop()

	// SetVolume adjusts playback gain. Applies to current and future
	// payloads.
	SetVolume(volume float64) error

	// SetFinished registers the natural-completion callback. The callback
	// runs on the output's own goroutine.
	SetFinished(fn func())

	// Close stops playback and releases the audio device.
	Close() error
}
