package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// watchInterval is how often the completion watcher polls the device.
const watchInterval = 50 * time.Millisecond

// OtoOutput plays PCM audio through the system device via oto. The device
// context is created lazily from the first payload's format because oto
// supports exactly one context per process.
type OtoOutput struct {
	mu sync.Mutex

	context    *oto.Context
	player     *oto.Player
	sampleRate int
	channels   int

	// stream must stay referenced while the device reads from it.
	stream *bytes.Reader

	volume     float64
	onFinished func()
	paused     bool
	closed     bool

	// generation invalidates the watcher of a replaced or stopped payload
	// so a stale watcher never fires the finished callback.
	generation uint64
}

// NewOtoOutput creates an output with full volume. The audio device is not
// touched until the first Play.
func NewOtoOutput() *OtoOutput {
	return &OtoOutput{volume: 1.0}
}

// Play decodes the payload and starts device playback, replacing any
// current payload.
func (o *OtoOutput) Play(wavData []byte) error {
	if len(wavData) == 0 {
		return ErrNoAudio
	}

	pcm, err := DecodeWAV(wavData)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}

	if err := o.ensureContext(pcm); err != nil {
		return err
	}

	o.stopLocked()

	o.stream = bytes.NewReader(pcm.Data)
	o.player = o.context.NewPlayer(o.stream)
	o.player.SetVolume(o.volume)
	o.paused = false
	o.player.Play()

	o.generation++
	go o.watch(o.generation, o.player)

	return nil
}

// ensureContext initializes the oto context from the first payload's format
// and verifies later payloads match it.
func (o *OtoOutput) ensureContext(pcm *PCM) error {
	if o.context != nil {
		if pcm.SampleRate != o.sampleRate || pcm.Channels != o.channels {
			return fmt.Errorf("audio format changed mid-session: got %dHz/%dch, device is %dHz/%dch",
				pcm.SampleRate, pcm.Channels, o.sampleRate, o.channels)
		}
		return nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   pcm.SampleRate,
		ChannelCount: pcm.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready

	o.context = ctx
	o.sampleRate = pcm.SampleRate
	o.channels = pcm.Channels
	return nil
}

// watch polls the device until the payload drains, then fires the finished
// callback unless the payload was replaced or stopped in the meantime.
func (o *OtoOutput) watch(generation uint64, player *oto.Player) {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for range ticker.C {
		o.mu.Lock()
		if o.generation != generation || o.closed {
			o.mu.Unlock()
			return
		}
		if o.paused {
			o.mu.Unlock()
			continue
		}
		if player.IsPlaying() || player.BufferedSize() > 0 {
			o.mu.Unlock()
			continue
		}

		o.stopLocked()
		fn := o.onFinished
		o.mu.Unlock()

		if fn != nil {
			fn()
		}
		return
	}
}

// Pause suspends playback.
func (o *OtoOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil && !o.paused {
		o.player.Pause()
		o.paused = true
	}
}

// Resume continues paused playback.
func (o *OtoOutput) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil && o.paused {
		o.player.Play()
		o.paused = false
	}
}

// Stop halts playback and discards the current payload.
func (o *OtoOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.generation++
	o.stopLocked()
}

// stopLocked releases the active player. Callers hold o.mu.
func (o *OtoOutput) stopLocked() {
	if o.player != nil {
		o.player.Pause()
		// The device keeps working after a failed close; nothing to recover.
		_ = o.player.Close()
		o.player = nil
	}
	o.stream = nil
	o.paused = false
}

// SetVolume adjusts gain for the current and future payloads.
func (o *OtoOutput) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return ErrInvalidVolume
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.volume = volume
	if o.player != nil {
		o.player.SetVolume(volume)
	}
	return nil
}

// SetFinished registers the natural-completion callback.
func (o *OtoOutput) SetFinished(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onFinished = fn
}

// Close stops playback and marks the output unusable. The oto context has
// no close of its own; it is released with the process.
func (o *OtoOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.generation++
	o.stopLocked()
	o.closed = true
	return nil
}
