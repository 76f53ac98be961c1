// Package player holds the sequential playback queue and its transport
// controls. One queue entry corresponds to one generation job; entries play
// in order, advancing automatically when the device reports completion.
package player

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tdfn00b/tts-extra/internal/audio"
	"github.com/tdfn00b/tts-extra/internal/segment"
)

// Item is one playback queue entry. Audio is populated when the entry's
// generation job completes.
type Item struct {
	ID        string
	Text      string
	Type      string
	Color     string
	Paragraph int
	Status    segment.Status
	Audio     []byte
}

// Player drives a queue of items through an audio output. All methods are
// safe for concurrent use; status change notifications run outside the
// lock.
type Player struct {
	mu sync.Mutex

	out    audio.Output
	items  []Item
	index  int
	status Status
	volume float64

	// waitingID is the entry playback is holding for when the user reaches
	// an item whose audio has not arrived yet.
	waitingID string

	onStatus func(Status)
}

// New creates a player over an audio output. The output's finished callback
// is claimed by the player.
func New(out audio.Output) *Player {
	p := &Player{
		out:    out,
		index:  -1,
		status: StatusIdle,
		volume: 1.0,
	}
	out.SetFinished(p.advance)
	return p
}

// OnStatus registers a callback invoked after every status transition.
func (p *Player) OnStatus(fn func(Status)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onStatus = fn
}

// setStatus records a transition and returns the notifier to run after the
// lock is released. Callers hold p.mu.
func (p *Player) setStatus(s Status) func() {
	if p.status == s {
		return func() {}
	}
	p.status = s
	fn := p.onStatus
	if fn == nil {
		return func() {}
	}
	return func() { fn(s) }
}

// Replace swaps in a new queue and enters the preparing state. Current
// playback stops.
func (p *Player) Replace(items []Item) {
	p.mu.Lock()
	p.out.Stop()
	p.items = append([]Item(nil), items...)
	p.index = -1
	p.waitingID = ""
	notify := p.setStatus(StatusPreparing)
	p.mu.Unlock()

	notify()
}

// Clear discards the queue and stops playback.
func (p *Player) Clear() {
	p.mu.Lock()
	p.out.Stop()
	p.items = nil
	p.index = -1
	p.waitingID = ""
	notify := p.setStatus(StatusIdle)
	p.mu.Unlock()

	notify()
}

// FinishPreparing transitions preparing to ready once generation has
// settled without playback being started. No-op in any other state.
func (p *Player) FinishPreparing() {
	p.mu.Lock()
	notify := func() {}
	if p.status == StatusPreparing {
		notify = p.setStatus(StatusReady)
	}
	p.mu.Unlock()

	notify()
}

// SetItemReady attaches audio to the entry with the given id, marking it
// ready. Unknown ids are ignored, so results from a superseded queue are
// harmless. If playback was holding for this entry, it resumes.
func (p *Player) SetItemReady(id string, audioData []byte) {
	p.mu.Lock()
	i := p.find(id)
	if i < 0 {
		p.mu.Unlock()
		return
	}
	p.items[i].Status = segment.StatusReady
	p.items[i].Audio = audioData

	notify := func() {}
	if p.waitingID == id && p.status == StatusPaused {
		p.waitingID = ""
		notify = p.playCurrent()
	}
	p.mu.Unlock()

	notify()
}

// SetItemError marks the entry failed. If playback was holding for it, the
// entry is skipped.
func (p *Player) SetItemError(id string) {
	p.mu.Lock()
	i := p.find(id)
	if i < 0 {
		p.mu.Unlock()
		return
	}
	p.items[i].Status = segment.StatusError
	p.items[i].Audio = nil

	notify := func() {}
	if p.waitingID == id && p.status == StatusPaused {
		p.waitingID = ""
		notify = p.advanceLocked()
	}
	p.mu.Unlock()

	notify()
}

// find returns the index of the entry with the given id, or -1. Callers
// hold p.mu.
func (p *Player) find(id string) int {
	for i := range p.items {
		if p.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Play starts playback at the current entry. A fresh or exhausted position
// restarts from the first entry.
func (p *Player) Play() {
	p.mu.Lock()
	if len(p.items) == 0 {
		p.mu.Unlock()
		return
	}
	if p.index < 0 || p.index >= len(p.items) {
		p.index = 0
	}
	notify := p.playCurrent()
	p.mu.Unlock()

	notify()
}

// playCurrent starts the entry at p.index. A ready entry plays; a pending
// entry holds in paused until its audio arrives; a failed entry is skipped.
// Callers hold p.mu; the returned notifier runs after unlock.
func (p *Player) playCurrent() func() {
	item := &p.items[p.index]

	switch item.Status {
	case segment.StatusReady:
		if err := p.out.Play(item.Audio); err != nil {
			log.Warn("Failed to play entry", "id", item.ID, "error", err)
			item.Status = segment.StatusError
			return p.advanceLocked()
		}
		p.waitingID = ""
		return p.setStatus(StatusPlaying)

	case segment.StatusPending, segment.StatusLoading:
		p.out.Stop()
		p.waitingID = item.ID
		return p.setStatus(StatusPaused)

	default:
		return p.advanceLocked()
	}
}

// advance moves to the next entry when the device reports natural
// completion.
func (p *Player) advance() {
	p.mu.Lock()
	if p.status != StatusPlaying {
		p.mu.Unlock()
		return
	}
	notify := p.advanceLocked()
	p.mu.Unlock()

	notify()
}

// advanceLocked steps past the current entry. Past the last entry the
// queue is done: playback returns to idle with no position. Callers hold
// p.mu.
func (p *Player) advanceLocked() func() {
	p.index++
	if p.index < len(p.items) {
		return p.playCurrent()
	}

	p.out.Stop()
	p.index = -1
	p.waitingID = ""
	return p.setStatus(StatusIdle)
}

// Skip stops the current entry and moves forward. Skipping past the last
// entry stops playback but keeps the queue, so Play restarts from the top.
func (p *Player) Skip() {
	p.mu.Lock()
	if len(p.items) == 0 {
		p.mu.Unlock()
		return
	}
	p.out.Stop()
	p.waitingID = ""

	notify := func() {}
	if p.index+1 < len(p.items) {
		p.index++
		if p.status.Active() {
			notify = p.playCurrent()
		}
	} else {
		p.index = len(p.items)
		notify = p.setStatus(StatusReady)
	}
	p.mu.Unlock()

	notify()
}

// Rewind moves back one entry, clamped at the first, restarting playback
// when active.
func (p *Player) Rewind() {
	p.mu.Lock()
	if len(p.items) == 0 {
		p.mu.Unlock()
		return
	}
	p.out.Stop()
	p.waitingID = ""

	if p.index > 0 {
		p.index--
	} else {
		p.index = 0
	}

	notify := func() {}
	if p.status.Active() {
		notify = p.playCurrent()
	}
	p.mu.Unlock()

	notify()
}

// ReplayAll restarts playback from the first entry.
func (p *Player) ReplayAll() {
	p.mu.Lock()
	if len(p.items) == 0 {
		p.mu.Unlock()
		return
	}
	p.out.Stop()
	p.waitingID = ""
	p.index = 0
	notify := p.playCurrent()
	p.mu.Unlock()

	notify()
}

// Pause suspends active playback.
func (p *Player) Pause() {
	p.mu.Lock()
	notify := func() {}
	if p.status == StatusPlaying {
		p.out.Pause()
		notify = p.setStatus(StatusPaused)
	}
	p.mu.Unlock()

	notify()
}

// Resume continues paused playback. When paused holding for an entry's
// audio, the hold continues until the audio arrives.
func (p *Player) Resume() {
	p.mu.Lock()
	notify := func() {}
	if p.status == StatusPaused && p.waitingID == "" {
		p.out.Resume()
		notify = p.setStatus(StatusPlaying)
	}
	p.mu.Unlock()

	notify()
}

// TogglePlayPause pauses when playing, resumes when paused, and starts
// playback otherwise.
func (p *Player) TogglePlayPause() {
	p.mu.Lock()
	status := p.status
	p.mu.Unlock()

	switch status {
	case StatusPlaying:
		p.Pause()
	case StatusPaused:
		p.Resume()
	default:
		p.Play()
	}
}

// Stop halts playback and resets the position. The queue is kept.
func (p *Player) Stop() {
	p.mu.Lock()
	p.out.Stop()
	p.index = -1
	p.waitingID = ""
	notify := p.setStatus(StatusIdle)
	p.mu.Unlock()

	notify()
}

// SetVolume adjusts playback gain, clamped to [0.0, 1.0].
func (p *Player) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	p.mu.Lock()
	p.volume = volume
	if err := p.out.SetVolume(volume); err != nil {
		log.Warn("Failed to set volume", "volume", volume, "error", err)
	}
	p.mu.Unlock()
}

// Volume returns the current playback gain.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Status returns the current playback status.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Index returns the position of the current entry, or -1 when playback is
// not positioned.
func (p *Player) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Items returns a snapshot of the queue.
func (p *Player) Items() []Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Item(nil), p.items...)
}

// Close stops playback and releases the audio output.
func (p *Player) Close() error {
	p.mu.Lock()
	notify := p.setStatus(StatusIdle)
	p.items = nil
	p.index = -1
	p.waitingID = ""
	err := p.out.Close()
	p.mu.Unlock()

	notify()
	return err
}
