// Package app wires segmentation, audio generation, and playback into the
// narration session used by the CLI. It owns the preparation cycle: every
// new narration cancels the previous cycle's requests and swaps in a fresh
// playback queue.
package app

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tdfn00b/tts-extra/internal/audio"
	"github.com/tdfn00b/tts-extra/internal/config"
	"github.com/tdfn00b/tts-extra/internal/pipeline"
	"github.com/tdfn00b/tts-extra/internal/player"
	"github.com/tdfn00b/tts-extra/internal/segment"
)

// ErrNoPresets is returned when preset operations run without a store.
var ErrNoPresets = errors.New("no preset store configured")

// speakerPrefixRe strips a leading "Name:" speaker label from ad-hoc text.
var speakerPrefixRe = regexp.MustCompile(`^[^:]+:\s*`)

// waitPoll is the interval at which Wait re-checks the session state.
const waitPoll = 100 * time.Millisecond

// App is one narration session: parsed chunks, the generation pipeline,
// and the playback queue, with the settings that drive them.
type App struct {
	mu sync.Mutex

	settings *config.Settings
	player   *player.Player
	gen      *pipeline.Generator
	cache    *pipeline.AudioCache
	reqLog   *pipeline.RequestLog
	presets  *config.PresetStore

	chunks   []segment.Chunk
	strategy pipeline.Strategy
	selected map[string]bool
	autoplay bool

	// cycleCancel aborts the in-flight preparation cycle; cycleSeq tells
	// a collector whether its cycle is still the current one.
	cycleCancel context.CancelFunc
	cycleSeq    uint64

	// preparing is positive while a collector goroutine is draining
	// results.
	preparing int
}

// Options configures a session.
type Options struct {
	Settings *config.Settings
	Output   audio.Output
	Synth    pipeline.Synthesizer
	Presets  *config.PresetStore
	Strategy pipeline.Strategy
	Autoplay bool
}

// New creates a session. The cache and request log live for the session.
func New(opts Options) *App {
	cache := pipeline.NewAudioCache()
	reqLog := pipeline.NewRequestLog(0)

	return &App{
		settings: opts.Settings,
		player:   player.New(opts.Output),
		gen:      pipeline.NewGenerator(opts.Synth, cache, reqLog),
		cache:    cache,
		reqLog:   reqLog,
		presets:  opts.Presets,
		strategy: opts.Strategy,
		autoplay: opts.Autoplay,
	}
}

// Parse segments raw narrative text into typed chunks per the configured
// delimiter rules, replacing the session's chunk list.
func (a *App) Parse(raw string) []segment.Chunk {
	a.mu.Lock()
	defer a.mu.Unlock()

	chunks := segment.Parse(raw,
		a.settings.StripContentTags,
		a.settings.StripTagsOnly,
		a.settings.DelimiterRules)
	a.chunks = chunks
	return chunks
}

// Chunks returns the chunks of the last Parse.
func (a *App) Chunks() []segment.Chunk {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]segment.Chunk(nil), a.chunks...)
}

// PrepareAudio batches the parsed chunks into jobs and starts generating
// their audio. Any previous cycle is cancelled first; its late results are
// dropped. With autoplay enabled, playback starts as soon as the first
// audio arrives.
func (a *App) PrepareAudio() {
	a.mu.Lock()

	a.cancelCycleLocked()

	jobs := pipeline.BuildJobs(a.chunks, a.selected, a.strategy, a.settings)
	if len(jobs) == 0 {
		a.mu.Unlock()
		a.player.Clear()
		return
	}

	items := make([]player.Item, len(jobs))
	for i, job := range jobs {
		items[i] = player.Item{
			ID:        job.ID,
			Text:      job.Text,
			Type:      job.Type,
			Color:     job.Color,
			Paragraph: job.Paragraph,
			Status:    segment.StatusLoading,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cycleCancel = cancel
	a.cycleSeq++
	seq := a.cycleSeq
	a.preparing++

	settings := a.settings.Clone()
	autoplay := a.autoplay
	strategy := a.strategy
	a.mu.Unlock()

	a.player.Replace(items)

	log.Debug("Preparing audio", "jobs", len(jobs), "strategy", string(strategy))

	results := a.gen.Run(ctx, jobs, settings)
	go a.collect(seq, results, autoplay)
}

// collect applies one cycle's results to the queue. Results arriving after
// the cycle was superseded are discarded.
func (a *App) collect(seq uint64, results <-chan pipeline.Result, autoplay bool) {
	started := false

	for res := range results {
		if !a.currentCycle(seq) {
			continue
		}

		if res.Err != nil {
			if !res.Canceled() {
				log.Error("Audio generation failed", "job", res.JobID, "error", res.Err)
				a.player.SetItemError(res.JobID)
			}
			continue
		}

		a.player.SetItemReady(res.JobID, res.Audio)

		// The first ready entry ends the preparing phase: it either starts
		// playback or leaves a playable queue behind.
		if !started {
			started = true
			if autoplay {
				a.player.Play()
			} else {
				a.player.FinishPreparing()
			}
		}
	}

	a.mu.Lock()
	a.preparing--
	current := a.cycleSeq == seq
	a.mu.Unlock()

	if current {
		a.player.FinishPreparing()
	}
}

// currentCycle reports whether seq is still the active preparation cycle.
func (a *App) currentCycle(seq uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cycleSeq == seq
}

// cancelCycleLocked aborts the in-flight cycle. Callers hold a.mu.
func (a *App) cancelCycleLocked() {
	if a.cycleCancel != nil {
		a.cycleCancel()
		a.cycleCancel = nil
	}
	a.cycleSeq++
}

// Panic is the emergency stop: playback halts, the queue empties, and all
// in-flight generation is cancelled.
func (a *App) Panic() {
	a.mu.Lock()
	a.cancelCycleLocked()
	a.mu.Unlock()

	a.player.Clear()
	log.Debug("Narration aborted")
}

// SpeakText narrates one ad-hoc message. A leading speaker label such as
// "Alice: " is stripped before parsing.
func (a *App) SpeakText(text string) {
	text = speakerPrefixRe.ReplaceAllString(text, "")
	a.Parse(text)
	a.PrepareAudio()
}

// Wait blocks until generation has settled and playback is no longer
// active, or ctx is cancelled.
func (a *App) Wait(ctx context.Context) error {
	ticker := time.NewTicker(waitPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.mu.Lock()
			preparing := a.preparing > 0
			a.mu.Unlock()

			status := a.player.Status()
			if !preparing && !status.Active() && status != player.StatusPreparing {
				return nil
			}
		}
	}
}

// Transport controls, forwarded to the playback queue.

// Play starts or restarts playback.
func (a *App) Play() { a.player.Play() }

// Pause suspends playback.
func (a *App) Pause() { a.player.Pause() }

// Resume continues paused playback.
func (a *App) Resume() { a.player.Resume() }

// TogglePlayPause flips between playing and paused.
func (a *App) TogglePlayPause() { a.player.TogglePlayPause() }

// Stop halts playback, keeping the queue.
func (a *App) Stop() { a.player.Stop() }

// Skip advances to the next queue entry.
func (a *App) Skip() { a.player.Skip() }

// Rewind steps back one queue entry.
func (a *App) Rewind() { a.player.Rewind() }

// ReplayAll restarts playback from the first entry.
func (a *App) ReplayAll() { a.player.ReplayAll() }

// SetVolume adjusts playback gain.
func (a *App) SetVolume(v float64) { a.player.SetVolume(v) }

// Status returns the playback status.
func (a *App) Status() player.Status { return a.player.Status() }

// QueueItems returns a snapshot of the playback queue.
func (a *App) QueueItems() []player.Item { return a.player.Items() }

// QueueIndex returns the current queue position.
func (a *App) QueueIndex() int { return a.player.Index() }

// OnStatus registers a playback status callback.
func (a *App) OnStatus(fn func(player.Status)) { a.player.OnStatus(fn) }

// Session configuration.

// SetStrategy selects the batching strategy for the next preparation.
func (a *App) SetStrategy(s pipeline.Strategy) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.strategy = s
}

// SetSelectedTypes restricts generation to the given chunk types. A nil
// set keeps every chunk.
func (a *App) SetSelectedTypes(types map[string]bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selected = types
}

// SetAutoplay controls whether playback starts on the first ready entry.
func (a *App) SetAutoplay(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.autoplay = on
}

// Settings returns the live session settings. Mutations take effect on
// the next preparation cycle.
func (a *App) Settings() *config.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// ApplyPreset replaces the session settings with a stored preset.
func (a *App) ApplyPreset(name string) error {
	if a.presets == nil {
		return ErrNoPresets
	}

	loaded, err := a.presets.Load(name)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.settings = loaded
	a.mu.Unlock()

	log.Info("Preset applied", "name", name)
	return nil
}

// SavePreset stores the current settings under a name.
func (a *App) SavePreset(name string) error {
	if a.presets == nil {
		return ErrNoPresets
	}

	a.mu.Lock()
	snapshot := a.settings.Clone()
	a.mu.Unlock()

	return a.presets.Save(name, snapshot)
}

// Diagnostics.

// RequestLog returns the newest-first synthesis request log.
func (a *App) RequestLog() []pipeline.LogEntry { return a.reqLog.Entries() }

// ClearRequestLog empties the synthesis request log.
func (a *App) ClearRequestLog() { a.reqLog.Clear() }

// CacheStats returns the audio cache counters.
func (a *App) CacheStats() pipeline.CacheStats { return a.cache.Stats() }

// ClearCache drops every cached audio payload. Counters are kept.
func (a *App) ClearCache() { a.cache.Clear() }

// Close aborts the session and releases the audio device.
func (a *App) Close() error {
	a.mu.Lock()
	a.cancelCycleLocked()
	a.mu.Unlock()

	return a.player.Close()
}
