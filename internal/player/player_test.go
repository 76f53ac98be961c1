package player

import (
	"testing"

	"github.com/tdfn00b/tts-extra/internal/audio"
	"github.com/tdfn00b/tts-extra/internal/segment"
)

func readyItems(ids ...string) []Item {
	items := make([]Item, len(ids))
	for i, id := range ids {
		items[i] = Item{
			ID:     id,
			Text:   "text " + id,
			Type:   "narration",
			Status: segment.StatusReady,
			Audio:  []byte("audio " + id),
		}
	}
	return items
}

func newTestPlayer() (*Player, *audio.MockOutput) {
	out := audio.NewMockOutput()
	return New(out), out
}

func TestReplaceEntersPreparing(t *testing.T) {
	p, out := newTestPlayer()

	p.Replace([]Item{{ID: "a", Status: segment.StatusLoading}})

	if p.Status() != StatusPreparing {
		t.Errorf("status = %v, want preparing", p.Status())
	}
	if p.Index() != -1 {
		t.Errorf("index = %d, want -1", p.Index())
	}
	if out.Stops == 0 {
		t.Error("previous playback not stopped")
	}
}

func TestPlaySequence(t *testing.T) {
	p, out := newTestPlayer()
	p.Replace(readyItems("a", "b", "c"))

	p.Play()
	if p.Status() != StatusPlaying {
		t.Fatalf("status = %v, want playing", p.Status())
	}
	if got := string(out.LastPlayed()); got != "audio a" {
		t.Errorf("playing %q, want audio a", got)
	}

	out.Finish()
	if got := string(out.LastPlayed()); got != "audio b" {
		t.Errorf("after finish playing %q, want audio b", got)
	}
	if p.Index() != 1 {
		t.Errorf("index = %d, want 1", p.Index())
	}

	out.Finish()
	out.Finish()

	// Natural completion of the last entry ends the session.
	if p.Status() != StatusIdle {
		t.Errorf("status after queue end = %v, want idle", p.Status())
	}
	if p.Index() != -1 {
		t.Errorf("index after queue end = %d, want -1", p.Index())
	}
	if len(p.Items()) != 3 {
		t.Error("queue discarded on natural end")
	}
}

func TestPlayRestartsWhenExhausted(t *testing.T) {
	p, out := newTestPlayer()
	p.Replace(readyItems("a", "b"))

	p.Play()
	out.Finish()
	out.Finish()

	p.Play()
	if p.Index() != 0 {
		t.Errorf("index = %d, want 0", p.Index())
	}
	if got := string(out.LastPlayed()); got != "audio a" {
		t.Errorf("replay started with %q, want audio a", got)
	}
}

func TestSkip(t *testing.T) {
	p, out := newTestPlayer()
	p.Replace(readyItems("a", "b"))
	p.Play()

	p.Skip()
	if got := string(out.LastPlayed()); got != "audio b" {
		t.Errorf("after skip playing %q, want audio b", got)
	}

	// Skipping past the last entry stops playback but keeps the queue.
	p.Skip()
	if p.Status() != StatusReady {
		t.Errorf("status = %v, want ready", p.Status())
	}
	if out.IsPlaying() {
		t.Error("output still playing after skip past end")
	}

	// Play wraps back to the first entry.
	p.Play()
	if got := string(out.LastPlayed()); got != "audio a" {
		t.Errorf("playing %q, want audio a", got)
	}
}

func TestSkipWhileStopped(t *testing.T) {
	p, _ := newTestPlayer()
	p.Replace(readyItems("a", "b"))
	p.FinishPreparing()

	p.Skip()
	if p.Status() == StatusPlaying {
		t.Error("skip started playback from stopped state")
	}
}

func TestRewind(t *testing.T) {
	p, out := newTestPlayer()
	p.Replace(readyItems("a", "b"))
	p.Play()
	p.Skip()

	p.Rewind()
	if p.Index() != 0 {
		t.Errorf("index = %d, want 0", p.Index())
	}
	if got := string(out.LastPlayed()); got != "audio a" {
		t.Errorf("playing %q, want audio a", got)
	}

	// Clamped at the first entry: rewinding again restarts it.
	p.Rewind()
	if p.Index() != 0 {
		t.Errorf("index = %d, want 0 after clamp", p.Index())
	}
	if p.Status() != StatusPlaying {
		t.Errorf("status = %v, want playing", p.Status())
	}
}

func TestReplayAll(t *testing.T) {
	p, out := newTestPlayer()
	p.Replace(readyItems("a", "b"))
	p.Play()
	p.Skip()

	p.ReplayAll()
	if p.Index() != 0 {
		t.Errorf("index = %d, want 0", p.Index())
	}
	if got := string(out.LastPlayed()); got != "audio a" {
		t.Errorf("playing %q, want audio a", got)
	}
}

func TestPauseResume(t *testing.T) {
	p, out := newTestPlayer()
	p.Replace(readyItems("a"))
	p.Play()

	p.Pause()
	if p.Status() != StatusPaused {
		t.Fatalf("status = %v, want paused", p.Status())
	}
	if !out.IsPaused() {
		t.Error("output not paused")
	}

	p.Resume()
	if p.Status() != StatusPlaying {
		t.Errorf("status = %v, want playing", p.Status())
	}
	if out.IsPaused() {
		t.Error("output still paused")
	}
}

func TestTogglePlayPause(t *testing.T) {
	p, _ := newTestPlayer()
	p.Replace(readyItems("a"))
	p.FinishPreparing()

	p.TogglePlayPause()
	if p.Status() != StatusPlaying {
		t.Fatalf("status = %v, want playing", p.Status())
	}
	p.TogglePlayPause()
	if p.Status() != StatusPaused {
		t.Fatalf("status = %v, want paused", p.Status())
	}
	p.TogglePlayPause()
	if p.Status() != StatusPlaying {
		t.Fatalf("status = %v, want playing", p.Status())
	}
}

func TestStopKeepsQueue(t *testing.T) {
	p, _ := newTestPlayer()
	p.Replace(readyItems("a", "b"))
	p.Play()

	p.Stop()
	if p.Status() != StatusIdle {
		t.Errorf("status = %v, want idle", p.Status())
	}
	if p.Index() != -1 {
		t.Errorf("index = %d, want -1", p.Index())
	}
	if len(p.Items()) != 2 {
		t.Error("stop discarded the queue")
	}
}

func TestPlayHoldsForLoadingItem(t *testing.T) {
	p, out := newTestPlayer()
	items := readyItems("a", "b")
	items[1].Status = segment.StatusLoading
	items[1].Audio = nil
	p.Replace(items)

	p.Play()
	out.Finish()

	// The second entry has no audio yet: playback holds in paused.
	if p.Status() != StatusPaused {
		t.Fatalf("status = %v, want paused while waiting", p.Status())
	}
	if p.Index() != 1 {
		t.Errorf("index = %d, want 1", p.Index())
	}

	// A user resume cannot unblock the hold; the audio is still missing.
	p.Resume()
	if p.Status() != StatusPaused {
		t.Errorf("status = %v, want paused after premature resume", p.Status())
	}

	p.SetItemReady("b", []byte("audio b"))
	if p.Status() != StatusPlaying {
		t.Fatalf("status = %v, want playing after audio arrived", p.Status())
	}
	if got := string(out.LastPlayed()); got != "audio b" {
		t.Errorf("playing %q, want audio b", got)
	}
}

func TestErrorItemSkipped(t *testing.T) {
	p, out := newTestPlayer()
	items := readyItems("a", "b", "c")
	items[1].Status = segment.StatusError
	items[1].Audio = nil
	p.Replace(items)

	p.Play()
	out.Finish()

	// The failed entry is skipped straight to the third.
	if got := string(out.LastPlayed()); got != "audio c" {
		t.Errorf("playing %q, want audio c", got)
	}
	if p.Index() != 2 {
		t.Errorf("index = %d, want 2", p.Index())
	}
}

func TestSetItemErrorWhileWaiting(t *testing.T) {
	p, out := newTestPlayer()
	items := readyItems("a", "b")
	items[0].Status = segment.StatusLoading
	items[0].Audio = nil
	p.Replace(items)

	p.Play()
	if p.Status() != StatusPaused {
		t.Fatalf("status = %v, want paused while waiting", p.Status())
	}

	p.SetItemError("a")
	if got := string(out.LastPlayed()); got != "audio b" {
		t.Errorf("playing %q, want audio b", got)
	}
}

func TestStaleResultsIgnored(t *testing.T) {
	p, _ := newTestPlayer()
	p.Replace(readyItems("a"))

	p.SetItemReady("ghost", []byte("zzz"))
	p.SetItemError("phantom")

	items := p.Items()
	if len(items) != 1 || items[0].ID != "a" {
		t.Errorf("queue corrupted by stale ids: %+v", items)
	}
}

func TestFinishPreparing(t *testing.T) {
	p, _ := newTestPlayer()
	p.Replace(readyItems("a"))

	p.FinishPreparing()
	if p.Status() != StatusReady {
		t.Errorf("status = %v, want ready", p.Status())
	}

	// Only the preparing state transitions; playing is left alone.
	p.Play()
	p.FinishPreparing()
	if p.Status() != StatusPlaying {
		t.Errorf("status = %v, want playing", p.Status())
	}
}

func TestSetVolumeClamps(t *testing.T) {
	p, out := newTestPlayer()

	p.SetVolume(1.7)
	if p.Volume() != 1.0 {
		t.Errorf("volume = %g, want 1.0", p.Volume())
	}
	p.SetVolume(-0.3)
	if p.Volume() != 0.0 {
		t.Errorf("volume = %g, want 0.0", p.Volume())
	}
	p.SetVolume(0.5)
	if out.Volume != 0.5 {
		t.Errorf("output volume = %g, want 0.5", out.Volume)
	}
}

func TestStatusNotifications(t *testing.T) {
	p, out := newTestPlayer()

	var seen []Status
	p.OnStatus(func(s Status) { seen = append(seen, s) })

	p.Replace(readyItems("a"))
	p.Play()
	out.Finish()

	want := []Status{StatusPreparing, StatusPlaying, StatusIdle}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestClose(t *testing.T) {
	p, out := newTestPlayer()
	p.Replace(readyItems("a"))
	p.Play()

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := out.Play([]byte("x")); err == nil {
		t.Error("output usable after close")
	}
}
