package audio

import "sync"

// MockOutput implements Output for tests: it records every call and lets a
// test simulate natural completion with Finish.
type MockOutput struct {
	mu sync.Mutex

	Played  [][]byte
	Pauses  int
	Resumes int
	Stops   int
	Volume  float64

	playing    bool
	paused     bool
	closed     bool
	onFinished func()

	// PlayErr is returned by Play when set, for error-path tests.
	PlayErr error
}

// NewMockOutput creates a mock output at full volume.
func NewMockOutput() *MockOutput {
	return &MockOutput{Volume: 1.0}
}

// Play records the payload and marks the mock as playing.
func (m *MockOutput) Play(wavData []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PlayErr != nil {
		return m.PlayErr
	}
	if m.closed {
		return ErrClosed
	}
	if len(wavData) == 0 {
		return ErrNoAudio
	}

	m.Played = append(m.Played, wavData)
	m.playing = true
	m.paused = false
	return nil
}

// Pause records a pause.
func (m *MockOutput) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Pauses++
	if m.playing {
		m.paused = true
	}
}

// Resume records a resume.
func (m *MockOutput) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Resumes++
	m.paused = false
}

// Stop records a stop and discards the current payload.
func (m *MockOutput) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Stops++
	m.playing = false
	m.paused = false
}

// SetVolume records the volume.
func (m *MockOutput) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return ErrInvalidVolume
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Volume = volume
	return nil
}

// SetFinished registers the natural-completion callback.
func (m *MockOutput) SetFinished(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinished = fn
}

// Close marks the mock closed.
func (m *MockOutput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playing = false
	m.paused = false
	m.closed = true
	return nil
}

// Finish simulates the current payload reaching its natural end, invoking
// the finished callback the way the real device watcher does.
func (m *MockOutput) Finish() {
	m.mu.Lock()
	if !m.playing || m.paused {
		m.mu.Unlock()
		return
	}
	m.playing = false
	fn := m.onFinished
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// IsPlaying reports whether a payload is active and not paused.
func (m *MockOutput) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing && !m.paused
}

// IsPaused reports whether the mock is paused.
func (m *MockOutput) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// LastPlayed returns the most recent payload, or nil.
func (m *MockOutput) LastPlayed() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Played) == 0 {
		return nil
	}
	return m.Played[len(m.Played)-1]
}
