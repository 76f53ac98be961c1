package player

// Status represents the playback lifecycle of the queue.
type Status int

const (
	// StatusIdle indicates no queue is loaded or playback has finished.
	StatusIdle Status = iota
	// StatusPreparing indicates audio generation is in progress.
	StatusPreparing
	// StatusReady indicates the queue has audio and playback is stopped.
	StatusReady
	// StatusPlaying indicates an entry is playing.
	StatusPlaying
	// StatusPaused indicates playback is suspended, either by the user or
	// while waiting for the current entry's audio.
	StatusPaused
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPreparing:
		return "preparing"
	case StatusReady:
		return "ready"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Active reports whether playback is in progress or suspended.
func (s Status) Active() bool {
	return s == StatusPlaying || s == StatusPaused
}
