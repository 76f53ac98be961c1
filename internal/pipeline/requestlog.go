package pipeline

import (
	"sync"
	"time"

	"github.com/tdfn00b/tts-extra/internal/synth"
)

// LogKind distinguishes request log entries.
type LogKind string

const (
	// KindAPICall marks a live request to the synthesis endpoint.
	KindAPICall LogKind = "[API CALL]"
	// KindCacheHit marks a request served from the content cache.
	KindCacheHit LogKind = "[CACHE HIT]"
)

// defaultLogLimit bounds the request log.
const defaultLogLimit = 200

// LogEntry records one pipeline request event for diagnosis.
type LogEntry struct {
	Kind      LogKind
	JobID     string
	Request   synth.Request
	Timestamp time.Time
}

// RequestLog is a bounded, newest-first log of synthesis requests. It lets
// a user tell cache hits from live API calls. Safe for concurrent access.
type RequestLog struct {
	mu      sync.Mutex
	entries []LogEntry
	limit   int
}

// NewRequestLog creates a request log. A non-positive limit selects the
// default bound.
func NewRequestLog(limit int) *RequestLog {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	return &RequestLog{limit: limit}
}

// Append records one event. The oldest entry is dropped at the bound.
func (l *RequestLog) Append(kind LogKind, jobID string, req synth.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Kind:      kind,
		JobID:     jobID,
		Request:   req,
		Timestamp: time.Now(),
	}

	l.entries = append([]LogEntry{entry}, l.entries...)
	if len(l.entries) > l.limit {
		l.entries = l.entries[:l.limit]
	}
}

// Entries returns a newest-first snapshot of the log.
func (l *RequestLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]LogEntry(nil), l.entries...)
}

// Count returns how many entries of the given kind are in the log.
func (l *RequestLog) Count(kind LogKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, e := range l.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Clear empties the log.
func (l *RequestLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
