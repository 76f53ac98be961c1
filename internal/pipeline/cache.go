package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"

	"github.com/tdfn00b/tts-extra/internal/config"
	"github.com/tdfn00b/tts-extra/internal/synth"
)

// cacheKeyVersion prefixes every cache key for migration support.
const cacheKeyVersion = "v1"

// Shared zstd coders for cache payloads. EncodeAll and DecodeAll are safe
// for concurrent use on a single instance.
var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// CacheKey returns a deterministic fingerprint of the sanitized text plus
// every parameter that affects the synthesized audio. The endpoint, text
// splitting, and chunk size are excluded: they change how the request is
// served, not what audio it produces. Identical inputs always yield
// identical keys.
func CacheKey(text string, syn config.Synthesis) string {
	parts := []string{
		"text:" + text,
		"v:" + syn.VoiceID,
		"t:" + formatFloat(syn.Temperature),
		"e:" + formatFloat(syn.Exaggeration),
		"c:" + formatFloat(syn.CFGWeight),
		"s:" + strconv.FormatInt(syn.Seed, 10),
		"sp:" + formatFloat(syn.Speed),
		"vm:" + syn.VoiceMode,
		"lang:" + syn.Language,
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return cacheKeyVersion + "_" + hex.EncodeToString(sum[:])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// CacheEntry is one synthesized audio payload with the request that
// produced it, kept so cache hits can be logged with their original body.
type CacheEntry struct {
	Audio    []byte
	Request  synth.Request
	StoredAt time.Time
	Hits     int64
}

// cacheEntry is the stored form: the payload is held zstd-compressed.
type cacheEntry struct {
	compressed []byte
	rawSize    int
	request    synth.Request
	storedAt   time.Time
	hits       int64
}

// CacheStats holds audio cache counters. Bytes counts audio as delivered;
// Compressed counts what the cache actually holds in memory.
type CacheStats struct {
	Items      int
	Bytes      int64
	Compressed int64
	Hits       int64
	Misses     int64
}

// AudioCache is the process-lifetime, content-addressed audio cache.
// Payloads are WAV, which is raw PCM and compresses well, so entries are
// held zstd-compressed and inflated on retrieval. The cache is never
// evicted: a changed key simply misses, and size is bounded by session use.
// Safe for concurrent access.
type AudioCache struct {
	mu        sync.RWMutex
	entries   map[string]*cacheEntry
	rawBytes  int64
	compBytes int64
	hits      int64
	misses    int64
}

// NewAudioCache creates an empty audio cache.
func NewAudioCache() *AudioCache {
	return &AudioCache{
		entries: make(map[string]*cacheEntry),
	}
}

// Get retrieves and inflates the entry for a key, if present.
func (c *AudioCache) Get(key string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return CacheEntry{}, false
	}

	audio, err := zstdDecoder.DecodeAll(entry.compressed, nil)
	if err != nil {
		log.Warn("Dropping undecodable cache entry", "key", key, "error", err)
		c.evictLocked(key, entry)
		c.misses++
		return CacheEntry{}, false
	}

	entry.hits++
	c.hits++
	return CacheEntry{
		Audio:    audio,
		Request:  entry.request,
		StoredAt: entry.storedAt,
		Hits:     entry.hits,
	}, true
}

// Put stores an audio payload under a key. An existing entry is replaced.
func (c *AudioCache) Put(key string, audio []byte, req synth.Request) {
	compressed := zstdEncoder.EncodeAll(audio, make([]byte, 0, len(audio)/2))

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.evictLocked(key, old)
	}

	c.entries[key] = &cacheEntry{
		compressed: compressed,
		rawSize:    len(audio),
		request:    req,
		storedAt:   time.Now(),
	}
	c.rawBytes += int64(len(audio))
	c.compBytes += int64(len(compressed))
}

// Contains reports whether a key is cached without counting a hit or miss.
func (c *AudioCache) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.entries[key]
	return ok
}

// Len returns the number of cached entries.
func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *AudioCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Items:      len(c.entries),
		Bytes:      c.rawBytes,
		Compressed: c.compBytes,
		Hits:       c.hits,
		Misses:     c.misses,
	}
}

// Clear removes all entries. Counters are kept.
func (c *AudioCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.rawBytes = 0
	c.compBytes = 0
}

// evictLocked removes one entry and settles the byte accounting. Callers
// hold c.mu.
func (c *AudioCache) evictLocked(key string, entry *cacheEntry) {
	delete(c.entries, key)
	c.rawBytes -= int64(entry.rawSize)
	c.compBytes -= int64(len(entry.compressed))
}
