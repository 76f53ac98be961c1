package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/tdfn00b/tts-extra/internal/config"
	"github.com/tdfn00b/tts-extra/internal/segment"
	"github.com/tdfn00b/tts-extra/internal/synth"
)

// Synthesizer converts sanitized text into an audio payload. Implemented by
// synth.Client; tests substitute fakes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, syn config.Synthesis) ([]byte, error)
}

// JobError tags a failure with the job it belongs to, so one failing job
// never affects its siblings.
type JobError struct {
	JobID string
	Err   error
}

// Error implements the error interface.
func (e *JobError) Error() string {
	return fmt.Sprintf("job %s: %v", e.JobID, e.Err)
}

// Unwrap returns the underlying error.
func (e *JobError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one generation job: either an audio payload or
// a job-tagged error.
type Result struct {
	JobID string
	Audio []byte
	Err   error
}

// Canceled reports whether the result was discarded because its cycle was
// superseded. Cancellations are not user-visible failures.
func (r Result) Canceled() bool {
	return errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded)
}

// Generator runs the synthesis jobs of one preparation cycle. Identical
// in-flight requests are coalesced so at most one network request is made
// per distinct cache key within the process lifetime.
type Generator struct {
	synth Synthesizer
	cache *AudioCache
	reqs  *RequestLog
	group singleflight.Group
}

// NewGenerator creates a generator over a synthesizer, sharing the given
// cache and request log across cycles.
func NewGenerator(s Synthesizer, cache *AudioCache, reqs *RequestLog) *Generator {
	return &Generator{
		synth: s,
		cache: cache,
		reqs:  reqs,
	}
}

// Run launches every job concurrently and returns a channel delivering one
// Result per job. The channel closes when all jobs have settled. All jobs
// share ctx; cancelling it aborts in-flight requests and poisons unstarted
// ones.
func (g *Generator) Run(ctx context.Context, jobs []Job, settings *config.Settings) <-chan Result {
	results := make(chan Result, len(jobs))

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			results <- g.runJob(ctx, job, settings)
		}(job)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// runJob resolves, sanitizes, and fetches the audio for one job.
// Cancellation is checked before the request is issued and again after it
// returns, so a superseded cycle never surfaces a stale payload.
func (g *Generator) runJob(ctx context.Context, job Job, settings *config.Settings) Result {
	if err := ctx.Err(); err != nil {
		return Result{JobID: job.ID, Err: &JobError{JobID: job.ID, Err: err}}
	}

	syn := settings.Resolve(job.Type)
	text := segment.ApplyRegexRules(job.Text, job.Type, settings.RegexRules)
	text = segment.SanitizeForAPI(text)
	if text == "" {
		return Result{JobID: job.ID, Err: &JobError{JobID: job.ID, Err: synth.ErrEmptyText}}
	}

	key := CacheKey(text, syn)

	if entry, ok := g.cache.Get(key); ok {
		g.reqs.Append(KindCacheHit, job.ID, entry.Request)
		log.Debug("Cache hit", "job", job.ID, "bytes", len(entry.Audio))
		return g.settle(ctx, job, entry.Audio)
	}

	req := synth.NewRequest(text, syn)

	executed := false
	v, err, _ := g.group.Do(key, func() (interface{}, error) {
		executed = true
		g.reqs.Append(KindAPICall, job.ID, req)
		log.Debug("Requesting synthesis", "job", job.ID, "textLength", len(text))

		audio, err := g.synth.Synthesize(ctx, text, syn)
		if err != nil {
			return nil, err
		}
		g.cache.Put(key, audio, req)
		return audio, nil
	})
	if err != nil {
		return Result{JobID: job.ID, Err: &JobError{JobID: job.ID, Err: err}}
	}
	if !executed {
		// Coalesced onto another job's in-flight request for the same key.
		g.reqs.Append(KindCacheHit, job.ID, req)
		log.Debug("Coalesced onto in-flight request", "job", job.ID)
	}

	return g.settle(ctx, job, v.([]byte))
}

// settle re-checks cancellation after the payload is available; a stale
// result is discarded even when the fetch nominally succeeded.
func (g *Generator) settle(ctx context.Context, job Job, audio []byte) Result {
	if err := ctx.Err(); err != nil {
		return Result{JobID: job.ID, Err: &JobError{JobID: job.ID, Err: err}}
	}
	return Result{JobID: job.ID, Audio: audio}
}
