// Package pipeline groups segmented chunks into generation jobs, resolves
// and caches their synthesized audio, and runs the concurrent per-job
// fetches for one preparation cycle.
package pipeline

import (
	"fmt"

	"github.com/tdfn00b/tts-extra/internal/config"
	"github.com/tdfn00b/tts-extra/internal/segment"
)

// Strategy selects how chunks are grouped into generation jobs.
type Strategy string

const (
	// StrategyIndividual creates one job per chunk.
	StrategyIndividual Strategy = "individual"
	// StrategyParagraph merges all selected chunks of a paragraph into one job.
	StrategyParagraph Strategy = "paragraph"
	// StrategySmartGroup merges adjacent chunks whose resolved synthesis
	// settings are identical, minimizing request count.
	StrategySmartGroup Strategy = "smart-group"
)

// ParseStrategy converts a string into a Strategy, defaulting to
// StrategySmartGroup for unknown values.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyIndividual, StrategyParagraph, StrategySmartGroup:
		return Strategy(s)
	default:
		return StrategySmartGroup
	}
}

// Job is one synthesis request unit: one or more source chunks merged per
// the batching strategy. Jobs become playback queue entries 1:1.
type Job struct {
	ID        string
	Text      string
	Type      string
	Color     string
	Paragraph int
}

// BuildJobs groups chunks into generation jobs. Only chunks whose type is
// in selected are considered; a nil selected set keeps every chunk. The
// resulting job order follows chunk order.
func BuildJobs(chunks []segment.Chunk, selected map[string]bool, strategy Strategy, settings *config.Settings) []Job {
	filtered := make([]segment.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if selected == nil || selected[c.Type] {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	switch strategy {
	case StrategyParagraph:
		return paragraphJobs(filtered)
	case StrategySmartGroup:
		return smartGroupJobs(filtered, settings)
	default:
		return individualJobs(filtered)
	}
}

func individualJobs(chunks []segment.Chunk) []Job {
	jobs := make([]Job, len(chunks))
	for i, c := range chunks {
		jobs[i] = Job{
			ID:        c.ID,
			Text:      c.Text,
			Type:      c.Type,
			Color:     c.Color,
			Paragraph: c.Paragraph,
		}
	}
	return jobs
}

// paragraphJobs groups chunks by paragraph in order of first appearance.
// The merged job inherits the first chunk's type and color; texts are
// joined with single spaces.
func paragraphJobs(chunks []segment.Chunk) []Job {
	var jobs []Job
	index := map[int]int{}

	for _, c := range chunks {
		if i, ok := index[c.Paragraph]; ok {
			jobs[i].Text += " " + c.Text
			continue
		}
		index[c.Paragraph] = len(jobs)
		jobs = append(jobs, Job{
			ID:        fmt.Sprintf("p-%d-%s", c.Paragraph, config.NewID()),
			Text:      c.Text,
			Type:      c.Type,
			Color:     c.Color,
			Paragraph: c.Paragraph,
		})
	}

	return jobs
}

// smartGroupJobs merges runs of adjacent chunks whose resolved settings
// (everything except the endpoint) are byte-identical. Chunks of different
// types merge when their profiles and overrides resolve identically.
func smartGroupJobs(chunks []segment.Chunk, settings *config.Settings) []Job {
	var jobs []Job
	lastKey := ""

	for _, c := range chunks {
		key := settings.Resolve(c.Type).GroupKey()
		if len(jobs) > 0 && key == lastKey {
			jobs[len(jobs)-1].Text += " " + c.Text
			continue
		}
		jobs = append(jobs, Job{
			ID:        fmt.Sprintf("sg-%d-%s", len(jobs), config.NewID()),
			Text:      c.Text,
			Type:      c.Type,
			Color:     c.Color,
			Paragraph: c.Paragraph,
		})
		lastKey = key
	}

	return jobs
}
