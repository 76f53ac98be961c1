// Package segment splits raw narrative text into typed, ordered chunks
// using delimiter rules, and provides the regex and API-text sanitizers
// applied before synthesis.
package segment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tdfn00b/tts-extra/internal/config"
)

// Status describes a chunk's position in the generation lifecycle.
type Status string

const (
	// StatusPending marks a freshly segmented chunk.
	StatusPending Status = "pending"
	// StatusLoading marks a chunk whose synthesis request is in flight.
	StatusLoading Status = "loading"
	// StatusReady marks a chunk with synthesized audio available.
	StatusReady Status = "ready"
	// StatusError marks a chunk whose synthesis failed.
	StatusError Status = "error"
)

// Chunk is a typed, ordered span of source text. Type is the name of the
// delimiter rule that produced it; Paragraph is the index of the owning
// paragraph among non-empty paragraphs.
type Chunk struct {
	ID        string
	Text      string
	Type      string
	Color     string
	Paragraph int
	Status    Status
}

var (
	paragraphRe   = regexp.MustCompile(`[\r\n]+`)
	placeholderRe = regexp.MustCompile(`%%CHUNK_\d+%%`)
	punctOnlyRe   = regexp.MustCompile(`^[\s.,!?;:'"-]+$`)
)

// Parse segments raw text into typed chunks. Content inside tags named in
// stripContentTags is removed entirely; tags named in stripTagsOnly are
// removed with their content kept. Text between delimiter spans is typed as
// the fallback rule. Chunks that trim to nothing or to pure punctuation are
// dropped. Order is preserved within and across paragraphs.
func Parse(raw, stripContentTags, stripTagsOnly string, rules []config.DelimiterRule) []Chunk {
	text := stripTags(raw, stripContentTags, stripTagsOnly)

	fallback := fallbackRule(rules)
	active := activeRules(rules)

	var chunks []Chunk
	paragraph := 0
	for _, para := range paragraphRe.Split(text, -1) {
		if strings.TrimSpace(para) == "" {
			continue
		}
		chunks = append(chunks, parseParagraph(para, paragraph, fallback, active)...)
		paragraph++
	}

	return chunks
}

// stripTags removes the configured tag spans from the text. Both passes are
// case-insensitive; content stripping spans newlines and is non-greedy.
func stripTags(text, stripContentTags, stripTagsOnly string) string {
	if tags := splitTagList(stripContentTags); len(tags) > 0 {
		parts := make([]string, len(tags))
		for i, tag := range tags {
			parts[i] = `<` + regexp.QuoteMeta(tag) + `[^>]*>.*?</` + regexp.QuoteMeta(tag) + `>`
		}
		re, err := regexp.Compile(`(?is)` + strings.Join(parts, "|"))
		if err == nil {
			text = re.ReplaceAllString(text, "")
		}
	}

	if tags := splitTagList(stripTagsOnly); len(tags) > 0 {
		parts := make([]string, len(tags))
		for i, tag := range tags {
			parts[i] = `</?` + regexp.QuoteMeta(tag) + `[^>]*>`
		}
		re, err := regexp.Compile(`(?i)` + strings.Join(parts, "|"))
		if err == nil {
			text = re.ReplaceAllString(text, "")
		}
	}

	return text
}

func splitTagList(list string) []string {
	var tags []string
	for _, t := range strings.Split(list, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func fallbackRule(rules []config.DelimiterRule) config.DelimiterRule {
	for _, r := range rules {
		if r.IsFallback() {
			return r
		}
	}
	return config.DelimiterRule{Name: "narration", Color: "#aaaaaa"}
}

func activeRules(rules []config.DelimiterRule) []config.DelimiterRule {
	var active []config.DelimiterRule
	for _, r := range rules {
		if r.IsActive() {
			active = append(active, r)
		}
	}
	return active
}

// parseParagraph segments one paragraph. Delimiter spans are replaced with
// placeholder tokens first so the remaining literal text can be typed as
// fallback without re-matching.
func parseParagraph(para string, paragraph int, fallback config.DelimiterRule, active []config.DelimiterRule) []Chunk {
	if len(active) == 0 {
		trimmed := strings.TrimSpace(para)
		if trimmed == "" {
			return nil
		}
		return []Chunk{newChunk(trimmed, fallback, paragraph)}
	}

	parts := make([]string, len(active))
	for i, r := range active {
		// Lazy match so the shortest valid span wins; overlapping or
		// nested spans are not supported.
		parts[i] = regexp.QuoteMeta(r.Start) + `(?s:.*?)` + regexp.QuoteMeta(r.End)
	}
	spanRe, err := regexp.Compile(strings.Join(parts, "|"))
	if err != nil {
		trimmed := strings.TrimSpace(para)
		if trimmed == "" {
			return nil
		}
		return []Chunk{newChunk(trimmed, fallback, paragraph)}
	}

	type span struct {
		text string
		rule config.DelimiterRule
	}
	spans := map[string]span{}
	next := 0

	replaced := spanRe.ReplaceAllStringFunc(para, func(match string) string {
		rule, ok := matchingRule(active, match)
		if !ok {
			return match
		}
		token := fmt.Sprintf("%%%%CHUNK_%d%%%%", next)
		spans[token] = span{text: match, rule: rule}
		next++
		return token
	})

	var chunks []Chunk
	emit := func(text string, rule config.DelimiterRule) {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || punctOnlyRe.MatchString(trimmed) {
			return
		}
		chunks = append(chunks, newChunk(trimmed, rule, paragraph))
	}

	last := 0
	for _, loc := range placeholderRe.FindAllStringIndex(replaced, -1) {
		emit(replaced[last:loc[0]], fallback)
		if sp, ok := spans[replaced[loc[0]:loc[1]]]; ok {
			emit(sp.text, sp.rule)
		}
		last = loc[1]
	}
	emit(replaced[last:], fallback)

	return chunks
}

// matchingRule finds which active rule produced a matched span: the first
// rule whose start marker prefixes and end marker suffixes the match.
func matchingRule(active []config.DelimiterRule, match string) (config.DelimiterRule, bool) {
	for _, r := range active {
		if strings.HasPrefix(match, r.Start) && strings.HasSuffix(match, r.End) {
			return r, true
		}
	}
	return config.DelimiterRule{}, false
}

func newChunk(text string, rule config.DelimiterRule, paragraph int) Chunk {
	return Chunk{
		ID:        config.NewID(),
		Text:      text,
		Type:      rule.Name,
		Color:     rule.Color,
		Paragraph: paragraph,
		Status:    StatusPending,
	}
}
