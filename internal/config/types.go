// Package config holds the settings model for tts-extra: delimiter rules,
// voice profiles, regex rewrite rules, synthesis parameters, and the
// resolver that flattens them into per-chunk synthesis settings.
package config

import (
	"errors"

	"github.com/google/uuid"
)

// Common errors for settings mutations.
var (
	// ErrLastProfile is returned when deleting the only remaining voice profile.
	ErrLastProfile = errors.New("cannot delete the last voice profile")
	// ErrProfileNotFound is returned when a referenced profile does not exist.
	ErrProfileNotFound = errors.New("voice profile not found")
	// ErrRuleNotFound is returned when a referenced rule does not exist.
	ErrRuleNotFound = errors.New("rule not found")
	// ErrUnknownParam is returned for an unrecognized override parameter name.
	ErrUnknownParam = errors.New("unknown override parameter")
	// ErrNoFallbackRule is returned when no delimiter rule has empty markers.
	ErrNoFallbackRule = errors.New("no fallback delimiter rule configured")
	// ErrMultipleFallbackRules is returned when more than one delimiter rule
	// has empty markers.
	ErrMultipleFallbackRules = errors.New("multiple fallback delimiter rules configured")
	// ErrNoProfiles is returned when the settings contain no voice profiles.
	ErrNoProfiles = errors.New("at least one voice profile is required")
)

// DelimiterRule defines one chunk type by a pair of start/end markers.
// A rule with both markers empty is the fallback rule for unmatched text;
// exactly one such rule must exist. A rule with only one marker set is
// inactive for matching.
type DelimiterRule struct {
	ID        string `yaml:"id" mapstructure:"id"`
	Name      string `yaml:"name" mapstructure:"name"`
	Start     string `yaml:"start" mapstructure:"start"`
	End       string `yaml:"end" mapstructure:"end"`
	Color     string `yaml:"color" mapstructure:"color"`
	ProfileID string `yaml:"profile_id" mapstructure:"profile_id"`
}

// IsFallback reports whether the rule is the empty-marker fallback rule.
func (r DelimiterRule) IsFallback() bool {
	return r.Start == "" && r.End == ""
}

// IsActive reports whether the rule participates in delimiter matching.
func (r DelimiterRule) IsActive() bool {
	return r.Start != "" && r.End != ""
}

// Overrides is a partial set of synthesis parameter overrides. Nil fields
// fall through to the global defaults.
type Overrides struct {
	Temperature  *float64 `yaml:"temperature,omitempty" mapstructure:"temperature"`
	Exaggeration *float64 `yaml:"exaggeration,omitempty" mapstructure:"exaggeration"`
	CFGWeight    *float64 `yaml:"cfg_weight,omitempty" mapstructure:"cfg_weight"`
}

// IsEmpty reports whether no override is set.
func (o Overrides) IsEmpty() bool {
	return o.Temperature == nil && o.Exaggeration == nil && o.CFGWeight == nil
}

// VoiceProfile bundles a voice identifier with per-chunk-type parameter
// overrides. Overrides is keyed by chunk type name.
type VoiceProfile struct {
	ID        string               `yaml:"id" mapstructure:"id"`
	Name      string               `yaml:"name" mapstructure:"name"`
	VoiceID   string               `yaml:"voice_id" mapstructure:"voice_id"`
	Overrides map[string]Overrides `yaml:"overrides,omitempty" mapstructure:"overrides"`
}

// RegexRule is a regex rewrite applied to chunk text before synthesis.
// Scope is either "global" or a chunk type name. Flags follow the usual
// letter convention: "g" replaces all occurrences, "i" is case-insensitive,
// "s" lets dot match newlines, "m" enables multiline anchors.
type RegexRule struct {
	ID          string `yaml:"id" mapstructure:"id"`
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Pattern     string `yaml:"pattern" mapstructure:"pattern"`
	Replacement string `yaml:"replacement" mapstructure:"replacement"`
	Flags       string `yaml:"flags" mapstructure:"flags"`
	Scope       string `yaml:"scope" mapstructure:"scope"`
}

// ScopeGlobal is the regex rule scope that applies to every chunk type.
const ScopeGlobal = "global"

// Params holds the global synthesis parameters.
type Params struct {
	Temperature  float64 `yaml:"temperature" mapstructure:"temperature"`
	Exaggeration float64 `yaml:"exaggeration" mapstructure:"exaggeration"`
	CFGWeight    float64 `yaml:"cfg_weight" mapstructure:"cfg_weight"`
	Seed         int64   `yaml:"seed" mapstructure:"seed"`
	Speed        float64 `yaml:"speed" mapstructure:"speed"`
}

// Advanced holds advanced synthesis settings.
type Advanced struct {
	VoiceMode string `yaml:"voice_mode" mapstructure:"voice_mode"`
	SplitText bool   `yaml:"split_text" mapstructure:"split_text"`
	ChunkSize int    `yaml:"chunk_size" mapstructure:"chunk_size"`
	Language  string `yaml:"language" mapstructure:"language"`
}

// Settings is the full configuration bundle. It is the unit of preset
// persistence and the input to the resolver.
type Settings struct {
	// Endpoint is the URL of the remote synthesis service.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// VoiceID is the default voice when a profile does not set one.
	VoiceID string `yaml:"voice_id" mapstructure:"voice_id"`

	// StripContentTags is a comma-separated list of tag names whose content
	// and tags are removed entirely before segmentation.
	StripContentTags string `yaml:"strip_content_tags" mapstructure:"strip_content_tags"`

	// StripTagsOnly is a comma-separated list of tag names whose tags are
	// removed but content kept.
	StripTagsOnly string `yaml:"strip_tags_only" mapstructure:"strip_tags_only"`

	VoiceProfiles  []VoiceProfile  `yaml:"voice_profiles" mapstructure:"voice_profiles"`
	DelimiterRules []DelimiterRule `yaml:"delimiter_rules" mapstructure:"delimiter_rules"`
	RegexRules     []RegexRule     `yaml:"regex_rules" mapstructure:"regex_rules"`
	Params         Params          `yaml:"params" mapstructure:"params"`
	Advanced       Advanced        `yaml:"advanced" mapstructure:"advanced"`
}

// Default returns the default settings bundle.
func Default() *Settings {
	defaultProfile := VoiceProfile{
		ID:        "profile-default",
		Name:      "Default",
		VoiceID:   "Emily.wav",
		Overrides: map[string]Overrides{},
	}

	return &Settings{
		Endpoint:         "http://localhost:8004/tts",
		VoiceID:          "Emily.wav",
		StripContentTags: "details",
		StripTagsOnly:    "span,em,strong,b,i",
		VoiceProfiles:    []VoiceProfile{defaultProfile},
		DelimiterRules: []DelimiterRule{
			{ID: "narration-rule", Name: "narration", Color: "#9CA3AF", ProfileID: defaultProfile.ID},
			{ID: "speech-rule", Name: "speech", Start: `"`, End: `"`, Color: "#60A5FA", ProfileID: defaultProfile.ID},
			{ID: "thought-rule", Name: "thought", Start: "*", End: "*", Color: "#A78BFA", ProfileID: defaultProfile.ID},
		},
		RegexRules: nil,
		Params: Params{
			Temperature:  0.5,
			Exaggeration: 0.5,
			CFGWeight:    0.2,
			Seed:         0,
			Speed:        1.0,
		},
		Advanced: Advanced{
			VoiceMode: "predefined",
			SplitText: true,
			ChunkSize: 120,
			Language:  "en",
		},
	}
}

// Validate checks the structural invariants: exactly one fallback delimiter
// rule and at least one voice profile.
func (s *Settings) Validate() error {
	if len(s.VoiceProfiles) == 0 {
		return ErrNoProfiles
	}

	fallbacks := 0
	for _, r := range s.DelimiterRules {
		if r.IsFallback() {
			fallbacks++
		}
	}
	if fallbacks == 0 {
		return ErrNoFallbackRule
	}
	if fallbacks > 1 {
		return ErrMultipleFallbackRules
	}

	return nil
}

// ChunkTypes returns the names of all configured chunk types in rule order.
func (s *Settings) ChunkTypes() []string {
	names := make([]string, 0, len(s.DelimiterRules))
	for _, r := range s.DelimiterRules {
		names = append(names, r.Name)
	}
	return names
}

// Clone returns a deep copy of the settings.
func (s *Settings) Clone() *Settings {
	out := *s

	out.VoiceProfiles = make([]VoiceProfile, len(s.VoiceProfiles))
	for i, p := range s.VoiceProfiles {
		cp := p
		cp.Overrides = make(map[string]Overrides, len(p.Overrides))
		for k, v := range p.Overrides {
			cp.Overrides[k] = v
		}
		out.VoiceProfiles[i] = cp
	}

	out.DelimiterRules = append([]DelimiterRule(nil), s.DelimiterRules...)
	out.RegexRules = append([]RegexRule(nil), s.RegexRules...)

	return &out
}

// NewID returns a fresh unique identifier for rules, profiles and chunks.
func NewID() string {
	return uuid.NewString()
}
