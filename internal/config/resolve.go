package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Synthesis is the flattened parameter set for one generation job, produced
// by resolving a chunk type against the current settings. It carries every
// field the synthesis endpoint accepts.
type Synthesis struct {
	Endpoint     string
	VoiceID      string
	Temperature  float64
	Exaggeration float64
	CFGWeight    float64
	Seed         int64
	Speed        float64
	VoiceMode    string
	SplitText    bool
	ChunkSize    int
	Language     string
}

// Resolve flattens the settings for a chunk type. Precedence for the three
// overridable parameters is override > profile default > global default.
// The delimiter rule falls back to the first rule when the type is unknown,
// and the voice profile falls back to the first profile when the rule's
// reference is dangling. Resolve is pure: identical inputs always produce
// identical outputs.
func (s *Settings) Resolve(chunkType string) Synthesis {
	syn := Synthesis{
		Endpoint:     s.Endpoint,
		VoiceID:      s.VoiceID,
		Temperature:  s.Params.Temperature,
		Exaggeration: s.Params.Exaggeration,
		CFGWeight:    s.Params.CFGWeight,
		Seed:         s.Params.Seed,
		Speed:        s.Params.Speed,
		VoiceMode:    s.Advanced.VoiceMode,
		SplitText:    s.Advanced.SplitText,
		ChunkSize:    s.Advanced.ChunkSize,
		Language:     s.Advanced.Language,
	}

	rule, ok := s.ruleByName(chunkType)
	if !ok {
		if len(s.DelimiterRules) == 0 {
			return syn
		}
		rule = s.DelimiterRules[0]
	}

	profile, ok := s.profileByID(rule.ProfileID)
	if !ok {
		if len(s.VoiceProfiles) == 0 {
			return syn
		}
		profile = s.VoiceProfiles[0]
	}

	if profile.VoiceID != "" {
		syn.VoiceID = profile.VoiceID
	}

	if ov, ok := profile.Overrides[chunkType]; ok {
		if ov.Temperature != nil {
			syn.Temperature = *ov.Temperature
		}
		if ov.Exaggeration != nil {
			syn.Exaggeration = *ov.Exaggeration
		}
		if ov.CFGWeight != nil {
			syn.CFGWeight = *ov.CFGWeight
		}
	}

	return syn
}

func (s *Settings) ruleByName(name string) (DelimiterRule, bool) {
	for _, r := range s.DelimiterRules {
		if r.Name == name {
			return r, true
		}
	}
	return DelimiterRule{}, false
}

func (s *Settings) profileByID(id string) (VoiceProfile, bool) {
	for _, p := range s.VoiceProfiles {
		if p.ID == id {
			return p, true
		}
	}
	return VoiceProfile{}, false
}

// GroupKey returns a deterministic fingerprint of every field except the
// endpoint. Adjacent jobs with equal group keys would synthesize
// identically and can be merged by the smart-group batching strategy.
func (syn Synthesis) GroupKey() string {
	return strings.Join([]string{
		"v:" + syn.VoiceID,
		"t:" + formatFloat(syn.Temperature),
		"e:" + formatFloat(syn.Exaggeration),
		"c:" + formatFloat(syn.CFGWeight),
		"s:" + strconv.FormatInt(syn.Seed, 10),
		"sp:" + formatFloat(syn.Speed),
		"vm:" + syn.VoiceMode,
		"st:" + strconv.FormatBool(syn.SplitText),
		"cs:" + strconv.Itoa(syn.ChunkSize),
		"lang:" + syn.Language,
	}, "|")
}

// String returns a short human-readable summary for logging.
func (syn Synthesis) String() string {
	return fmt.Sprintf("voice=%s temp=%.2f exag=%.2f cfg=%.2f speed=%.2f",
		syn.VoiceID, syn.Temperature, syn.Exaggeration, syn.CFGWeight, syn.Speed)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
