package config

// Mutation helpers for the settings bundle. Each mutation either applies
// fully or leaves the settings unchanged and returns an error.

// AddDelimiterRule appends a new delimiter rule and returns it. Empty ids
// are filled in, and the rule defaults to the first profile.
func (s *Settings) AddDelimiterRule(rule DelimiterRule) DelimiterRule {
	if rule.ID == "" {
		rule.ID = NewID()
	}
	if rule.ProfileID == "" && len(s.VoiceProfiles) > 0 {
		rule.ProfileID = s.VoiceProfiles[0].ID
	}
	s.DelimiterRules = append(s.DelimiterRules, rule)
	return rule
}

// RemoveDelimiterRule deletes the rule with the given id.
func (s *Settings) RemoveDelimiterRule(id string) error {
	for i, r := range s.DelimiterRules {
		if r.ID == id {
			s.DelimiterRules = append(s.DelimiterRules[:i], s.DelimiterRules[i+1:]...)
			return nil
		}
	}
	return ErrRuleNotFound
}

// AddVoiceProfile appends a new voice profile and returns it.
func (s *Settings) AddVoiceProfile(profile VoiceProfile) VoiceProfile {
	if profile.ID == "" {
		profile.ID = NewID()
	}
	if profile.Overrides == nil {
		profile.Overrides = map[string]Overrides{}
	}
	s.VoiceProfiles = append(s.VoiceProfiles, profile)
	return profile
}

// RemoveVoiceProfile deletes the profile with the given id. Deleting the
// last remaining profile is rejected. Delimiter rules that referenced the
// deleted profile are reassigned to the first remaining profile, so no rule
// ever points at a nonexistent profile.
func (s *Settings) RemoveVoiceProfile(id string) error {
	idx := -1
	for i, p := range s.VoiceProfiles {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrProfileNotFound
	}
	if len(s.VoiceProfiles) == 1 {
		return ErrLastProfile
	}

	s.VoiceProfiles = append(s.VoiceProfiles[:idx], s.VoiceProfiles[idx+1:]...)

	fallbackID := s.VoiceProfiles[0].ID
	for i, r := range s.DelimiterRules {
		if r.ProfileID == id {
			s.DelimiterRules[i].ProfileID = fallbackID
		}
	}

	return nil
}

// SetProfileOverride sets one override parameter on a profile for a chunk
// type. A nil value clears the parameter; an override entry with no
// parameters left is removed.
func (s *Settings) SetProfileOverride(profileID, chunkType, param string, value *float64) error {
	for i := range s.VoiceProfiles {
		p := &s.VoiceProfiles[i]
		if p.ID != profileID {
			continue
		}
		if p.Overrides == nil {
			p.Overrides = map[string]Overrides{}
		}
		ov := p.Overrides[chunkType]
		switch param {
		case "temperature":
			ov.Temperature = value
		case "exaggeration":
			ov.Exaggeration = value
		case "cfg_weight":
			ov.CFGWeight = value
		default:
			return ErrUnknownParam
		}
		if ov.IsEmpty() {
			delete(p.Overrides, chunkType)
		} else {
			p.Overrides[chunkType] = ov
		}
		return nil
	}
	return ErrProfileNotFound
}

// AddRegexRule appends a new regex rule and returns it.
func (s *Settings) AddRegexRule(rule RegexRule) RegexRule {
	if rule.ID == "" {
		rule.ID = NewID()
	}
	if rule.Scope == "" {
		rule.Scope = ScopeGlobal
	}
	s.RegexRules = append(s.RegexRules, rule)
	return rule
}

// RemoveRegexRule deletes the regex rule with the given id.
func (s *Settings) RemoveRegexRule(id string) error {
	for i, r := range s.RegexRules {
		if r.ID == id {
			s.RegexRules = append(s.RegexRules[:i], s.RegexRules[i+1:]...)
			return nil
		}
	}
	return ErrRuleNotFound
}
