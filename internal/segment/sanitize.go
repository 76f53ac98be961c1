package segment

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tdfn00b/tts-extra/internal/config"
)

var (
	escapedQuoteRe = regexp.MustCompile(`\\"`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// symmetricMarkup is the set of characters stripped as a matching pair from
// the ends of API text.
const symmetricMarkup = "\"'`*_"

// ApplyRegexRules applies every enabled rule whose scope is global or equals
// the chunk type, in list order. A rule whose pattern fails to compile is
// skipped with a warning, never fatal.
func ApplyRegexRules(text, chunkType string, rules []config.RegexRule) string {
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if rule.Scope != config.ScopeGlobal && rule.Scope != chunkType {
			continue
		}

		re, global, err := compileRule(rule)
		if err != nil {
			log.Warn("Skipping invalid regex rule", "pattern", rule.Pattern, "error", err)
			continue
		}

		if global {
			text = re.ReplaceAllString(text, rule.Replacement)
			continue
		}

		// Without the "g" flag only the first occurrence is replaced.
		if loc := re.FindStringIndex(text); loc != nil {
			replaced := re.ReplaceAllString(text[loc[0]:loc[1]], rule.Replacement)
			text = text[:loc[0]] + replaced + text[loc[1]:]
		}
	}
	return text
}

// compileRule translates the rule's letter flags into Go regexp mode
// modifiers. The "g" flag is not a regexp mode; it is returned separately.
func compileRule(rule config.RegexRule) (*regexp.Regexp, bool, error) {
	var modes string
	global := false
	for _, f := range rule.Flags {
		switch f {
		case 'g':
			global = true
		case 'i':
			modes += "i"
		case 's':
			modes += "s"
		case 'm':
			modes += "m"
		}
	}

	pattern := rule.Pattern
	if modes != "" {
		pattern = "(?" + modes + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false, err
	}
	return re, global, nil
}

// SanitizeForAPI normalizes chunk text for the synthesis request: escaped
// quotes are unescaped, whitespace runs collapse to single spaces, and one
// matching pair of symmetric markup characters is stripped from the ends.
func SanitizeForAPI(text string) string {
	text = escapedQuoteRe.ReplaceAllString(text, `"`)
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	if len(text) > 1 {
		first := text[0]
		last := text[len(text)-1]
		if first == last && strings.IndexByte(symmetricMarkup, first) >= 0 {
			text = strings.TrimSpace(text[1 : len(text)-1])
		}
	}

	return text
}
