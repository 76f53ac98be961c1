package segment

import (
	"testing"

	"github.com/tdfn00b/tts-extra/internal/config"
)

func TestSanitizeForAPI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello there", "hello there"},
		{"collapse whitespace", "too   many\t spaces\nhere", "too many spaces here"},
		{"trim ends", "  padded  ", "padded"},
		{"unescape quotes", `he said \"hi\"`, `he said "hi"`},
		{"strip quote pair", `"hello"`, "hello"},
		{"strip asterisk pair", "*thinking*", "thinking"},
		{"strip underscore pair", "_soft_", "soft"},
		{"mismatched ends kept", `"hello*`, `"hello*`},
		{"inner markup kept", `say "hi" now`, `say "hi" now`},
		{"single char kept", `"`, `"`},
		{"empty", "", ""},
		{"pair around whitespace", `" spaced "`, "spaced"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeForAPI(tt.in); got != tt.want {
				t.Errorf("SanitizeForAPI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeStableOnSecondPass(t *testing.T) {
	// Sanitized text is already normalized: running it through again must
	// change nothing.
	inputs := []string{
		"hello there",
		"too   many\t spaces\nhere",
		"  padded  ",
		`he said \"hi\"`,
		`"hello"`,
		"*thinking*",
		"_soft_",
		`"hello*`,
		`say "hi" now`,
		`"`,
		"",
		`" spaced "`,
	}

	for _, in := range inputs {
		once := SanitizeForAPI(in)
		if twice := SanitizeForAPI(once); twice != once {
			t.Errorf("SanitizeForAPI(%q) unstable: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizeStripsOnePairOnly(t *testing.T) {
	if got := SanitizeForAPI(`*"wrapped"*`); got != `"wrapped"` {
		t.Errorf("got %q, want %q", got, `"wrapped"`)
	}
}

func TestApplyRegexRules(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkType string
		rules     []config.RegexRule
		want      string
	}{
		{
			name:      "global rule applies to any type",
			text:      "Mr. Smith met Mr. Jones",
			chunkType: "speech",
			rules: []config.RegexRule{
				{Enabled: true, Pattern: `Mr\.`, Replacement: "Mister", Flags: "g", Scope: config.ScopeGlobal},
			},
			want: "Mister Smith met Mister Jones",
		},
		{
			name:      "no g flag replaces first only",
			text:      "aaa",
			chunkType: "narration",
			rules: []config.RegexRule{
				{Enabled: true, Pattern: "a", Replacement: "b", Scope: config.ScopeGlobal},
			},
			want: "baa",
		},
		{
			name:      "scoped rule skips other types",
			text:      "hello",
			chunkType: "narration",
			rules: []config.RegexRule{
				{Enabled: true, Pattern: "hello", Replacement: "bye", Flags: "g", Scope: "speech"},
			},
			want: "hello",
		},
		{
			name:      "scoped rule matches its type",
			text:      "hello",
			chunkType: "speech",
			rules: []config.RegexRule{
				{Enabled: true, Pattern: "hello", Replacement: "bye", Flags: "g", Scope: "speech"},
			},
			want: "bye",
		},
		{
			name:      "disabled rule skipped",
			text:      "hello",
			chunkType: "narration",
			rules: []config.RegexRule{
				{Enabled: false, Pattern: "hello", Replacement: "bye", Flags: "g", Scope: config.ScopeGlobal},
			},
			want: "hello",
		},
		{
			name:      "case insensitive flag",
			text:      "HELLO hello",
			chunkType: "narration",
			rules: []config.RegexRule{
				{Enabled: true, Pattern: "hello", Replacement: "x", Flags: "gi", Scope: config.ScopeGlobal},
			},
			want: "x x",
		},
		{
			name:      "rules apply in order",
			text:      "abc",
			chunkType: "narration",
			rules: []config.RegexRule{
				{Enabled: true, Pattern: "a", Replacement: "b", Flags: "g", Scope: config.ScopeGlobal},
				{Enabled: true, Pattern: "b", Replacement: "c", Flags: "g", Scope: config.ScopeGlobal},
			},
			want: "ccc",
		},
		{
			name:      "invalid pattern skipped",
			text:      "hello",
			chunkType: "narration",
			rules: []config.RegexRule{
				{Enabled: true, Pattern: "[unclosed", Replacement: "x", Flags: "g", Scope: config.ScopeGlobal},
				{Enabled: true, Pattern: "hello", Replacement: "bye", Flags: "g", Scope: config.ScopeGlobal},
			},
			want: "bye",
		},
		{
			name:      "capture group replacement",
			text:      "John said",
			chunkType: "narration",
			rules: []config.RegexRule{
				{Enabled: true, Pattern: `(\w+) said`, Replacement: "$1 whispered", Flags: "g", Scope: config.ScopeGlobal},
			},
			want: "John whispered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyRegexRules(tt.text, tt.chunkType, tt.rules); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
