package segment

import (
	"strings"
	"testing"

	"github.com/tdfn00b/tts-extra/internal/config"
)

func testRules() []config.DelimiterRule {
	return []config.DelimiterRule{
		{ID: "narration", Name: "narration", Color: "#9CA3AF"},
		{ID: "speech", Name: "speech", Start: `"`, End: `"`, Color: "#60A5FA"},
		{ID: "thought", Name: "thought", Start: "*", End: "*", Color: "#A78BFA"},
	}
}

func chunkSummary(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Type + ":" + c.Text
	}
	return out
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "narration with quoted speech",
			raw:  `He said "hello" then left.`,
			want: []string{
				"narration:He said",
				`speech:"hello"`,
				"narration:then left.",
			},
		},
		{
			name: "thought markers",
			raw:  `She paused. *What now?* She kept walking.`,
			want: []string{
				"narration:She paused.",
				"thought:*What now?*",
				"narration:She kept walking.",
			},
		},
		{
			name: "plain narration only",
			raw:  "A quiet evening in the village.",
			want: []string{"narration:A quiet evening in the village."},
		},
		{
			name: "adjacent delimited spans",
			raw:  `"One." "Two."`,
			want: []string{`speech:"One."`, `speech:"Two."`},
		},
		{
			name: "unterminated marker stays narration",
			raw:  `He said "hello and walked off`,
			want: []string{`narration:He said "hello and walked off`},
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
		{
			name: "whitespace only",
			raw:  " \n\t ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkSummary(Parse(tt.raw, "", "", testRules()))
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks %v, want %d %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseParagraphNumbering(t *testing.T) {
	raw := "First paragraph.\n\nSecond \"speaks\" here.\r\nThird."
	chunks := Parse(raw, "", "", testRules())

	wantParagraphs := []int{0, 1, 1, 1, 2}
	if len(chunks) != len(wantParagraphs) {
		t.Fatalf("got %d chunks, want %d: %v", len(chunks), len(wantParagraphs), chunkSummary(chunks))
	}
	for i, want := range wantParagraphs {
		if chunks[i].Paragraph != want {
			t.Errorf("chunk %d paragraph = %d, want %d", i, chunks[i].Paragraph, want)
		}
	}
}

func TestParsePunctuationOnlyDropped(t *testing.T) {
	raw := `"Wait," he said.`
	chunks := Parse(raw, "", "", testRules())

	for _, c := range chunks {
		if punctOnlyRe.MatchString(c.Text) {
			t.Errorf("punctuation-only chunk survived: %q", c.Text)
		}
	}

	got := chunkSummary(chunks)
	want := []string{`speech:"Wait,"`, "narration:he said."}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseInactiveRuleIgnored(t *testing.T) {
	rules := []config.DelimiterRule{
		{ID: "narration", Name: "narration", Color: "#9CA3AF"},
		{ID: "broken", Name: "broken", Start: "[", End: "", Color: "#F00"},
	}

	chunks := Parse("Text with [ a stray bracket.", "", "", rules)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Type != "narration" {
		t.Errorf("chunk type = %q, want narration", chunks[0].Type)
	}
}

func TestParseNoActiveRules(t *testing.T) {
	rules := []config.DelimiterRule{
		{ID: "narration", Name: "narration", Color: "#9CA3AF"},
	}

	chunks := Parse(`Everything "including quotes" is narration.`, "", "", rules)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: %v", len(chunks), chunkSummary(chunks))
	}
	if chunks[0].Type != "narration" {
		t.Errorf("chunk type = %q, want narration", chunks[0].Type)
	}
}

func TestParseTagStripping(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		contentTags string
		tagsOnly    string
		want        []string
	}{
		{
			// Stripping runs before the paragraph split and the span's inner
			// newline goes with it, so one merged paragraph remains.
			name:        "content tags removed entirely",
			raw:         "Before. <details>hidden\ntext</details> After.",
			contentTags: "details",
			want:        []string{"narration:Before.  After."},
		},
		{
			name:     "tags-only keeps content",
			raw:      "He was <em>very</em> tired.",
			tagsOnly: "em",
			want:     []string{"narration:He was very tired."},
		},
		{
			name:        "case insensitive",
			raw:         "A <DETAILS>gone</DETAILS> B <EM>kept</EM> C",
			contentTags: "details",
			tagsOnly:    "em",
			want:        []string{"narration:A  B kept C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkSummary(Parse(tt.raw, tt.contentTags, tt.tagsOnly, testRules()))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseChunkIDsUnique(t *testing.T) {
	chunks := Parse(`"A" b "C" d "E"`, "", "", testRules())
	seen := map[string]bool{}
	for _, c := range chunks {
		if c.ID == "" {
			t.Fatal("chunk with empty id")
		}
		if seen[c.ID] {
			t.Fatalf("duplicate chunk id %q", c.ID)
		}
		seen[c.ID] = true
		if c.Status != StatusPending {
			t.Errorf("chunk status = %q, want %q", c.Status, StatusPending)
		}
	}
}

func TestParseMultilineSpan(t *testing.T) {
	// A span never crosses a paragraph boundary: the paragraph split runs
	// first, leaving the opening marker unterminated in its paragraph.
	raw := "\"spans\nlines\" end"
	chunks := Parse(raw, "", "", testRules())
	for _, c := range chunks {
		if strings.Contains(c.Text, "\n") {
			t.Errorf("chunk crosses paragraph boundary: %q", c.Text)
		}
	}
}
