package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tdfn00b/tts-extra/internal/config"
	"github.com/tdfn00b/tts-extra/internal/segment"
)

var (
	keywordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#ECFD65"})

	paragraphStyle = lipgloss.NewStyle().
			Width(78).
			Padding(0, 0, 0, 2)

	typeLabelStyle = lipgloss.NewStyle().Bold(true)

	paragraphHeaderStyle = lipgloss.NewStyle().
				Faint(true).
				MarginTop(1)
)

func keyword(s string) string {
	return keywordStyle.Render(s)
}

func paragraph(s string) string {
	return paragraphStyle.Render(s)
}

// segmentChunks runs the configured segmentation over raw text.
func segmentChunks(text string, settings *config.Settings) []segment.Chunk {
	return segment.Parse(text,
		settings.StripContentTags,
		settings.StripTagsOnly,
		settings.DelimiterRules)
}

// renderChunks formats parsed chunks for the terminal, one line per chunk,
// labeled and tinted with the chunk type's configured color.
func renderChunks(chunks []segment.Chunk) string {
	var b strings.Builder

	paragraph := -1
	for _, c := range chunks {
		if c.Paragraph != paragraph {
			paragraph = c.Paragraph
			b.WriteString(paragraphHeaderStyle.Render(fmt.Sprintf("paragraph %d", paragraph+1)))
			b.WriteString("\n")
		}

		color := lipgloss.Color(c.Color)
		label := typeLabelStyle.Foreground(color).Render(fmt.Sprintf("%-10s", c.Type))
		text := lipgloss.NewStyle().Foreground(color).Render(c.Text)
		fmt.Fprintf(&b, "  %s %s\n", label, text)
	}

	return b.String()
}
