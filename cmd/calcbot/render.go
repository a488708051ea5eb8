package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ZanzyTHEbar/calcbot/internal/commands"
)

var (
	fieldNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Bold(true)
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// embedColor maps a 0xRRGGBB embed colour to a terminal colour.
func embedColor(color int) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%06X", color&0xFFFFFF))
}

func renderEmbed(embed commands.Embed) string {
	color := embedColor(embed.Color)
	title := lipgloss.NewStyle().Foreground(color).Bold(true).Render(embed.Title)

	blocks := []string{title}
	for _, field := range embed.Fields {
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left,
			fieldNameStyle.Render(field.Name),
			valueStyle.Render(field.Value),
		))
	}

	card := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder(), false, false, false, true).
		BorderForeground(color)

	return card.Render(strings.Join(blocks, "\n\n"))
}

// renderResponse draws a reply the way a chat client would show it:
// content first, then each embed as a card.
func renderResponse(resp commands.Response) string {
	var parts []string
	if resp.Content != "" {
		content := resp.Content
		if resp.Ephemeral {
			content = errorStyle.Render(content)
		}
		parts = append(parts, content)
	}
	for _, embed := range resp.Embeds {
		parts = append(parts, renderEmbed(embed))
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func renderDefinitions(defs []commands.Definition) string {
	var b strings.Builder
	for _, def := range defs {
		b.WriteString(fieldNameStyle.Render(def.Name))
		b.WriteString("  ")
		b.WriteString(mutedStyle.Render(def.Description))
		b.WriteByte('\n')

		for _, opt := range def.Options {
			flag := "optional"
			if opt.Required {
				flag = "required"
			}
			line := fmt.Sprintf("    %s (%s, %s): %s", opt.Name, opt.Type, flag, opt.Description)
			if len(opt.Choices) > 0 {
				values := make([]string, len(opt.Choices))
				for i, c := range opt.Choices {
					values[i] = c.Value
				}
				line += " [" + strings.Join(values, "|") + "]"
			}
			b.WriteString(valueStyle.Render(line))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
