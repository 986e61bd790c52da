package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abodnar/clio/internal/ui/theme"
)

// ProgressBar shows how far through the quiz the learner is.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a progress bar. Width is the total rendered
// width including the label.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// View renders the bar.
func (p ProgressBar) View() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label))
		b.WriteString("  ")
	}

	suffix := ""
	if p.ShowPercent {
		suffix = fmt.Sprintf("  %d%%", int(p.Percent*100+0.5))
	}

	barWidth := p.Width - lipgloss.Width(b.String()) - lipgloss.Width(suffix)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth)*p.Percent + 0.5)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	b.WriteString(theme.ProgressFilled.Render(strings.Repeat("━", filled)))
	b.WriteString(theme.ProgressEmpty.Render(strings.Repeat("╌", barWidth-filled)))

	if suffix != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(suffix))
	}

	return b.String()
}
