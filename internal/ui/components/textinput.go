package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abodnar/clio/internal/ui/theme"
)

// TextInput wraps bubbles/textinput for free-form topic entry.
type TextInput struct {
	Model textinput.Model
}

// NewTextInput creates a focused single-line input. charLimit of zero
// means unbounded.
func NewTextInput(placeholder string, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	return TextInput{Model: ti}
}

// Init returns the cursor-blink command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update forwards messages to the underlying input.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the input with a prompt marker.
func (t TextInput) View() string {
	prompt := lipgloss.NewStyle().Foreground(theme.Primary).Render("▸ ")
	return prompt + t.Model.View()
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// Reset clears the input for reuse.
func (t *TextInput) Reset() {
	t.Model.SetValue("")
}
