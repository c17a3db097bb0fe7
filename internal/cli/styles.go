package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/git-cob/internal/domain"
)

// Colors defines the color palette for rendered output.
var Colors = struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Label   lipgloss.Color
	Open    lipgloss.Color
	Closed  lipgloss.Color
	Text    lipgloss.Color
}{
	Primary: lipgloss.Color("#6C5CE7"), // Purple
	Muted:   lipgloss.Color("#636E72"), // Gray
	Label:   lipgloss.Color("#A29BFE"), // Lavender
	Open:    lipgloss.Color("#00B894"), // Green
	Closed:  lipgloss.Color("#636E72"), // Gray
	Text:    lipgloss.Color("#DFE6E9"), // Light gray
}

// Styles contains the lipgloss styles for issue rendering.
type Styles struct {
	Title        lipgloss.Style
	ID           lipgloss.Style
	FieldLabel   lipgloss.Style
	FieldValue   lipgloss.Style
	LabelBadge   lipgloss.Style
	StateOpen    lipgloss.Style
	StateClosed  lipgloss.Style
	Description  lipgloss.Style
	CommentHead  lipgloss.Style
	CommentBody  lipgloss.Style
	Reaction     lipgloss.Style
	Separator    lipgloss.Style
	HistoryMuted lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(Colors.Text),
		ID:           lipgloss.NewStyle().Foreground(Colors.Primary),
		FieldLabel:   lipgloss.NewStyle().Foreground(Colors.Muted).Width(10),
		FieldValue:   lipgloss.NewStyle().Foreground(Colors.Text),
		LabelBadge:   lipgloss.NewStyle().Foreground(Colors.Label),
		StateOpen:    lipgloss.NewStyle().Bold(true).Foreground(Colors.Open),
		StateClosed:  lipgloss.NewStyle().Bold(true).Foreground(Colors.Closed),
		Description:  lipgloss.NewStyle().PaddingLeft(2),
		CommentHead:  lipgloss.NewStyle().Foreground(Colors.Muted),
		CommentBody:  lipgloss.NewStyle().PaddingLeft(2),
		Reaction:     lipgloss.NewStyle().Foreground(Colors.Label),
		Separator:    lipgloss.NewStyle().Foreground(Colors.Muted),
		HistoryMuted: lipgloss.NewStyle().Foreground(Colors.Muted),
	}
}

// StateStyle returns the style for an issue state.
func (s Styles) StateStyle(state domain.State) lipgloss.Style {
	if state == domain.StateClosed {
		return s.StateClosed
	}
	return s.StateOpen
}

// StateIcon returns the icon for an issue state.
func StateIcon(state domain.State) string {
	if state == domain.StateClosed {
		return "✓"
	}
	return "○"
}
