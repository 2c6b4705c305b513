package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the semantic colors and styles shared by the views and the TUI
type Theme struct {
	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Subtle    lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor

	// Styles
	DocStyle     lipgloss.Style
	InputStyle   lipgloss.Style
	UserStyle    lipgloss.Style
	BotStyle     lipgloss.Style
	CardStyle    lipgloss.Style
	SystemStyle  lipgloss.Style
	ErrorStyle   lipgloss.Style
	SuccessStyle lipgloss.Style
	UpStyle      lipgloss.Style
	DownStyle    lipgloss.Style
	MutedStyle   lipgloss.Style
	HeaderStyle  lipgloss.Style
	FooterStyle  lipgloss.Style
}

// Default is the theme used when nothing else is configured
var Default = DefaultTheme()

// DefaultTheme creates a default theme
func DefaultTheme() *Theme {
	primary := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	secondary := lipgloss.AdaptiveColor{Light: "#4B56FD", Dark: "#4B56FD"}
	text := lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#FFFFFF"}
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	errColor := lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF4136"}
	success := lipgloss.AdaptiveColor{Light: "#008A00", Dark: "#2ECC40"}
	warning := lipgloss.AdaptiveColor{Light: "#FFA500", Dark: "#FF851B"}

	return &Theme{
		Primary:   primary,
		Secondary: secondary,
		Text:      text,
		Subtle:    subtle,
		Error:     errColor,
		Success:   success,
		Warning:   warning,

		DocStyle: lipgloss.NewStyle().Padding(1, 2),

		InputStyle: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(subtle).
			Padding(0, 1),

		UserStyle: lipgloss.NewStyle().
			Foreground(secondary).
			Bold(true),

		BotStyle: lipgloss.NewStyle().
			Foreground(text).
			PaddingLeft(1),

		CardStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1),

		SystemStyle: lipgloss.NewStyle().
			Foreground(subtle).
			Italic(true),

		ErrorStyle: lipgloss.NewStyle().
			Foreground(errColor).
			Bold(true),

		SuccessStyle: lipgloss.NewStyle().
			Foreground(success),

		UpStyle: lipgloss.NewStyle().
			Foreground(success),

		DownStyle: lipgloss.NewStyle().
			Foreground(errColor),

		MutedStyle: lipgloss.NewStyle().
			Foreground(subtle),

		HeaderStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			Padding(0, 1),

		FooterStyle: lipgloss.NewStyle().
			Foreground(subtle).
			Padding(0, 1),
	}
}
