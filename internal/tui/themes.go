package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/tentview/internal/view"
)

// Theme defines the colour scheme of the control surface.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Faint   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeDark = Theme{
		Name:    "dark",
		Primary: lipgloss.Color("86"),
		Accent:  lipgloss.Color("213"),
		Text:    lipgloss.Color("255"),
		Muted:   lipgloss.Color("242"),
		Faint:   lipgloss.Color("238"),
		Success: lipgloss.Color("82"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
	}

	ThemeLight = Theme{
		Name:    "light",
		Primary: lipgloss.Color("25"),
		Accent:  lipgloss.Color("127"),
		Text:    lipgloss.Color("232"),
		Muted:   lipgloss.Color("244"),
		Faint:   lipgloss.Color("250"),
		Success: lipgloss.Color("28"),
		Warning: lipgloss.Color("130"),
		Error:   lipgloss.Color("160"),
	}
)

// GetTheme returns the terminal theme for a viewer theme.
func GetTheme(t view.Theme) Theme {
	if t == view.Dark {
		return ThemeDark
	}
	return ThemeLight
}

type styles struct {
	primary, accent, text, muted, faint, success, warning, err lipgloss.Style
}

func (t Theme) styles() styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return styles{
		primary: fg(t.Primary),
		accent:  fg(t.Accent),
		text:    fg(t.Text),
		muted:   fg(t.Muted),
		faint:   fg(t.Faint),
		success: fg(t.Success),
		warning: fg(t.Warning),
		err:     fg(t.Error).Bold(true),
	}
}
