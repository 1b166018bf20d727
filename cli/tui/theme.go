package tui

import "github.com/charmbracelet/lipgloss"

// Theme bundles the lipgloss styles used by the browser views.
type Theme struct {
	TitleStyle    lipgloss.Style
	StatusStyle   lipgloss.Style
	CursorStyle   lipgloss.Style
	DirStyle      lipgloss.Style
	FileStyle     lipgloss.Style
	DeletedStyle  lipgloss.Style
	AddedStyle    lipgloss.Style
	ModifiedStyle lipgloss.Style
	LoadingStyle  lipgloss.Style
}

func DefaultTheme() *Theme {
	return &Theme{
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1),
		StatusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		CursorStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("33")),
		DirStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		FileStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		DeletedStyle: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(lipgloss.Color("240")),
		AddedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")),
		ModifiedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		LoadingStyle: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("245")),
	}
}
