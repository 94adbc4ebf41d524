package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/kiosk/internal/config"
)

const AppName = "kiosk"

// ASCII art logo lines for kiosk
var LogoLines = []string{
	"██  ▄█ ██  ▄███▄  ▄████ ██  ▄█",
	"██▄█▀  ██ ██   ██ ▀█▄▄  ██▄█▀ ",
	"██▀█▄  ██ ██   ██    ▀█ ██▀█▄ ",
	"██  ▀█ ██  ▀███▀  ████▀ ██  ▀█",
}

const CompactLogo = `kiosk ›`

// Theme holds the styles the views render with. It is built from the
// configured colors so every view shares one palette.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color

	Logo         lipgloss.Style
	Header       lipgloss.Style
	Title        lipgloss.Style
	Selected     lipgloss.Style
	Item         lipgloss.Style
	Meta         lipgloss.Style
	Help         lipgloss.Style
	Separator    lipgloss.Style
	Category     lipgloss.Style
	CategoryOn   lipgloss.Style
	StatusInfo   lipgloss.Style
	StatusOK     lipgloss.Style
	StatusWarn   lipgloss.Style
	StatusError  lipgloss.Style
	InputFrame   lipgloss.Style
	InputFocused lipgloss.Style
}

func NewTheme(c config.UIColors) Theme {
	t := Theme{
		Primary:   lipgloss.Color(c.Primary),
		Secondary: lipgloss.Color(c.Secondary),
		Accent:    lipgloss.Color(c.Accent),
		Text:      lipgloss.Color(c.Text),
		Muted:     lipgloss.Color(c.Muted),
		Error:     lipgloss.Color(c.Error),
		Success:   lipgloss.Color(c.Success),
	}

	t.Logo = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	t.Header = lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)
	t.Title = lipgloss.NewStyle().Foreground(t.Text).Bold(true)
	t.Selected = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	t.Item = lipgloss.NewStyle().Foreground(t.Text)
	t.Meta = lipgloss.NewStyle().Foreground(t.Muted)
	t.Help = lipgloss.NewStyle().Foreground(t.Muted).Italic(true)
	t.Separator = lipgloss.NewStyle().Foreground(t.Muted)
	t.Category = lipgloss.NewStyle().Foreground(t.Muted).Padding(0, 1)
	t.CategoryOn = lipgloss.NewStyle().Foreground(t.Text).Background(t.Secondary).Bold(true).Padding(0, 1)
	t.StatusInfo = lipgloss.NewStyle().Foreground(t.Muted)
	t.StatusOK = lipgloss.NewStyle().Foreground(t.Success)
	t.StatusWarn = lipgloss.NewStyle().Foreground(t.Primary)
	t.StatusError = lipgloss.NewStyle().Foreground(t.Error).Bold(true)
	t.InputFrame = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Muted).Padding(0, 1)
	t.InputFocused = t.InputFrame.BorderForeground(t.Accent)
	return t
}

// StatusStyle picks the style for a status severity.
func (t Theme) StatusStyle(kind StatusKind) lipgloss.Style {
	switch kind {
	case StatusSuccess:
		return t.StatusOK
	case StatusWarn:
		return t.StatusWarn
	case StatusError:
		return t.StatusError
	default:
		return t.StatusInfo
	}
}

// Banner renders the logo above message, centered.
func (t Theme) Banner(message string) string {
	lines := make([]string, 0, len(LogoLines)+2)
	for _, line := range LogoLines {
		lines = append(lines, t.Logo.Render(line))
	}
	lines = append(lines, "", t.Help.Render(message))
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

// VersionBanner is printed by the version command.
func (t Theme) VersionBanner(version string) string {
	tag := "Content Browser"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tag = fmt.Sprintf("Content Browser %s", version)
	}

	lines := make([]string, 0, len(LogoLines)+2)
	for i, line := range LogoLines {
		color := t.Primary
		if i%2 == 1 {
			color = t.Secondary
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(color).Bold(true).Render(line))
	}
	lines = append(lines, "", t.Meta.Render(tag))

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(t.Accent).
		Padding(1, 3).
		Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}
