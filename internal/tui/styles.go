package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	stepNameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Width(9)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("10")).
			Padding(1, 3)
)

// SuccessBanner renders the bordered completion notice shown when a long
// command finishes.
func SuccessBanner(title string, lines ...string) string {
	content := successStyle.Render(title)
	for _, line := range lines {
		content += "\n" + line
	}

	return bannerStyle.Render(content)
}

// FailureNotice renders a terminal failure line.
func FailureNotice(text string) string {
	return failureStyle.Render(text)
}
