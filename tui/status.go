package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar builds the one-line status bar shown at the top of the
// screen: scene and location on the left, character name on the right.
func (m *Model) renderStatusBar() string {
	left := "storyloom"
	if m.current != nil {
		left = m.current.SceneID
		if m.current.LocationID != "" {
			left = fmt.Sprintf("%s @ %s", m.current.SceneID, m.current.LocationID)
		}
	}

	right := ""
	if m.state != nil {
		right = m.state.Character.Name
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	bar := fmt.Sprintf(" %s%*s%s ", left, gap, "", right)
	return styleStatusBar.Width(m.width).Render(bar)
}
