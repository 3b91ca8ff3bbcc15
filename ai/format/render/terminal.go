package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hrygo/readle/ai/format"
)

const (
	defaultTerminalWidth = 80
	minTerminalWidth     = 30
)

var (
	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	dotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69"))

	stepBadgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("99")).
			Padding(0, 1)

	stepCardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("147")).
			PaddingLeft(1)

	plainStyle = lipgloss.NewStyle()
)

// Terminal renders fragments with lipgloss styles, wrapped to Width columns.
type Terminal struct {
	Width int
}

// NewTerminal returns a terminal renderer. Widths below the minimum are
// raised; zero selects the default width.
func NewTerminal(width int) *Terminal {
	if width <= 0 {
		width = defaultTerminalWidth
	}
	if width < minTerminalWidth {
		width = minTerminalWidth
	}
	return &Terminal{Width: width}
}

func (t *Terminal) Render(w io.Writer, frags []format.Fragment) error {
	blocks := make([]string, 0, len(frags))
	for _, f := range frags {
		blocks = append(blocks, t.block(f))
	}
	out := strings.Join(blocks, "\n")
	if out != "" {
		out += "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}

func (t *Terminal) block(f format.Fragment) string {
	switch v := f.(type) {
	case format.NumberedItem:
		return t.item(badgeStyle.Render(v.Label+"."), v.Text)
	case format.BulletItem:
		return t.item(dotStyle.Render("•"), v.Text)
	case format.StepItem:
		badge := stepBadgeStyle.Render("Step " + v.Label)
		body := lipgloss.NewStyle().Width(t.Width - lipgloss.Width(badge) - 4).Render(v.Text)
		return stepCardStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, badge, " ", body))
	default:
		return plainStyle.Width(t.Width).Render(f.Content())
	}
}

// item lays the marker next to a wrapped body so continuation lines hang
// under the text rather than under the marker.
func (t *Terminal) item(marker, text string) string {
	gutter := "  " + marker + " "
	body := lipgloss.NewStyle().Width(t.Width - lipgloss.Width(gutter)).Render(text)
	return lipgloss.JoinHorizontal(lipgloss.Top, gutter, body)
}
