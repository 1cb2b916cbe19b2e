package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Lines per digest in the list pane (title + subtitle + blank separator).
const itemHeight = 3

// Width of the digest list pane, borders excluded.
const listWidth = 28

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle   = headerStyle.Foreground(lipgloss.Color("39"))
	inactiveHeaderStyle = headerStyle.Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle    = lipgloss.NewStyle().Bold(true)
	itemSubtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const (
	paneList = iota
	paneBody
)

type viewerModel struct {
	source       string
	result       Result
	listViewport viewport.Model
	bodyViewport viewport.Model
	activePane   int
	cursor       int
	width        int
	height       int
	ready        bool
	wantQuit     bool
}

func (m viewerModel) Init() tea.Cmd {
	return nil
}

func (m viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.wantQuit = true
			return m, tea.Quit
		case "esc", "b":
			m.wantQuit = false
			return m, tea.Quit
		case "tab", "left", "right":
			m.activePane = 1 - m.activePane
			return m, nil
		}

		if m.activePane == paneList {
			switch msg.String() {
			case "up", "k":
				m.moveCursor(-1)
				return m, nil
			case "down", "j":
				m.moveCursor(1)
				return m, nil
			}
		}

		// Remaining keys (pgup/pgdn/home/end, arrows in the body pane)
		// scroll the active viewport.
		var cmd tea.Cmd
		if m.activePane == paneList {
			m.listViewport, cmd = m.listViewport.Update(msg)
		} else {
			m.bodyViewport, cmd = m.bodyViewport.Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

func (m *viewerModel) moveCursor(delta int) {
	next := clamp(m.cursor+delta, 0, max(len(m.result.Items)-1, 0))
	if next == m.cursor {
		return
	}
	m.cursor = next
	m.recalcContent()
	m.bodyViewport.GotoTop()
	m.ensureCursorVisible()
}

func (m *viewerModel) ensureCursorVisible() {
	top := m.cursor * itemHeight
	bottom := top + itemHeight - 1

	if top < m.listViewport.YOffset {
		m.listViewport.SetYOffset(top)
	} else if bottom >= m.listViewport.YOffset+m.listViewport.Height {
		m.listViewport.SetYOffset(bottom - m.listViewport.Height + 1)
	}
}

func (m *viewerModel) recalcLayout() {
	// Header (1 line) + border top/bottom (2) + status bar (1).
	paneHeight := max(m.height-4, 5)
	// Two panes with 2 border chars each plus a 1 char gap.
	bodyWidth := max(m.width-listWidth-5, 20)

	if !m.ready {
		m.listViewport = viewport.New(listWidth, paneHeight)
		m.bodyViewport = viewport.New(bodyWidth, paneHeight)
		m.ready = true
	} else {
		m.listViewport.Width = listWidth
		m.listViewport.Height = paneHeight
		m.bodyViewport.Width = bodyWidth
		m.bodyViewport.Height = paneHeight
	}
	m.recalcContent()
}

func (m *viewerModel) recalcContent() {
	m.listViewport.SetContent(renderItems(m.result.Items, m.cursor))
	m.bodyViewport.SetContent(m.currentBody())
}

func (m viewerModel) currentBody() string {
	if len(m.result.Items) == 0 {
		var b strings.Builder
		b.WriteString("No digests: nothing matched the keyword filter.\n")
		if m.result.Err != nil {
			b.WriteString("\n")
			b.WriteString(warningStyle.Render("⚠ " + m.result.Err.Error()))
			b.WriteString("\n")
		}
		return b.String()
	}
	return m.result.Items[m.cursor].Body
}

func (m viewerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	listHeader := fmt.Sprintf(" Digests (%d)", len(m.result.Items))
	bodyHeader := " " + m.source
	if len(m.result.Items) > 0 {
		it := m.result.Items[m.cursor]
		bodyHeader = fmt.Sprintf(" %s · page %d · digest %d", m.source, it.Page, it.Index)
	}

	listHeaderStyle, bodyHeaderStyle := activeHeaderStyle, inactiveHeaderStyle
	listBorder, bodyBorder := activeBorderStyle, inactiveBorderStyle
	if m.activePane == paneBody {
		listHeaderStyle, bodyHeaderStyle = inactiveHeaderStyle, activeHeaderStyle
		listBorder, bodyBorder = inactiveBorderStyle, activeBorderStyle
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(m.listViewport.Width+2).Render(listHeaderStyle.Render(listHeader)),
		" ",
		lipgloss.NewStyle().Width(m.bodyViewport.Width+2).Render(bodyHeaderStyle.Render(bodyHeader)),
	)
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		listBorder.Width(m.listViewport.Width).Render(m.listViewport.View()),
		" ",
		bodyBorder.Width(m.bodyViewport.Width).Render(m.bodyViewport.View()),
	)

	statusText := fmt.Sprintf(" %d pages | %d jobs | stop: %s    ←/→/Tab switch  ↑/↓ select  Esc back  q quit",
		m.result.Pages, m.result.Matched, m.result.Stop)
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func renderItems(items []Item, cursor int) string {
	if len(items) == 0 {
		return "  (no digests)"
	}

	var b strings.Builder
	for i, it := range items {
		titleSt, subtitleSt, prefix := itemTitleStyle, itemSubtitleStyle, "  "
		if i == cursor {
			titleSt, subtitleSt, prefix = selectedTitleStyle, selectedSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(fmt.Sprintf("Page %d · #%d", it.Page, it.Index)))
		b.WriteByte('\n')
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%d jobs", it.Jobs)))
		b.WriteByte('\n')

		if i < len(items)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RunViewer shows the digests of one crawl in a split-pane view. It returns
// wantQuit=true if the user pressed q/ctrl+c, false if they pressed esc to
// go back to the source picker.
func RunViewer(source string, result Result) (bool, error) {
	m := viewerModel{source: source, result: result}

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	return final.(viewerModel).wantQuit, nil
}
