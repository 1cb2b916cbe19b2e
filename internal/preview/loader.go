package preview

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

type crawlDoneMsg struct {
	result Result
}

type spinnerTickMsg struct{}

type loaderModel struct {
	sourceName string
	crawl      func(ctx context.Context) Result
	ctx        context.Context
	cancel     context.CancelFunc
	frame      int
	result     Result
	cancelled  bool
	done       bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doCrawl(), m.tick())
}

func (m loaderModel) doCrawl() tea.Cmd {
	crawl, ctx := m.crawl, m.ctx
	return func() tea.Msg {
		return crawlDoneMsg{result: crawl(ctx)}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case crawlDoneMsg:
		m.result = msg.result
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		if m.done {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// The crawl sees the cancellation before its next page and
			// reports back through crawlDoneMsg.
			m.cancelled = true
			m.cancel()
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	status := "Crawling"
	if m.cancelled {
		status = "Stopping"
	}
	return fmt.Sprintf("%s %s %s...\n", spinnerStyle.Render(spinnerFrames[m.frame]), status, m.sourceName)
}

// RunLoader shows a spinner while crawl runs. It renders inline (no alt
// screen). ctrl+c cancels the crawl and returns whatever it collected.
func RunLoader(ctx context.Context, sourceName string, crawl func(ctx context.Context) Result) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := loaderModel{
		sourceName: sourceName,
		crawl:      crawl,
		ctx:        ctx,
		cancel:     cancel,
	}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return Result{}, err
	}
	return final.(loaderModel).result, nil
}
