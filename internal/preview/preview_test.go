package preview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobdigest/internal/config"
	"github.com/amishk599/jobdigest/internal/digest"
	"github.com/amishk599/jobdigest/internal/filter"
	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/poller"
)

type pagedSource struct {
	pages  map[int][]model.RawEntry
	errs   map[int]error
	closed bool
}

func (s *pagedSource) Name() string { return "paged" }

func (s *pagedSource) FetchPage(_ context.Context, page int) ([]model.RawEntry, error) {
	if err, ok := s.errs[page]; ok {
		return nil, err
	}
	return s.pages[page], nil
}

func (s *pagedSource) Normalize(entry model.RawEntry) (model.JobRecord, error) {
	return entry.(model.JobRecord), nil
}

func (s *pagedSource) Close() error {
	s.closed = true
	return nil
}

func jobs(n int, title string) []model.RawEntry {
	out := make([]model.RawEntry, n)
	for i := range out {
		out[i] = model.JobRecord{Title: title, Company: "Acme", Salary: model.SalaryPlaceholder}
	}
	return out
}

func newCrawler() *Crawler {
	return &Crawler{
		MaxPages:  5,
		BatchSize: 10,
		Matcher:   filter.NewKeywordFilter([]string{"qa"}),
		Renderer:  digest.Renderer{Label: "104"},
		Now:       func() time.Time { return time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC) },
	}
}

func TestCrawl_RendersDigestsWithoutPublishing(t *testing.T) {
	src := &pagedSource{pages: map[int][]model.RawEntry{
		1: append(jobs(12, "QA Engineer"), jobs(3, "Backend Engineer")...),
		2: jobs(4, "Senior QA"),
	}}

	res := newCrawler().Crawl(context.Background(), src)

	require.Len(t, res.Items, 3)
	assert.Equal(t, Item{Page: 1, Index: 1, Jobs: 10, Body: res.Items[0].Body}, res.Items[0])
	assert.Equal(t, 2, res.Items[1].Index)
	assert.Equal(t, 2, res.Items[1].Jobs)
	assert.Equal(t, 2, res.Items[2].Page)
	assert.Contains(t, res.Items[0].Body, "📄 第 1 頁職缺資訊 (104)")
	assert.Contains(t, res.Items[0].Body, "2026/10/16 09:30:00")
	assert.Contains(t, res.Items[1].Body, "【職缺 11】")
	assert.NotContains(t, res.Items[0].Body, "Backend")

	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, 16, res.Matched)
	assert.Equal(t, poller.StopEmptyPage, res.Stop)
	assert.True(t, src.closed)
}

func TestCrawl_FetchErrorEndsCrawl(t *testing.T) {
	boom := errors.New("connection reset")
	src := &pagedSource{
		pages: map[int][]model.RawEntry{1: jobs(2, "QA")},
		errs:  map[int]error{2: boom},
	}

	res := newCrawler().Crawl(context.Background(), src)

	assert.Len(t, res.Items, 1)
	assert.Equal(t, poller.StopFetchFailed, res.Stop)
	assert.ErrorIs(t, res.Err, boom)
	assert.True(t, src.closed)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m tea.Model, msgs ...tea.Msg) tea.Model {
	t.Helper()
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func TestViewer_NavigatesDigests(t *testing.T) {
	res := Result{
		Items: []Item{
			{Page: 1, Index: 1, Jobs: 10, Body: "first digest"},
			{Page: 1, Index: 2, Jobs: 3, Body: "second digest"},
		},
		Pages: 2, Matched: 13, Stop: poller.StopEmptyPage,
	}
	var m tea.Model = viewerModel{source: "104", result: res}
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	vm := m.(viewerModel)
	assert.Contains(t, vm.View(), "first digest")
	assert.Contains(t, vm.View(), "page 1 · digest 1")

	m = update(t, m, key("down"), key("down"))
	vm = m.(viewerModel)
	assert.Equal(t, 1, vm.cursor, "cursor stops at the last digest")
	assert.Contains(t, vm.View(), "second digest")

	m = update(t, m, key("tab"), key("up"))
	vm = m.(viewerModel)
	assert.Equal(t, 1, vm.cursor, "arrows scroll the body when it has focus")
	assert.Equal(t, paneBody, vm.activePane)
}

func TestViewer_QuitAndBack(t *testing.T) {
	m, cmd := viewerModel{}.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.False(t, m.(viewerModel).wantQuit)

	m, cmd = viewerModel{}.Update(key("q"))
	require.NotNil(t, cmd)
	assert.True(t, m.(viewerModel).wantQuit)
}

func TestViewer_EmptyResultShowsReason(t *testing.T) {
	var m tea.Model = viewerModel{source: "cake", result: Result{Err: errors.New("HTTP 403")}}
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()
	assert.Contains(t, view, "(no digests)")
	assert.Contains(t, view, "HTTP 403")
}

func TestPicker_SelectAndQuit(t *testing.T) {
	sources := []config.SourceConfig{
		{Name: "104", Provider: "104", MaxPages: 5},
		{Name: "cake", Provider: "cake", MaxPages: 9},
	}

	var m tea.Model = pickerModel{sources: sources, chosen: pickerPending}
	m = update(t, m, key("j"), key("j"))
	assert.Equal(t, 1, m.(pickerModel).cursor)
	assert.True(t, strings.Contains(m.View(), "> cake (cake, up to 9 pages)"))

	m = update(t, m, key("enter"))
	assert.Equal(t, 1, m.(pickerModel).chosen)

	m = update(t, pickerModel{sources: sources, chosen: pickerPending}, key("q"))
	assert.Equal(t, pickerQuit, m.(pickerModel).chosen)
}

func TestLoader_CancelThenDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var m tea.Model = loaderModel{sourceName: "yourator", ctx: ctx, cancel: cancel}

	m = update(t, m, key("ctrl+c"))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Contains(t, m.View(), "Stopping yourator")

	m, cmd := m.Update(crawlDoneMsg{result: Result{Stop: poller.StopCancelled}})
	require.NotNil(t, cmd)
	assert.Equal(t, poller.StopCancelled, m.(loaderModel).result.Stop)
	assert.Empty(t, m.View())
}
