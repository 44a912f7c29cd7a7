package tui

import (
	"context"
	"fmt"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibandtool/wftool/internal/model"
	"github.com/mibandtool/wftool/internal/render"
	"github.com/mibandtool/wftool/internal/service"
)

type call struct {
	sort    int
	keyword string
	page    int
}

// pagedFetcher returns pages of perPage items up to pages pages.
type pagedFetcher struct {
	mu      sync.Mutex
	perPage int
	pages   int
	calls   []call
}

func (f *pagedFetcher) ListByTag(_ context.Context, _ string, sort, page, _ int) ([]model.Watchface, error) {
	return f.serve(call{sort: sort, page: page}), nil
}

func (f *pagedFetcher) Search(_ context.Context, _, keyword string, page int) ([]model.Watchface, error) {
	return f.serve(call{keyword: keyword, page: page}), nil
}

func (f *pagedFetcher) serve(c call) []model.Watchface {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if c.page > f.pages {
		return nil
	}
	out := make([]model.Watchface, f.perPage)
	for i := range out {
		out[i] = model.Watchface{ID: model.ID(fmt.Sprintf("%d-%d", c.page, i)), Name: "face"}
	}
	return out
}

func (f *pagedFetcher) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTestBrowser(t *testing.T, f *pagedFetcher) BrowseModel {
	t.Helper()
	listing := service.NewListingService(f, nil, zerolog.Nop(), model.ListingFilter{Device: "o66"}, f.perPage)
	m := NewBrowseModel(context.Background(), listing, nil, render.Plain())
	require.True(t, m.loading)
	m = step(t, m, m.run(listing.Refresh))
	require.False(t, m.loading)
	return m
}

// step executes cmd synchronously and feeds its message back into m.
func step(t *testing.T, m BrowseModel, cmd tea.Cmd) BrowseModel {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(BrowseModel)
}

func press(m BrowseModel, msg tea.KeyMsg) (BrowseModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(BrowseModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseScrollTriggersLoadMore(t *testing.T) {
	f := &pagedFetcher{perPage: 10, pages: 2}
	m := newTestBrowser(t, f)
	require.Len(t, m.state.Items, 10)

	var cmd tea.Cmd
	for i := 0; i < 6; i++ {
		m, cmd = press(m, tea.KeyMsg{Type: tea.KeyDown})
		assert.Nil(t, cmd, "no fetch before the threshold (cursor %d)", m.cursor)
	}
	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 7, m.cursor)
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	// Moving while the page is in flight does not issue a second fetch.
	m, cmd2 := press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Nil(t, cmd2)

	m = step(t, m, cmd)
	assert.Len(t, m.state.Items, 20)
	assert.Equal(t, 2, f.last().page)
	assert.False(t, m.loading)

	m, cmd = press(m, runes("G"))
	require.NotNil(t, cmd)
	m = step(t, m, cmd)
	assert.False(t, m.state.HasMore)
	assert.Len(t, m.state.Items, 20)

	_, cmd = press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "没有更多了")
}

func TestBrowseSortResetsImmediately(t *testing.T) {
	f := &pagedFetcher{perPage: 10, pages: 3}
	m := newTestBrowser(t, f)

	m, cmd := press(m, runes("s"))
	require.NotNil(t, cmd)
	assert.Empty(t, m.state.Items)
	assert.True(t, m.loading)
	assert.Contains(t, m.View(), "加载中")

	m = step(t, m, cmd)
	assert.Equal(t, call{sort: model.SortDownloads, page: 1}, f.last())
	assert.Equal(t, model.SortDownloads, m.state.Filter.Sort)
	assert.Len(t, m.state.Items, 10)
	assert.Equal(t, 0, m.cursor)
}

func TestBrowseSearchAndClear(t *testing.T) {
	f := &pagedFetcher{perPage: 10, pages: 1}
	m := newTestBrowser(t, f)

	m, _ = press(m, runes("/"))
	require.True(t, m.searching)
	for _, r := range "neon" {
		m, _ = press(m, runes(string(r)))
	}
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.searching)
	m = step(t, m, cmd)
	assert.Equal(t, call{keyword: "neon", page: 1}, f.last())
	assert.Contains(t, m.View(), "neon")

	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	m = step(t, m, cmd)
	assert.Equal(t, call{page: 1}, f.last())
	assert.False(t, m.state.Filter.Searching())

	// esc without an active search is a no-op.
	_, cmd = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
}

func TestBrowseStatusAndQuit(t *testing.T) {
	f := &pagedFetcher{perPage: 3, pages: 1}
	m := newTestBrowser(t, f)

	next, _ := m.Update(noticeMsg("已切换到 小米手环9"))
	m = next.(BrowseModel)
	assert.Contains(t, m.View(), "已切换到 小米手环9")

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, model.ID("1-0"), sel.ID)

	m, cmd := press(m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestNoticesDropWhenFull(t *testing.T) {
	n := NewNotices()
	for i := 0; i < noticeBuffer+5; i++ {
		n.Notify("x")
	}
	assert.Len(t, n, noticeBuffer)
	msg := n.wait()()
	assert.Equal(t, noticeMsg("x"), msg)
}

func TestNextSortCycles(t *testing.T) {
	assert.Equal(t, model.SortDownloads, nextSort(model.SortLatest))
	assert.Equal(t, model.SortViews, nextSort(model.SortDownloads))
	assert.Equal(t, model.SortLatest, nextSort(model.SortViews))
	assert.Equal(t, model.SortLatest, nextSort(42))
}
