// Package tui implements the interactive watchface browser.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mibandtool/wftool/internal/model"
	"github.com/mibandtool/wftool/internal/render"
)

const (
	defaultWidth  = 100
	defaultHeight = 24

	// loadMoreThreshold is how close to the last row the cursor must get
	// before the next page is requested.
	loadMoreThreshold = 3

	// chromeHeight is the rows taken by header, status and help lines.
	chromeHeight = 5

	searchCharLimit  = 64
	searchInputWidth = 40
)

const (
	keyQuit    = "q"
	keyCtrlC   = "ctrl+c"
	keyUp      = "up"
	keyK       = "k"
	keyDown    = "down"
	keyJ       = "j"
	keyPgUp    = "pgup"
	keyPgDown  = "pgdown"
	keyHome    = "g"
	keyEnd     = "G"
	keySort    = "s"
	keySlash   = "/"
	keyEsc     = "esc"
	keyEnter   = "enter"
	keyRefresh = "r"
)

// sortCycle is the order the sort key steps through.
var sortCycle = []int{model.SortLatest, model.SortDownloads, model.SortViews}

// Listing is the part of the listing reconciler the browser drives.
type Listing interface {
	Snapshot() model.ListingState
	Refresh(ctx context.Context) (bool, error)
	LoadMore(ctx context.Context) (bool, error)
	SetSort(ctx context.Context, sort int) (bool, error)
	Search(ctx context.Context, keyword string) (bool, error)
	ClearSearch(ctx context.Context) (bool, error)
}

// loadedMsg reports that a listing operation finished.
type loadedMsg struct {
	fetched bool
	err     error
}

// BrowseModel is the Bubble Tea model for scrolling through the listing.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View.
type BrowseModel struct {
	ctx     context.Context
	listing Listing
	notices Notices
	styles  render.Styles

	state   model.ListingState
	cursor  int
	offset  int
	loading bool
	status  string

	searching bool
	input     textinput.Model
	spinner   spinner.Model

	width    int
	height   int
	quitting bool
}

// NewBrowseModel builds the browser. notices may be nil.
func NewBrowseModel(ctx context.Context, listing Listing, notices Notices, styles render.Styles) BrowseModel {
	ti := textinput.New()
	ti.Placeholder = "搜索表盘..."
	ti.CharLimit = searchCharLimit
	ti.Width = searchInputWidth

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Accent

	state := listing.Snapshot()
	return BrowseModel{
		ctx:     ctx,
		listing: listing,
		notices: notices,
		styles:  styles,
		state:   state,
		loading: !state.Loaded,
		input:   ti,
		spinner: sp,
		width:   defaultWidth,
		height:  defaultHeight,
	}
}

// Init starts the spinner and, when nothing was loaded yet, the first page.
func (m BrowseModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.notices != nil {
		cmds = append(cmds, m.notices.wait())
	}
	if !m.state.Loaded {
		cmds = append(cmds, m.run(m.listing.Refresh))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model state.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.clampOffset()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case noticeMsg:
		m.status = string(msg)
		if m.notices == nil {
			return m, nil
		}
		return m, m.notices.wait()
	case loadedMsg:
		return m.handleLoaded(msg)
	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m BrowseModel) handleLoaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	m.state = m.listing.Snapshot()
	// Another operation may still be in flight; its own loadedMsg clears this.
	m.loading = m.state.Loading
	if m.cursor >= len(m.state.Items) {
		m.cursor = max(len(m.state.Items)-1, 0)
	}
	m.clampOffset()
	if msg.err != nil {
		return m, nil
	}
	// A short page can leave the cursor inside the trigger zone.
	cmd := m.maybeLoadMore()
	return m, cmd
}

func (m BrowseModel) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		m.searching = false
		m.input.Blur()
		return m, nil
	case keyEnter:
		m.searching = false
		m.input.Blur()
		keyword := m.input.Value()
		return m.start(func(ctx context.Context) (bool, error) {
			return m.listing.Search(ctx, keyword)
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m BrowseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit, keyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case keyUp, keyK:
		m.move(-1)
	case keyDown, keyJ:
		m.move(1)
	case keyPgUp:
		m.move(-m.visibleRows())
	case keyPgDown:
		m.move(m.visibleRows())
	case keyHome:
		m.move(-len(m.state.Items))
	case keyEnd:
		m.move(len(m.state.Items))
	case keySort:
		next := nextSort(m.state.Filter.Sort)
		return m.start(func(ctx context.Context) (bool, error) {
			return m.listing.SetSort(ctx, next)
		})
	case keySlash:
		m.searching = true
		m.input.SetValue(m.state.Filter.Keyword)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd
	case keyEsc:
		if m.state.Filter.Searching() {
			return m.start(m.listing.ClearSearch)
		}
		return m, nil
	case keyRefresh:
		return m.start(m.listing.Refresh)
	default:
		return m, nil
	}
	cmd := m.maybeLoadMore()
	return m, cmd
}

// start runs a filter transition. The list empties right away; the new page
// arrives as a loadedMsg.
func (m BrowseModel) start(op func(context.Context) (bool, error)) (tea.Model, tea.Cmd) {
	m.loading = true
	m.cursor, m.offset = 0, 0
	m.state.Items = nil
	return m, m.run(op)
}

func (m BrowseModel) run(op func(context.Context) (bool, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		fetched, err := op(ctx)
		return loadedMsg{fetched: fetched, err: err}
	}
}

// maybeLoadMore is the scroll trigger: it requests the next page once the
// cursor is within loadMoreThreshold rows of the end.
func (m *BrowseModel) maybeLoadMore() tea.Cmd {
	if m.loading || !m.state.HasMore {
		return nil
	}
	if m.cursor < len(m.state.Items)-loadMoreThreshold {
		return nil
	}
	m.loading = true
	return m.run(m.listing.LoadMore)
}

func (m *BrowseModel) move(delta int) {
	n := len(m.state.Items)
	if n == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.clampOffset()
}

func (m *BrowseModel) visibleRows() int {
	return max(m.height-chromeHeight, 1)
}

func (m *BrowseModel) clampOffset() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	m.offset = max(m.offset, 0)
}

func nextSort(current int) int {
	for i, s := range sortCycle {
		if s == current {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[0]
}

// Selected returns the watchface under the cursor.
func (m BrowseModel) Selected() (model.Watchface, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Items) {
		return model.Watchface{}, false
	}
	return m.state.Items[m.cursor], true
}

// View renders the browser.
func (m BrowseModel) View() string {
	if m.quitting {
		return ""
	}
	sections := []string{m.renderHeader()}

	if len(m.state.Items) == 0 {
		if m.loading {
			sections = append(sections, fmt.Sprintf(" %s 加载中...", m.spinner.View()))
		} else {
			sections = append(sections, m.styles.Muted.Render("暂无表盘"))
		}
	} else {
		sections = append(sections, m.renderRows())
	}

	footer := m.styles.Status.Render(m.status)
	if m.loading && len(m.state.Items) > 0 {
		footer = m.spinner.View() + " 加载中..."
	} else if !m.state.HasMore && m.state.Loaded {
		footer = strings.TrimSpace(footer + "  " + m.styles.Muted.Render("没有更多了"))
	}
	sections = append(sections, footer)

	if m.searching {
		sections = append(sections, m.input.View())
	} else {
		sections = append(sections, m.styles.Muted.Render("↑/↓ 移动  s 排序  / 搜索  esc 清除搜索  r 刷新  q 退出"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m BrowseModel) renderHeader() string {
	f := m.state.Filter
	head := fmt.Sprintf("设备 %s · 排序 %s · %d 个", f.Device, model.SortName(f.Sort), len(m.state.Items))
	if f.Searching() {
		head += " · 搜索 “" + f.Keyword + "”"
	}
	return m.styles.Title.Render(head)
}

func (m BrowseModel) renderRows() string {
	end := min(m.offset+m.visibleRows(), len(m.state.Items))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		wf := m.state.Items[i]
		row := fmt.Sprintf("%-8s %s  %s",
			wf.ID, wf.Name, m.styles.Muted.Render(fmt.Sprintf("%s · 浏览 %s · 下载 %s",
				wf.Nickname, render.Count(wf.Views), render.Count(wf.DownloadTimes))))
		if i == m.cursor {
			row = m.styles.Selected.Render(fmt.Sprintf("%-8s %s", wf.ID, wf.Name))
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}
