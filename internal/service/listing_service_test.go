package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibandtool/wftool/internal/model"
	"github.com/mibandtool/wftool/internal/wfclient"
)

type fetchCall struct {
	search  bool
	device  string
	sort    int
	keyword string
	page    int
	size    int
}

// fakeFetcher serves pages from a script and records every call. When gate is
// set each fetch blocks until a value is sent on it.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   []fetchCall
	pages   map[int][]model.Watchface
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func newFakeFetcher(sizes ...int) *fakeFetcher {
	f := &fakeFetcher{pages: map[int][]model.Watchface{}}
	for i, n := range sizes {
		page := i + 1
		for j := 0; j < n; j++ {
			f.pages[page] = append(f.pages[page], model.Watchface{ID: model.ID(fmt.Sprintf("%d-%d", page, j))})
		}
	}
	return f
}

func (f *fakeFetcher) ListByTag(ctx context.Context, device string, sort, page, size int) ([]model.Watchface, error) {
	return f.serve(ctx, fetchCall{device: device, sort: sort, page: page, size: size})
}

func (f *fakeFetcher) Search(ctx context.Context, device, keyword string, page int) ([]model.Watchface, error) {
	return f.serve(ctx, fetchCall{search: true, device: device, keyword: keyword, page: page})
}

func (f *fakeFetcher) serve(ctx context.Context, c fetchCall) ([]model.Watchface, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[c.page], nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) lastCall() fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

func newListing(f Fetcher, n Notifier) *ListingService {
	return NewListingService(f, n, zerolog.Nop(), model.ListingFilter{Device: "o66"}, 20)
}

func TestListingAccumulatesUntilEmptyPage(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(20, 20, 7)
	s := newListing(f, nil)

	fetched, err := s.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, fetched)

	prev := len(s.Snapshot().Items)
	assert.Equal(t, 20, prev)

	want := 20
	for _, n := range []int{20, 7} {
		fetched, err := s.LoadMore(ctx)
		require.NoError(t, err)
		require.True(t, fetched)
		want += n
		got := len(s.Snapshot().Items)
		assert.GreaterOrEqual(t, got, prev)
		assert.Equal(t, want, got)
		prev = got
	}

	// Page 4 is empty: has-more turns off but the list is kept.
	fetched, err = s.LoadMore(ctx)
	require.NoError(t, err)
	require.True(t, fetched)
	snap := s.Snapshot()
	assert.False(t, snap.HasMore)
	assert.Equal(t, 4, snap.Page)
	assert.Len(t, snap.Items, 47)

	calls := f.callCount()
	fetched, err = s.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, calls, f.callCount())

	last := f.lastCall()
	assert.Equal(t, fetchCall{device: "o66", page: 4, size: 20}, last)
}

func TestListingFilterChangeResetsBeforeFetchResolves(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(20, 20)
	s := newListing(f, nil)
	_, err := s.Refresh(ctx)
	require.NoError(t, err)
	_, err = s.LoadMore(ctx)
	require.NoError(t, err)
	require.Len(t, s.Snapshot().Items, 40)

	f.mu.Lock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{})
	f.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := s.SetSort(ctx, model.SortViews)
		done <- err
	}()

	<-f.entered
	snap := s.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, 1, snap.Page)
	assert.True(t, snap.Loading)
	assert.Equal(t, model.SortViews, snap.Filter.Sort)

	f.gate <- struct{}{}
	require.NoError(t, <-done)
	snap = s.Snapshot()
	assert.Len(t, snap.Items, 20)
	assert.False(t, snap.Loading)
	assert.Equal(t, model.SortViews, f.lastCall().sort)
}

func TestListingSecondTriggerWhileLoadingIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(20, 20)
	f.gate = make(chan struct{})
	f.entered = make(chan struct{})
	s := newListing(f, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Refresh(ctx)
		done <- err
	}()
	<-f.entered

	fetched, err := s.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, 1, f.callCount())

	f.gate <- struct{}{}
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.callCount())
	assert.False(t, s.Snapshot().Loading)
}

func TestListingDiscardsStalePageAndRefetches(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(5)
	f.gate = make(chan struct{})
	f.entered = make(chan struct{})
	s := newListing(f, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Refresh(ctx)
		done <- err
	}()
	<-f.entered

	// Filter changes while page 1 of the old filter is in flight.
	fetched, err := s.Search(ctx, "neon")
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Empty(t, s.Snapshot().Items)

	f.gate <- struct{}{}
	<-f.entered
	f.gate <- struct{}{}
	require.NoError(t, <-done)

	assert.Equal(t, 2, f.callCount())
	last := f.lastCall()
	assert.True(t, last.search)
	assert.Equal(t, "neon", last.keyword)
	assert.Equal(t, 1, last.page)

	snap := s.Snapshot()
	assert.Equal(t, "neon", snap.Filter.Keyword)
	assert.Len(t, snap.Items, 5)
	assert.False(t, snap.Loading)
}

func TestListingFailureLeavesStateAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(20, 20)
	n := &recordingNotifier{}
	s := newListing(f, n)
	_, err := s.Refresh(ctx)
	require.NoError(t, err)
	before := s.Snapshot()

	f.mu.Lock()
	f.err = &wfclient.APIError{Code: 500, Msg: "服务器繁忙"}
	f.mu.Unlock()

	fetched, err := s.LoadMore(ctx)
	assert.True(t, fetched)
	require.Error(t, err)
	after := s.Snapshot()
	assert.Equal(t, before, after)
	assert.False(t, after.Loading)

	f.mu.Lock()
	f.err = errors.New("connection refused")
	f.mu.Unlock()
	_, err = s.Search(ctx, "neon")
	require.Error(t, err)
	assert.False(t, s.Snapshot().Loading)

	assert.Equal(t, []string{"加载失败：服务器繁忙", "搜索失败，请重试"}, n.all())

	// Recovery: the next trigger fetches page 1 of the search again.
	f.mu.Lock()
	f.err = nil
	f.mu.Unlock()
	fetched, err = s.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Equal(t, 1, f.lastCall().page)
	assert.Len(t, s.Snapshot().Items, 20)
}

func TestListingSearchKeepsKeywordAcrossSortAndDevice(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(3)
	n := &recordingNotifier{}
	s := newListing(f, n)

	_, err := s.Search(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyKeyword)
	assert.Equal(t, 0, f.callCount())
	assert.Equal(t, []string{"请输入搜索关键词"}, n.all())

	_, err = s.Search(ctx, " neon ")
	require.NoError(t, err)
	_, err = s.SetSort(ctx, model.SortDownloads)
	require.NoError(t, err)
	assert.True(t, f.lastCall().search)
	assert.Equal(t, "neon", f.lastCall().keyword)

	_, err = s.SetDevice(ctx, "n66")
	require.NoError(t, err)
	assert.Equal(t, fetchCall{search: true, device: "n66", keyword: "neon", page: 1}, f.lastCall())

	_, err = s.ClearSearch(ctx)
	require.NoError(t, err)
	assert.Equal(t, fetchCall{device: "n66", sort: model.SortDownloads, page: 1, size: 20}, f.lastCall())
}

func TestListingRestoreAndPageSize(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(2, 2, 2)
	s := newListing(f, nil)

	ok := s.Restore(model.ListingState{
		Filter:  model.ListingFilter{Device: "o66", Sort: 1},
		Page:    2,
		Loaded:  true,
		HasMore: true,
		Items:   []model.Watchface{{ID: "a"}, {ID: "b"}},
	})
	require.True(t, ok)
	assert.Equal(t, 20, s.Snapshot().PageSize)

	_, err := s.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, f.lastCall().page)
	assert.Len(t, s.Snapshot().Items, 4)

	_, err = s.SetPageSize(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, fetchCall{device: "o66", sort: 1, page: 1, size: 50}, f.lastCall())
	assert.Len(t, s.Snapshot().Items, 2)
}
