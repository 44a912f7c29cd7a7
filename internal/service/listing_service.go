package service

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mibandtool/wftool/internal/model"
)

// Fetcher retrieves one page of watchfaces.
type Fetcher interface {
	ListByTag(ctx context.Context, device string, sort, page, size int) ([]model.Watchface, error)
	Search(ctx context.Context, device, keyword string, page int) ([]model.Watchface, error)
}

// ListingService reconciles paged results into a single scrollable list.
//
// At most one fetch is in flight. A trigger that arrives while a fetch is
// outstanding is a no-op and reports fetched=false. A filter change resets the
// list immediately; if a fetch was in flight its result is discarded and the
// in-flight caller fetches page 1 of the new filter before returning.
type ListingService struct {
	fetcher  Fetcher
	notifier Notifier
	logger   zerolog.Logger

	mu    sync.Mutex
	state model.ListingState
	gen   uint64
}

// NewListingService builds a reconciler for the given initial filter.
func NewListingService(fetcher Fetcher, notifier Notifier, logger zerolog.Logger, filter model.ListingFilter, pageSize int) *ListingService {
	if pageSize <= 0 {
		pageSize = model.DefaultPageSize
	}
	s := &ListingService{
		fetcher:  fetcher,
		notifier: orDiscard(notifier),
		logger:   logger,
	}
	s.state.Filter = filter
	s.state.PageSize = pageSize
	s.resetLocked()
	return s
}

// Snapshot returns a copy of the current state.
func (s *ListingService) Snapshot() model.ListingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Restore replaces the state with a previously saved snapshot. It is ignored
// while a fetch is in flight.
func (s *ListingService) Restore(state model.ListingState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Loading {
		return false
	}
	state = state.Clone()
	state.Loading = false
	if state.PageSize <= 0 {
		state.PageSize = s.state.PageSize
	}
	if state.Page <= 0 {
		state.Page = 1
	}
	s.state = state
	s.gen++
	return true
}

// Refresh drops the accumulated list and loads page 1 of the current filter.
func (s *ListingService) Refresh(ctx context.Context) (bool, error) {
	return s.transition(ctx, func(*model.ListingFilter) {})
}

// LoadMore fetches and appends the next page. It is a no-op when a fetch is in
// flight or the previous page came back empty.
func (s *ListingService) LoadMore(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.state.Loading || !s.state.HasMore {
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Unlock()
	return s.load(ctx)
}

// SetSort switches the sort order. An active keyword is kept.
func (s *ListingService) SetSort(ctx context.Context, sort int) (bool, error) {
	return s.transition(ctx, func(f *model.ListingFilter) { f.Sort = sort })
}

// Search switches to keyword search results.
func (s *ListingService) Search(ctx context.Context, keyword string) (bool, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		s.notifier.Notify(ErrEmptyKeyword.Error())
		return false, ErrEmptyKeyword
	}
	return s.transition(ctx, func(f *model.ListingFilter) { f.Keyword = keyword })
}

// ClearSearch returns to the sorted listing.
func (s *ListingService) ClearSearch(ctx context.Context) (bool, error) {
	return s.transition(ctx, func(f *model.ListingFilter) { f.Keyword = "" })
}

// SetDevice switches the device filter. An active keyword is kept.
func (s *ListingService) SetDevice(ctx context.Context, device string) (bool, error) {
	return s.transition(ctx, func(f *model.ListingFilter) { f.Device = device })
}

// SetPageSize changes the page size; offsets change with it so the list resets.
func (s *ListingService) SetPageSize(ctx context.Context, size int) (bool, error) {
	if size <= 0 {
		size = model.DefaultPageSize
	}
	s.mu.Lock()
	s.state.PageSize = size
	s.mu.Unlock()
	return s.Refresh(ctx)
}

func (s *ListingService) transition(ctx context.Context, mutate func(*model.ListingFilter)) (bool, error) {
	s.mu.Lock()
	mutate(&s.state.Filter)
	s.resetLocked()
	s.gen++
	s.mu.Unlock()
	return s.load(ctx)
}

func (s *ListingService) resetLocked() {
	s.state.Page = 1
	s.state.Loaded = false
	s.state.HasMore = true
	s.state.Items = nil
}

func (s *ListingService) load(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return false, nil
	}
	s.state.Loading = true

	for {
		gen := s.gen
		filter := s.state.Filter
		size := s.state.PageSize
		page := s.state.Page
		if s.state.Loaded {
			page++
		}
		s.mu.Unlock()

		items, err := s.fetch(ctx, filter, page, size)

		s.mu.Lock()
		if gen != s.gen {
			s.logger.Debug().Int("page", page).Msg("discarding page fetched for a superseded filter")
			if ctx.Err() == nil {
				continue
			}
			err = ctx.Err()
		}
		s.state.Loading = false
		if err != nil {
			s.mu.Unlock()
			s.logger.Warn().Err(err).
				Str("device", filter.Device).
				Int("sort", filter.Sort).
				Str("keyword", filter.Keyword).
				Int("page", page).
				Msg("listing fetch failed")
			s.notifier.Notify(failureMessage(actionFor(filter), err))
			return true, err
		}
		s.mergeLocked(page, items)
		s.logger.Debug().Int("page", page).Int("received", len(items)).Int("total", len(s.state.Items)).Msg("page merged")
		s.mu.Unlock()
		return true, nil
	}
}

func (s *ListingService) fetch(ctx context.Context, filter model.ListingFilter, page, size int) ([]model.Watchface, error) {
	if filter.Searching() {
		return s.fetcher.Search(ctx, filter.Device, filter.Keyword, page)
	}
	return s.fetcher.ListByTag(ctx, filter.Device, filter.Sort, page, size)
}

func (s *ListingService) mergeLocked(page int, items []model.Watchface) {
	if page == 1 {
		s.state.Items = append([]model.Watchface(nil), items...)
	} else {
		s.state.Items = append(s.state.Items, items...)
	}
	s.state.Page = page
	s.state.Loaded = true
	s.state.HasMore = len(items) > 0
}

func actionFor(filter model.ListingFilter) string {
	if filter.Searching() {
		return "搜索"
	}
	return "加载"
}
