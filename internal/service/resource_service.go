package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mibandtool/wftool/internal/model"
)

// Page window the web client uses for "my resources".
const (
	myResourcesPage = 1
	myResourcesSize = 100
)

// ResourceAPI is the subset of the remote client used for the user's uploads.
type ResourceAPI interface {
	MyResources(ctx context.Context, sess *model.Session, page, size int) ([]model.Watchface, error)
	SetShare(ctx context.Context, sess *model.Session, id model.ID, public bool) error
	DeleteResource(ctx context.Context, sess *model.Session, id model.ID) error
}

// ResourceService manages the logged-in user's uploaded watchfaces.
type ResourceService struct {
	api      ResourceAPI
	sessions *SessionService
	notifier Notifier
	logger   zerolog.Logger
}

// NewResourceService constructs ResourceService.
func NewResourceService(api ResourceAPI, sessions *SessionService, notifier Notifier, logger zerolog.Logger) *ResourceService {
	return &ResourceService{api: api, sessions: sessions, notifier: orDiscard(notifier), logger: logger}
}

// List returns the user's uploads.
func (s *ResourceService) List(ctx context.Context) ([]model.Watchface, error) {
	sess, err := s.sessions.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.api.MyResources(ctx, sess, myResourcesPage, myResourcesSize)
	if err != nil {
		s.notifier.Notify(failureMessage("加载", err))
		return nil, err
	}
	return items, nil
}

// Find looks one upload up by id.
func (s *ResourceService) Find(ctx context.Context, id model.ID) (*model.Watchface, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, ErrResourceNotFound
}

// SetShare makes a resource public or private.
func (s *ResourceService) SetShare(ctx context.Context, id model.ID, public bool) error {
	sess, err := s.sessions.RequireSession(ctx)
	if err != nil {
		return err
	}
	if err := s.api.SetShare(ctx, sess, id, public); err != nil {
		s.notifier.Notify(failureMessage("操作", err))
		return err
	}
	if public {
		s.notifier.Notify("已设为公开")
	} else {
		s.notifier.Notify("已设为不公开")
	}
	return nil
}

// ToggleShare flips the sharing state of a resource and returns the new one.
func (s *ResourceService) ToggleShare(ctx context.Context, id model.ID) (bool, error) {
	wf, err := s.Find(ctx, id)
	if err != nil {
		return false, err
	}
	public := !bool(wf.IsShare)
	return public, s.SetShare(ctx, id, public)
}

// Delete removes a resource permanently.
func (s *ResourceService) Delete(ctx context.Context, id model.ID) error {
	sess, err := s.sessions.RequireSession(ctx)
	if err != nil {
		return err
	}
	if err := s.api.DeleteResource(ctx, sess, id); err != nil {
		s.notifier.Notify(failureMessage("删除", err))
		return err
	}
	s.logger.Info().Str("id", id.String()).Msg("resource deleted")
	s.notifier.Notify("删除成功")
	return nil
}
