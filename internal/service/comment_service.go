package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mibandtool/wftool/internal/model"
)

// CommentAPI is the subset of the remote client used for comments.
type CommentAPI interface {
	Comments(ctx context.Context, id model.ID, openID string) ([]model.Comment, error)
	AddComment(ctx context.Context, sess *model.Session, id model.ID, content string) error
	DeleteComment(ctx context.Context, sess *model.Session, commentID model.ID) error
}

// CommentService lists, posts and deletes watchface comments.
type CommentService struct {
	api      CommentAPI
	sessions *SessionService
	notifier Notifier
	logger   zerolog.Logger
}

// NewCommentService constructs CommentService.
func NewCommentService(api CommentAPI, sessions *SessionService, notifier Notifier, logger zerolog.Logger) *CommentService {
	return &CommentService{api: api, sessions: sessions, notifier: orDiscard(notifier), logger: logger}
}

// List returns the comments on a watchface. Anonymous callers are allowed.
func (s *CommentService) List(ctx context.Context, id model.ID) ([]model.Comment, error) {
	var openID string
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		openID = sess.OpenID
	}
	comments, err := s.api.Comments(ctx, id, openID)
	if err != nil {
		s.logger.Warn().Err(err).Str("id", id.String()).Msg("load comments failed")
		s.notifier.Notify("加载评论失败")
		return nil, err
	}
	return comments, nil
}

// Add posts content as the logged-in user.
func (s *CommentService) Add(ctx context.Context, id model.ID, content string) error {
	sess, err := s.sessions.RequireSession(ctx)
	if err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		s.notifier.Notify(ErrEmptyComment.Error())
		return ErrEmptyComment
	}
	if err := s.api.AddComment(ctx, sess, id, content); err != nil {
		s.notifier.Notify(failureMessage("评论发布", err))
		return err
	}
	s.notifier.Notify("评论发布成功")
	return nil
}

// Delete removes one of the logged-in user's comments.
func (s *CommentService) Delete(ctx context.Context, commentID model.ID) error {
	sess, err := s.sessions.RequireSession(ctx)
	if err != nil {
		return err
	}
	if err := s.api.DeleteComment(ctx, sess, commentID); err != nil {
		s.notifier.Notify(failureMessage("删除", err))
		return err
	}
	s.notifier.Notify("评论已删除")
	return nil
}
