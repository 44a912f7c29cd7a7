package wfclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mibandtool/wftool/internal/model"
)

// Comments lists the first page of comments on a watchface. openID may be
// empty; when set the service marks the caller's own comments deletable.
func (c *Client) Comments(ctx context.Context, id model.ID, openID string) ([]model.Comment, error) {
	q := url.Values{}
	q.Set("relationid", id.String())
	q.Set("type", model.CommentTypeWatchface)
	q.Set("page", "1")
	req, err := c.newRequest(ctx, http.MethodPost, "/comment/get", q, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("openId", openID)
	comments, err := call[[]model.Comment](c, req)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// AddComment posts a comment as the session's user.
func (c *Client) AddComment(ctx context.Context, sess *model.Session, id model.ID, content string) error {
	q := url.Values{}
	q.Set("relationid", id.String())
	q.Set("type", model.CommentTypeWatchface)
	q.Set("openid", sess.OpenID)
	q.Set("nickname", sess.Nickname)
	q.Set("content", content)
	q.Set("avator", sess.Avatar)
	req, err := c.newRequest(ctx, http.MethodPost, "/comment/add", q, nil)
	if err != nil {
		return err
	}
	req.Header.Set("validtoken", sess.ValidToken)
	if _, err := call[json.RawMessage](c, req); err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// DeleteComment removes one of the session user's comments.
func (c *Client) DeleteComment(ctx context.Context, sess *model.Session, commentID model.ID) error {
	q := url.Values{}
	q.Set("id", commentID.String())
	req, err := c.newRequest(ctx, http.MethodPost, "/comment/del", q, nil)
	if err != nil {
		return err
	}
	req.Header.Set("type", model.DefaultDevice)
	authorize(req, sess)
	if _, err := call[json.RawMessage](c, req); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
