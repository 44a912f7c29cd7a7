package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mibandtool/wftool/internal/model"
)

// DownloadAPI is the subset of the remote client used for details and downloads.
type DownloadAPI interface {
	TrackView(ctx context.Context, id model.ID) error
	DownloadURL(ctx context.Context, id model.ID) (string, error)
	FetchFile(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// Detail is a watchface with its comments.
type Detail struct {
	Watchface model.Watchface `json:"watchface" yaml:"watchface"`
	Comments  []model.Comment `json:"comments" yaml:"comments"`
}

// WatchfaceService serves the detail view and downloads.
type WatchfaceService struct {
	api      DownloadAPI
	comments *CommentService
	notifier Notifier
	logger   zerolog.Logger
}

// NewWatchfaceService constructs WatchfaceService.
func NewWatchfaceService(api DownloadAPI, comments *CommentService, notifier Notifier, logger zerolog.Logger) *WatchfaceService {
	return &WatchfaceService{api: api, comments: comments, notifier: orDiscard(notifier), logger: logger}
}

// Detail loads the comments of wf and records a view. A failed view count
// is only logged; a failed comment load leaves Comments empty.
func (s *WatchfaceService) Detail(ctx context.Context, wf model.Watchface) *Detail {
	d := &Detail{Watchface: wf}
	if comments, err := s.comments.List(ctx, wf.ID); err == nil {
		d.Comments = comments
	}
	if err := s.api.TrackView(ctx, wf.ID); err != nil {
		s.logger.Debug().Err(err).Str("id", wf.ID.String()).Msg("track view failed")
	}
	return d
}

// Download resolves the file of id and writes it into dir. It returns the
// written path.
func (s *WatchfaceService) Download(ctx context.Context, id model.ID, dir string) (string, error) {
	link, err := s.api.DownloadURL(ctx, id)
	if err != nil {
		s.notifier.Notify(failureMessage("获取下载链接", err))
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	target := filepath.Join(dir, downloadName(link, id))

	tmp, err := os.CreateTemp(dir, ".wftool-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	n, err := s.api.FetchFile(ctx, link, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.notifier.Notify("下载失败，请重试")
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("save download: %w", err)
	}
	s.logger.Info().Str("id", id.String()).Str("path", target).Int64("bytes", n).Msg("downloaded")
	s.notifier.Notify("下载完成")
	return target, nil
}

// downloadName picks the last path segment of the link, falling back to
// "<id>.bin" when it is empty or unsafe.
func downloadName(link string, id model.ID) string {
	fallback := id.String() + ".bin"
	u, err := url.Parse(link)
	if err != nil {
		return fallback
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `\/`) {
		return fallback
	}
	return name
}
