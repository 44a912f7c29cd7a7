package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mibandtool/wftool/internal/model"
	"github.com/mibandtool/wftool/internal/wfclient"
)

// watchfaceExts are the binary formats the service accepts.
var watchfaceExts = []string{".bin", ".rpk"}

// UploadAPI is the subset of the remote client used for uploads.
type UploadAPI interface {
	UploadPreview(ctx context.Context, f wfclient.File) (string, error)
	UploadWatchface(ctx context.Context, sess *model.Session, form wfclient.UploadForm) error
}

// UploadRequest describes a new upload or, with UpdateID set, an edit.
type UploadRequest struct {
	FilePath  string
	Name      string
	Desc      string
	Type      string
	StaticPNG bool
	UpdateID  model.ID
	MitanTID  string
	MitanType string
	// Previews maps a preview slot (wfclient.PreviewMain, ...) to a local
	// image path.
	Previews map[string]string
}

// Editing reports whether the request updates an existing resource.
func (r UploadRequest) Editing() bool {
	return r.UpdateID != ""
}

// UploadService validates and submits watchface uploads.
type UploadService struct {
	api       UploadAPI
	sessions  *SessionService
	resources *ResourceService
	notifier  Notifier
	logger    zerolog.Logger
}

// NewUploadService constructs UploadService.
func NewUploadService(api UploadAPI, sessions *SessionService, resources *ResourceService, notifier Notifier, logger zerolog.Logger) *UploadService {
	return &UploadService{api: api, sessions: sessions, resources: resources, notifier: orDiscard(notifier), logger: logger}
}

// Validate checks the request without touching the network.
func (r UploadRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Type) == "" {
		return ErrMissingFields
	}
	if r.FilePath == "" {
		if !r.Editing() {
			return ErrFileRequired
		}
		return nil
	}
	ext := strings.ToLower(filepath.Ext(r.FilePath))
	for _, ok := range watchfaceExts {
		if ext == ok {
			return nil
		}
	}
	return ErrBadFileType
}

// Submit uploads previews first, then the watchface referencing them.
func (s *UploadService) Submit(ctx context.Context, req UploadRequest) error {
	sess, err := s.sessions.RequireSession(ctx)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		s.notifier.Notify(err.Error())
		return err
	}
	action := "上传"
	if req.Editing() {
		action = "更新"
	}

	form := wfclient.UploadForm{
		Name:      strings.TrimSpace(req.Name),
		Desc:      req.Desc,
		Type:      req.Type,
		StaticPNG: req.StaticPNG,
		UpdateID:  req.UpdateID,
		MitanTID:  req.MitanTID,
		MitanType: req.MitanType,
		Previews:  s.uploadPreviews(ctx, req.Previews),
	}

	if req.FilePath != "" {
		f, err := os.Open(req.FilePath)
		if err != nil {
			s.notifier.Notify(failureMessage(action, err))
			return fmt.Errorf("open watchface: %w", err)
		}
		defer f.Close()
		form.File = &wfclient.File{Name: filepath.Base(req.FilePath), Reader: f}
	}

	if err := s.api.UploadWatchface(ctx, sess, form); err != nil {
		s.logger.Warn().Err(err).Str("name", form.Name).Msg("upload failed")
		s.notifier.Notify(failureMessage(action, err))
		return err
	}
	s.logger.Info().Str("name", form.Name).Str("type", form.Type).Bool("edit", req.Editing()).Msg("watchface submitted")
	s.notifier.Notify(action + "成功！")
	return nil
}

// uploadPreviews uploads every given preview concurrently. A preview that
// fails is logged and left out of the result.
func (s *UploadService) uploadPreviews(ctx context.Context, previews map[string]string) map[string]string {
	links := make([]string, len(wfclient.PreviewSlots))
	g, gctx := errgroup.WithContext(ctx)
	for i, slot := range wfclient.PreviewSlots {
		p := previews[slot]
		if p == "" {
			continue
		}
		g.Go(func() error {
			link, err := s.uploadPreview(gctx, p)
			if err != nil {
				s.logger.Warn().Err(err).Str("slot", slot).Str("path", p).Msg("preview upload failed")
				return nil
			}
			links[i] = link
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]string)
	for i, slot := range wfclient.PreviewSlots {
		if links[i] != "" {
			out[slot] = links[i]
		}
	}
	return out
}

func (s *UploadService) uploadPreview(ctx context.Context, p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return s.api.UploadPreview(ctx, wfclient.File{Name: filepath.Base(p), Reader: f})
}

// LoadForEdit pre-fills an edit request from one of the user's uploads.
func (s *UploadService) LoadForEdit(ctx context.Context, id model.ID) (*UploadRequest, error) {
	wf, err := s.resources.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UploadRequest{
		Name:      wf.Name,
		Desc:      wf.Desc,
		Type:      wf.Type,
		StaticPNG: wf.PreviewAod != "",
		UpdateID:  id,
		MitanTID:  wf.MitanTID,
		MitanType: wf.MitanType,
	}, nil
}
