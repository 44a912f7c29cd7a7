package wfclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/mibandtool/wftool/internal/model"
)

// File is a named binary part of a multipart upload.
type File struct {
	Name   string
	Reader io.Reader
}

// Preview slots accepted by the upload endpoint, in form field order.
const (
	PreviewMain = "previewImg"
	PreviewAod  = "previewImgAod"
	PreviewAod2 = "previewImgAod2"
	PreviewAod3 = "previewImgAod3"
)

// PreviewSlots lists every preview field the upload form carries.
var PreviewSlots = []string{PreviewMain, PreviewAod, PreviewAod2, PreviewAod3}

// UploadForm is the metadata plus optional binary of a watchface upload.
// A non-empty UpdateID edits an existing resource; File may then be nil to
// change metadata only.
type UploadForm struct {
	File      *File
	Name      string
	Desc      string
	Type      string
	StaticPNG bool
	UpdateID  model.ID
	MitanTID  string
	MitanType string
	// Previews maps a preview slot to an already uploaded image URL.
	Previews map[string]string
}

// UploadPreview uploads a preview image and returns its hosted URL.
func (c *Client) UploadPreview(ctx context.Context, f File) (string, error) {
	body, contentType, err := encodeMultipart(func(mw *multipart.Writer) error {
		return writeFile(mw, "file", f)
	})
	if err != nil {
		return "", err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/watchface/uploadPreviewImgMi7", nil, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	link, err := call[string](c, req)
	if err != nil {
		return "", fmt.Errorf("upload preview: %w", err)
	}
	return link, nil
}

// UploadWatchface creates or updates a watchface.
func (c *Client) UploadWatchface(ctx context.Context, sess *model.Session, form UploadForm) error {
	body, contentType, err := encodeMultipart(func(mw *multipart.Writer) error {
		if form.File != nil {
			if err := writeFile(mw, "file", *form.File); err != nil {
				return err
			}
		}
		fields := [][2]string{
			{"name", form.Name},
			{"desc", form.Desc},
			{"type", form.Type},
			{"staticPng", strconv.FormatBool(form.StaticPNG)},
			{"updateId", form.UpdateID.String()},
			{"mitantid", form.MitanTID},
			{"mitantype", form.MitanType},
		}
		for _, slot := range PreviewSlots {
			if link := form.Previews[slot]; link != "" {
				fields = append(fields, [2]string{slot, link})
			}
		}
		for _, kv := range fields {
			if err := mw.WriteField(kv[0], kv[1]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/watchface/uploadBinSelfMi7", nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("type", form.Type)
	authorize(req, sess)
	if _, err := call[json.RawMessage](c, req); err != nil {
		return fmt.Errorf("upload watchface: %w", err)
	}
	return nil
}

func encodeMultipart(fill func(*multipart.Writer) error) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := fill(mw); err != nil {
		return nil, "", fmt.Errorf("encode form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("encode form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeFile(mw *multipart.Writer, field string, f File) error {
	part, err := mw.CreateFormFile(field, f.Name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f.Reader)
	return err
}
