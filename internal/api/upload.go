package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/and161185/nullscape-admin/internal/model"
)

// UploadField is the multipart field every file is sent under.
const UploadField = "files"

// FilePart is one file of a multipart upload.
type FilePart struct {
	Name string
	Body io.Reader
}

type uploadList struct {
	Files []model.UploadedFile `json:"files"`
}

// Upload posts files as multipart/form-data to /uploads and returns what the server stored.
func (c *Client) Upload(ctx context.Context, files ...FilePart) ([]model.UploadedFile, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to upload")
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile(UploadField, f.Name)
		if err != nil {
			return nil, fmt.Errorf("multipart %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	p := &payload{data: buf.Bytes(), contentType: w.FormDataContentType()}
	out, err := DecodeAs[uploadList](c.send(ctx, http.MethodPost, "/uploads", nil, p, c.autoRefresh))
	if err != nil {
		return nil, err
	}
	return out.Files, nil
}

// ListUploads returns previously uploaded files.
func (c *Client) ListUploads(ctx context.Context) ([]model.UploadedFile, error) {
	out, err := DecodeAs[uploadList](c.Get(ctx, "/uploads", nil))
	if err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Download fetches an absolute or base-relative URL with the client's auth,
// returning the raw body. Used for CSV exports.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ExportURL(path), nil)
	if err != nil {
		return nil, err
	}
	if token := c.accessToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, &Error{Err: err}
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Status: res.StatusCode, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, newHTTPError(res.StatusCode, data)
	}
	return data, nil
}

// ExportURL is the absolute URL of a base-relative export path.
func (c *Client) ExportURL(path string) string {
	u, err := c.URL(path, nil)
	if err != nil {
		return c.baseURL + path
	}
	return u
}
