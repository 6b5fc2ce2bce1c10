package apitest

import (
	"io"
	"net/http"
	"path"

	"github.com/and161185/nullscape-admin/internal/api"
	"github.com/and161185/nullscape-admin/internal/model"
)

const maxUploadMemory = 32 << 20

// Uploads returns the stored file descriptors.
func (s *Server) Uploads() []model.UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.UploadedFile(nil), s.uploads...)
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"files": s.Uploads()})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Expected multipart form data")
		return
	}
	fhs := r.MultipartForm.File[api.UploadField]
	if len(fhs) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	stored := make([]model.UploadedFile, 0, len(fhs))
	for _, fh := range fhs {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unreadable file "+fh.Filename)
			return
		}
		_, err = io.Copy(io.Discard, f)
		_ = f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unreadable file "+fh.Filename)
			return
		}
		name := path.Base(fh.Filename)
		stored = append(stored, model.UploadedFile{URL: "/uploads/" + newID() + path.Ext(name), Filename: name})
	}

	s.mu.Lock()
	s.uploads = append(s.uploads, stored...)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"files": stored})
}
