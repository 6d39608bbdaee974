package api

import (
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/genomatch/internal/library"
)

const maxUploadBytes = 256 << 20 // 256 MB

// FileHandler accepts and removes FASTA files in the library.
type FileHandler struct {
	svc *library.Service
}

// NewFileHandler creates a handler backed by the library service.
func NewFileHandler(svc *library.Service) *FileHandler {
	return &FileHandler{svc: svc}
}

// libraryPath extracts the file path from the URL (everything after
// /api/library/). Supports encoded slashes (e.g. plants%2Frose.fa).
func libraryPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Upload handles POST /api/library (multipart/form-data, field "file").
// An optional "dir" form field places the file in a subdirectory.
//
//	@Summary		Add a FASTA file to the library
//	@Tags			library
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"FASTA file (.fa .fasta .fna .ffn .fas, optionally .gz .zst .lz4)"
//	@Param			dir		formData	string	false	"Target subdirectory"
//	@Success		201		{object}	FileUploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/library [post]
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		render(w, r, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		render(w, r, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name := path.Base(strings.ReplaceAll(header.Filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		render(w, r, http.StatusBadRequest, errorBody("filename is required"))
		return
	}
	rel := name
	if dir := strings.Trim(r.FormValue("dir"), "/"); dir != "" {
		rel = path.Join(dir, name)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		render(w, r, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	added, err := h.svc.AddFile(r.Context(), rel, data)
	if err != nil {
		renderError(w, r, "add file", err)
		return
	}
	render(w, r, http.StatusCreated, added)
}

// Delete handles DELETE /api/library/*.
//
//	@Summary		Remove a FASTA file from the library
//	@Tags			library
//	@Param			path	path	string	true	"File path"
//	@Success		204		"File deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/library/{path} [delete]
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := libraryPath(r)
	if p == "" {
		render(w, r, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteFile(r.Context(), p); err != nil {
		renderError(w, r, "delete file", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFiles handles GET /api/library.
//
//	@Summary		List library files
//	@Tags			library
//	@Produce		json
//	@Success		200	{array}	FileUploadResponse
//	@Security		BearerAuth
//	@Router			/library [get]
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.ListFiles(r.Context())
	if err != nil {
		renderError(w, r, "list files", err)
		return
	}
	if files == nil {
		files = []FileUploadResponse{}
	}
	render(w, r, http.StatusOK, map[string]any{"files": files})
}
