package handler

import (
	"errors"
	"net/http"
	"path/filepath"
)

// ListDrafts handles GET /import.
func (s *Server) ListDrafts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.draftList())
}

// UploadImport handles POST /import. The file arrives as the multipart
// field "file"; its extension picks the parser.
func (s *Server) UploadImport(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload {
		s.writeError(w, r, &http.MaxBytesError{Limit: s.maxUpload}, "")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("multipart form with a file field is required"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("file is required"))
		return
	}
	defer file.Close()

	n, err := s.imports.Ingest(r.Context(), filepath.Base(header.Filename), file)
	if err != nil {
		s.writeError(w, r, err, "file")
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{Staged: n, DraftList: s.draftList()})
}

// ClearDrafts handles DELETE /import.
func (s *Server) ClearDrafts(w http.ResponseWriter, _ *http.Request) {
	s.imports.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// ToggleDraft handles POST /import/{id}/toggle.
func (s *Server) ToggleDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.imports.ToggleSelected(id); err != nil {
		s.writeError(w, r, err, "draft")
		return
	}
	writeJSON(w, http.StatusOK, s.draftList())
}

// SelectAllDrafts handles POST /import/select-all.
func (s *Server) SelectAllDrafts(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.optionalSelected(w, r)
	if !ok {
		return
	}
	s.imports.SetAllSelected(selected)
	writeJSON(w, http.StatusOK, s.draftList())
}

// ToggleAllDrafts handles POST /import/toggle-all.
func (s *Server) ToggleAllDrafts(w http.ResponseWriter, _ *http.Request) {
	s.imports.ToggleAll()
	writeJSON(w, http.StatusOK, s.draftList())
}

// RemoveDraft handles DELETE /import/{id}.
func (s *Server) RemoveDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.imports.Remove(id); err != nil {
		s.writeError(w, r, err, "draft")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CommitImport handles POST /import/commit.
// Partial failures are reported in the body with status 200.
func (s *Server) CommitImport(w http.ResponseWriter, r *http.Request) {
	res, err := s.imports.Commit(r.Context())
	status := http.StatusOK
	if err != nil && res.Imported == 0 {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, ImportResponse{
		Imported: res.Imported,
		Skipped:  res.Skipped,
		Failed:   res.Failed,
		Errors:   joinedMessages(err),
	})
}

func (s *Server) draftList() DraftList {
	drafts := s.imports.List()
	data := make([]Draft, 0, len(drafts))
	for _, d := range drafts {
		data = append(data, draftToResponse(d))
	}
	return DraftList{
		Data:        data,
		AnySelected: s.imports.AnySelected(),
		AllSelected: s.imports.AllSelected(),
	}
}
