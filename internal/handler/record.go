package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/belatedly/internal/domain"
)

// ListRecords handles GET /records.
// ?sort=upcoming orders by next occurrence; the default is insertion order.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.recordList(r.URL.Query().Get("sort") == "upcoming"))
}

// CreateRecord handles POST /records.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var body CreateRecordRequest
	if !s.decode(w, r, &body) {
		return
	}

	var (
		rec domain.DateRecord
		err error
	)
	switch {
	case body.Date != nil:
		rec, err = s.records.Create(r.Context(), body.Name, body.Date.Time)
	case body.Month != nil && body.Day != nil:
		rec, err = s.records.CreateOn(r.Context(), body.Name, time.Month(*body.Month), *body.Day)
	default:
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("date, or month and day, is required"))
		return
	}
	if err != nil {
		s.writeError(w, r, err, "record")
		return
	}
	writeJSON(w, http.StatusCreated, recordToResponse(rec, s.records.Now()))
}

// GetRecord handles GET /records/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := s.records.Get(id)
	if err != nil {
		s.writeError(w, r, err, "record")
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec, s.records.Now()))
}

// UpdateRecord handles PATCH /records/{id}.
// An empty body, like {}, leaves edit mode without contacting the calendar.
func (s *Server) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body UpdateRecordRequest
	if !emptyBody(r) && !s.decode(w, r, &body) {
		return
	}

	u := domain.RecordUpdate{Name: body.Name}
	if body.Date != nil {
		d := body.Date.Time
		u.Date = &d
	}
	rec, err := s.records.Update(r.Context(), id, u)
	if err != nil {
		s.writeError(w, r, err, "record")
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec, s.records.Now()))
}

// DeleteRecord handles DELETE /records/{id}.
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.records.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err, "record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetRecordSelected handles PUT /records/{id}/selected.
func (s *Server) SetRecordSelected(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body SelectedRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Selected == nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("selected is required"))
		return
	}
	if err := s.records.SetSelected(id, *body.Selected); err != nil {
		s.writeError(w, r, err, "record")
		return
	}
	writeJSON(w, http.StatusOK, s.recordList(false))
}

// ToggleRecordEditing handles POST /records/{id}/editing.
func (s *Server) ToggleRecordEditing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := s.records.ToggleEditing(id)
	if err != nil {
		s.writeError(w, r, err, "record")
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec, s.records.Now()))
}

// SelectAllRecords handles POST /records/select-all.
// The body is optional; {"selected":false} deselects everything.
func (s *Server) SelectAllRecords(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.optionalSelected(w, r)
	if !ok {
		return
	}
	s.records.SetAllSelected(selected)
	writeJSON(w, http.StatusOK, s.recordList(false))
}

// ToggleAllRecords handles POST /records/toggle-all.
func (s *Server) ToggleAllRecords(w http.ResponseWriter, _ *http.Request) {
	s.records.ToggleAll()
	writeJSON(w, http.StatusOK, s.recordList(false))
}

// DeleteSelectedRecords handles POST /records/delete-selected.
// Failures of single records are reported in the body; the status is 200
// unless nothing could be deleted.
func (s *Server) DeleteSelectedRecords(w http.ResponseWriter, r *http.Request) {
	res, err := s.records.DeleteSelected(r.Context())
	status := http.StatusOK
	if err != nil && res.Deleted == 0 {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, BulkResponse{Deleted: res.Deleted, Failed: res.Failed, Errors: joinedMessages(err)})
}

// RefreshRecords handles POST /records/refresh.
func (s *Server) RefreshRecords(w http.ResponseWriter, r *http.Request) {
	n, err := s.records.Refresh(r.Context())
	if err != nil {
		s.writeError(w, r, err, "calendar")
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{Count: n, RecordList: s.recordList(false)})
}

// --- helpers ----------------------------------------------------------------

func (s *Server) recordList(upcoming bool) RecordList {
	now := s.records.Now()
	var data []Record
	if upcoming {
		occ := s.records.Upcoming()
		data = make([]Record, 0, len(occ))
		for _, o := range occ {
			data = append(data, recordToResponse(o.Record, now))
		}
	} else {
		recs := s.records.List()
		data = make([]Record, 0, len(recs))
		for _, rec := range recs {
			data = append(data, recordToResponse(rec, now))
		}
	}
	return RecordList{
		Data:        data,
		AnySelected: s.records.AnySelected(),
		AllSelected: s.records.AllSelected(),
	}
}

// pathID parses the {id} URL parameter, writing a 422 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// decode reads a JSON body into v, writing the error response itself.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("request body is required"))
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, err, "")
			return false
		}
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("malformed JSON body: "+err.Error()))
		return false
	}
	return true
}

func emptyBody(r *http.Request) bool {
	return r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0
}

// optionalSelected reads {"selected": bool}, defaulting to true without a body.
func (s *Server) optionalSelected(w http.ResponseWriter, r *http.Request) (bool, bool) {
	if emptyBody(r) {
		return true, true
	}
	var body SelectedRequest
	if !s.decode(w, r, &body) {
		return false, false
	}
	if body.Selected == nil {
		return true, true
	}
	return *body.Selected, true
}
