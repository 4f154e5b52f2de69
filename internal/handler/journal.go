package handler

import (
	"net/http"
	"strconv"

	"github.com/pkordes/belatedly/internal/domain"
)

// ListJournal handles GET /journal.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=50, max=200).
func (s *Server) ListJournal(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(w, r, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	params := domain.NewPaginationParams(page, limit)

	entries, total, err := s.journal.List(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err, "journal")
		return
	}

	data := make([]JournalEntry, 0, len(entries))
	for _, e := range entries {
		data = append(data, journalToResponse(e))
	}
	writeJSON(w, http.StatusOK, JournalPage{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
			Pages: params.Pages(total),
		},
	})
}

// queryInt reads an optional integer query parameter.
func queryInt(w http.ResponseWriter, r *http.Request, key string) (*int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(key+" must be an integer"))
		return nil, false
	}
	return &n, true
}
