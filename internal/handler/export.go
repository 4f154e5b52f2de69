package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkordes/belatedly/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV
// export. name and date come first so the file can be imported again.
var csvHeaders = []string{
	"name", "date", "next_occurrence", "days_until", "external_id", "id",
}

// GetExport implements GET /export.
// It returns every record, soonest next occurrence first.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	rows := s.export.Export()

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, buildJSONResponse(rows))
	case "csv":
		buf := buildCSV(rows)
		filename := fmt.Sprintf("belatedly-%s.csv", s.records.Now().Format(time.DateOnly))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	default:
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("format must be csv or json"))
	}
}

// buildJSONResponse converts domain rows to the JSON response.
func buildJSONResponse(rows []domain.ExportRow) []ExportRow {
	out := make([]ExportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, ExportRow{
			ID:             r.ID,
			Name:           r.Name,
			Date:           r.Date,
			NextOccurrence: r.NextOccurrence,
			DaysUntil:      r.DaysUntil,
			ExternalID:     r.ExternalID,
		})
	}
	return out
}

// buildCSV encodes domain rows as CSV.
func buildCSV(rows []domain.ExportRow) *bytes.Buffer {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		w.Write([]string{
			r.Name,
			r.Date,
			r.NextOccurrence,
			strconv.Itoa(r.DaysUntil),
			r.ExternalID,
			r.ID,
		})
	}
	w.Flush()
	return &buf
}
