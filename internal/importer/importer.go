// Package importer turns uploaded files into import candidates.
//
// Row sources are lazy and single-use: each wraps the reader it was given
// and consumes it while iterated.
package importer

import (
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/belatedly/internal/domain"
)

// DefaultMaxRows is how many rows of a file become candidates.
const DefaultMaxRows = 100

// Row is one raw name/date pair read from a file. Line is 1-based where the
// format has lines, 0 otherwise.
type Row struct {
	Line int
	Name string
	Date string
}

// Rows picks a row source by file extension. Only .csv and .ics are accepted.
func Rows(filename string, r io.Reader) (iter.Seq2[Row, error], error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return CSVRows(r), nil
	case ".ics", ".ical":
		return ICSRows(r), nil
	default:
		return nil, fmt.Errorf("importer.Rows: %w: unsupported file type %q", domain.ErrValidation, filepath.Ext(filename))
	}
}

// Drafts converts up to limit rows into drafts. Rows without a name are
// skipped and do not count. A date that cannot be read leaves the draft's
// date zero. limit <= 0 selects DefaultMaxRows.
func Drafts(rows iter.Seq2[Row, error], limit int, now time.Time) ([]domain.DraftRecord, error) {
	if limit <= 0 {
		limit = DefaultMaxRows
	}
	var out []domain.DraftRecord
	for row, err := range rows {
		if err != nil {
			return nil, fmt.Errorf("importer.Drafts: %w: %w", domain.ErrValidation, err)
		}
		if row.Name == "" {
			continue
		}
		d, _ := ParseDate(row.Date, now)
		out = append(out, domain.DraftRecord{ID: uuid.New(), Name: row.Name, Date: d})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
