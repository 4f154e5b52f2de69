package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// CSVRows reads name,date rows. Extra columns are ignored, so an export file
// can be fed back in. A first row whose first cell is "name" is a header.
func CSVRows(r io.Reader) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		cr.TrimLeadingSpace = true

		first := true
		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Row{}, fmt.Errorf("csv: %w", err))
				return
			}
			line, _ := cr.FieldPos(0)
			if first {
				first = false
				if strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
					continue
				}
			}

			row := Row{Line: line, Name: strings.TrimSpace(rec[0])}
			if len(rec) > 1 {
				row.Date = strings.TrimSpace(rec[1])
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}
