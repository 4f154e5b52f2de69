package service

import (
	"time"

	"github.com/pkordes/belatedly/internal/domain"
)

// ExportService builds the flat record export.
type ExportService struct {
	records *RecordService
}

// NewExportService constructs an ExportService reading from records.
func NewExportService(records *RecordService) *ExportService {
	return &ExportService{records: records}
}

// Export returns one row per record, soonest next occurrence first.
func (s *ExportService) Export() []domain.ExportRow {
	upcoming := s.records.Upcoming()
	rows := make([]domain.ExportRow, 0, len(upcoming))
	for _, o := range upcoming {
		rows = append(rows, domain.ExportRow{
			ID:             o.Record.ID.String(),
			Name:           o.Record.Name,
			Date:           o.Record.Date.Format(time.DateOnly),
			NextOccurrence: o.Next.Format(time.DateOnly),
			DaysUntil:      o.DaysUntil,
			ExternalID:     o.Record.ExternalID,
		})
	}
	return rows
}
