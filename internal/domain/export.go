package domain

// ExportRow is a single row in the record export.
// Date is "2006-01-02" formatted so the CSV form can be fed back into import.
type ExportRow struct {
	ID             string
	Name           string
	Date           string
	NextOccurrence string
	DaysUntil      int
	ExternalID     string
}
