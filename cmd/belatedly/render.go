package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pkordes/belatedly/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	todayStyle  = cellStyle.Foreground(lipgloss.Color("205")).Bold(true)
	mutedStyle  = cellStyle.Foreground(lipgloss.Color("241"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers(headers...)
}

// renderOccurrences prints occ as a table. A positive limit truncates it.
func renderOccurrences(w io.Writer, occ []domain.Occurrence, limit int) error {
	if len(occ) == 0 {
		_, err := fmt.Fprintln(w, "No dates yet.")
		return err
	}
	if limit > 0 && limit < len(occ) {
		occ = occ[:limit]
	}

	rows := make([][]string, 0, len(occ))
	for _, o := range occ {
		rows = append(rows, []string{
			o.Record.Name,
			o.Record.Date.Format("2 Jan 2006"),
			o.Next.Format("Mon 2 Jan 2006"),
			domain.DaysUntilLabel(o.DaysUntil),
		})
	}
	t := newTable("NAME", "DATE", "NEXT", "IN").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case occ[row].DaysUntil == 0:
				return todayStyle
			default:
				return cellStyle
			}
		})
	_, err := fmt.Fprintln(w, t)
	return err
}

// renderDrafts prints staged candidates. Drafts without a date are dimmed.
func renderDrafts(w io.Writer, drafts []domain.DraftRecord) error {
	rows := make([][]string, 0, len(drafts))
	for i, d := range drafts {
		date := ""
		if !d.Date.IsZero() {
			date = d.Date.Format(time.DateOnly)
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), d.Name, date})
	}
	t := newTable("#", "NAME", "DATE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case drafts[row].Date.IsZero():
				return mutedStyle
			default:
				return cellStyle
			}
		})
	_, err := fmt.Fprintln(w, t)
	return err
}
