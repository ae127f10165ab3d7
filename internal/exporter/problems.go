package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/samber/lo"

	"agilboard/internal/services"
)

// ProblemHeaders is the header row of a problem export.
var ProblemHeaders = []string{
	"ID",
	"Description",
	"Type",
	"Status",
	"Priority",
	"Assigned Technician",
	"Chef",
	"Created At",
}

// ProblemRecords flattens joined problems into CSV rows, in input order.
func ProblemRecords(problems []services.FlatProblem) [][]string {
	return lo.Map(problems, func(p services.FlatProblem, _ int) []string {
		return []string{
			p.ID.String(),
			p.Description,
			p.Type,
			p.Status,
			p.Priority,
			p.AssignedTechnician,
			p.ChefID,
			formatRaw(p.CreatedAt),
		}
	})
}

// WriteProblems writes problems to w as a BOM-prefixed CSV document.
func WriteProblems(w io.Writer, problems []services.FlatProblem) error {
	return NewCSVWriter(w).WriteSimpleCSV(ProblemHeaders, ProblemRecords(problems))
}

// ProblemsFileName names the export for the day of now.
func ProblemsFileName(now time.Time) string {
	return fmt.Sprintf("problems_%s.csv", now.Format("2006-01-02"))
}
