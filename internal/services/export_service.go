package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"agilboard/internal/infrastructure"
)

// Workbook sheet names
const (
	SheetSummary = "Summary"
	SheetRoles   = "Roles"
	SheetTypes   = "Types"
	SheetRecent  = "Recent"
)

// recentColumns are read from each recent problem object; other keys are ignored.
var recentColumns = []string{"id", "description", "type", "status", "priority", "createdAt"}

// DashboardSource produces dashboard snapshots.
type DashboardSource interface {
	GetDashboardData(ctx context.Context) (*DashboardData, error)
}

// ExportService renders dashboard snapshots as XLSX workbooks.
type ExportService struct {
	dashboard DashboardSource
	logger    *slog.Logger
	now       func() time.Time
}

// NewExportService creates a new export service
func NewExportService(dashboard DashboardSource, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		dashboard: dashboard,
		logger:    infrastructure.WithComponent(logger, "export_service"),
		now:       time.Now,
	}
}

// ExportDashboard builds a fresh snapshot and returns it as a workbook with its file name.
// The caller must Close the file.
func (s *ExportService) ExportDashboard(ctx context.Context) (*excelize.File, string, error) {
	data, err := s.dashboard.GetDashboardData(ctx)
	if err != nil {
		return nil, "", err
	}

	f, err := BuildDashboardWorkbook(data)
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("dashboard_%s.xlsx", s.now().Format("2006-01-02"))
	s.logger.InfoContext(ctx, "dashboard exported", slog.String("filename", filename))
	return f, filename, nil
}

// BuildDashboardWorkbook lays data out on the Summary, Roles, Types and Recent sheets.
func BuildDashboardWorkbook(data *DashboardData) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeWorkbook(f, data); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return f, nil
}

func writeWorkbook(f *excelize.File, data *DashboardData) error {
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, name := range []string{SheetRoles, SheetTypes, SheetRecent} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	us, ps, sys := data.UserStats, data.ProblemStats, data.SystemStatus
	summary := [][]any{
		{"Metric", "Value"},
		{"Total users", us.TotalUsers},
		{"Available users", us.AvailableUsers},
		{"Unavailable users", us.UnavailableUsers},
		{"Total problems", ps.TotalProblems},
	}
	for _, status := range KnownStatuses {
		summary = append(summary, []any{"Problems " + status, ps.ProblemsByStatus[status]})
	}
	summary = append(summary,
		[]any{"User service", sys.UserService},
		[]any{"Problem service", sys.ProblemService},
		[]any{"Notification service", sys.NotificationService},
		[]any{"Available technicians", sys.AvailableTechnicians},
	)
	if err := writeRows(f, SheetSummary, header, summary); err != nil {
		return err
	}

	if err := writeRows(f, SheetRoles, header, countRows("Role", us.UsersByRole)); err != nil {
		return err
	}
	if err := writeRows(f, SheetTypes, header, countRows("Type", ps.ProblemsByType)); err != nil {
		return err
	}
	if err := writeRows(f, SheetRecent, header, recentRows(ps.RecentProblems)); err != nil {
		return err
	}

	if err := f.SetColWidth(SheetSummary, "A", "A", 25); err != nil {
		return err
	}
	return f.SetColWidth(SheetRecent, "B", "B", 50)
}

// writeRows writes rows from A1 down and styles the first one as a header.
func writeRows(f *excelize.File, sheet string, headerStyle int, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}

// countRows sorts a histogram by descending count, then by key.
func countRows(label string, counts map[string]int) [][]any {
	keys := lo.Keys(counts)
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	rows := [][]any{{label, "Count"}}
	for _, k := range keys {
		rows = append(rows, []any{k, counts[k]})
	}
	return rows
}

func recentRows(recent []json.RawMessage) [][]any {
	rows := [][]any{lo.Map(recentColumns, func(c string, _ int) any { return c })}
	for _, raw := range recent {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			continue
		}
		rows = append(rows, lo.Map(recentColumns, func(c string, _ int) any {
			return cellValue(obj[c])
		}))
	}
	return rows
}

// cellValue keeps scalars as they are and renders anything nested as JSON text.
func cellValue(v any) any {
	switch v := v.(type) {
	case nil:
		return ""
	case string, float64, bool:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
