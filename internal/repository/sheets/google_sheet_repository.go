package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/dairy/internal/config"
	"github.com/mamadbah2/dairy/internal/domain/models"
)

// WeeklyReportsRange is where weekly report rows are appended.
const WeeklyReportsRange = "WeeklyReports!A:G"

// RowWriter appends one row of cells to a sheet range.
type RowWriter interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
}

// GoogleSheetRepository appends rows through the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReportExporter writes weekly reports as spreadsheet rows.
type ReportExporter struct {
	rows RowWriter
}

// NewReportExporter wraps a row writer.
func NewReportExporter(rows RowWriter) *ReportExporter {
	return &ReportExporter{rows: rows}
}

// AppendWeeklyReport appends one row per report: week, range, owner and totals.
func (e *ReportExporter) AppendWeeklyReport(ctx context.Context, report models.WeeklyReport) error {
	return e.rows.WriteRow(ctx, WeeklyReportsRange, WeeklyReportRow(report))
}

// WeeklyReportRow lays out the cells of a WeeklyReports row.
func WeeklyReportRow(report models.WeeklyReport) []interface{} {
	return []interface{}{
		fmt.Sprintf("%d-W%02d", report.ISOYear, report.ISOWeek),
		report.RangeFrom,
		report.RangeTo,
		report.UserID.Hex(),
		report.Produced,
		report.Sold,
		report.Revenue,
	}
}
