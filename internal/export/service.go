package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/commandos-health/commandos/internal/audit"
	"github.com/xuri/excelize/v2"
)

// AuditRecorder records one row per successful export.
type AuditRecorder interface {
	Record(ctx context.Context, dto audit.LogDTO, userID *int64, ipAddress, userAgent string) (*audit.Entry, bool, error)
}

// Service serializes tabular data into downloadable files. Output is
// buffered in memory before being returned, so a failed export leaves no
// partial file behind.
type Service struct {
	recorder AuditRecorder
	logger   *slog.Logger
}

func NewService(recorder AuditRecorder, logger *slog.Logger) *Service {
	return &Service{
		recorder: recorder,
		logger:   logger,
	}
}

// Export builds the file and appends the audit row. The audit insert is
// best effort; a failed insert is logged but the export still succeeds.
func (s *Service) Export(ctx context.Context, dto ExportDTO, userID *int64, ipAddress, userAgent string) (*Result, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var result *Result
	var err error
	switch dto.Format {
	case FormatCSV:
		result, err = buildCSV(dto)
	case FormatXLSX:
		result, err = buildXLSX(dto)
	default:
		return nil, ErrInvalidFormat
	}
	if err != nil {
		s.logger.Error("export serialization failed", "format", dto.Format, "error", err)
		return nil, err
	}

	_, _, auditErr := s.recorder.Record(ctx, audit.LogDTO{
		EventType: audit.EventDataExport,
		Action:    fmt.Sprintf("exported %d rows as %s", result.RowCount, dto.Format),
		Details: map[string]interface{}{
			"filename":  result.Filename,
			"row_count": result.RowCount,
			"format":    dto.Format,
		},
	}, userID, ipAddress, userAgent)
	if auditErr != nil {
		s.logger.Warn("export audit row failed", "error", auditErr)
	}

	s.logger.Info("export completed",
		"format", dto.Format,
		"rows", result.RowCount,
		"filename", result.Filename)

	return result, nil
}

// headerFor derives the column order from the first row. Keys are sorted
// so the same dataset always serializes identically.
func headerFor(row map[string]interface{}) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cellString renders a JSON-decoded value for a spreadsheet cell.
func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func resolveFilename(dto ExportDTO, ext string) string {
	if dto.Filename != "" {
		return dto.Filename
	}
	return fmt.Sprintf("export_%s.%s", time.Now().Format("20060102_150405"), ext)
}

// buildCSV emits a UTF-8 BOM-prefixed RFC 4180 CSV. The BOM keeps Excel
// from mangling non-ASCII content.
func buildCSV(dto ExportDTO) (*Result, error) {
	header := headerFor(dto.Data[0])

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range dto.Data {
		record := make([]string, len(header))
		for i, key := range header {
			record[i] = cellString(row[key])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return &Result{
		Filename:    resolveFilename(dto, "csv"),
		ContentType: "text/csv; charset=utf-8",
		Bytes:       buf.Bytes(),
		RowCount:    len(dto.Data),
	}, nil
}

// buildXLSX builds a single-sheet workbook with a bold header row and
// columns sized to their widest cell.
func buildXLSX(dto ExportDTO) (*Result, error) {
	header := headerFor(dto.Data[0])

	sheet := dto.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	widths := make([]float64, len(header))
	for i, key := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, key); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, boldStyle); err != nil {
			return nil, err
		}
		widths[i] = float64(len(key))
	}

	for rowIdx, row := range dto.Data {
		for colIdx, key := range header {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			value := cellString(row[key])
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
			if w := float64(len(value)); w > widths[colIdx] {
				widths[colIdx] = w
			}
		}
	}

	for i := range header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := widths[i] + 2
		if width > 60 {
			width = 60
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return &Result{
		Filename:    resolveFilename(dto, "xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Bytes:       buf.Bytes(),
		RowCount:    len(dto.Data),
	}, nil
}
