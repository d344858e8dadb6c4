package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"vitalsync-import/internal/domain"
)

// auditConflictHeader 冲突表表头
var auditConflictHeader = []string{
	"Date",
	"Metric",
	"CSV Value",
	"JSON Value",
	"Resolution",
}

// auditDayHeader 按日来源表表头
var auditDayHeader = []string{
	"Date",
	"Metric",
	"Source",
	"Row Count",
	"Files",
	"Final Value",
}

// BuildAuditWorkbook 拉取导入区间内每天的诊断并生成审计 Excel
// 区间两端各多看一天：核对睡眠跨日分桶时经常要对照相邻日
func (s *importService) BuildAuditWorkbook(ctx context.Context, result *domain.TakeoutImportResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("result is required")
	}

	days := make(map[string]*domain.DiagnosticDay)
	if result.DateRange != nil && result.DateRange.Start != "" {
		start, err := time.Parse("2006-01-02", result.DateRange.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid range start %q: %w", result.DateRange.Start, err)
		}
		end, err := time.Parse("2006-01-02", result.DateRange.End)
		if err != nil {
			return nil, fmt.Errorf("invalid range end %q: %w", result.DateRange.End, err)
		}

		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			date := d.Format("2006-01-02")
			day, err := s.diagRepo.GetDayDiagnostics(ctx, date)
			if err != nil {
				return nil, err
			}
			if day != nil {
				days[date] = day
			}
		}

		for _, edge := range []string{result.DateRange.Start, result.DateRange.End} {
			neighbors, err := s.diagRepo.GetNeighborDiagnostics(ctx, edge)
			if err != nil {
				return nil, err
			}
			for _, day := range neighbors {
				if _, ok := days[day.Date]; !ok {
					days[day.Date] = day
				}
			}
		}
	}

	return GenerateImportAudit(result, days)
}

// GenerateImportAudit 生成一次导入的审计 Excel（冲突表 + 按日来源表）
// 给人工核对 "这一天为什么显示这个数" 用，不在导入主路径上
func GenerateImportAudit(result *domain.TakeoutImportResult, days map[string]*domain.DiagnosticDay) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeConflictSheet(f, headerStyle, result.ConflictsDetected); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeDaySourceSheet(f, headerStyle, days); err != nil {
		f.Close()
		return nil, err
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel: %w", err)
	}
	return buf.Bytes(), nil
}

// writeConflictSheet 写入冲突表
func writeConflictSheet(f *excelize.File, headerStyle int, conflicts []domain.ConflictEntry) error {
	sheetName := "Conflicts"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := writeHeader(f, sheetName, headerStyle, auditConflictHeader); err != nil {
		return err
	}

	for rowIdx, c := range conflicts {
		row := rowIdx + 2
		values := []any{
			c.Date,
			string(c.Metric),
			floatCell(c.CSVValue),
			floatCell(c.JSONValue),
			c.Resolution,
		}
		if err := writeRow(f, sheetName, row, values); err != nil {
			return err
		}
	}
	return nil
}

// writeDaySourceSheet 写入按日来源表（每日期×指标一行）
func writeDaySourceSheet(f *excelize.File, headerStyle int, days map[string]*domain.DiagnosticDay) error {
	sheetName := "Day Sources"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeHeader(f, sheetName, headerStyle, auditDayHeader); err != nil {
		return err
	}

	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	row := 1
	for _, date := range dates {
		day := days[date]
		for _, metric := range domain.Metrics {
			md, ok := day.Metrics[metric]
			if !ok {
				continue
			}
			row++
			files := ""
			for i, name := range md.Files {
				if i > 0 {
					files += "; "
				}
				files += name
			}
			values := []any{
				date,
				string(metric),
				string(md.Source),
				md.RowCount,
				files,
				floatCell(md.Value),
			}
			if err := writeRow(f, sheetName, row, values); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheetName string, style int, headers []string) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		col64, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col64, col64, 18); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheetName string, row int, values []any) error {
	for col, v := range values {
		if v == nil || v == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

func floatCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
