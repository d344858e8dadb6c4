package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"vitalsync-import/internal/domain"
)

// PostgresDiagnosticsRepository 导入诊断 Repository 实现
type PostgresDiagnosticsRepository struct {
	db *sql.DB
}

func NewPostgresDiagnosticsRepository(db *sql.DB) *PostgresDiagnosticsRepository {
	return &PostgresDiagnosticsRepository{db: db}
}

// 确保实现了接口
var _ DiagnosticsRepository = (*PostgresDiagnosticsRepository)(nil)

// SaveDayDiagnostics 持久化一个日期的诊断
// 每个指标一行 metric_sources，每条睡眠分桶决策一行 sleep_bucket_entries
func (r *PostgresDiagnosticsRepository) SaveDayDiagnostics(ctx context.Context, importID string, day *domain.DiagnosticDay) error {
	if importID == "" || day == nil || day.Date == "" {
		return fmt.Errorf("import_id and day are required")
	}

	metricQuery := `
		INSERT INTO metric_sources (import_id, date, metric, source, files, row_count, value)
		VALUES ($1::uuid, $2::date, $3, $4, $5::jsonb, $6, $7)
	`
	for _, metric := range domain.Metrics {
		md, ok := day.Metrics[metric]
		if !ok {
			continue
		}
		filesJSON, err := json.Marshal(md.Files)
		if err != nil {
			return fmt.Errorf("failed to marshal contributing files: %w", err)
		}
		if md.Files == nil {
			filesJSON = []byte("[]")
		}
		_, err = r.db.ExecContext(ctx, metricQuery,
			importID,
			day.Date,
			metric,
			md.Source,
			string(filesJSON),
			md.RowCount,
			nullFloat(md.Value),
		)
		if err != nil {
			return fmt.Errorf("failed to save metric source for %s/%s: %w", day.Date, metric, err)
		}
	}

	entryQuery := `
		INSERT INTO sleep_bucket_entries (import_id, date, source, raw_end_time, offset_min, minutes, main_sleep, suspicious)
		VALUES ($1::uuid, $2::date, $3, $4, $5, $6, $7, $8)
	`
	for _, entry := range day.SleepEntries {
		var offset sql.NullInt64
		if entry.OffsetMin != nil {
			offset = sql.NullInt64{Int64: int64(*entry.OffsetMin), Valid: true}
		}
		_, err := r.db.ExecContext(ctx, entryQuery,
			importID,
			entry.Date,
			entry.Source,
			entry.RawEndTime,
			offset,
			entry.Minutes,
			entry.MainSleep,
			entry.Suspicious,
		)
		if err != nil {
			return fmt.Errorf("failed to save sleep bucket entry for %s: %w", entry.Date, err)
		}
	}

	return nil
}

// SaveConflicts 持久化冲突记录
func (r *PostgresDiagnosticsRepository) SaveConflicts(ctx context.Context, importID string, conflicts []domain.ConflictEntry) error {
	if importID == "" {
		return fmt.Errorf("import_id is required")
	}

	query := `
		INSERT INTO metric_conflicts (import_id, date, metric, csv_value, json_value, resolution)
		VALUES ($1::uuid, $2::date, $3, $4, $5, $6)
	`
	for _, c := range conflicts {
		_, err := r.db.ExecContext(ctx, query,
			importID,
			c.Date,
			c.Metric,
			nullFloat(c.CSVValue),
			nullFloat(c.JSONValue),
			c.Resolution,
		)
		if err != nil {
			return fmt.Errorf("failed to save conflict for %s/%s: %w", c.Date, c.Metric, err)
		}
	}
	return nil
}

// GetDayDiagnostics 读取某日期最近一次导入的诊断
func (r *PostgresDiagnosticsRepository) GetDayDiagnostics(ctx context.Context, date string) (*domain.DiagnosticDay, error) {
	if date == "" {
		return nil, fmt.Errorf("date is required")
	}

	// 最近一次触碰该日期的导入
	var importID string
	latestQuery := `
		SELECT il.import_id::text
		FROM metric_sources ms
		JOIN import_log il ON il.import_id = ms.import_id
		WHERE ms.date = $1::date
		ORDER BY il.created_at DESC
		LIMIT 1
	`
	err := r.db.QueryRowContext(ctx, latestQuery, date).Scan(&importID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find latest import for %s: %w", date, err)
	}

	day := &domain.DiagnosticDay{
		Date:    date,
		Metrics: make(map[domain.Metric]*domain.MetricDiag),
	}

	metricQuery := `
		SELECT metric, source, files, row_count, value
		FROM metric_sources
		WHERE import_id = $1::uuid AND date = $2::date
	`
	rows, err := r.db.QueryContext(ctx, metricQuery, importID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			metric   string
			source   string
			filesRaw []byte
			rowCount int
			value    sql.NullFloat64
		)
		if err := rows.Scan(&metric, &source, &filesRaw, &rowCount, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metric source: %w", err)
		}
		md := &domain.MetricDiag{
			Source:   domain.Source(source),
			RowCount: rowCount,
			Value:    floatPtr(value),
		}
		if len(filesRaw) > 0 {
			if err := json.Unmarshal(filesRaw, &md.Files); err != nil {
				return nil, fmt.Errorf("failed to unmarshal contributing files: %w", err)
			}
		}
		day.Metrics[domain.Metric(metric)] = md
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metric sources: %w", err)
	}

	entryQuery := `
		SELECT date::text, source, raw_end_time, offset_min, minutes, main_sleep, suspicious
		FROM sleep_bucket_entries
		WHERE import_id = $1::uuid AND date = $2::date
		ORDER BY id
	`
	entryRows, err := r.db.QueryContext(ctx, entryQuery, importID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query sleep bucket entries: %w", err)
	}
	defer entryRows.Close()

	for entryRows.Next() {
		var (
			entry  domain.SleepBucketEntry
			source string
			offset sql.NullInt64
		)
		if err := entryRows.Scan(&entry.Date, &source, &entry.RawEndTime, &offset, &entry.Minutes, &entry.MainSleep, &entry.Suspicious); err != nil {
			return nil, fmt.Errorf("failed to scan sleep bucket entry: %w", err)
		}
		entry.Source = domain.Source(source)
		if offset.Valid {
			o := int(offset.Int64)
			entry.OffsetMin = &o
		}
		day.SleepEntries = append(day.SleepEntries, entry)
	}
	if err := entryRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sleep bucket entries: %w", err)
	}

	return day, nil
}

// GetNeighborDiagnostics 读取 date±1 共三天的诊断（升序，缺失的日期跳过）
func (r *PostgresDiagnosticsRepository) GetNeighborDiagnostics(ctx context.Context, date string) ([]*domain.DiagnosticDay, error) {
	center, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	var days []*domain.DiagnosticDay
	for offset := -1; offset <= 1; offset++ {
		d := center.AddDate(0, 0, offset).Format("2006-01-02")
		day, err := r.GetDayDiagnostics(ctx, d)
		if err != nil {
			return nil, err
		}
		if day != nil {
			days = append(days, day)
		}
	}
	return days, nil
}
