package repository

import (
	"context"
	"database/sql"
	"fmt"

	"vitalsync-import/internal/domain"
)

// importLockKey 持久化阶段咨询锁的固定键
// 并发导入触碰重叠日期时互斥；identical-content 的去重由 import_log 的哈希约束负责
const importLockKey int64 = 0x7461_6b65_6f75 // "takeou"

// PostgresDailyMetricsRepository 按日指标 Repository 实现
type PostgresDailyMetricsRepository struct {
	db *sql.DB
}

func NewPostgresDailyMetricsRepository(db *sql.DB) *PostgresDailyMetricsRepository {
	return &PostgresDailyMetricsRepository{db: db}
}

// 确保实现了接口
var _ DailyMetricsRepository = (*PostgresDailyMetricsRepository)(nil)

// ExistingDates 返回范围内已存在的日期集合（单次查询）
func (r *PostgresDailyMetricsRepository) ExistingDates(ctx context.Context, startDate, endDate string) (map[string]bool, error) {
	if startDate == "" || endDate == "" {
		return nil, fmt.Errorf("start_date and end_date are required")
	}

	query := `
		SELECT date::text
		FROM daily_metrics
		WHERE date >= $1::date AND date <= $2::date
	`
	rows, err := r.db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing dates: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		existing[date] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dates: %w", err)
	}
	return existing, nil
}

// UpsertDay 幂等写入一个日桶
// entry_source 锚字段不在这里赋值：插入时由表默认值落 'import'，
// 手工记录尚不存在的日期也能先建行
func (r *PostgresDailyMetricsRepository) UpsertDay(ctx context.Context, date string, bucket *domain.DayBucket, mode domain.WriteMode) error {
	if date == "" || bucket == nil {
		return fmt.Errorf("date and bucket are required")
	}

	var setClause string
	switch mode {
	case domain.WriteModeOverwrite:
		// 无条件替换全部字段，包括把本次无数据的字段置空
		setClause = `
			steps = EXCLUDED.steps,
			energy_burned_kcal = EXCLUDED.energy_burned_kcal,
			zone1_min = EXCLUDED.zone1_min,
			zone2_min = EXCLUDED.zone2_min,
			zone3_min = EXCLUDED.zone3_min,
			below_zone1_min = EXCLUDED.below_zone1_min,
			active_zone_minutes = EXCLUDED.active_zone_minutes,
			cardio_min = EXCLUDED.cardio_min,
			resting_hr = EXCLUDED.resting_hr,
			sleep_minutes = EXCLUDED.sleep_minutes,
			hrv = EXCLUDED.hrv,
			updated_at = NOW()`
	case domain.WriteModeFillMissing:
		// 仅非空新值覆盖，已有存储值保留
		setClause = `
			steps = COALESCE(EXCLUDED.steps, daily_metrics.steps),
			energy_burned_kcal = COALESCE(EXCLUDED.energy_burned_kcal, daily_metrics.energy_burned_kcal),
			zone1_min = COALESCE(EXCLUDED.zone1_min, daily_metrics.zone1_min),
			zone2_min = COALESCE(EXCLUDED.zone2_min, daily_metrics.zone2_min),
			zone3_min = COALESCE(EXCLUDED.zone3_min, daily_metrics.zone3_min),
			below_zone1_min = COALESCE(EXCLUDED.below_zone1_min, daily_metrics.below_zone1_min),
			active_zone_minutes = COALESCE(EXCLUDED.active_zone_minutes, daily_metrics.active_zone_minutes),
			cardio_min = COALESCE(EXCLUDED.cardio_min, daily_metrics.cardio_min),
			resting_hr = COALESCE(EXCLUDED.resting_hr, daily_metrics.resting_hr),
			sleep_minutes = COALESCE(EXCLUDED.sleep_minutes, daily_metrics.sleep_minutes),
			hrv = COALESCE(EXCLUDED.hrv, daily_metrics.hrv),
			updated_at = NOW()`
	default:
		return fmt.Errorf("unknown write mode %q", mode)
	}

	query := fmt.Sprintf(`
		INSERT INTO daily_metrics (
			date, steps, energy_burned_kcal,
			zone1_min, zone2_min, zone3_min, below_zone1_min,
			active_zone_minutes, cardio_min, resting_hr, sleep_minutes, hrv
		) VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (date) DO UPDATE SET %s`, setClause)

	_, err := r.db.ExecContext(ctx, query,
		date,
		nullFloat(bucket.Steps),
		nullFloat(bucket.EnergyBurnedKcal),
		nullFloat(bucket.Zone1Min),
		nullFloat(bucket.Zone2Min),
		nullFloat(bucket.Zone3Min),
		nullFloat(bucket.BelowZone1Min),
		nullFloat(bucket.ActiveZoneMinutes),
		nullFloat(bucket.CardioMin),
		nullFloat(bucket.RestingHR),
		nullFloat(bucket.SleepMinutes),
		nullFloat(bucket.HRV),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily metrics for %s: %w", date, err)
	}
	return nil
}

// GetDay 读取一个日桶
func (r *PostgresDailyMetricsRepository) GetDay(ctx context.Context, date string) (*domain.DayBucket, error) {
	if date == "" {
		return nil, fmt.Errorf("date is required")
	}

	query := `
		SELECT
			steps, energy_burned_kcal,
			zone1_min, zone2_min, zone3_min, below_zone1_min,
			active_zone_minutes, cardio_min, resting_hr, sleep_minutes, hrv
		FROM daily_metrics
		WHERE date = $1::date
	`

	var (
		steps, kcal, z1, z2, z3, below sql.NullFloat64
		azm, cardio, rhr, sleep, hrv   sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, query, date).Scan(
		&steps, &kcal, &z1, &z2, &z3, &below, &azm, &cardio, &rhr, &sleep, &hrv,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily metrics for %s: %w", date, err)
	}

	return &domain.DayBucket{
		Steps:             floatPtr(steps),
		EnergyBurnedKcal:  floatPtr(kcal),
		Zone1Min:          floatPtr(z1),
		Zone2Min:          floatPtr(z2),
		Zone3Min:          floatPtr(z3),
		BelowZone1Min:     floatPtr(below),
		ActiveZoneMinutes: floatPtr(azm),
		CardioMin:         floatPtr(cardio),
		RestingHR:         floatPtr(rhr),
		SleepMinutes:      floatPtr(sleep),
		HRV:               floatPtr(hrv),
	}, nil
}

// AcquireImportLock 会话级咨询锁
// 从连接池固定一条连接，释放函数负责 unlock + 归还连接
func (r *PostgresDailyMetricsRepository) AcquireImportLock(ctx context.Context) (func(), error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for import lock: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, importLockKey); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	release := func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, importLockKey)
		_ = conn.Close()
	}
	return release, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
