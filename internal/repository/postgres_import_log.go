package repository

import (
	"context"
	"database/sql"
	"fmt"

	"vitalsync-import/internal/domain"
)

// PostgresImportLogRepository 导入日志 Repository 实现
type PostgresImportLogRepository struct {
	db *sql.DB
}

func NewPostgresImportLogRepository(db *sql.DB) *PostgresImportLogRepository {
	return &PostgresImportLogRepository{db: db}
}

// 确保实现了接口
var _ ImportLogRepository = (*PostgresImportLogRepository)(nil)

// FindByHash 按归档内容哈希查找已有导入
func (r *PostgresImportLogRepository) FindByHash(ctx context.Context, contentHash string) (*domain.ImportRecord, error) {
	if contentHash == "" {
		return nil, fmt.Errorf("content_hash is required")
	}

	query := `
		SELECT
			import_id::text,
			content_hash,
			file_name,
			status,
			timezone_used,
			write_mode,
			days_inserted,
			days_updated,
			created_at
		FROM import_log
		WHERE content_hash = $1
	`

	var rec domain.ImportRecord
	err := r.db.QueryRowContext(ctx, query, contentHash).Scan(
		&rec.ImportID,
		&rec.ContentHash,
		&rec.FileName,
		&rec.Status,
		&rec.TimezoneUsed,
		&rec.WriteMode,
		&rec.DaysInserted,
		&rec.DaysUpdated,
		&rec.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // 不存在，不是错误
		}
		return nil, fmt.Errorf("failed to find import by hash: %w", err)
	}

	return &rec, nil
}

// Create 登记一次新导入
func (r *PostgresImportLogRepository) Create(ctx context.Context, rec *domain.ImportRecord) error {
	if rec == nil || rec.ImportID == "" || rec.ContentHash == "" {
		return fmt.Errorf("import_id and content_hash are required")
	}

	query := `
		INSERT INTO import_log (
			import_id, content_hash, file_name, status,
			timezone_used, write_mode, days_inserted, days_updated
		) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ImportID,
		rec.ContentHash,
		rec.FileName,
		rec.Status,
		rec.TimezoneUsed,
		rec.WriteMode,
		rec.DaysInserted,
		rec.DaysUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to create import log entry: %w", err)
	}
	return nil
}

// Update 回写终态
func (r *PostgresImportLogRepository) Update(ctx context.Context, rec *domain.ImportRecord) error {
	if rec == nil || rec.ImportID == "" {
		return fmt.Errorf("import_id is required")
	}

	query := `
		UPDATE import_log
		SET status = $2,
			days_inserted = $3,
			days_updated = $4
		WHERE import_id = $1::uuid
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ImportID,
		rec.Status,
		rec.DaysInserted,
		rec.DaysUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to update import log entry: %w", err)
	}
	return nil
}
