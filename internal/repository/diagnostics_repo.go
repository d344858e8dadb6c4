package repository

import (
	"context"

	"vitalsync-import/internal/domain"
)

// DiagnosticsRepository 导入诊断 Repository 接口
// 按 import_id 归档每次导入的来源归属、睡眠分桶决策和冲突记录，
// 支撑 "这一天为什么显示这个数" 的审计查询
type DiagnosticsRepository interface {
	// SaveDayDiagnostics 持久化一个日期的诊断（metric_sources + sleep_bucket_entries）
	SaveDayDiagnostics(ctx context.Context, importID string, day *domain.DiagnosticDay) error

	// SaveConflicts 持久化冲突记录
	SaveConflicts(ctx context.Context, importID string, conflicts []domain.ConflictEntry) error

	// GetDayDiagnostics 读取某日期最近一次导入的诊断（不存在返回 nil）
	GetDayDiagnostics(ctx context.Context, date string) (*domain.DiagnosticDay, error)

	// GetNeighborDiagnostics 读取 date±1 共三天的诊断（升序）
	// 醒来日算错一天时，在相邻日的诊断里仍能找到那条分桶记录
	GetNeighborDiagnostics(ctx context.Context, date string) ([]*domain.DiagnosticDay, error)
}
