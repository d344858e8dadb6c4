package repository

import (
	"context"

	"vitalsync-import/internal/domain"
)

// DailyMetricsRepository 按日指标 Repository 接口
// 每个日历日一行；导入可以在手工记录存在之前创建日行（锚字段按默认值落库）
type DailyMetricsRepository interface {
	// ExistingDates 返回范围内已存在的日期集合（单次查询，用于区分 inserted/updated）
	ExistingDates(ctx context.Context, startDate, endDate string) (map[string]bool, error)

	// UpsertDay 幂等写入一个日桶
	// fill_missing: 仅非空新值覆盖，已有存储值用 COALESCE 保留
	// overwrite: 无条件替换全部字段（包括把本次无数据的字段置空）
	UpsertDay(ctx context.Context, date string, bucket *domain.DayBucket, mode domain.WriteMode) error

	// GetDay 读取一个日桶（不存在返回 nil）
	GetDay(ctx context.Context, date string) (*domain.DayBucket, error)

	// AcquireImportLock 持久化阶段的咨询锁：并发导入触碰重叠日期范围时互斥
	// 返回释放函数；获取失败返回错误
	AcquireImportLock(ctx context.Context) (func(), error)
}
