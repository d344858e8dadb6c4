package repository

import (
	"context"

	"vitalsync-import/internal/domain"
)

// ImportLogRepository 导入日志 Repository 接口
// content_hash 唯一：同一归档的重复提交在任何解析发生之前被拒绝
type ImportLogRepository interface {
	// FindByHash 按归档内容哈希查找已有导入（不存在返回 nil）
	FindByHash(ctx context.Context, contentHash string) (*domain.ImportRecord, error)

	// Create 登记一次新导入
	Create(ctx context.Context, rec *domain.ImportRecord) error

	// Update 回写终态（status、days_inserted、days_updated）
	Update(ctx context.Context, rec *domain.ImportRecord) error
}
