package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"vitalsync-import/internal/domain"
)

var ErrMiss = errors.New("cache miss")

// resultKeyPrefix 导入结果快照的键前缀：takeout:result:<import_id>
const resultKeyPrefix = "takeout:result:"

// 快照保留期：调试端点按 import_id 取最近结果，不需要长期保留
const resultTTL = 7 * 24 * time.Hour

// KV 结果快照存储接口
// 按 import_id 保存每次导入的 TakeoutImportResult，取代进程级 "last import" 全局状态
// （跨请求不泄漏，并发导入各自可查）
type KV interface {
	SaveResult(ctx context.Context, result *domain.TakeoutImportResult) error
	GetResult(ctx context.Context, importID string) (*domain.TakeoutImportResult, error)
}

type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

// 确保实现了接口
var _ KV = (*RedisKV)(nil)

// SaveResult 保存一次导入的结果快照（JSON，带 TTL）
func (r *RedisKV) SaveResult(ctx context.Context, result *domain.TakeoutImportResult) error {
	if result == nil || result.ImportID == "" {
		return fmt.Errorf("result with import_id is required")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal import result: %w", err)
	}
	return r.c.Set(ctx, resultKeyPrefix+result.ImportID, string(data), resultTTL).Err()
}

// GetResult 按 import_id 取结果快照；不存在返回 ErrMiss
func (r *RedisKV) GetResult(ctx context.Context, importID string) (*domain.TakeoutImportResult, error) {
	val, err := r.c.Get(ctx, resultKeyPrefix+importID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, err
	}
	var result domain.TakeoutImportResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal import result: %w", err)
	}
	return &result, nil
}
