package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// readinessResponse 就绪度服务的通用响应
type readinessResponse struct {
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

// ReadinessClient 下游就绪度/评分服务 API 客户端
// 导入提交后触发 startDate 起的窗口重算；失败只记日志，不回滚导入
type ReadinessClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewReadinessClient 创建就绪度服务客户端
func NewReadinessClient(baseURL string, timeout time.Duration, logger *zap.Logger) *ReadinessClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ReadinessClient{
		httpClient: client,
		logger:     logger,
	}
}

// 确保实现了接口
var _ ReadinessRecomputer = (*ReadinessClient)(nil)

// RecomputeFrom 触发 startDate（YYYY-MM-DD）起的就绪度重算
func (c *ReadinessClient) RecomputeFrom(ctx context.Context, startDate string) error {
	c.logger.Info("Calling readiness API: recomputeRange",
		zap.String("start_date", startDate),
	)

	var response readinessResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"startDate": startDate}).
		SetResult(&response).
		Post("/readiness/recomputeRange")
	if err != nil {
		return fmt.Errorf("readiness API call failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("readiness API returned %d: %s", resp.StatusCode(), response.Msg)
	}
	return nil
}
