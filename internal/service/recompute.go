package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vitalsync-import/internal/domain"
)

// MetricsRecomputer 周窗口指标重算器
// 导入落库后按周步长重算衍生指标，并逐日重建睡眠块
type MetricsRecomputer interface {
	// RecomputeRange 重算以 startDate（YYYY-MM-DD）为起点的一个窗口
	RecomputeRange(ctx context.Context, startDate string) error
	// ComputeSleepBlocks 重建某一天的睡眠块
	ComputeSleepBlocks(ctx context.Context, date string) error
}

// ReadinessRecomputer 下游就绪度重算器
type ReadinessRecomputer interface {
	// RecomputeFrom 触发 startDate 起的就绪度重算
	RecomputeFrom(ctx context.Context, startDate string) error
}

// recomputeStrideDays 周窗口步长
const recomputeStrideDays = 7

// triggerRecompute 导入落库后触发级联重算
// 所有错误只记日志：重算失败不影响导入结果
func triggerRecompute(
	ctx context.Context,
	logger *zap.Logger,
	metrics MetricsRecomputer,
	readiness ReadinessRecomputer,
	dateRange domain.DateRange,
	buckets map[string]*domain.DayBucket,
) {
	if dateRange.Start == "" || dateRange.End == "" {
		return
	}

	if metrics != nil {
		// 从 min 到 max 按 7 天步长逐窗口重算，末尾再补一次 max 窗口
		minDate, errMin := time.Parse("2006-01-02", dateRange.Start)
		maxDate, errMax := time.Parse("2006-01-02", dateRange.End)
		if errMin != nil || errMax != nil {
			logger.Warn("Skipping metrics recompute: bad date range",
				zap.String("min", dateRange.Start),
				zap.String("max", dateRange.End),
			)
		} else {
			for d := minDate; !d.After(maxDate); d = d.AddDate(0, 0, recomputeStrideDays) {
				start := d.Format("2006-01-02")
				if err := metrics.RecomputeRange(ctx, start); err != nil {
					logger.Warn("Metrics recompute failed",
						zap.String("start_date", start),
						zap.Error(err),
					)
				}
			}
			if err := metrics.RecomputeRange(ctx, dateRange.End); err != nil {
				logger.Warn("Metrics recompute failed",
					zap.String("start_date", dateRange.End),
					zap.Error(err),
				)
			}
		}

		// 有睡眠数据的日子逐日重建睡眠块
		for date, bucket := range buckets {
			if bucket == nil || bucket.SleepMinutes == nil {
				continue
			}
			if err := metrics.ComputeSleepBlocks(ctx, date); err != nil {
				logger.Warn("Sleep block recompute failed",
					zap.String("date", date),
					zap.Error(err),
				)
			}
		}
	}

	if readiness != nil {
		// 就绪度重算走独立 goroutine，不阻塞导入响应
		startDate := dateRange.Start
		go func() {
			if err := readiness.RecomputeFrom(context.Background(), startDate); err != nil {
				logger.Warn("Readiness recompute failed",
					zap.String("start_date", startDate),
					zap.Error(err),
				)
			}
		}()
	}
}
