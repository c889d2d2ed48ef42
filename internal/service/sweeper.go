package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunSweeper 按固定间隔执行自动签退巡检，直到 ctx 取消。
// interval <= 0 时直接返回。
func RunSweeper(ctx context.Context, svc AttendanceService, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		logger.Info("自动签退巡检已关闭")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("自动签退巡检已启动", zap.Duration("interval", interval))
	for {
		sweepOnce(ctx, svc, logger)
		select {
		case <-ctx.Done():
			logger.Info("自动签退巡检已停止")
			return
		case <-ticker.C:
		}
	}
}

func sweepOnce(ctx context.Context, svc AttendanceService, logger *zap.Logger) {
	result, err := svc.SweepStale(ctx)
	if err != nil {
		logger.Error("自动签退巡检失败", zap.Error(err))
		return
	}
	if result.MarkedOvernight > 0 || result.AutoClosed > 0 {
		logger.Info("自动签退巡检完成",
			zap.Int64("marked_overnight", result.MarkedOvernight),
			zap.Int("auto_closed", result.AutoClosed),
		)
	}
}
