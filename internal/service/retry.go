package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	pkgerrors "github.com/tahayparker/vacansee-sub001/pkg/errors"
)

// ── 上游读取重试 ──
//
// 预订数据读取是引擎唯一的 I/O 挂起点：限时、有界重试，
// 耗尽后包装为 ErrUpstreamUnavailable 交由上层降级处理。

const (
	fetchTimeout  = 3 * time.Second
	fetchAttempts = 3
	fetchBackoff  = 100 * time.Millisecond
)

// fetchWithRetry 以限时 + 指数退避执行上游读取
func fetchWithRetry[T any](ctx context.Context, logger *zap.Logger, what string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		result, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return result, nil
		}
		// 记录不存在不是瞬态故障，立即透传给调用方判定
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, err
		}
		lastErr = err
		logger.Warn("上游读取失败",
			zap.String("what", what),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < fetchAttempts {
			backoff := fetchBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, fmt.Errorf("%w: %s: %v", pkgerrors.ErrUpstreamUnavailable, what, lastErr)
}
