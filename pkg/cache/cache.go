package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgerrors "github.com/tahayparker/vacansee-sub001/pkg/errors"
)

// ── 读穿缓存 ────────────────────────────────────────────────
//
// 策略（stale-while-revalidate）：
//   - 命中且龄期 < staleAfter：直接返回
//   - 命中且 staleAfter ≤ 龄期 < ttl：立即返回旧值，同时后台刷新；
//     同一 key 同时只有一个在途刷新，刷新期间的并发请求一律拿旧值
//   - 未命中或完全过期：同步计算后写入返回；冷启动并发请求合并为一次计算
//   - 后台刷新失败不淘汰仍然有效的旧值；同步计算因上游不可用失败时，
//     若存在过期旧值则优先返回旧值（last-known-good）而非直接失败；
//     其余错误（确定性失败）一律透传，不做降级
// ─────────────────────────────────────────────────────────────

// refreshTimeout 后台刷新的计算超时，独立于触发请求的生命周期
const refreshTimeout = 15 * time.Second

// ComputeFunc 缓存回源计算函数
type ComputeFunc func(ctx context.Context) (interface{}, error)

type entry struct {
	value      interface{}
	storedAt   time.Time
	refreshing bool
}

// Cache 进程内读穿缓存
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	pending map[string]chan struct{} // 同步计算的单飞闸门
	logger  *zap.Logger

	now func() time.Time // 测试可替换
}

// New 创建读穿缓存
func New(logger *zap.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		pending: make(map[string]chan struct{}),
		logger:  logger,
		now:     time.Now,
	}
}

// GetOrCompute 读穿获取：按上述策略返回缓存值或回源计算
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl, staleAfter time.Duration, fn ComputeFunc) (interface{}, error) {
	for {
		c.mu.Lock()
		e, ok := c.entries[key]
		if ok {
			age := c.now().Sub(e.storedAt)
			if age < staleAfter {
				v := e.value
				c.mu.Unlock()
				return v, nil
			}
			if age < ttl {
				v := e.value
				if !e.refreshing {
					e.refreshing = true
					go c.refresh(key, fn)
				}
				c.mu.Unlock()
				return v, nil
			}
			// 完全过期：保留旧值作为 last-known-good，走同步计算
		}

		// 同 key 已有同步计算在途：等它完成后重新走一遍判定
		if ch, inFlight := c.pending[key]; inFlight {
			c.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		ch := make(chan struct{})
		c.pending[key] = ch
		c.mu.Unlock()

		v, err := fn(ctx)

		c.mu.Lock()
		delete(c.pending, key)
		close(ch)
		if err != nil {
			// 仅上游不可用可降级：存在过期旧值时返回旧值，
			// 确定性错误不吃进缓存，原样透传
			if stale, hasStale := c.entries[key]; hasStale && errors.Is(err, pkgerrors.ErrUpstreamUnavailable) {
				sv := stale.value
				c.mu.Unlock()
				c.logger.Warn("缓存回源失败，降级返回过期旧值",
					zap.String("key", key), zap.Error(err))
				return sv, nil
			}
			c.mu.Unlock()
			return nil, err
		}
		c.entries[key] = &entry{value: v, storedAt: c.now()}
		c.mu.Unlock()
		return v, nil
	}
}

// Clear 清空全部缓存项（数据全量替换后调用）
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// refresh 后台刷新单个 key；失败时保留旧值
func (c *Cache) refresh(key string, fn ComputeFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	v, err := fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.refreshing = false
	}
	if err != nil {
		c.logger.Warn("缓存后台刷新失败，继续使用旧值",
			zap.String("key", key), zap.Error(err))
		return
	}
	c.entries[key] = &entry{value: v, storedAt: c.now()}
}
