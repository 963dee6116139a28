package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tahayparker/vacansee-sub001/config"
)

// Client Redis 客户端封装
// 当前用于周视图快照镜像与速率限制；快照的权威副本在本地文件存储，
// Redis 仅作为多实例间的预热镜像，连接失败时可降级运行
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 周视图快照镜像 ──

const snapshotKey = "schedule:snapshot"

// PublishSnapshot 将序列化后的周视图快照写入镜像
// 不设 TTL：镜像始终保留最近一次成功发布的快照
func (c *Client) PublishSnapshot(ctx context.Context, payload []byte) error {
	return c.rdb.Set(ctx, snapshotKey, payload, 0).Err()
}

// LoadSnapshot 读取镜像中的快照；镜像为空时返回 (nil, nil)
func (c *Client) LoadSnapshot(ctx context.Context) ([]byte, error) {
	data, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ── 速率限制 ──

// CheckRateLimit 固定窗口速率检查：窗口内计数超过 limit 则拒绝
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		// 新窗口首个请求，设定窗口过期
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
