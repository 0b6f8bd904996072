package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/TheLakshitha/LayoutIndex-Assessment/config"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/api/handler"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/api/router"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/repository"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/service"
	"github.com/TheLakshitha/LayoutIndex-Assessment/pkg/database"
	applogger "github.com/TheLakshitha/LayoutIndex-Assessment/pkg/logger"
	"github.com/TheLakshitha/LayoutIndex-Assessment/pkg/metrics"
	"github.com/TheLakshitha/LayoutIndex-Assessment/pkg/mongodb"
	"github.com/TheLakshitha/LayoutIndex-Assessment/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
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
		zap.String("store", cfg.Store.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接聚合存储
	repo, closeStore := openStore(cfg, logger)

	// 4. 连接 Redis（可选：连接失败时降级运行，写接口不限流）
	var rdb *redis.Client
	if cfg.RateLimit.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，限流功能将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 5. 指标
	if cfg.Metrics.Enabled {
		metrics.Init()
	}

	// 6. 依赖注入: Repository → Service → Handler
	svc := service.NewService(cfg, repo, logger)
	h := handler.NewHandler(svc)

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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	closeStore(ctx)

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// openStore 按 store.driver 初始化存储，返回仓储聚合与关闭函数
func openStore(cfg *config.Config, logger *zap.Logger) (*repository.Repository, func(context.Context)) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		client, err := mongodb.Connect(context.Background(), &cfg.Mongo, logger)
		if err != nil {
			logger.Fatal("MongoDB 连接失败", zap.Error(err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := repository.EnsureMongoIndexes(ctx, client.Database()); err != nil {
			logger.Fatal("创建 MongoDB 索引失败", zap.Error(err))
		}

		return repository.NewMongoRepository(client.Database()), func(ctx context.Context) {
			if err := client.Close(ctx); err != nil {
				logger.Error("关闭 MongoDB 连接失败", zap.Error(err))
			}
		}

	default:
		db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
		logger.Info("数据库连接成功")

		// 执行数据库迁移
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}

		return repository.NewRepository(db), func(context.Context) {
			sqlDB.Close()
		}
	}
}
