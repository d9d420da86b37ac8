package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DeadshotOMEGA/sentinel-sub002/config"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/api/handler"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/api/router"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/repository"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/service"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/database"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/jwt"
	applogger "github.com/DeadshotOMEGA/sentinel-sub002/pkg/logger"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/redis"
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

	loc, err := cfg.Facility.Location()
	if err != nil {
		logger.Fatal("设施时区无效", zap.Error(err))
	}

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("facility_timezone", loc.String()),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、限流与跨实例模拟锁将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 校验
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db, cfg.Facility.Timezone)
	svc := service.NewService(cfg, loc, repo, logger)

	// 6.1 预加载日程配置；失败时不阻塞启动，首次请求再重试
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := svc.Schedule.Initialize(initCtx); err != nil {
		logger.Warn("日程配置预加载失败，将在首次请求时重试", zap.Error(err))
	}
	if err := svc.Simulation.Initialize(initCtx); err != nil {
		logger.Warn("模拟服务预加载失败，将在首次请求时重试", zap.Error(err))
	}
	initCancel()

	checks := map[string]handler.HealthCheck{
		"database": sqlDB.PingContext,
	}
	var locker handler.Locker
	if rdb != nil {
		checks["redis"] = rdb.Ping
		locker = rdb
	}
	h := handler.NewHandler(svc, checks, locker, logger)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // 长区间数据模拟
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
