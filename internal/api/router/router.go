package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DeadshotOMEGA/sentinel-sub002/config"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/api/handler"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/api/middleware"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/jwt"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/redis"
)

// maxBodyBytes 模拟请求体上限
const maxBodyBytes = 1 << 16

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时跳过 Token 黑名单与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	v1.Use(middleware.RateLimit(rdb, 120, time.Minute))
	{
		// 日程解析
		schedule := v1.Group("/schedule")
		{
			schedule.GET("/date", h.Schedule.GetDate)
			schedule.GET("/range", h.Schedule.GetRange)
			schedule.GET("/calendar.ics", h.Schedule.ExportCalendar)
			schedule.POST("/reload", middleware.RoleAuth(middleware.RoleAdmin), h.Schedule.Reload)
		}

		// 个人出勤
		attendance := v1.Group("/attendance")
		{
			attendance.GET("/members/:id", h.Attendance.GetMember)
			attendance.GET("/bmq/:courseId/members/:memberId", h.Attendance.GetBMQMember)
		}

		// 报表
		reports := v1.Group("/reports")
		{
			reports.GET("/training-night", h.Report.TrainingNight)
			reports.GET("/training-night/export", h.Report.ExportTrainingNight)
			reports.GET("/bmq/:courseId", h.Report.BMQ)
		}

		// 数据模拟（仅管理员）
		simulation := v1.Group("/simulation", middleware.RoleAuth(middleware.RoleAdmin))
		{
			simulation.POST("/precheck", h.Simulation.Precheck)
			simulation.POST("/run", middleware.RateLimit(rdb, 5, time.Minute), h.Simulation.Run)
		}
	}

	return r
}
