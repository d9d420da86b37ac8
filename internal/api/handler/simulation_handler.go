package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/service"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/response"
)

const (
	simulationLockName = "simulation:run"
	simulationLockTTL  = 10 * time.Minute
)

// Locker 跨实例互斥锁（由 pkg/redis.Client 实现）
type Locker interface {
	AcquireLock(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, token string) error
}

// SimulationHandler 数据模拟 HTTP 处理器
type SimulationHandler struct {
	simSvc service.SimulationService
	locker Locker
	logger *zap.Logger
}

// NewSimulationHandler 创建 SimulationHandler
func NewSimulationHandler(simSvc service.SimulationService, locker Locker, logger *zap.Logger) *SimulationHandler {
	return &SimulationHandler{simSvc: simSvc, locker: locker, logger: logger}
}

func (h *SimulationHandler) bindRequest(c *gin.Context) (*dto.SimulationRequest, bool) {
	var req dto.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBadRequest, "参数校验失败")
		return nil, false
	}
	if err := h.simSvc.EnsureInitialized(c.Request.Context()); err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	return &req, true
}

// Precheck 模拟前检查：目标区间已有数据与成员构成
// POST /api/v1/simulation/precheck
func (h *SimulationHandler) Precheck(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	result, err := h.simSvc.Precheck(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// Run 执行数据模拟
// 多实例部署时由 Redis 锁保证同一时刻只有一个模拟任务
// POST /api/v1/simulation/run
func (h *SimulationHandler) Run(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	if h.locker != nil {
		token := uuid.NewString()
		acquired, err := h.locker.AcquireLock(c.Request.Context(), simulationLockName, token, simulationLockTTL)
		if err != nil {
			h.logger.Error("获取模拟锁失败", zap.Error(err))
			response.InternalError(c)
			return
		}
		if !acquired {
			response.Conflict(c, codeSimulationBusy, "已有数据模拟任务正在执行")
			return
		}
		defer func() {
			if err := h.locker.ReleaseLock(context.WithoutCancel(c.Request.Context()), simulationLockName, token); err != nil {
				h.logger.Warn("释放模拟锁失败", zap.Error(err))
			}
		}()
	}

	h.logger.Info("开始数据模拟", zap.String("user_id", userID), zap.String("mode", req.TimeRange.Mode))

	result, err := h.simSvc.Simulate(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.logger.Info("数据模拟完成",
		zap.String("user_id", userID),
		zap.Int("days", result.Summary.DaysSimulated),
		zap.Int("checkins", result.Summary.Generated.Checkins),
	)
	response.OK(c, result)
}
