package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/api/middleware"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/service"
	pkgerrors "github.com/DeadshotOMEGA/sentinel-sub002/pkg/errors"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/response"
)

// maxRangeDays 单次查询允许的最大天数
const maxRangeDays = 366

// 业务错误码
const (
	codeBadRequest      = 20001
	codeInvalidRange    = 20002
	codeNotFound        = 20401
	codeInvalidConfig   = 20422
	codeNotInitialized  = 20503
	codeSimulationBusy  = 20409
	codeUnauthenticated = 10002
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextUserID)
	if s == "" {
		response.Unauthorized(c, codeUnauthenticated, "未认证")
		return "", false
	}
	return s, true
}

// parseRange 解析 YYYY-MM-DD 日期区间，失败时写入 400 响应
func parseRange(c *gin.Context, startStr, endStr string) (time.Time, time.Time, bool) {
	start, err := service.ParseDate(startStr)
	if err != nil {
		response.BadRequest(c, codeBadRequest, "start 日期格式无效")
		return time.Time{}, time.Time{}, false
	}
	end, err := service.ParseDate(endStr)
	if err != nil {
		response.BadRequest(c, codeBadRequest, "end 日期格式无效")
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		response.BadRequest(c, codeInvalidRange, "end 不能早于 start")
		return time.Time{}, time.Time{}, false
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		response.BadRequest(c, codeInvalidRange, "查询区间不能超过一年")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// handleServiceError 将服务层错误映射为 HTTP 响应
func handleServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, codeNotFound, err.Error())
	case errors.Is(err, pkgerrors.ErrInvalidRange):
		response.BadRequest(c, codeInvalidRange, err.Error())
	case errors.Is(err, pkgerrors.ErrInvalidConfiguration):
		response.UnprocessableEntity(c, codeInvalidConfig, "日程配置无效", err.Error())
	case errors.Is(err, pkgerrors.ErrNotInitialized):
		response.ServiceUnavailable(c, codeNotInitialized, "服务尚未就绪")
	case errors.Is(err, pkgerrors.ErrSimulationRunning):
		response.Conflict(c, codeSimulationBusy, "已有数据模拟任务正在执行")
	default:
		response.InternalError(c)
	}
}
