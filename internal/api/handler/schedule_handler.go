package handler

import (
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/api/middleware"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/service"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/response"
)

// ScheduleHandler 日程模块 HTTP 处理器
type ScheduleHandler struct {
	resolver   service.ScheduleResolver
	exportSvc  service.ExportService
	simulation service.SimulationService
	logger     *zap.Logger
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(
	resolver service.ScheduleResolver,
	exportSvc service.ExportService,
	simulation service.SimulationService,
	logger *zap.Logger,
) *ScheduleHandler {
	return &ScheduleHandler{resolver: resolver, exportSvc: exportSvc, simulation: simulation, logger: logger}
}

// GetDate 解析单日日程
// GET /api/v1/schedule/date?date=YYYY-MM-DD
func (h *ScheduleHandler) GetDate(c *gin.Context) {
	var q dto.DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, codeBadRequest, "date 参数无效")
		return
	}
	date, err := service.ParseDate(q.Date)
	if err != nil {
		response.BadRequest(c, codeBadRequest, "date 参数无效")
		return
	}

	if err := h.resolver.EnsureInitialized(c.Request.Context()); err != nil {
		handleServiceError(c, err)
		return
	}
	profile, err := h.resolver.ResolveDate(date)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, profile)
}

// GetRange 解析日期区间内每一天的日程
// GET /api/v1/schedule/range?start=&end=
func (h *ScheduleHandler) GetRange(c *gin.Context) {
	var q dto.DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, codeBadRequest, "start / end 参数无效")
		return
	}
	start, end, ok := parseRange(c, q.Start, q.End)
	if !ok {
		return
	}

	if err := h.resolver.EnsureInitialized(c.Request.Context()); err != nil {
		handleServiceError(c, err)
		return
	}
	profiles, err := h.resolver.ResolveDateRange(start, end)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.List(c, profiles, len(profiles))
}

// ExportCalendar 导出日程日历（iCalendar）
// GET /api/v1/schedule/calendar.ics?start=&end=
func (h *ScheduleHandler) ExportCalendar(c *gin.Context) {
	var q dto.DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, codeBadRequest, "start / end 参数无效")
		return
	}
	start, end, ok := parseRange(c, q.Start, q.End)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportScheduleCalendar(c.Request.Context(), start, end)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.File(c, "text/calendar; charset=utf-8",
		"attachment; filename*=UTF-8''"+url.QueryEscape(filename), buf.Bytes())
}

// Reload 丢弃缓存的配置快照并立即重新加载
// 模拟服务的成员名单同时失效，下次使用时重建
// POST /api/v1/schedule/reload
func (h *ScheduleHandler) Reload(c *gin.Context) {
	h.resolver.Reset()
	h.simulation.Reset()

	if err := h.resolver.EnsureInitialized(c.Request.Context()); err != nil {
		handleServiceError(c, err)
		return
	}

	h.logger.Info("日程配置已重新加载", zap.String("user_id", c.GetString(middleware.ContextUserID)))
	response.OK(c, gin.H{"reloaded": true})
}
