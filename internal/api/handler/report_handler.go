package handler

import (
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/service"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler 报表模块 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
	exportSvc service.ExportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService, exportSvc service.ExportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, exportSvc: exportSvc}
}

func (h *ReportHandler) bindReportQuery(c *gin.Context) (*dto.TrainingNightReportQuery, bool) {
	var q dto.TrainingNightReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, codeBadRequest, "参数校验失败")
		return nil, false
	}
	if _, _, ok := parseRange(c, q.Start, q.End); !ok {
		return nil, false
	}
	return &q, true
}

// TrainingNight 训练夜出勤报表
// GET /api/v1/reports/training-night?start=&end=&division_id=&include_ft_staff=
func (h *ReportHandler) TrainingNight(c *gin.Context) {
	q, ok := h.bindReportQuery(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.TrainingNightReport(c.Request.Context(), q)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, report)
}

// ExportTrainingNight 导出训练夜出勤报表（Excel）
// GET /api/v1/reports/training-night/export
func (h *ReportHandler) ExportTrainingNight(c *gin.Context) {
	q, ok := h.bindReportQuery(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportTrainingNightReport(c.Request.Context(), q)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.File(c, xlsxContentType, "attachment; filename*=UTF-8''"+url.QueryEscape(filename), buf.Bytes())
}

// BMQ BMQ 课程出勤报表
// GET /api/v1/reports/bmq/:courseId
func (h *ReportHandler) BMQ(c *gin.Context) {
	courseID := c.Param("courseId")
	if courseID == "" {
		response.BadRequest(c, codeBadRequest, "课程ID不能为空")
		return
	}

	report, err := h.reportSvc.BMQReport(c.Request.Context(), courseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, report)
}
