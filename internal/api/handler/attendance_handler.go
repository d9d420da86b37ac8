package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/service"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/response"
)

// AttendanceHandler 个人出勤查询
type AttendanceHandler struct {
	reportSvc service.ReportService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(reportSvc service.ReportService) *AttendanceHandler {
	return &AttendanceHandler{reportSvc: reportSvc}
}

// GetMember 成员训练夜出勤与趋势
// GET /api/v1/attendance/members/:id?start=&end=
func (h *AttendanceHandler) GetMember(c *gin.Context) {
	memberID := c.Param("id")
	if memberID == "" {
		response.BadRequest(c, codeBadRequest, "成员ID不能为空")
		return
	}

	var q dto.DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, codeBadRequest, "start / end 参数无效")
		return
	}
	start, end, ok := parseRange(c, q.Start, q.End)
	if !ok {
		return
	}

	result, err := h.reportSvc.MemberAttendance(c.Request.Context(), memberID, start, end)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// GetBMQMember 成员在某 BMQ 课程中的出勤
// GET /api/v1/attendance/bmq/:courseId/members/:memberId
func (h *AttendanceHandler) GetBMQMember(c *gin.Context) {
	courseID, memberID := c.Param("courseId"), c.Param("memberId")
	if courseID == "" || memberID == "" {
		response.BadRequest(c, codeBadRequest, "课程ID与成员ID不能为空")
		return
	}

	result, err := h.reportSvc.BMQMemberAttendance(c.Request.Context(), courseID, memberID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}
