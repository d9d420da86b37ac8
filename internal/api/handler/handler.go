package handler

import (
	"go.uber.org/zap"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Health     *HealthHandler
	Schedule   *ScheduleHandler
	Attendance *AttendanceHandler
	Report     *ReportHandler
	Simulation *SimulationHandler
}

// NewHandler 创建 Handler 聚合
// locker 为 nil 时模拟任务仅依赖进程内互斥
func NewHandler(svc *service.Service, checks map[string]HealthCheck, locker Locker, logger *zap.Logger) *Handler {
	return &Handler{
		Health:     NewHealthHandler(checks),
		Schedule:   NewScheduleHandler(svc.Schedule, svc.Export, svc.Simulation, logger),
		Attendance: NewAttendanceHandler(svc.Report),
		Report:     NewReportHandler(svc.Report, svc.Export),
		Simulation: NewSimulationHandler(svc.Simulation, locker, logger),
	}
}
