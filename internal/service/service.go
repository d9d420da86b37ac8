package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/DeadshotOMEGA/sentinel-sub002/config"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Schedule      ScheduleResolver
	Attendance    AttendanceCalculator
	BMQAttendance BMQAttendanceCalculator
	Report        ReportService
	Export        ExportService
	Simulation    SimulationService
}

// NewService 创建 Service 聚合
// ScheduleResolver 为进程内单例，由报表、导出与模拟共享
func NewService(
	cfg *config.Config,
	loc *time.Location,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	resolver := NewScheduleResolver(repo, logger)
	attendance := NewAttendanceCalculator(repo, logger, nil)
	bmq := NewBMQAttendanceCalculator(repo, logger)
	report := NewReportService(cfg, repo, resolver, attendance, bmq, logger)

	return &Service{
		Schedule:      resolver,
		Attendance:    attendance,
		BMQAttendance: bmq,
		Report:        report,
		Export:        NewExportService(report, resolver, loc, logger),
		Simulation:    NewSimulationService(cfg, loc, repo, resolver, logger),
	}
}
