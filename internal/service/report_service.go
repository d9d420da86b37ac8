package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/config"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/repository"
	pkgerrors "github.com/DeadshotOMEGA/sentinel-sub002/pkg/errors"
)

// ReportService 出勤报表接口
type ReportService interface {
	MemberAttendance(ctx context.Context, memberID string, start, end time.Time) (*dto.MemberAttendanceResponse, error)
	BMQMemberAttendance(ctx context.Context, courseID, memberID string) (*dto.BMQAttendanceResponse, error)
	TrainingNightReport(ctx context.Context, query *dto.TrainingNightReportQuery) (*dto.TrainingNightReport, error)
	BMQReport(ctx context.Context, courseID string) (*dto.BMQReport, error)
}

type reportService struct {
	cfg        *config.Config
	repo       *repository.Repository
	resolver   ScheduleResolver
	attendance AttendanceCalculator
	bmq        BMQAttendanceCalculator
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService 创建 ReportService 实例
func NewReportService(
	cfg *config.Config,
	repo *repository.Repository,
	resolver ScheduleResolver,
	attendance AttendanceCalculator,
	bmq BMQAttendanceCalculator,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		cfg:        cfg,
		repo:       repo,
		resolver:   resolver,
		attendance: attendance,
		bmq:        bmq,
		logger:     logger,
		now:        time.Now,
	}
}

// loadReportSetting 读取 report_settings 中的 JSON 值；不存在时返回 false
func loadReportSetting(
	ctx context.Context, repo *repository.Repository, logger *zap.Logger, key string, out interface{},
) (bool, error) {
	setting, err := repo.ReportSetting.Get(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("报表设置缺失", zap.String("key", key))
			return false, nil
		}
		logger.Error("查询报表设置失败", zap.String("key", key), zap.Error(err))
		return false, err
	}
	if err := json.Unmarshal(setting.Value, out); err != nil {
		return false, fmt.Errorf("%w: 设置 %s 解析失败: %v", pkgerrors.ErrInvalidConfiguration, key, err)
	}
	return true, nil
}

// ────────────────────── 设置 ──────────────────────

// thresholdSettings 先填入配置默认值，JSON 中缺失的键保留默认
func (s *reportService) thresholdSettings(ctx context.Context) (*model.ThresholdSettings, error) {
	a := s.cfg.Attendance
	th := model.ThresholdSettings{
		WarningThreshold:      a.WarningThreshold,
		CriticalThreshold:     a.CriticalThreshold,
		ShowThresholdFlags:    true,
		BMQSeparateThresholds: true,
		BMQWarningThreshold:   a.BMQWarningThreshold,
		BMQCriticalThreshold:  a.BMQCriticalThreshold,
	}
	if _, err := loadReportSetting(ctx, s.repo, s.logger, model.SettingKeyThresholds, &th); err != nil {
		return nil, err
	}
	return &th, nil
}

func (s *reportService) memberHandlingSettings(ctx context.Context) (*model.MemberHandlingSettings, error) {
	mh := model.MemberHandlingSettings{
		NewMemberGracePeriod:  s.cfg.Attendance.GracePeriodWeeks,
		MinimumTrainingNights: s.cfg.Attendance.MinimumTrainingNights,
		IncludeFTStaff:        true,
		ShowBMQBadge:          true,
		ShowTrendIndicators:   true,
	}
	if _, err := loadReportSetting(ctx, s.repo, s.logger, model.SettingKeyMemberHandling, &mh); err != nil {
		return nil, err
	}
	return &mh, nil
}

// reportContext 一次报表请求内共享的设置
type reportContext struct {
	params     TrainingNightParams
	thresholds *model.ThresholdSettings
	handling   *model.MemberHandlingSettings
}

func (s *reportService) loadReportContext(ctx context.Context) (*reportContext, error) {
	if err := s.resolver.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	schedule, err := s.resolver.ScheduleSettings()
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, fmt.Errorf("%w: 未配置 schedule 设置", pkgerrors.ErrInvalidConfiguration)
	}
	year, err := s.resolver.TrainingYear()
	if err != nil {
		return nil, err
	}
	var holidays []model.HolidayExclusion
	if year != nil {
		holidays = year.HolidayExclusions
	}

	th, err := s.thresholdSettings(ctx)
	if err != nil {
		return nil, err
	}
	mh, err := s.memberHandlingSettings(ctx)
	if err != nil {
		return nil, err
	}

	return &reportContext{
		params: TrainingNightParams{
			TrainingDay:       schedule.TrainingNightDay,
			TrainingStartTime: schedule.TrainingNightStart,
			TrainingEndTime:   schedule.TrainingNightEnd,
			HolidayExclusions: holidays,
			Thresholds:        AttendanceThresholds{Warning: th.WarningThreshold, Critical: th.CriticalThreshold},
			MemberHandling: MemberHandling{
				GracePeriodWeeks:      mh.NewMemberGracePeriod,
				MinimumTrainingNights: mh.MinimumTrainingNights,
			},
		},
		thresholds: th,
		handling:   mh,
	}, nil
}

func bmqThresholds(th *model.ThresholdSettings) AttendanceThresholds {
	if th.BMQSeparateThresholds {
		return AttendanceThresholds{Warning: th.BMQWarningThreshold, Critical: th.BMQCriticalThreshold}
	}
	return AttendanceThresholds{Warning: th.WarningThreshold, Critical: th.CriticalThreshold}
}

// applyFlagVisibility 关闭阈值标记显示时清空 flag
func applyFlagVisibility(calc *dto.AttendanceCalculation, th *model.ThresholdSettings) {
	if !th.ShowThresholdFlags {
		calc.Flag = ""
	}
}

func parsePeriod(start, end string) (time.Time, time.Time, error) {
	from, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start 格式错误", pkgerrors.ErrInvalidRange)
	}
	to, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end 格式错误", pkgerrors.ErrInvalidRange)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end 早于 start", pkgerrors.ErrInvalidRange)
	}
	return from, to, nil
}

func toReportMember(m *model.Member) dto.ReportMember {
	rm := dto.ReportMember{
		ID:            m.ID,
		ServiceNumber: m.ServiceNumber,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Rank:          m.Rank,
	}
	if m.DivisionID != nil {
		rm.DivisionID = *m.DivisionID
	}
	if m.Division != nil {
		rm.DivisionName = m.Division.Name
	}
	return rm
}

// ────────────────────── 单个成员 ──────────────────────

func (s *reportService) MemberAttendance(
	ctx context.Context, memberID string, start, end time.Time,
) (*dto.MemberAttendanceResponse, error) {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end 早于 start", pkgerrors.ErrInvalidRange)
	}
	rc, err := s.loadReportContext(ctx)
	if err != nil {
		return nil, err
	}

	params := rc.params
	params.MemberID = memberID
	params.PeriodStart, params.PeriodEnd = start, end

	calc, err := s.attendance.CalculateTrainingNightAttendance(ctx, params)
	if err != nil {
		return nil, err
	}
	applyFlagVisibility(calc, rc.thresholds)

	resp := &dto.MemberAttendanceResponse{
		MemberID:    memberID,
		PeriodStart: FormatDate(start),
		PeriodEnd:   FormatDate(end),
		Attendance:  *calc,
	}
	if rc.handling.ShowTrendIndicators {
		trend, err := s.attendance.CalculateTrend(ctx, memberID, start, end, params)
		if err != nil {
			return nil, err
		}
		resp.Trend = trend
	}
	return resp, nil
}

func (s *reportService) BMQMemberAttendance(ctx context.Context, courseID, memberID string) (*dto.BMQAttendanceResponse, error) {
	th, err := s.thresholdSettings(ctx)
	if err != nil {
		return nil, err
	}
	calc, err := s.bmq.CalculateBMQAttendance(ctx, BMQAttendanceParams{
		MemberID:   memberID,
		CourseID:   courseID,
		Thresholds: bmqThresholds(th),
	})
	if err != nil {
		return nil, err
	}
	applyFlagVisibility(calc, th)
	return &dto.BMQAttendanceResponse{MemberID: memberID, CourseID: courseID, Attendance: *calc}, nil
}

// ────────────────────── 训练夜报表 ──────────────────────

func (s *reportService) TrainingNightReport(
	ctx context.Context, query *dto.TrainingNightReportQuery,
) (*dto.TrainingNightReport, error) {
	start, end, err := parsePeriod(query.Start, query.End)
	if err != nil {
		return nil, err
	}
	rc, err := s.loadReportContext(ctx)
	if err != nil {
		return nil, err
	}

	includeFT := rc.handling.IncludeFTStaff
	if query.IncludeFTStaff != nil {
		includeFT = *query.IncludeFTStaff
	}

	members, err := s.repo.Member.ListActive(ctx, query.DivisionID)
	if err != nil {
		s.logger.Error("查询在册成员失败", zap.Error(err))
		return nil, err
	}

	bmqDivisionID, err := s.bmqDivisionID(ctx)
	if err != nil {
		return nil, err
	}

	enrolledIDs, err := s.repo.BMQEnrollment.ListEnrolledMemberIDs(ctx)
	if err != nil {
		s.logger.Error("查询 BMQ 报名成员失败", zap.Error(err))
		return nil, err
	}
	enrolled := make(map[string]bool, len(enrolledIDs))
	for _, id := range enrolledIDs {
		enrolled[id] = true
	}

	rows := make([]dto.TrainingNightAttendanceRow, 0, len(members))
	for i := range members {
		m := &members[i]
		if !includeFT {
			if c := CategorizeMember(m, bmqDivisionID); c == CategoryFTS || c == CategoryFTSEDT {
				continue
			}
		}

		params := rc.params
		params.MemberID = m.ID
		params.PeriodStart, params.PeriodEnd = start, end

		calc, err := s.attendance.CalculateTrainingNightAttendance(ctx, params)
		if err != nil {
			return nil, err
		}
		applyFlagVisibility(calc, rc.thresholds)

		row := dto.TrainingNightAttendanceRow{
			Member:         toReportMember(m),
			Attendance:     *calc,
			IsBMQEnrolled:  enrolled[m.ID],
			EnrollmentDate: m.CreatedAt,
		}
		if rc.handling.ShowTrendIndicators {
			trend, err := s.attendance.CalculateTrend(ctx, m.ID, start, end, params)
			if err != nil {
				return nil, err
			}
			row.Trend = trend
		}
		rows = append(rows, row)
	}

	s.logger.Info("训练夜出勤报表已生成",
		zap.String("start", query.Start),
		zap.String("end", query.End),
		zap.Int("rows", len(rows)),
	)
	return &dto.TrainingNightReport{
		PeriodStart: FormatDate(start),
		PeriodEnd:   FormatDate(end),
		GeneratedAt: s.now(),
		Rows:        rows,
	}, nil
}

func (s *reportService) bmqDivisionID(ctx context.Context) (string, error) {
	division, err := s.repo.Division.GetByCode(ctx, s.cfg.Facility.BMQDivisionCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		s.logger.Error("查询 BMQ 部门失败", zap.Error(err))
		return "", err
	}
	return division.ID, nil
}

// ────────────────────── BMQ 课程报表 ──────────────────────

func (s *reportService) BMQReport(ctx context.Context, courseID string) (*dto.BMQReport, error) {
	course, err := s.repo.BMQCourse.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBMQCourseNotFound
		}
		s.logger.Error("查询 BMQ 课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	sessions, err := BMQSessionDates(course)
	if err != nil {
		return nil, err
	}

	th, err := s.thresholdSettings(ctx)
	if err != nil {
		return nil, err
	}
	thresholds := bmqThresholds(th)

	enrollments, err := s.repo.BMQEnrollment.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询 BMQ 报名失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	rows := make([]dto.BMQAttendanceRow, 0, len(enrollments))
	for _, e := range enrollments {
		calc, err := s.bmq.CalculateBMQAttendance(ctx, BMQAttendanceParams{
			MemberID:   e.MemberID,
			CourseID:   courseID,
			Thresholds: thresholds,
		})
		if err != nil {
			return nil, err
		}
		applyFlagVisibility(calc, th)

		row := dto.BMQAttendanceRow{
			Attendance:       *calc,
			EnrollmentStatus: e.Status,
			EnrolledAt:       e.EnrolledAt,
		}
		if e.Member != nil {
			row.Member = toReportMember(e.Member)
		} else {
			row.Member = dto.ReportMember{ID: e.MemberID}
		}
		rows = append(rows, row)
	}

	return &dto.BMQReport{
		CourseID:    course.ID,
		CourseName:  course.Name,
		StartDate:   FormatDate(course.StartDate),
		EndDate:     FormatDate(course.EndDate),
		Sessions:    len(sessions),
		GeneratedAt: s.now(),
		Rows:        rows,
	}, nil
}
