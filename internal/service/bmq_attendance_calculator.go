package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/repository"
	pkgerrors "github.com/DeadshotOMEGA/sentinel-sub002/pkg/errors"
)

// ── BMQ 模块业务错误 ──

var (
	ErrBMQCourseNotFound     = fmt.Errorf("BMQ 课程不存在: %w", pkgerrors.ErrNotFound)
	ErrBMQEnrollmentNotFound = fmt.Errorf("成员未报名该 BMQ 课程: %w", pkgerrors.ErrNotFound)
)

// BMQAttendanceParams BMQ 出勤计算参数
type BMQAttendanceParams struct {
	MemberID   string
	CourseID   string
	Thresholds AttendanceThresholds
}

// BMQAttendanceCalculator BMQ 出勤统计接口
// 与训练夜不同：支持每周多个训练日，不设新成员宽限期与最少样本数
type BMQAttendanceCalculator interface {
	GetBMQSessions(ctx context.Context, courseID string) ([]time.Time, error)
	GetBMQCheckins(ctx context.Context, memberID, courseID string, sessions []time.Time) ([]time.Time, error)
	CalculateBMQAttendance(ctx context.Context, params BMQAttendanceParams) (*dto.AttendanceCalculation, error)
}

type bmqAttendanceCalculator struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBMQAttendanceCalculator 创建 BMQAttendanceCalculator 实例
func NewBMQAttendanceCalculator(repo *repository.Repository, logger *zap.Logger) BMQAttendanceCalculator {
	return &bmqAttendanceCalculator{repo: repo, logger: logger}
}

// BMQSessionDates 逐日遍历课程区间，保留落在训练日集合内的日期
func BMQSessionDates(course *model.BMQCourse) ([]time.Time, error) {
	days, err := parseWeekdaySet(course.TrainingDays)
	if err != nil {
		return nil, err
	}

	sessions := []time.Time{}
	end := DateOnly(course.EndDate)
	for d := DateOnly(course.StartDate); !d.After(end); d = d.AddDate(0, 0, 1) {
		if days[d.Weekday()] {
			sessions = append(sessions, d)
		}
	}
	return sessions, nil
}

func (c *bmqAttendanceCalculator) getCourse(ctx context.Context, courseID string) (*model.BMQCourse, error) {
	course, err := c.repo.BMQCourse.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBMQCourseNotFound
		}
		c.logger.Error("查询 BMQ 课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func (c *bmqAttendanceCalculator) GetBMQSessions(ctx context.Context, courseID string) ([]time.Time, error) {
	course, err := c.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return BMQSessionDates(course)
}

func (c *bmqAttendanceCalculator) GetBMQCheckins(
	ctx context.Context, memberID, courseID string, sessions []time.Time,
) ([]time.Time, error) {
	if len(sessions) == 0 {
		return []time.Time{}, nil
	}
	course, err := c.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	window := dto.TimeWindow{Start: course.TrainingStartTime, End: course.TrainingEndTime}
	return findAttendedDates(ctx, c.repo, c.logger, memberID, sessions, window)
}

func (c *bmqAttendanceCalculator) CalculateBMQAttendance(
	ctx context.Context, params BMQAttendanceParams,
) (*dto.AttendanceCalculation, error) {
	if _, err := c.repo.BMQEnrollment.Get(ctx, params.MemberID, params.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBMQEnrollmentNotFound
		}
		c.logger.Error("查询 BMQ 报名失败",
			zap.String("member_id", params.MemberID), zap.String("course_id", params.CourseID), zap.Error(err))
		return nil, err
	}

	sessions, err := c.GetBMQSessions(ctx, params.CourseID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return insufficientResult(0, 0), nil
	}

	attended, err := c.GetBMQCheckins(ctx, params.MemberID, params.CourseID, sessions)
	if err != nil {
		return nil, err
	}
	return calculatedResult(len(attended), len(sessions), params.Thresholds), nil
}
