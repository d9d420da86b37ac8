package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/repository"
	pkgerrors "github.com/DeadshotOMEGA/sentinel-sub002/pkg/errors"
)

// ── 出勤模块业务错误 ──

var (
	ErrMemberNotFound = fmt.Errorf("成员不存在: %w", pkgerrors.ErrNotFound)
)

const badgeNew = "New"

// AttendanceThresholds 出勤阈值（百分比）
type AttendanceThresholds struct {
	Warning  float64
	Critical float64
}

// MemberHandling 新成员与最少样本规则
type MemberHandling struct {
	GracePeriodWeeks      int
	MinimumTrainingNights int
}

// TrainingNightParams 训练夜出勤计算参数
type TrainingNightParams struct {
	MemberID          string
	PeriodStart       time.Time
	PeriodEnd         time.Time
	TrainingDay       string // "tuesday"
	TrainingStartTime string // "19:00"
	TrainingEndTime   string // "22:10"
	HolidayExclusions []model.HolidayExclusion
	Thresholds        AttendanceThresholds
	MemberHandling    MemberHandling
}

// AttendanceCalculator 训练夜出勤统计接口
type AttendanceCalculator interface {
	// GetTrainingNightCheckins 返回成员在给定训练夜中实际到场的日期（每晚至多一次）
	GetTrainingNightCheckins(ctx context.Context, memberID string, nights []time.Time, window dto.TimeWindow) ([]time.Time, error)
	CalculateTrainingNightAttendance(ctx context.Context, params TrainingNightParams) (*dto.AttendanceCalculation, error)
	// CalculateTrend 与紧邻的等长上一周期比较
	CalculateTrend(ctx context.Context, memberID string, currentStart, currentEnd time.Time, params TrainingNightParams) (*dto.TrendIndicator, error)
}

type attendanceCalculator struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceCalculator 创建 AttendanceCalculator 实例
// now 为空时使用 time.Now
func NewAttendanceCalculator(repo *repository.Repository, logger *zap.Logger, now func() time.Time) AttendanceCalculator {
	if now == nil {
		now = time.Now
	}
	return &attendanceCalculator{repo: repo, logger: logger, now: now}
}

// ════════════════════════════════════════════════════════════
// 纯函数
// ════════════════════════════════════════════════════════════

// GetTrainingNights 返回 [start, end] 内所有指定星期的日期，剔除假期
// 与 ScheduleResolver 独立推导，不依赖其快照
func GetTrainingNights(start, end time.Time, trainingDay string, exclusions []model.HolidayExclusion) ([]time.Time, error) {
	target, err := ParseWeekday(trainingDay)
	if err != nil {
		return nil, err
	}
	holidays, err := compileHolidays(exclusions)
	if err != nil {
		return nil, err
	}

	from, to := DateOnly(start), DateOnly(end)
	offset := (int(target) - int(from.Weekday()) + 7) % 7
	nights := []time.Time{}
	for d := from.AddDate(0, 0, offset); !d.After(to); d = d.AddDate(0, 0, 7) {
		if _, ok := matchHoliday(holidays, d); ok {
			continue
		}
		nights = append(nights, d)
	}
	return nights, nil
}

// GetThresholdFlag 出勤阈值标记
// pct >= warning → none；critical <= pct < warning → warning；pct < critical → critical
func GetThresholdFlag(pct, warning, critical float64) string {
	if pct >= warning {
		return dto.FlagNone
	}
	if pct >= critical {
		return dto.FlagWarning
	}
	return dto.FlagCritical
}

// calculatedResult 计算百分比（保留 1 位小数）并按未取整值判定阈值
func calculatedResult(attended, possible int, th AttendanceThresholds) *dto.AttendanceCalculation {
	ratio := decimal.NewFromInt(int64(attended)).
		Div(decimal.NewFromInt(int64(possible))).
		Mul(decimal.NewFromInt(100))
	pct := ratio.Round(1).InexactFloat64()
	return &dto.AttendanceCalculation{
		Status:     dto.AttendanceStatusCalculated,
		Percentage: &pct,
		Attended:   &attended,
		Possible:   &possible,
		Flag:       GetThresholdFlag(ratio.InexactFloat64(), th.Warning, th.Critical),
	}
}

func insufficientResult(attended, possible int) *dto.AttendanceCalculation {
	return &dto.AttendanceCalculation{
		Status:   dto.AttendanceStatusInsufficientData,
		Attended: &attended,
		Possible: &possible,
		Display:  fmt.Sprintf("%d of %d", attended, possible),
	}
}

// roundHalfUp 与前端一致的四舍五入（-2.5 → -2）
func roundHalfUp(x decimal.Decimal) int {
	return int(x.Add(decimal.NewFromFloat(0.5)).Floor().IntPart())
}

// ════════════════════════════════════════════════════════════
// 刷卡匹配
// ════════════════════════════════════════════════════════════

func (c *attendanceCalculator) GetTrainingNightCheckins(
	ctx context.Context, memberID string, nights []time.Time, window dto.TimeWindow,
) ([]time.Time, error) {
	return findAttendedDates(ctx, c.repo, c.logger, memberID, nights, window)
}

// findAttendedDates 训练夜与 BMQ 共用的刷卡匹配
func findAttendedDates(
	ctx context.Context, repo *repository.Repository, logger *zap.Logger,
	memberID string, dates []time.Time, window dto.TimeWindow,
) ([]time.Time, error) {
	if len(dates) == 0 {
		return []time.Time{}, nil
	}
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = FormatDate(d)
	}

	windowStart, err := normalizeClock(window.Start)
	if err != nil {
		return nil, err
	}
	windowEnd, err := normalizeClock(window.End)
	if err != nil {
		return nil, err
	}

	days, err := repo.Checkin.FindAttendedDates(ctx, memberID, keys, windowStart, windowEnd, model.DirectionIn)
	if err != nil {
		logger.Error("查询刷卡记录失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, err
	}

	attended := make([]time.Time, 0, len(days))
	seen := make(map[string]bool, len(days))
	for _, s := range days {
		if seen[s] {
			continue
		}
		seen[s] = true
		d, err := ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("无效的刷卡日期 %q: %w", s, err)
		}
		attended = append(attended, d)
	}
	return attended, nil
}

// ════════════════════════════════════════════════════════════
// CalculateTrainingNightAttendance 状态机 new → insufficient_data → calculated
// ════════════════════════════════════════════════════════════

func (c *attendanceCalculator) CalculateTrainingNightAttendance(
	ctx context.Context, params TrainingNightParams,
) (*dto.AttendanceCalculation, error) {
	member, err := c.repo.Member.GetByID(ctx, params.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		c.logger.Error("查询成员失败", zap.String("member_id", params.MemberID), zap.Error(err))
		return nil, err
	}
	return c.calculateForEnrollment(ctx, member.CreatedAt, params)
}

func (c *attendanceCalculator) calculateForEnrollment(
	ctx context.Context, enrollmentDate time.Time, params TrainingNightParams,
) (*dto.AttendanceCalculation, error) {
	// 1. 宽限期内的新成员不参与统计
	graceEnd := enrollmentDate.AddDate(0, 0, params.MemberHandling.GracePeriodWeeks*7)
	if c.now().Before(graceEnd) {
		return &dto.AttendanceCalculation{Status: dto.AttendanceStatusNew, Badge: badgeNew}, nil
	}

	// 2. 有效起点取入伍日期与周期起点的较晚者
	effectiveStart := params.PeriodStart
	if enrollmentDate.After(effectiveStart) {
		effectiveStart = enrollmentDate
	}

	// 3. 应到训练夜
	nights, err := GetTrainingNights(effectiveStart, params.PeriodEnd, params.TrainingDay, params.HolidayExclusions)
	if err != nil {
		return nil, err
	}

	window := dto.TimeWindow{Start: params.TrainingStartTime, End: params.TrainingEndTime}
	attended, err := c.GetTrainingNightCheckins(ctx, params.MemberID, nights, window)
	if err != nil {
		return nil, err
	}

	// 4. 样本不足（无应到训练夜时同样视为不足）
	if len(nights) < params.MemberHandling.MinimumTrainingNights || len(nights) == 0 {
		return insufficientResult(len(attended), len(nights)), nil
	}

	// 5. 计算百分比与阈值
	return calculatedResult(len(attended), len(nights), params.Thresholds), nil
}

// ════════════════════════════════════════════════════════════
// CalculateTrend
// ════════════════════════════════════════════════════════════

func (c *attendanceCalculator) CalculateTrend(
	ctx context.Context, memberID string, currentStart, currentEnd time.Time, params TrainingNightParams,
) (*dto.TrendIndicator, error) {
	member, err := c.repo.Member.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		c.logger.Error("查询成员失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, err
	}

	// 上一周期等长，结束于当前周期开始前 1 毫秒
	length := currentEnd.Sub(currentStart)
	previousEnd := currentStart.Add(-time.Millisecond)
	previousStart := previousEnd.Add(-length)

	params.MemberID = memberID

	cur := params
	cur.PeriodStart, cur.PeriodEnd = currentStart, currentEnd
	current, err := c.calculateForEnrollment(ctx, member.CreatedAt, cur)
	if err != nil {
		return nil, err
	}

	prev := params
	prev.PeriodStart, prev.PeriodEnd = previousStart, previousEnd
	previous, err := c.calculateForEnrollment(ctx, member.CreatedAt, prev)
	if err != nil {
		return nil, err
	}

	return trendBetween(current, previous), nil
}

// trendBetween 仅当两个周期都已计算出百分比时才有趋势
func trendBetween(current, previous *dto.AttendanceCalculation) *dto.TrendIndicator {
	if current.Status != dto.AttendanceStatusCalculated || previous.Status != dto.AttendanceStatusCalculated ||
		current.Percentage == nil || previous.Percentage == nil {
		return &dto.TrendIndicator{Trend: dto.TrendNone}
	}

	delta := roundHalfUp(decimal.NewFromFloat(*current.Percentage).Sub(decimal.NewFromFloat(*previous.Percentage)))
	trend := dto.TrendStable
	switch {
	case delta > 2:
		trend = dto.TrendUp
	case delta < -2:
		trend = dto.TrendDown
	}
	return &dto.TrendIndicator{Trend: trend, Delta: &delta}
}
