package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/repository"
	pkgerrors "github.com/DeadshotOMEGA/sentinel-sub002/pkg/errors"
)

// ScheduleResolver 日程解析接口
//
// 设计说明：
//   - Initialize 一次性加载 schedule / working_hours 设置、当前训练年度与启用中的 BMQ 课程，
//     校验并编译为不可变快照
//   - 快照在 Reset 之前保持不变，外部修改配置后需显式 Reset 才会生效
//   - ResolveDate 是 (日期, 快照) 的纯函数
//   - 优先级：假期 > 单日例外 > 训练夜 / 行政夜 / 工作日
type ScheduleResolver interface {
	Initialize(ctx context.Context) error
	// EnsureInitialized 首次使用时加载，已加载则直接返回
	EnsureInitialized(ctx context.Context) error
	// Reset 使缓存失效，下一次 EnsureInitialized 重新加载
	Reset()

	ResolveDate(date time.Time) (*dto.DayProfile, error)
	ResolveDateRange(start, end time.Time) ([]dto.DayProfile, error)

	ScheduleSettings() (*model.ScheduleSettings, error)
	WorkingHoursSettings() (*model.WorkingHoursSettings, error)
	TrainingYear() (*model.TrainingYear, error)
	BMQCourses() ([]model.BMQCourse, error)
}

// scheduleSnapshot 编译后的配置快照，创建后只读
type scheduleSnapshot struct {
	schedule     *model.ScheduleSettings
	workingHours *model.WorkingHoursSettings
	trainingYear *model.TrainingYear
	courses      []model.BMQCourse

	trainingDay    *time.Weekday
	adminDay       *time.Weekday
	regularDays    map[time.Weekday]bool
	hasSummer      bool
	summerStart    int
	summerEnd      int
	holidays       []holidayRange
	dayExceptions  map[string]string
	compiledCourse []compiledCourse
}

type compiledCourse struct {
	id     string
	start  time.Time
	end    time.Time
	days   map[time.Weekday]bool
	window dto.TimeWindow
}

type scheduleResolver struct {
	repo   *repository.Repository
	logger *zap.Logger

	loadMu sync.Mutex // 串行化加载
	mu     sync.RWMutex
	snap   *scheduleSnapshot
}

// NewScheduleResolver 创建 ScheduleResolver 实例
func NewScheduleResolver(repo *repository.Repository, logger *zap.Logger) ScheduleResolver {
	return &scheduleResolver{repo: repo, logger: logger}
}

// ────────────────────── 加载 ──────────────────────

func (r *scheduleResolver) Initialize(ctx context.Context) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	return r.load(ctx)
}

func (r *scheduleResolver) EnsureInitialized(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.snap != nil
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	r.mu.RLock()
	loaded = r.snap != nil
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	return r.load(ctx)
}

func (r *scheduleResolver) Reset() {
	r.mu.Lock()
	r.snap = nil
	r.mu.Unlock()
}

func (r *scheduleResolver) load(ctx context.Context) error {
	var schedule model.ScheduleSettings
	hasSchedule, err := r.loadSetting(ctx, model.SettingKeySchedule, &schedule)
	if err != nil {
		return err
	}

	var workingHours model.WorkingHoursSettings
	hasWorkingHours, err := r.loadSetting(ctx, model.SettingKeyWorkingHours, &workingHours)
	if err != nil {
		return err
	}

	trainingYear, err := r.repo.TrainingYear.GetCurrent(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Error("查询当前训练年度失败", zap.Error(err))
			return err
		}
		trainingYear = nil
	}

	courses, err := r.repo.BMQCourse.ListActive(ctx)
	if err != nil {
		r.logger.Error("查询 BMQ 课程失败", zap.Error(err))
		return err
	}

	snap := &scheduleSnapshot{trainingYear: trainingYear, courses: courses}
	if hasSchedule {
		snap.schedule = &schedule
	}
	if hasWorkingHours {
		snap.workingHours = &workingHours
	}
	if err := r.compile(snap); err != nil {
		r.logger.Error("日程配置无效", zap.Error(err))
		return err
	}

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()

	r.logger.Info("日程配置已加载",
		zap.Bool("schedule", hasSchedule),
		zap.Bool("working_hours", hasWorkingHours),
		zap.Bool("training_year", trainingYear != nil),
		zap.Int("bmq_courses", len(courses)),
	)
	return nil
}

func (r *scheduleResolver) loadSetting(ctx context.Context, key string, out interface{}) (bool, error) {
	return loadReportSetting(ctx, r.repo, r.logger, key, out)
}

// compile 校验配置并预计算查询结构
func (r *scheduleResolver) compile(snap *scheduleSnapshot) error {
	if s := snap.schedule; s != nil {
		td, err := ParseWeekday(s.TrainingNightDay)
		if err != nil {
			return err
		}
		ad, err := ParseWeekday(s.AdminNightDay)
		if err != nil {
			return err
		}
		for _, clock := range []string{s.TrainingNightStart, s.TrainingNightEnd, s.AdminNightStart, s.AdminNightEnd} {
			if _, err := parseClock(clock); err != nil {
				return err
			}
		}
		snap.trainingDay = &td
		snap.adminDay = &ad
	}

	snap.regularDays = map[time.Weekday]bool{}
	if wh := snap.workingHours; wh != nil {
		for _, name := range wh.RegularWeekdays {
			wd, err := ParseWeekday(name)
			if err != nil {
				return err
			}
			snap.regularDays[wd] = true
		}
		for _, clock := range []string{wh.RegularWeekdayStart, wh.RegularWeekdayEnd, wh.SummerWeekdayStart, wh.SummerWeekdayEnd} {
			if clock == "" {
				continue
			}
			if _, err := parseClock(clock); err != nil {
				return err
			}
		}
		if wh.SummerStartDate != "" || wh.SummerEndDate != "" {
			if wh.SummerWeekdayStart == "" || wh.SummerWeekdayEnd == "" {
				return fmt.Errorf("%w: 设置了夏季日期但缺少夏季工作时间", pkgerrors.ErrInvalidConfiguration)
			}
			start, err := parseMonthDay(wh.SummerStartDate)
			if err != nil {
				return err
			}
			end, err := parseMonthDay(wh.SummerEndDate)
			if err != nil {
				return err
			}
			if start > end {
				r.logger.Warn("夏季时段跨年，不支持跨年区间，夏季工作时间将不生效",
					zap.String("start", wh.SummerStartDate), zap.String("end", wh.SummerEndDate))
			}
			snap.hasSummer = true
			snap.summerStart, snap.summerEnd = start, end
		}
	}

	snap.dayExceptions = map[string]string{}
	if ty := snap.trainingYear; ty != nil {
		holidays, err := compileHolidays(ty.HolidayExclusions)
		if err != nil {
			return err
		}
		snap.holidays = holidays
		for _, ex := range ty.DayExceptions {
			d, err := ParseDate(ex.Date)
			if err != nil {
				return fmt.Errorf("%w: 无效的例外日期 %q", pkgerrors.ErrInvalidConfiguration, ex.Date)
			}
			switch ex.Type {
			case model.DayExceptionDayOff, model.DayExceptionCancelledTraining, model.DayExceptionCancelledAdmin:
			default:
				return fmt.Errorf("%w: 无效的例外类型 %q", pkgerrors.ErrInvalidConfiguration, ex.Type)
			}
			snap.dayExceptions[FormatDate(d)] = ex.Type
		}
	}

	snap.compiledCourse = make([]compiledCourse, 0, len(snap.courses))
	for _, c := range snap.courses {
		days, err := parseWeekdaySet(c.TrainingDays)
		if err != nil {
			return fmt.Errorf("BMQ 课程 %s: %w", c.Name, err)
		}
		if _, err := parseClock(c.TrainingStartTime); err != nil {
			return fmt.Errorf("BMQ 课程 %s: %w", c.Name, err)
		}
		if _, err := parseClock(c.TrainingEndTime); err != nil {
			return fmt.Errorf("BMQ 课程 %s: %w", c.Name, err)
		}
		snap.compiledCourse = append(snap.compiledCourse, compiledCourse{
			id:     c.ID,
			start:  DateOnly(c.StartDate),
			end:    DateOnly(c.EndDate),
			days:   days,
			window: dto.TimeWindow{Start: c.TrainingStartTime, End: c.TrainingEndTime},
		})
	}
	return nil
}

func (r *scheduleResolver) snapshot() (*scheduleSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snap == nil {
		return nil, fmt.Errorf("ScheduleResolver: %w", pkgerrors.ErrNotInitialized)
	}
	return r.snap, nil
}

// ────────────────────── 解析 ──────────────────────

func (r *scheduleResolver) ResolveDate(date time.Time) (*dto.DayProfile, error) {
	snap, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	p := snap.resolve(DateOnly(date))
	return &p, nil
}

func (r *scheduleResolver) ResolveDateRange(start, end time.Time) ([]dto.DayProfile, error) {
	snap, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	from, to := DateOnly(start), DateOnly(end)
	if to.Before(from) {
		return []dto.DayProfile{}, nil
	}

	profiles := make([]dto.DayProfile, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		profiles = append(profiles, snap.resolve(d))
	}
	return profiles, nil
}

// resolve 按优先级为单日生成画像，date 必须是 UTC 零点
func (s *scheduleSnapshot) resolve(date time.Time) dto.DayProfile {
	weekday := date.Weekday()
	p := dto.DayProfile{
		Date:      FormatDate(date),
		DayOfWeek: weekdayName(weekday),
	}

	// 1. 假期覆盖一切
	if h, ok := matchHoliday(s.holidays, date); ok {
		p.IsHoliday = true
		p.HolidayName = h.name
		return p
	}

	// 2. 夏季工作时间
	if s.hasSummer {
		md := int(date.Month())*100 + date.Day()
		p.IsSummerHours = md >= s.summerStart && md <= s.summerEnd
	}

	// 3. 工作日 / 训练夜 / 行政夜
	p.IsWorkDay = s.regularDays[weekday]
	p.IsTrainingNight = s.trainingDay != nil && *s.trainingDay == weekday
	p.IsAdminNight = s.adminDay != nil && *s.adminDay == weekday

	// 4. 单日例外
	if ex, ok := s.dayExceptions[p.Date]; ok {
		p.DayException = ex
		switch ex {
		case model.DayExceptionDayOff:
			p.IsWorkDay = false
		case model.DayExceptionCancelledTraining:
			p.IsTrainingNight = false
		case model.DayExceptionCancelledAdmin:
			p.IsAdminNight = false
		}
	}

	// 5. BMQ：重叠课程以先出现者为准
	for i := range s.compiledCourse {
		c := &s.compiledCourse[i]
		if date.Before(c.start) || date.After(c.end) || !c.days[weekday] {
			continue
		}
		p.IsBMQDay = true
		p.BMQCourseID = c.id
		w := c.window
		p.BMQHours = &w
		break
	}

	// 6. 时间窗口
	if p.IsWorkDay && s.workingHours != nil {
		if p.IsSummerHours {
			p.WorkHours = &dto.TimeWindow{Start: s.workingHours.SummerWeekdayStart, End: s.workingHours.SummerWeekdayEnd}
		} else {
			p.WorkHours = &dto.TimeWindow{Start: s.workingHours.RegularWeekdayStart, End: s.workingHours.RegularWeekdayEnd}
		}
	}
	if p.IsTrainingNight {
		p.TrainingNightHours = &dto.TimeWindow{Start: s.schedule.TrainingNightStart, End: s.schedule.TrainingNightEnd}
	}
	if p.IsAdminNight {
		p.AdminNightHours = &dto.TimeWindow{Start: s.schedule.AdminNightStart, End: s.schedule.AdminNightEnd}
	}

	return p
}

// ────────────────────── Getters ──────────────────────
// 返回缓存对象，调用方不得修改

func (r *scheduleResolver) ScheduleSettings() (*model.ScheduleSettings, error) {
	snap, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.schedule, nil
}

func (r *scheduleResolver) WorkingHoursSettings() (*model.WorkingHoursSettings, error) {
	snap, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.workingHours, nil
}

func (r *scheduleResolver) TrainingYear() (*model.TrainingYear, error) {
	snap, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.trainingYear, nil
}

func (r *scheduleResolver) BMQCourses() ([]model.BMQCourse, error) {
	snap, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.courses, nil
}
