package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/config"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/repository"
	pkgerrors "github.com/DeadshotOMEGA/sentinel-sub002/pkg/errors"
)

const (
	defaultLastDays   = 30
	checkinMethod     = "badge"
	visitorMethod     = "kiosk"
	defaultVisitStart = 8 * 60
	defaultVisitEnd   = 16 * 60
)

// SimulationService 历史数据模拟接口
//
// 设计说明：
//   - 基于 ScheduleResolver 的日程画像与分类后的成员名册生成刷卡、访客与活动数据
//   - 逐日"先生成、后批量写入"，不跨日事务；失败时已写入的日期保留
//   - 不与已有数据去重，调用方应先执行 Precheck
//   - 所有随机性来自注入的 Random，固定种子可复现
type SimulationService interface {
	Initialize(ctx context.Context) error
	EnsureInitialized(ctx context.Context) error
	// Reset 丢弃成员分类缓存
	Reset()

	MemberCategoryCounts() (map[string]int, error)
	Precheck(ctx context.Context, req *dto.SimulationRequest) (*dto.SimulationPrecheck, error)
	Simulate(ctx context.Context, req *dto.SimulationRequest) (*dto.SimulationResponse, error)
	SimulateEvents(ctx context.Context, start, end time.Time, intensity dto.SimulationIntensity, seed uint64) (*EventSimulationResult, error)
}

// EventSimulationResult 活动模拟结果
type EventSimulationResult struct {
	Events    int
	Attendees int
	Checkins  int
}

type simulationService struct {
	cfg      *config.Config
	loc      *time.Location
	repo     *repository.Repository
	resolver ScheduleResolver
	logger   *zap.Logger
	now      func() time.Time

	mu            sync.RWMutex
	initialized   bool
	bmqDivisionID string
	members       []CategorizedMember

	runMu sync.Mutex
}

// NewSimulationService 创建 SimulationService 实例
func NewSimulationService(
	cfg *config.Config,
	loc *time.Location,
	repo *repository.Repository,
	resolver ScheduleResolver,
	logger *zap.Logger,
) SimulationService {
	return &simulationService{
		cfg:      cfg,
		loc:      loc,
		repo:     repo,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── 初始化 ──────────────────────

func (s *simulationService) Initialize(ctx context.Context) error {
	if err := s.resolver.EnsureInitialized(ctx); err != nil {
		return err
	}

	bmqDivisionID := ""
	division, err := s.repo.Division.GetByCode(ctx, s.cfg.Facility.BMQDivisionCode)
	switch {
	case err == nil:
		bmqDivisionID = division.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Warn("未找到 BMQ 部门，不会产生 BMQ 学员", zap.String("code", s.cfg.Facility.BMQDivisionCode))
	default:
		s.logger.Error("查询 BMQ 部门失败", zap.Error(err))
		return err
	}

	members, err := s.repo.Member.ListActive(ctx, "")
	if err != nil {
		s.logger.Error("查询在册成员失败", zap.Error(err))
		return err
	}
	categorized := categorizeMembers(members, bmqDivisionID)

	s.mu.Lock()
	s.bmqDivisionID = bmqDivisionID
	s.members = categorized
	s.initialized = true
	s.mu.Unlock()

	s.logger.Info("模拟成员名册已加载", zap.Int("members", len(categorized)))
	return nil
}

func (s *simulationService) EnsureInitialized(ctx context.Context) error {
	s.mu.RLock()
	ok := s.initialized
	s.mu.RUnlock()
	if ok {
		return nil
	}
	return s.Initialize(ctx)
}

func (s *simulationService) Reset() {
	s.mu.Lock()
	s.initialized = false
	s.members = nil
	s.bmqDivisionID = ""
	s.mu.Unlock()
}

func (s *simulationService) roster() ([]CategorizedMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, fmt.Errorf("SimulationService: %w", pkgerrors.ErrNotInitialized)
	}
	return s.members, nil
}

func (s *simulationService) MemberCategoryCounts() (map[string]int, error) {
	members, err := s.roster()
	if err != nil {
		return nil, err
	}
	return countCategories(members), nil
}

func countCategories(members []CategorizedMember) map[string]int {
	counts := make(map[string]int, len(AllCategories))
	for _, c := range AllCategories {
		counts[c] = 0
	}
	for _, m := range members {
		counts[m.Category]++
	}
	return counts
}

func groupByCategory(members []CategorizedMember) map[string][]CategorizedMember {
	groups := make(map[string][]CategorizedMember, len(AllCategories))
	for _, m := range members {
		groups[m.Category] = append(groups[m.Category], m)
	}
	return groups
}

// ────────────────────── 时间范围 ──────────────────────

// resolveTimeRange 返回闭区间 [start, end] 的日历日（UTC 零点）
func (s *simulationService) resolveTimeRange(tr dto.SimulationTimeRange) (time.Time, time.Time, error) {
	switch tr.Mode {
	case dto.TimeRangeCustom:
		if tr.StartDate == "" || tr.EndDate == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: 自定义范围需要 start_date 与 end_date", pkgerrors.ErrInvalidRange)
		}
		start, err := ParseDate(tr.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date 格式错误", pkgerrors.ErrInvalidRange)
		}
		end, err := ParseDate(tr.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date 格式错误", pkgerrors.ErrInvalidRange)
		}
		if end.Before(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date 早于 start_date", pkgerrors.ErrInvalidRange)
		}
		return start, end, nil

	case dto.TimeRangeLastDays, "":
		days := tr.LastDays
		if days <= 0 {
			days = defaultLastDays
		}
		local := s.now().In(s.loc)
		end := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		return end.AddDate(0, 0, -days), end, nil

	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 未知的范围模式 %q", pkgerrors.ErrInvalidRange, tr.Mode)
	}
}

// ────────────────────── Precheck ──────────────────────

func (s *simulationService) Precheck(ctx context.Context, req *dto.SimulationRequest) (*dto.SimulationPrecheck, error) {
	members, err := s.roster()
	if err != nil {
		return nil, err
	}
	start, end, err := s.resolveTimeRange(req.TimeRange)
	if err != nil {
		return nil, err
	}
	return s.precheck(ctx, start, end, members)
}

func (s *simulationService) precheck(
	ctx context.Context, start, end time.Time, members []CategorizedMember,
) (*dto.SimulationPrecheck, error) {
	from, to := dayBounds(start, end, s.loc)

	checkins, err := s.repo.Checkin.CountBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("统计已有刷卡记录失败", zap.Error(err))
		return nil, err
	}
	visitors, err := s.repo.Visitor.CountBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("统计已有访客记录失败", zap.Error(err))
		return nil, err
	}
	events, err := s.repo.Event.CountOverlapping(ctx, start, end)
	if err != nil {
		s.logger.Error("统计已有活动失败", zap.Error(err))
		return nil, err
	}

	return &dto.SimulationPrecheck{
		HasOverlap:       checkins > 0 || visitors > 0 || events > 0,
		ExistingCheckins: checkins,
		ExistingVisitors: visitors,
		ExistingEvents:   events,
		DateRange:        dto.DateRange{Start: FormatDate(start), End: FormatDate(end)},
		ActiveMembers:    len(members),
		MemberCategories: countCategories(members),
	}, nil
}

// ────────────────────── Simulate ──────────────────────

// simulationRun 单次模拟的只读上下文
type simulationRun struct {
	rng       *Random
	groups    map[string][]CategorizedMember
	rates     dto.SimulationAttendanceRates
	intensity dto.SimulationIntensity
	loc       *time.Location
	kioskID   string
}

// dayOutput 单日生成结果，整体写入
type dayOutput struct {
	checkins []model.Checkin
	visitors []model.Visitor
	edge     dto.EdgeCaseCounts
}

func (s *simulationService) Simulate(ctx context.Context, req *dto.SimulationRequest) (*dto.SimulationResponse, error) {
	if !s.runMu.TryLock() {
		return nil, pkgerrors.ErrSimulationRunning
	}
	defer s.runMu.Unlock()

	members, err := s.roster()
	if err != nil {
		return nil, err
	}
	start, end, err := s.resolveTimeRange(req.TimeRange)
	if err != nil {
		return nil, err
	}

	profiles, err := s.resolver.ResolveDateRange(start, end)
	if err != nil {
		return nil, err
	}

	seed := s.cfg.Simulation.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	run := &simulationRun{
		rng:       NewRandom(seed),
		groups:    groupByCategory(members),
		rates:     s.ratesOrDefault(req.AttendanceRates),
		intensity: s.intensityOrDefault(req.Intensity),
		loc:       s.loc,
		kioskID:   s.cfg.Facility.KioskID,
	}

	warnings := []string{}
	if req.WarnOnOverlap {
		pre, err := s.precheck(ctx, start, end, members)
		if err != nil {
			return nil, err
		}
		if pre.HasOverlap {
			warnings = append(warnings, fmt.Sprintf("范围内已有数据：%d 条刷卡记录，%d 位访客，%d 个活动",
				pre.ExistingCheckins, pre.ExistingVisitors, pre.ExistingEvents))
		}
	}

	s.logger.Info("开始数据模拟",
		zap.String("start", FormatDate(start)),
		zap.String("end", FormatDate(end)),
		zap.Int("members", len(members)),
		zap.Uint64("seed", seed),
	)

	var generated dto.GeneratedCounts
	var edge dto.EdgeCaseCounts
	for i := range profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := run.generateDay(&profiles[i])
		if err != nil {
			return nil, err
		}
		if err := s.repo.Checkin.BatchCreate(ctx, out.checkins); err != nil {
			s.logger.Error("写入模拟刷卡记录失败", zap.String("date", profiles[i].Date), zap.Error(err))
			return nil, fmt.Errorf("写入 %s 刷卡记录失败: %w", profiles[i].Date, err)
		}
		if err := s.repo.Visitor.BatchCreate(ctx, out.visitors); err != nil {
			s.logger.Error("写入模拟访客记录失败", zap.String("date", profiles[i].Date), zap.Error(err))
			return nil, fmt.Errorf("写入 %s 访客记录失败: %w", profiles[i].Date, err)
		}

		generated.Checkins += len(out.checkins)
		generated.Visitors += len(out.visitors)
		edge.ForgottenCheckouts += out.edge.ForgottenCheckouts
		edge.LateArrivals += out.edge.LateArrivals
		edge.EarlyDepartures += out.edge.EarlyDepartures
		edge.FlaggedEntries += out.edge.FlaggedEntries
	}

	events, err := s.simulateEvents(ctx, run, start, end)
	if err != nil {
		return nil, err
	}
	generated.Events = events.Events
	generated.EventAttendees = events.Attendees
	generated.EventCheckins = events.Checkins

	counts := countCategories(members)
	resp := &dto.SimulationResponse{
		Summary: dto.SimulationSummary{
			DateRange:     dto.DateRange{Start: FormatDate(start), End: FormatDate(end)},
			DaysSimulated: len(profiles),
			Generated:     generated,
			MemberBreakdown: dto.MemberBreakdown{
				FTS:     counts[CategoryFTS] + counts[CategoryFTSEDT],
				Reserve: counts[CategoryReserve] + counts[CategoryReserveEDT],
				BMQ:     counts[CategoryBMQStudent],
				EDT:     counts[CategoryFTSEDT] + counts[CategoryReserveEDT],
			},
			EdgeCases: edge,
		},
		Warnings: warnings,
	}

	s.logger.Info("数据模拟完成",
		zap.Int("days", len(profiles)),
		zap.Int("checkins", generated.Checkins),
		zap.Int("visitors", generated.Visitors),
		zap.Int("events", generated.Events),
	)
	return resp, nil
}

func (s *simulationService) ratesOrDefault(r *dto.SimulationAttendanceRates) dto.SimulationAttendanceRates {
	if r != nil {
		return *r
	}
	d := s.cfg.Simulation.Rates
	return dto.SimulationAttendanceRates{
		FTSWorkDays:          d.FTSWorkDays,
		FTSTrainingNight:     d.FTSTrainingNight,
		FTSAdminNight:        d.FTSAdminNight,
		ReserveTrainingNight: d.ReserveTrainingNight,
		ReserveAdminNight:    d.ReserveAdminNight,
		BMQAttendance:        d.BMQAttendance,
		EDTAppearance:        d.EDTAppearance,
	}
}

func (s *simulationService) intensityOrDefault(in *dto.SimulationIntensity) dto.SimulationIntensity {
	if in != nil {
		return *in
	}
	d := s.cfg.Simulation.Intensity
	return dto.SimulationIntensity{
		VisitorsPerDay:     dto.IntRange{Min: d.VisitorsPerDayMin, Max: d.VisitorsPerDayMax},
		EventsPerMonth:     dto.IntRange{Min: d.EventsPerMonthMin, Max: d.EventsPerMonthMax},
		EdgeCasePercentage: d.EdgeCasePercentage,
	}
}

// ════════════════════════════════════════════════════════════
// 单日生成（纯内存，不做 I/O）
// ════════════════════════════════════════════════════════════

func (run *simulationRun) generateDay(p *dto.DayProfile) (*dayOutput, error) {
	out := &dayOutput{}
	if p.IsHoliday {
		return out, nil
	}
	date, err := ParseDate(p.Date)
	if err != nil {
		return nil, err
	}

	// 工作日：全职人员
	if p.IsWorkDay && p.WorkHours != nil {
		w, err := parseWindow(p.WorkHours)
		if err != nil {
			return nil, err
		}
		for _, m := range run.members(CategoryFTS, CategoryFTSEDT) {
			if run.rng.Chance(run.rates.FTSWorkDays) {
				run.workDayCheckins(out, m, date, w)
			}
		}
	}

	// 训练夜：全职 + 预备役，ED&T 人员偶尔出现
	if p.IsTrainingNight && p.TrainingNightHours != nil {
		w, err := parseWindow(p.TrainingNightHours)
		if err != nil {
			return nil, err
		}
		run.nightCheckins(out, CategoryFTS, run.rates.FTSTrainingNight, date, w)
		run.nightCheckins(out, CategoryFTSEDT, run.rates.EDTAppearance, date, w)
		run.nightCheckins(out, CategoryReserve, run.rates.ReserveTrainingNight, date, w)
		run.nightCheckins(out, CategoryReserveEDT, run.rates.EDTAppearance, date, w)
	}

	// 行政夜
	if p.IsAdminNight && p.AdminNightHours != nil {
		w, err := parseWindow(p.AdminNightHours)
		if err != nil {
			return nil, err
		}
		run.nightCheckins(out, CategoryFTS, run.rates.FTSAdminNight, date, w)
		run.nightCheckins(out, CategoryReserve, run.rates.ReserveAdminNight, date, w)
	}

	// BMQ 训练日
	if p.IsBMQDay && p.BMQHours != nil {
		w, err := parseWindow(p.BMQHours)
		if err != nil {
			return nil, err
		}
		for _, m := range run.groups[CategoryBMQStudent] {
			if run.rng.Chance(run.rates.BMQAttendance) {
				run.bmqCheckins(out, m, date, w)
			}
		}
	}

	run.flagRecords(out)

	// 访客
	if p.IsWorkDay || p.IsTrainingNight || p.IsAdminNight {
		w, err := visitorWindow(p)
		if err != nil {
			return nil, err
		}
		n := run.rng.Int(run.intensity.VisitorsPerDay.Min, run.intensity.VisitorsPerDay.Max)
		run.generateVisitors(out, date, w, n)
	}

	return out, nil
}

func (run *simulationRun) members(categories ...string) []CategorizedMember {
	var result []CategorizedMember
	for _, c := range categories {
		result = append(result, run.groups[c]...)
	}
	return result
}

func (run *simulationRun) newCheckin(m CategorizedMember, direction string, ts time.Time) model.Checkin {
	return model.Checkin{
		ID:        uuid.NewString(),
		MemberID:  m.ID,
		BadgeID:   m.BadgeID,
		Direction: direction,
		Timestamp: ts,
		KioskID:   run.kioskID,
		Method:    checkinMethod,
		Synced:    true,
	}
}

// workDayCheckins 迟到 / 早退 / 忘记签退三者互斥
func (run *simulationRun) workDayCheckins(out *dayOutput, m CategorizedMember, date time.Time, w clockWindow) {
	isEdge := run.rng.Chance(run.intensity.EdgeCasePercentage)
	isLate := isEdge && run.rng.Chance(50)
	isEarly := isEdge && !isLate && run.rng.Chance(50)
	forgot := isEdge && !isLate && !isEarly

	var in int
	if isLate {
		in = withVariance(run.rng, w.start, 15, 60)
		out.edge.LateArrivals++
	} else {
		in = withVariance(run.rng, w.start, -10, 5)
	}

	var leave int
	if isEarly {
		leave = withVariance(run.rng, w.end, -90, -30)
		out.edge.EarlyDepartures++
	} else {
		leave = withVariance(run.rng, w.end, -5, 15)
	}

	out.checkins = append(out.checkins, run.newCheckin(m, model.DirectionIn, atClock(date, in, run.loc)))
	if forgot {
		out.edge.ForgottenCheckouts++
	} else {
		out.checkins = append(out.checkins, run.newCheckin(m, model.DirectionOut, atClock(date, leave, run.loc)))
	}

	// 午餐或外出
	if run.rng.Chance(10) && !forgot {
		lunchOut := withVariance(run.rng, 12*60, -30, 30)
		lunchIn := withVariance(run.rng, 13*60, -15, 30)
		out.checkins = append(out.checkins,
			run.newCheckin(m, model.DirectionOut, atClock(date, lunchOut, run.loc)),
			run.newCheckin(m, model.DirectionIn, atClock(date, lunchIn, run.loc)),
		)
	}
}

// nightCheckins 训练夜 / 行政夜共用
func (run *simulationRun) nightCheckins(out *dayOutput, category string, rate float64, date time.Time, w clockWindow) {
	for _, m := range run.groups[category] {
		if !run.rng.Chance(rate) {
			continue
		}

		isEdge := run.rng.Chance(run.intensity.EdgeCasePercentage)
		isLate := isEdge && run.rng.Chance(40)
		forgot := isEdge && !isLate && run.rng.Chance(30)

		var in int
		if isLate {
			in = withVariance(run.rng, w.start, 10, 45)
			out.edge.LateArrivals++
		} else {
			in = withVariance(run.rng, w.start, -15, 10)
		}
		leave := withVariance(run.rng, w.end, -10, 15)

		out.checkins = append(out.checkins, run.newCheckin(m, model.DirectionIn, atClock(date, in, run.loc)))
		if forgot {
			out.edge.ForgottenCheckouts++
			continue
		}
		out.checkins = append(out.checkins, run.newCheckin(m, model.DirectionOut, atClock(date, leave, run.loc)))
	}
}

// bmqCheckins BMQ 学员更守时
func (run *simulationRun) bmqCheckins(out *dayOutput, m CategorizedMember, date time.Time, w clockWindow) {
	isEdge := run.rng.Chance(run.intensity.EdgeCasePercentage)
	isLate := isEdge && run.rng.Chance(30)
	forgot := isEdge && !isLate && run.rng.Chance(30)

	var in int
	if isLate {
		in = withVariance(run.rng, w.start, 5, 20)
		out.edge.LateArrivals++
	} else {
		in = withVariance(run.rng, w.start, -15, 0)
	}
	leave := withVariance(run.rng, w.end, -5, 10)

	out.checkins = append(out.checkins, run.newCheckin(m, model.DirectionIn, atClock(date, in, run.loc)))
	if forgot {
		out.edge.ForgottenCheckouts++
		return
	}
	out.checkins = append(out.checkins, run.newCheckin(m, model.DirectionOut, atClock(date, leave, run.loc)))
}

// flagRecords 按异常比例的十分之一标记待复核
func (run *simulationRun) flagRecords(out *dayOutput) {
	n := int(float64(len(out.checkins)) * run.intensity.EdgeCasePercentage / 100 * 0.1)
	if n <= 0 {
		return
	}
	indexes := make([]int, len(out.checkins))
	for i := range indexes {
		indexes[i] = i
	}
	for _, i := range PickN(run.rng, indexes, n) {
		reason := Pick(run.rng, flagReasons)
		out.checkins[i].FlaggedForReview = true
		out.checkins[i].FlagReason = &reason
		out.edge.FlaggedEntries++
	}
}

// visitorWindow 训练夜 > 行政夜 > 工作时间 > 08:00-16:00
func visitorWindow(p *dto.DayProfile) (clockWindow, error) {
	switch {
	case p.IsTrainingNight && p.TrainingNightHours != nil:
		return parseWindow(p.TrainingNightHours)
	case p.IsAdminNight && p.AdminNightHours != nil:
		return parseWindow(p.AdminNightHours)
	case p.WorkHours != nil:
		return parseWindow(p.WorkHours)
	default:
		return clockWindow{start: defaultVisitStart, end: defaultVisitEnd}, nil
	}
}

func (run *simulationRun) generateVisitors(out *dayOutput, date time.Time, w clockWindow, count int) {
	hosts := run.groups[CategoryFTS]
	for i := 0; i < count; i++ {
		name, organization := randomPerson(run.rng)
		visitType := Pick(run.rng, visitTypes)
		reason := Pick(run.rng, visitReasons)

		in := run.rng.Int(w.start, w.end-60)
		duration := run.rng.Int(30, 240)
		leave := in + duration
		if leave > w.end+30 {
			leave = w.end + 30
		}

		forgot := run.rng.Chance(run.intensity.EdgeCasePercentage * 2)

		var hostID *string
		if run.rng.Chance(80) && len(hosts) > 0 {
			id := Pick(run.rng, hosts).ID
			hostID = &id
		}

		v := model.Visitor{
			ID:            uuid.NewString(),
			Name:          name,
			Organization:  organization,
			VisitType:     visitType,
			VisitReason:   &reason,
			HostMemberID:  hostID,
			CheckInTime:   atClock(date, in, run.loc),
			KioskID:       run.kioskID,
			CheckInMethod: visitorMethod,
		}
		if forgot {
			out.edge.ForgottenCheckouts++
		} else {
			t := atClock(date, leave, run.loc)
			v.CheckOutTime = &t
		}
		out.visitors = append(out.visitors, v)
	}
}
