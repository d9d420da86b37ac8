package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/repository"
)

// ── Mock ReportSettingRepository ──

type mockReportSettingRepo struct {
	settings map[string]*model.ReportSetting
}

func newMockReportSettingRepo() *mockReportSettingRepo {
	return &mockReportSettingRepo{settings: make(map[string]*model.ReportSetting)}
}

func (m *mockReportSettingRepo) Get(_ context.Context, key string) (*model.ReportSetting, error) {
	if s, ok := m.settings[key]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReportSettingRepo) set(key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	m.settings[key] = &model.ReportSetting{Key: key, Value: raw}
}

func (m *mockReportSettingRepo) setRaw(key, raw string) {
	m.settings[key] = &model.ReportSetting{Key: key, Value: []byte(raw)}
}

// ── Mock TrainingYearRepository ──

type mockTrainingYearRepo struct {
	current *model.TrainingYear
	calls   int
}

func (m *mockTrainingYearRepo) GetCurrent(_ context.Context) (*model.TrainingYear, error) {
	m.calls++
	if m.current == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.current, nil
}

// ── Mock BMQCourseRepository ──

type mockBMQCourseRepo struct {
	courses []model.BMQCourse
}

func (m *mockBMQCourseRepo) GetByID(_ context.Context, id string) (*model.BMQCourse, error) {
	for i := range m.courses {
		if m.courses[i].ID == id {
			c := m.courses[i]
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBMQCourseRepo) ListActive(_ context.Context) ([]model.BMQCourse, error) {
	var result []model.BMQCourse
	for _, c := range m.courses {
		if c.IsActive {
			result = append(result, c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.Before(result[j].StartDate)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ── Mock BMQEnrollmentRepository ──

type mockBMQEnrollmentRepo struct {
	enrollments []model.BMQEnrollment
}

func (m *mockBMQEnrollmentRepo) Get(_ context.Context, memberID, courseID string) (*model.BMQEnrollment, error) {
	for i := range m.enrollments {
		e := m.enrollments[i]
		if e.MemberID == memberID && e.BMQCourseID == courseID {
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBMQEnrollmentRepo) ListByCourse(_ context.Context, courseID string) ([]model.BMQEnrollment, error) {
	var result []model.BMQEnrollment
	for _, e := range m.enrollments {
		if e.BMQCourseID == courseID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockBMQEnrollmentRepo) ListEnrolledMemberIDs(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range m.enrollments {
		if e.Status == "enrolled" && !seen[e.MemberID] {
			seen[e.MemberID] = true
			ids = append(ids, e.MemberID)
		}
	}
	return ids, nil
}

// ── Mock DivisionRepository ──

type mockDivisionRepo struct {
	divisions map[string]*model.Division // code → division
}

func newMockDivisionRepo() *mockDivisionRepo {
	return &mockDivisionRepo{divisions: make(map[string]*model.Division)}
}

func (m *mockDivisionRepo) GetByCode(_ context.Context, code string) (*model.Division, error) {
	if d, ok := m.divisions[code]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock MemberRepository ──

type mockMemberRepo struct {
	members []model.Member
}

func (m *mockMemberRepo) GetByID(_ context.Context, id string) (*model.Member, error) {
	for i := range m.members {
		if m.members[i].ID == id {
			member := m.members[i]
			return &member, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMemberRepo) ListActive(_ context.Context, divisionID string) ([]model.Member, error) {
	var result []model.Member
	for _, member := range m.members {
		if member.Status != "active" {
			continue
		}
		if divisionID != "" && (member.DivisionID == nil || *member.DivisionID != divisionID) {
			continue
		}
		result = append(result, member)
	}
	return result, nil
}

// ── Mock BadgeRepository ──

type mockBadgeRepo struct {
	badges []model.Badge
}

func (m *mockBadgeRepo) ListUnassigned(_ context.Context, limit int) ([]model.Badge, error) {
	var result []model.Badge
	for _, b := range m.badges {
		if b.AssignmentType == "unassigned" && b.Status == "active" {
			result = append(result, b)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// ── Mock CheckinRepository ──

// errBatchFailed 由 failOnBatch 注入的写入失败
var errBatchFailed = errors.New("批量写入失败")

type mockCheckinRepo struct {
	loc      *time.Location
	checkins []model.Checkin
	batches  int
	queries  int
	// 第 N 次非空写入返回 errBatchFailed，0 表示不注入
	failOnBatch int
}

func newMockCheckinRepo(loc *time.Location) *mockCheckinRepo {
	return &mockCheckinRepo{loc: loc}
}

// FindAttendedDates 与 SQL 实现一致：按设施时区取本地日期与时刻，闭区间匹配
func (m *mockCheckinRepo) FindAttendedDates(
	_ context.Context, memberID string, dates []string, windowStart, windowEnd, direction string,
) ([]string, error) {
	m.queries++
	// 与 SQL 的 ::time 比较一致，按分钟数而非文本比较
	from, err := parseClock(windowStart)
	if err != nil {
		return nil, err
	}
	to, err := parseClock(windowEnd)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(dates))
	for _, d := range dates {
		wanted[d] = true
	}
	seen := make(map[string]bool)
	var result []string
	for _, c := range m.checkins {
		if c.MemberID != memberID || c.Direction != direction {
			continue
		}
		local := c.Timestamp.In(m.loc)
		day := local.Format("2006-01-02")
		clock := local.Hour()*60 + local.Minute()
		if !wanted[day] || clock < from || clock > to || seen[day] {
			continue
		}
		seen[day] = true
		result = append(result, day)
	}
	sort.Strings(result)
	return result, nil
}

func (m *mockCheckinRepo) BatchCreate(_ context.Context, checkins []model.Checkin) error {
	if len(checkins) == 0 {
		return nil
	}
	m.batches++
	if m.batches == m.failOnBatch {
		return errBatchFailed
	}
	m.checkins = append(m.checkins, checkins...)
	return nil
}

func (m *mockCheckinRepo) CountBetween(_ context.Context, start, end time.Time) (int64, error) {
	var n int64
	for _, c := range m.checkins {
		if !c.Timestamp.Before(start) && !c.Timestamp.After(end) {
			n++
		}
	}
	return n, nil
}

// ── Mock VisitorRepository ──

type mockVisitorRepo struct {
	visitors []model.Visitor
}

func (m *mockVisitorRepo) BatchCreate(_ context.Context, visitors []model.Visitor) error {
	m.visitors = append(m.visitors, visitors...)
	return nil
}

func (m *mockVisitorRepo) CountBetween(_ context.Context, start, end time.Time) (int64, error) {
	var n int64
	for _, v := range m.visitors {
		if !v.CheckInTime.Before(start) && !v.CheckInTime.After(end) {
			n++
		}
	}
	return n, nil
}

// ── Mock EventRepository ──

type mockEventRepo struct {
	events    []model.Event
	attendees []model.EventAttendee
	checkins  []model.EventCheckin
}

func (m *mockEventRepo) CreateWithCohort(
	_ context.Context, event *model.Event, attendees []model.EventAttendee, checkins []model.EventCheckin,
) error {
	for i := range attendees {
		attendees[i].EventID = event.ID
	}
	m.events = append(m.events, *event)
	m.attendees = append(m.attendees, attendees...)
	m.checkins = append(m.checkins, checkins...)
	return nil
}

func (m *mockEventRepo) CountOverlapping(_ context.Context, start, end time.Time) (int64, error) {
	var n int64
	for _, e := range m.events {
		if !e.StartDate.After(end) && !e.EndDate.Before(start) {
			n++
		}
	}
	return n, nil
}

// ════════════════════════════════════════════════════════════
// 聚合
// ════════════════════════════════════════════════════════════

type mockRepos struct {
	settings     *mockReportSettingRepo
	trainingYear *mockTrainingYearRepo
	courses      *mockBMQCourseRepo
	enrollments  *mockBMQEnrollmentRepo
	divisions    *mockDivisionRepo
	members      *mockMemberRepo
	badges       *mockBadgeRepo
	checkins     *mockCheckinRepo
	visitors     *mockVisitorRepo
	events       *mockEventRepo
	loc          *time.Location
	repository   *repository.Repository
}

func newMockRepos(loc *time.Location) *mockRepos {
	m := &mockRepos{
		settings:     newMockReportSettingRepo(),
		trainingYear: &mockTrainingYearRepo{},
		courses:      &mockBMQCourseRepo{},
		enrollments:  &mockBMQEnrollmentRepo{},
		divisions:    newMockDivisionRepo(),
		members:      &mockMemberRepo{},
		badges:       &mockBadgeRepo{},
		checkins:     newMockCheckinRepo(loc),
		visitors:     &mockVisitorRepo{},
		events:       &mockEventRepo{},
		loc:          loc,
	}
	m.repository = &repository.Repository{
		ReportSetting: m.settings,
		TrainingYear:  m.trainingYear,
		BMQCourse:     m.courses,
		BMQEnrollment: m.enrollments,
		Division:      m.divisions,
		Member:        m.members,
		Badge:         m.badges,
		Checkin:       m.checkins,
		Visitor:       m.visitors,
		Event:         m.events,
	}
	return m
}

// ── 测试数据辅助 ──

func mustDate(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

// addCheckin 以设施本地时间 "2025-01-07 19:05" 写入一条刷卡记录
func (m *mockRepos) addCheckin(memberID, local, direction string) {
	ts, err := time.ParseInLocation("2006-01-02 15:04", local, m.loc)
	if err != nil {
		panic(err)
	}
	m.checkins.checkins = append(m.checkins.checkins, model.Checkin{
		ID:        "chk-" + memberID + "-" + local + "-" + direction,
		MemberID:  memberID,
		Direction: direction,
		Timestamp: ts,
		KioskID:   "TEST",
		Method:    "badge",
	})
}

func (m *mockRepos) addMember(id, memberType string, createdAt time.Time) *model.Member {
	m.members.members = append(m.members.members, model.Member{
		ID:            id,
		ServiceNumber: "SN-" + id,
		FirstName:     "First-" + id,
		LastName:      "Last-" + id,
		Rank:          "AB",
		MemberType:    memberType,
		Status:        "active",
		CreatedAt:     createdAt,
	})
	return &m.members.members[len(m.members.members)-1]
}

// standardSchedule 周二训练夜 19:00-22:10，周四行政夜 19:00-22:00，周一至周五 08:00-16:00
func (m *mockRepos) standardSchedule() {
	m.settings.set(model.SettingKeySchedule, model.ScheduleSettings{
		TrainingNightDay:   "tuesday",
		TrainingNightStart: "19:00",
		TrainingNightEnd:   "22:10",
		AdminNightDay:      "thursday",
		AdminNightStart:    "19:00",
		AdminNightEnd:      "22:00",
	})
	m.settings.set(model.SettingKeyWorkingHours, model.WorkingHoursSettings{
		RegularWeekdays:     []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		RegularWeekdayStart: "08:00",
		RegularWeekdayEnd:   "16:00",
		SummerStartDate:     "06-01",
		SummerEndDate:       "08-31",
		SummerWeekdayStart:  "09:00",
		SummerWeekdayEnd:    "15:00",
	})
}
