//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/repository"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

const testTimezone = "America/Winnipeg"

var (
	testDB   *gorm.DB
	testRepo *repository.Repository
	testLoc  *time.Location
)

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=sentinel password=sentinel dbname=sentinel_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	testLoc, _ = time.LoadLocation(testTimezone)
	testRepo = repository.NewRepository(testDB, testTimezone)

	os.Exit(m.Run())
}

// createMember 写入一名在册成员并注册清理
func createMember(t *testing.T, memberType, status string) *model.Member {
	t.Helper()
	suffix := uuid.NewString()[:8]
	m := &model.Member{
		ServiceNumber: "T" + suffix,
		FirstName:     "Test",
		LastName:      "Member-" + suffix,
		Rank:          "Pte",
		MemberType:    memberType,
		Status:        status,
	}
	if err := testDB.Create(m).Error; err != nil {
		t.Fatalf("创建成员失败: %v", err)
	}
	t.Cleanup(func() {
		testDB.Where("member_id = ?", m.ID).Delete(&model.Checkin{})
		testDB.Delete(m)
	})
	return m
}

func localTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", s, testLoc)
	if err != nil {
		t.Fatalf("解析时间失败: %v", err)
	}
	return ts
}

// ═══════════════════════════════════════════════════════════
// Checkin
// ═══════════════════════════════════════════════════════════

func TestCheckin_FindAttendedDates_FacilityTimezone(t *testing.T) {
	ctx := context.Background()
	member := createMember(t, model.MemberTypeClassA, "active")

	checkins := []model.Checkin{
		// 本地 19:05，UTC 已是次日
		{MemberID: member.ID, Direction: model.DirectionIn, Timestamp: localTime(t, "2025-02-04 19:05"), KioskID: "TEST"},
		// 窗口外
		{MemberID: member.ID, Direction: model.DirectionIn, Timestamp: localTime(t, "2025-02-11 23:30"), KioskID: "TEST"},
		// 方向不符
		{MemberID: member.ID, Direction: model.DirectionOut, Timestamp: localTime(t, "2025-02-18 20:00"), KioskID: "TEST"},
		// 同日重复刷卡
		{MemberID: member.ID, Direction: model.DirectionIn, Timestamp: localTime(t, "2025-02-25 19:00"), KioskID: "TEST"},
		{MemberID: member.ID, Direction: model.DirectionIn, Timestamp: localTime(t, "2025-02-25 21:00"), KioskID: "TEST"},
	}
	if err := testRepo.Checkin.BatchCreate(ctx, checkins); err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}

	days, err := testRepo.Checkin.FindAttendedDates(ctx, member.ID,
		[]string{"2025-02-04", "2025-02-11", "2025-02-18", "2025-02-25"}, "19:00", "22:10", model.DirectionIn)
	if err != nil {
		t.Fatalf("FindAttendedDates 失败: %v", err)
	}
	if len(days) != 2 || days[0] != "2025-02-04" || days[1] != "2025-02-25" {
		t.Errorf("期望 [2025-02-04 2025-02-25]，实际=%v", days)
	}
}

func TestCheckin_FindAttendedDates_SingleDigitHourBounds(t *testing.T) {
	ctx := context.Background()
	member := createMember(t, model.MemberTypeClassA, "active")

	checkins := []model.Checkin{
		{MemberID: member.ID, Direction: model.DirectionIn, Timestamp: localTime(t, "2025-01-04 08:02"), KioskID: "TEST"},
		{MemberID: member.ID, Direction: model.DirectionIn, Timestamp: localTime(t, "2025-01-05 10:15"), KioskID: "TEST"},
	}
	if err := testRepo.Checkin.BatchCreate(ctx, checkins); err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}

	days, err := testRepo.Checkin.FindAttendedDates(ctx, member.ID,
		[]string{"2025-01-04", "2025-01-05"}, "8:00", "16:00", model.DirectionIn)
	if err != nil {
		t.Fatalf("FindAttendedDates 失败: %v", err)
	}
	if len(days) != 2 {
		t.Errorf("期望 2 天，实际=%v", days)
	}
}

func TestCheckin_CountBetween(t *testing.T) {
	ctx := context.Background()
	member := createMember(t, model.MemberTypeClassB, "active")

	base := localTime(t, "2031-05-05 08:00")
	var batch []model.Checkin
	for i := 0; i < 3; i++ {
		batch = append(batch, model.Checkin{
			MemberID: member.ID, Direction: model.DirectionIn, Timestamp: base.AddDate(0, 0, i), KioskID: "TEST",
		})
	}
	if err := testRepo.Checkin.BatchCreate(ctx, batch); err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}

	n, err := testRepo.Checkin.CountBetween(ctx, base, base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("CountBetween 失败: %v", err)
	}
	if n != 2 {
		t.Errorf("期望 2 条，实际=%d", n)
	}
}

// ═══════════════════════════════════════════════════════════
// Member
// ═══════════════════════════════════════════════════════════

func TestMember_GetByID_NotFound(t *testing.T) {
	_, err := testRepo.Member.GetByID(context.Background(), uuid.NewString())
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 gorm.ErrRecordNotFound，实际: %v", err)
	}
}

func TestMember_ListActive_ExcludesInactive(t *testing.T) {
	active := createMember(t, model.MemberTypeClassA, "active")
	inactive := createMember(t, model.MemberTypeClassA, "inactive")

	members, err := testRepo.Member.ListActive(context.Background(), "")
	if err != nil {
		t.Fatalf("ListActive 失败: %v", err)
	}
	seen := map[string]bool{}
	for _, m := range members {
		seen[m.ID] = true
	}
	if !seen[active.ID] || seen[inactive.ID] {
		t.Errorf("在册过滤不正确: active=%v inactive=%v", seen[active.ID], seen[inactive.ID])
	}
}

// ═══════════════════════════════════════════════════════════
// Event
// ═══════════════════════════════════════════════════════════

func TestEvent_CreateWithCohort(t *testing.T) {
	ctx := context.Background()
	badge := &model.Badge{SerialNumber: "EVT-" + uuid.NewString()[:8]}
	if err := testDB.Create(badge).Error; err != nil {
		t.Fatalf("创建徽章失败: %v", err)
	}

	start := time.Date(2032, 3, 10, 0, 0, 0, 0, time.UTC)
	event := &model.Event{
		Name: "Integration Exercise", Code: "EVT-" + uuid.NewString()[:8],
		StartDate: start, EndDate: start.AddDate(0, 0, 1), Status: "completed",
	}
	attendee := model.EventAttendee{
		ID: uuid.NewString(), Name: "Guest", Organization: "Test Org", Role: "participant",
		Status: "active", AccessStart: start, AccessEnd: start.AddDate(0, 0, 1),
	}
	checkin := model.EventCheckin{
		EventAttendeeID: attendee.ID, BadgeID: badge.ID, Direction: model.DirectionIn,
		Timestamp: start.Add(9 * time.Hour), KioskID: "TEST",
	}

	t.Cleanup(func() {
		testDB.Where("event_attendee_id = ?", attendee.ID).Delete(&model.EventCheckin{})
		testDB.Where("id = ?", attendee.ID).Delete(&model.EventAttendee{})
		testDB.Where("code = ?", event.Code).Delete(&model.Event{})
		testDB.Delete(badge)
	})

	if err := testRepo.Event.CreateWithCohort(ctx, event, []model.EventAttendee{attendee}, []model.EventCheckin{checkin}); err != nil {
		t.Fatalf("CreateWithCohort 失败: %v", err)
	}

	var count int64
	testDB.Model(&model.EventAttendee{}).Where("event_id = ?", event.ID).Count(&count)
	if count != 1 {
		t.Errorf("期望 1 名参与者，实际=%d", count)
	}

	n, err := testRepo.Event.CountOverlapping(ctx, start.AddDate(0, 0, 1), start.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("CountOverlapping 失败: %v", err)
	}
	if n != 1 {
		t.Errorf("期望 1 个重叠活动，实际=%d", n)
	}
}

// ═══════════════════════════════════════════════════════════
// ReportSetting
// ═══════════════════════════════════════════════════════════

func TestReportSetting_JSONBRoundTrip(t *testing.T) {
	ctx := context.Background()
	key := "it-" + uuid.NewString()[:8]
	setting := &model.ReportSetting{Key: key, Value: datatypes.JSON(`{"warningThreshold":80}`)}
	if err := testDB.Create(setting).Error; err != nil {
		t.Fatalf("写入设置失败: %v", err)
	}
	t.Cleanup(func() { testDB.Where("key = ?", key).Delete(&model.ReportSetting{}) })

	got, err := testRepo.ReportSetting.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if string(got.Value) != `{"warningThreshold": 80}` && string(got.Value) != `{"warningThreshold":80}` {
		t.Errorf("JSONB 值不符: %s", got.Value)
	}

	_, err = testRepo.ReportSetting.Get(ctx, "missing-"+key)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 gorm.ErrRecordNotFound，实际: %v", err)
	}
}
