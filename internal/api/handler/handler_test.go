package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/service"
	pkgerrors "github.com/DeadshotOMEGA/sentinel-sub002/pkg/errors"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ScheduleResolver ──

type mockResolver struct {
	initErr    error
	profile    *dto.DayProfile
	rangeStart time.Time
	rangeEnd   time.Time
	resets     int
}

func (m *mockResolver) Initialize(_ context.Context) error        { return m.initErr }
func (m *mockResolver) EnsureInitialized(_ context.Context) error { return m.initErr }
func (m *mockResolver) Reset()                                    { m.resets++ }
func (m *mockResolver) ResolveDate(date time.Time) (*dto.DayProfile, error) {
	if m.profile != nil {
		return m.profile, nil
	}
	return &dto.DayProfile{Date: date.Format("2006-01-02")}, nil
}
func (m *mockResolver) ResolveDateRange(start, end time.Time) ([]dto.DayProfile, error) {
	m.rangeStart, m.rangeEnd = start, end
	var out []dto.DayProfile
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, dto.DayProfile{Date: d.Format("2006-01-02")})
	}
	return out, nil
}
func (m *mockResolver) ScheduleSettings() (*model.ScheduleSettings, error) { return nil, nil }
func (m *mockResolver) WorkingHoursSettings() (*model.WorkingHoursSettings, error) {
	return nil, nil
}
func (m *mockResolver) TrainingYear() (*model.TrainingYear, error) { return nil, nil }
func (m *mockResolver) BMQCourses() ([]model.BMQCourse, error)     { return nil, nil }

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportTrainingNightReport(_ context.Context, _ *dto.TrainingNightReportQuery) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportScheduleCalendar(_ context.Context, _, _ time.Time) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock ReportService ──

type mockReportService struct {
	memberResult *dto.MemberAttendanceResponse
	bmqResult    *dto.BMQAttendanceResponse
	reportResult *dto.TrainingNightReport
	bmqReport    *dto.BMQReport
	err          error
	lastQuery    *dto.TrainingNightReportQuery
}

func (m *mockReportService) MemberAttendance(_ context.Context, _ string, _, _ time.Time) (*dto.MemberAttendanceResponse, error) {
	return m.memberResult, m.err
}
func (m *mockReportService) BMQMemberAttendance(_ context.Context, _, _ string) (*dto.BMQAttendanceResponse, error) {
	return m.bmqResult, m.err
}
func (m *mockReportService) TrainingNightReport(_ context.Context, q *dto.TrainingNightReportQuery) (*dto.TrainingNightReport, error) {
	m.lastQuery = q
	return m.reportResult, m.err
}
func (m *mockReportService) BMQReport(_ context.Context, _ string) (*dto.BMQReport, error) {
	return m.bmqReport, m.err
}

// ── Mock SimulationService ──

type mockSimulationService struct {
	initErr     error
	precheck    *dto.SimulationPrecheck
	result      *dto.SimulationResponse
	simulateErr error
	simulated   int
	resets      int
}

func (m *mockSimulationService) Initialize(_ context.Context) error        { return m.initErr }
func (m *mockSimulationService) EnsureInitialized(_ context.Context) error { return m.initErr }
func (m *mockSimulationService) Reset()                                    { m.resets++ }
func (m *mockSimulationService) MemberCategoryCounts() (map[string]int, error) {
	return map[string]int{}, nil
}
func (m *mockSimulationService) Precheck(_ context.Context, _ *dto.SimulationRequest) (*dto.SimulationPrecheck, error) {
	return m.precheck, m.simulateErr
}
func (m *mockSimulationService) Simulate(_ context.Context, _ *dto.SimulationRequest) (*dto.SimulationResponse, error) {
	m.simulated++
	return m.result, m.simulateErr
}
func (m *mockSimulationService) SimulateEvents(_ context.Context, _, _ time.Time, _ dto.SimulationIntensity, _ uint64) (*service.EventSimulationResult, error) {
	return &service.EventSimulationResult{}, nil
}

// ── Mock Locker ──

type mockLocker struct {
	held     bool
	err      error
	released []string
}

func (m *mockLocker) AcquireLock(_ context.Context, _, _ string, _ time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.held {
		return false, nil
	}
	m.held = true
	return true, nil
}
func (m *mockLocker) ReleaseLock(_ context.Context, name, _ string) error {
	m.held = false
	m.released = append(m.released, name)
	return nil
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "admin")
}

func withAuth(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c)
		h(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(method, route, target string, h gin.HandlerFunc, body io.Reader) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, h)
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func simulationRequest() dto.SimulationRequest {
	return dto.SimulationRequest{TimeRange: dto.SimulationTimeRange{Mode: dto.TimeRangeLastDays, LastDays: 7}}
}

// ═══════════════════════════════════════════════════════════
// Error Mapping
// ═══════════════════════════════════════════════════════════

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"记录不存在", fmt.Errorf("成员不存在: %w", pkgerrors.ErrNotFound), http.StatusNotFound},
		{"范围无效", pkgerrors.ErrInvalidRange, http.StatusBadRequest},
		{"配置无效", fmt.Errorf("schedule: %w", pkgerrors.ErrInvalidConfiguration), http.StatusUnprocessableEntity},
		{"未初始化", pkgerrors.ErrNotInitialized, http.StatusServiceUnavailable},
		{"模拟进行中", pkgerrors.ErrSimulationRunning, http.StatusConflict},
		{"未知错误", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve("GET", "/x", "/x", func(c *gin.Context) { handleServiceError(c, tt.err) }, nil)
			if w.Code != tt.status {
				t.Errorf("期望 %d，实际=%d", tt.status, w.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ScheduleHandler Tests
// ═══════════════════════════════════════════════════════════

func newScheduleHandler(resolver *mockResolver, export *mockExportService, sim *mockSimulationService) *ScheduleHandler {
	return NewScheduleHandler(resolver, export, sim, zap.NewNop())
}

func TestScheduleHandler_GetDate_Success(t *testing.T) {
	resolver := &mockResolver{profile: &dto.DayProfile{Date: "2025-02-04", IsTrainingNight: true}}
	h := newScheduleHandler(resolver, &mockExportService{}, &mockSimulationService{})

	w := serve("GET", "/schedule/date", "/schedule/date?date=2025-02-04", h.GetDate, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"is_training_night":true`) {
		t.Errorf("响应缺少训练夜标记: %s", w.Body.String())
	}
}

func TestScheduleHandler_GetDate_BadParam(t *testing.T) {
	h := newScheduleHandler(&mockResolver{}, &mockExportService{}, &mockSimulationService{})

	for _, target := range []string{"/schedule/date", "/schedule/date?date=2025-13-40", "/schedule/date?date=04/02/2025"} {
		w := serve("GET", "/schedule/date", target, h.GetDate, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s 期望 400，实际=%d", target, w.Code)
		}
	}
}

func TestScheduleHandler_GetDate_InvalidConfiguration(t *testing.T) {
	resolver := &mockResolver{initErr: fmt.Errorf("未知星期 funday: %w", pkgerrors.ErrInvalidConfiguration)}
	h := newScheduleHandler(resolver, &mockExportService{}, &mockSimulationService{})

	w := serve("GET", "/schedule/date", "/schedule/date?date=2025-02-04", h.GetDate, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("期望 422，实际=%d", w.Code)
	}
	if resp := parseResponse(w); !strings.Contains(resp.Details, "funday") {
		t.Errorf("details 应包含原始错误，实际=%q", resp.Details)
	}
}

func TestScheduleHandler_GetRange(t *testing.T) {
	resolver := &mockResolver{}
	h := newScheduleHandler(resolver, &mockExportService{}, &mockSimulationService{})

	w := serve("GET", "/schedule/range", "/schedule/range?start=2025-02-01&end=2025-02-07", h.GetRange, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"total":7`) {
		t.Errorf("期望 7 天，实际: %s", w.Body.String())
	}

	tests := []struct {
		name   string
		target string
	}{
		{"结束早于开始", "/schedule/range?start=2025-02-07&end=2025-02-01"},
		{"超过一年", "/schedule/range?start=2024-01-01&end=2025-06-01"},
		{"缺少参数", "/schedule/range?start=2025-02-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve("GET", "/schedule/range", tt.target, h.GetRange, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("期望 400，实际=%d", w.Code)
			}
		})
	}
}

func TestScheduleHandler_ExportCalendar(t *testing.T) {
	export := &mockExportService{
		buf:      bytes.NewBufferString("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"),
		filename: "schedule_2025-02-01_2025-02-28.ics",
	}
	h := newScheduleHandler(&mockResolver{}, export, &mockSimulationService{})

	w := serve("GET", "/schedule/calendar.ics", "/schedule/calendar.ics?start=2025-02-01&end=2025-02-28", h.ExportCalendar, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type 不符: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "schedule_2025-02-01_2025-02-28.ics") {
		t.Errorf("Content-Disposition 不符: %s", cd)
	}
}

func TestScheduleHandler_Reload(t *testing.T) {
	resolver := &mockResolver{}
	sim := &mockSimulationService{}
	h := newScheduleHandler(resolver, &mockExportService{}, sim)

	w := serve("POST", "/schedule/reload", "/schedule/reload", withAuth(h.Reload), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if resolver.resets != 1 || sim.resets != 1 {
		t.Errorf("期望各 Reset 一次，实际 resolver=%d simulation=%d", resolver.resets, sim.resets)
	}
}

// ═══════════════════════════════════════════════════════════
// AttendanceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAttendanceHandler_GetMember(t *testing.T) {
	pct := 75.0
	mock := &mockReportService{memberResult: &dto.MemberAttendanceResponse{
		MemberID:   "m-1",
		Attendance: dto.AttendanceCalculation{Status: dto.AttendanceStatusCalculated, Percentage: &pct, Flag: dto.FlagNone},
	}}
	h := NewAttendanceHandler(mock)

	w := serve("GET", "/attendance/members/:id", "/attendance/members/m-1?start=2025-02-01&end=2025-02-28", h.GetMember, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("期望 code 0，实际=%d", resp.Code)
	}
}

func TestAttendanceHandler_GetMember_NotFound(t *testing.T) {
	mock := &mockReportService{err: service.ErrMemberNotFound}
	h := NewAttendanceHandler(mock)

	w := serve("GET", "/attendance/members/:id", "/attendance/members/ghost?start=2025-02-01&end=2025-02-28", h.GetMember, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际=%d", w.Code)
	}
}

func TestAttendanceHandler_GetBMQMember(t *testing.T) {
	mock := &mockReportService{err: service.ErrBMQEnrollmentNotFound}
	h := NewAttendanceHandler(mock)

	w := serve("GET", "/attendance/bmq/:courseId/members/:memberId", "/attendance/bmq/c-1/members/m-1", h.GetBMQMember, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际=%d", w.Code)
	}

	mock.err = nil
	mock.bmqResult = &dto.BMQAttendanceResponse{MemberID: "m-1", CourseID: "c-1"}
	w = serve("GET", "/attendance/bmq/:courseId/members/:memberId", "/attendance/bmq/c-1/members/m-1", h.GetBMQMember, nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际=%d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ReportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestReportHandler_TrainingNight(t *testing.T) {
	mock := &mockReportService{reportResult: &dto.TrainingNightReport{PeriodStart: "2025-02-01", PeriodEnd: "2025-02-28"}}
	h := NewReportHandler(mock, &mockExportService{})

	w := serve("GET", "/reports/training-night",
		"/reports/training-night?start=2025-02-01&end=2025-02-28&include_ft_staff=false", h.TrainingNight, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if mock.lastQuery == nil || mock.lastQuery.IncludeFTStaff == nil || *mock.lastQuery.IncludeFTStaff {
		t.Errorf("include_ft_staff 未正确绑定: %+v", mock.lastQuery)
	}
}

func TestReportHandler_TrainingNight_BadDivision(t *testing.T) {
	h := NewReportHandler(&mockReportService{}, &mockExportService{})

	w := serve("GET", "/reports/training-night",
		"/reports/training-night?start=2025-02-01&end=2025-02-28&division_id=not-a-uuid", h.TrainingNight, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
}

func TestReportHandler_ExportTrainingNight(t *testing.T) {
	export := &mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "training_night_2025-02-01_2025-02-28.xlsx"}
	h := NewReportHandler(&mockReportService{}, export)

	w := serve("GET", "/reports/training-night/export",
		"/reports/training-night/export?start=2025-02-01&end=2025-02-28", h.ExportTrainingNight, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type 不符: %s", ct)
	}

	export.err = service.ErrExportGenerateFail
	w = serve("GET", "/reports/training-night/export",
		"/reports/training-night/export?start=2025-02-01&end=2025-02-28", h.ExportTrainingNight, nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("期望 500，实际=%d", w.Code)
	}
}

func TestReportHandler_BMQ_CourseNotFound(t *testing.T) {
	h := NewReportHandler(&mockReportService{err: service.ErrBMQCourseNotFound}, &mockExportService{})

	w := serve("GET", "/reports/bmq/:courseId", "/reports/bmq/missing", h.BMQ, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际=%d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// SimulationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSimulationHandler_Precheck(t *testing.T) {
	sim := &mockSimulationService{precheck: &dto.SimulationPrecheck{HasOverlap: true, ExistingCheckins: 12}}
	h := NewSimulationHandler(sim, nil, zap.NewNop())

	w := serve("POST", "/simulation/precheck", "/simulation/precheck", withAuth(h.Precheck), jsonBody(simulationRequest()))
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"existing_checkins":12`) {
		t.Errorf("响应不符: %s", w.Body.String())
	}
}

func TestSimulationHandler_Run_BadJSON(t *testing.T) {
	h := NewSimulationHandler(&mockSimulationService{}, nil, zap.NewNop())

	w := serve("POST", "/simulation/run", "/simulation/run", withAuth(h.Run), bytes.NewReader([]byte("invalid json")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}

	bad := dto.SimulationRequest{TimeRange: dto.SimulationTimeRange{Mode: "yesterday"}}
	w = serve("POST", "/simulation/run", "/simulation/run", withAuth(h.Run), jsonBody(bad))
	if w.Code != http.StatusBadRequest {
		t.Errorf("未知模式期望 400，实际=%d", w.Code)
	}
}

func TestSimulationHandler_Run_Success(t *testing.T) {
	sim := &mockSimulationService{result: &dto.SimulationResponse{
		Summary:  dto.SimulationSummary{DaysSimulated: 7, Generated: dto.GeneratedCounts{Checkins: 40}},
		Warnings: []string{},
	}}
	locker := &mockLocker{}
	h := NewSimulationHandler(sim, locker, zap.NewNop())

	w := serve("POST", "/simulation/run", "/simulation/run", withAuth(h.Run), jsonBody(simulationRequest()))
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if sim.simulated != 1 {
		t.Errorf("期望执行 1 次模拟，实际=%d", sim.simulated)
	}
	if locker.held || len(locker.released) != 1 {
		t.Errorf("模拟结束后应释放锁，released=%v", locker.released)
	}
}

func TestSimulationHandler_Run_LockHeld(t *testing.T) {
	sim := &mockSimulationService{}
	h := NewSimulationHandler(sim, &mockLocker{held: true}, zap.NewNop())

	w := serve("POST", "/simulation/run", "/simulation/run", withAuth(h.Run), jsonBody(simulationRequest()))
	if w.Code != http.StatusConflict {
		t.Errorf("期望 409，实际=%d", w.Code)
	}
	if sim.simulated != 0 {
		t.Error("锁被占用时不应执行模拟")
	}
}

func TestSimulationHandler_Run_LockError(t *testing.T) {
	h := NewSimulationHandler(&mockSimulationService{}, &mockLocker{err: errors.New("redis down")}, zap.NewNop())

	w := serve("POST", "/simulation/run", "/simulation/run", withAuth(h.Run), jsonBody(simulationRequest()))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("期望 500，实际=%d", w.Code)
	}
}

func TestSimulationHandler_Run_AlreadyRunning(t *testing.T) {
	sim := &mockSimulationService{simulateErr: pkgerrors.ErrSimulationRunning}
	h := NewSimulationHandler(sim, nil, zap.NewNop())

	w := serve("POST", "/simulation/run", "/simulation/run", withAuth(h.Run), jsonBody(simulationRequest()))
	if w.Code != http.StatusConflict {
		t.Errorf("期望 409，实际=%d", w.Code)
	}
}

func TestSimulationHandler_Run_Unauthenticated(t *testing.T) {
	h := NewSimulationHandler(&mockSimulationService{}, nil, zap.NewNop())

	w := serve("POST", "/simulation/run", "/simulation/run", h.Run, jsonBody(simulationRequest()))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际=%d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// HealthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	h := NewHealthHandler(map[string]HealthCheck{"database": ok, "redis": ok})
	w := serve("GET", "/health", "/health", h.Health, nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际=%d", w.Code)
	}

	h = NewHealthHandler(map[string]HealthCheck{"database": ok, "redis": down})
	w = serve("GET", "/health", "/health", h.Health, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("期望 503，实际=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "degraded") {
		t.Errorf("响应应标记 degraded: %s", w.Body.String())
	}
}
