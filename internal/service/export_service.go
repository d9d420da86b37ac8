package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
	pkgerrors "github.com/DeadshotOMEGA/sentinel-sub002/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const calendarProductID = "-//Sentinel//Schedule Calendar//EN"

// ExportService 导出业务接口
//
// 设计说明：
//   - 训练夜出勤报表导出为 Excel (.xlsx)，数据来自 ReportService
//   - 日程画像导出为 iCalendar (.ics)，数据来自 ScheduleResolver
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	ExportTrainingNightReport(ctx context.Context, query *dto.TrainingNightReportQuery) (*bytes.Buffer, string, error)
	ExportScheduleCalendar(ctx context.Context, start, end time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	reports  ReportService
	resolver ScheduleResolver
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(reports ReportService, resolver ScheduleResolver, loc *time.Location, logger *zap.Logger) ExportService {
	return &exportService{reports: reports, resolver: resolver, loc: loc, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportTrainingNightReport 训练夜出勤报表导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：Training Night Attendance <start> – <end>
//   - 表头：服务编号 | 军衔 | 姓 | 名 | 部门 | 出勤 | 百分比 | 标记 | 趋势 | BMQ
//   - new 状态显示 badge，insufficient_data 显示 "X of Y"

var reportHeaders = []string{"服务编号", "军衔", "姓", "名", "部门", "出勤", "百分比", "标记", "趋势", "BMQ"}

func (s *exportService) ExportTrainingNightReport(
	ctx context.Context, query *dto.TrainingNightReportQuery,
) (*bytes.Buffer, string, error) {
	report, err := s.reports.TrainingNightReport(ctx, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "训练夜出勤"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "B", 8)
	f.SetColWidth(sheetName, "C", "D", 16)
	f.SetColWidth(sheetName, "E", "E", 20)
	f.SetColWidth(sheetName, "F", "J", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	warningStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1},
	})
	criticalStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Training Night Attendance %s – %s", report.PeriodStart, report.PeriodEnd))
	f.MergeCell(sheetName, "A1", cell(colName(len(reportHeaders)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range reportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(reportHeaders)-1), 2), headerStyle)

	// 数据行
	row := 3
	for _, r := range report.Rows {
		a := r.Attendance
		f.SetCellValue(sheetName, cell("A", row), r.Member.ServiceNumber)
		f.SetCellValue(sheetName, cell("B", row), r.Member.Rank)
		f.SetCellValue(sheetName, cell("C", row), r.Member.LastName)
		f.SetCellValue(sheetName, cell("D", row), r.Member.FirstName)
		f.SetCellValue(sheetName, cell("E", row), r.Member.DivisionName)
		f.SetCellValue(sheetName, cell("F", row), attendanceText(&a))
		if a.Percentage != nil {
			f.SetCellValue(sheetName, cell("G", row), *a.Percentage)
		}
		f.SetCellValue(sheetName, cell("H", row), a.Flag)
		if r.Trend != nil {
			f.SetCellValue(sheetName, cell("I", row), trendText(r.Trend))
		}
		if r.IsBMQEnrolled {
			f.SetCellValue(sheetName, cell("J", row), "BMQ")
		}

		switch a.Flag {
		case dto.FlagWarning:
			f.SetCellStyle(sheetName, cell("A", row), cell("J", row), warningStyle)
		case dto.FlagCritical:
			f.SetCellStyle(sheetName, cell("A", row), cell("J", row), criticalStyle)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("training_night_%s_%s.xlsx", report.PeriodStart, report.PeriodEnd)
	return buf, filename, nil
}

func attendanceText(a *dto.AttendanceCalculation) string {
	switch a.Status {
	case dto.AttendanceStatusNew:
		return a.Badge
	case dto.AttendanceStatusInsufficientData:
		return a.Display
	default:
		if a.Attended != nil && a.Possible != nil {
			return fmt.Sprintf("%d/%d", *a.Attended, *a.Possible)
		}
		return ""
	}
}

func trendText(t *dto.TrendIndicator) string {
	if t.Delta == nil {
		return t.Trend
	}
	return fmt.Sprintf("%s (%+d)", t.Trend, *t.Delta)
}

// ═══════════════════════════════════════════════════════════
// ExportScheduleCalendar 日程画像导出为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每个日期最多产生以下事件：
//   - 假期：全天事件
//   - 训练夜 / 行政夜 / BMQ：按时间窗口的定时事件

func (s *exportService) ExportScheduleCalendar(ctx context.Context, start, end time.Time) (*bytes.Buffer, string, error) {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return nil, "", fmt.Errorf("%w: end 早于 start", pkgerrors.ErrInvalidRange)
	}
	if err := s.resolver.EnsureInitialized(ctx); err != nil {
		return nil, "", err
	}
	profiles, err := s.resolver.ResolveDateRange(start, end)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRTimezone(s.loc.String())

	stamp := s.now().UTC()
	for i := range profiles {
		p := &profiles[i]
		date, err := ParseDate(p.Date)
		if err != nil {
			return nil, "", err
		}

		if p.IsHoliday {
			e := cal.AddEvent(fmt.Sprintf("holiday-%s@sentinel", p.Date))
			e.SetDtStampTime(stamp)
			e.SetAllDayStartAt(date)
			e.SetAllDayEndAt(date.AddDate(0, 0, 1))
			e.SetSummary(p.HolidayName)
			continue
		}

		if err := s.addWindowEvent(cal, stamp, date, "training", "Training Night", p.IsTrainingNight, p.TrainingNightHours); err != nil {
			return nil, "", err
		}
		if err := s.addWindowEvent(cal, stamp, date, "admin", "Admin Night", p.IsAdminNight, p.AdminNightHours); err != nil {
			return nil, "", err
		}
		if err := s.addWindowEvent(cal, stamp, date, "bmq", "BMQ Training", p.IsBMQDay, p.BMQHours); err != nil {
			return nil, "", err
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("schedule_%s_%s.ics", FormatDate(start), FormatDate(end))
	return buf, filename, nil
}

func (s *exportService) addWindowEvent(
	cal *ics.Calendar, stamp, date time.Time, kind, summary string, enabled bool, window *dto.TimeWindow,
) error {
	if !enabled || window == nil {
		return nil
	}
	w, err := parseWindow(window)
	if err != nil {
		return err
	}
	e := cal.AddEvent(fmt.Sprintf("%s-%s@sentinel", kind, FormatDate(date)))
	e.SetDtStampTime(stamp)
	e.SetStartAt(atClock(date, w.start, s.loc))
	e.SetEndAt(atClock(date, w.end, s.loc))
	e.SetSummary(summary)
	return nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
