package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
	pkgerrors "github.com/DeadshotOMEGA/sentinel-sub002/pkg/errors"
)

// ── 日历辅助函数 ──
// 所有日期均以 UTC 零点表示的"日历日"参与比较，避免本地时区影响星期与边界判断

const dateLayout = "2006-01-02"

var weekdayByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday 将星期名称（不区分大小写）解析为 time.Weekday
func ParseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdayByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: 无效的星期名称 %q", pkgerrors.ErrInvalidConfiguration, name)
	}
	return wd, nil
}

// parseWeekdaySet 解析星期集合，空集合视为配置错误
func parseWeekdaySet(names []string) (map[time.Weekday]bool, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: 训练日集合不能为空", pkgerrors.ErrInvalidConfiguration)
	}
	set := make(map[time.Weekday]bool, len(names))
	for _, n := range names {
		wd, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		set[wd] = true
	}
	return set, nil
}

func weekdayName(wd time.Weekday) string {
	return strings.ToLower(wd.String())
}

// DateOnly 取 t 的 UTC 日历日（零点）
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 YYYY-MM-DD 为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

// FormatDate 格式化为 YYYY-MM-DD（UTC 日历日）
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// parseMonthDay 将 MM-DD 打包为 month*100+day
func parseMonthDay(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: 无效的 MM-DD 日期 %q", pkgerrors.ErrInvalidConfiguration, s)
	}
	month, err1 := strconv.Atoi(parts[0])
	day, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, fmt.Errorf("%w: 无效的 MM-DD 日期 %q", pkgerrors.ErrInvalidConfiguration, s)
	}
	return month*100 + day, nil
}

// parseClock 将 HH:MM 解析为当日分钟数
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: 无效的时间 %q", pkgerrors.ErrInvalidConfiguration, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// normalizeClock 将 H:MM / HH:MM 规范为两位小时的 HH:MM
func normalizeClock(s string) (string, error) {
	m, err := parseClock(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60), nil
}

// holidayRange 已解析的假期闭区间
type holidayRange struct {
	start time.Time
	end   time.Time
	name  string
}

func compileHolidays(exclusions []model.HolidayExclusion) ([]holidayRange, error) {
	ranges := make([]holidayRange, 0, len(exclusions))
	for _, ex := range exclusions {
		start, err := ParseDate(ex.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: 假期 %q 开始日期无效", pkgerrors.ErrInvalidConfiguration, ex.Name)
		}
		end, err := ParseDate(ex.End)
		if err != nil {
			return nil, fmt.Errorf("%w: 假期 %q 结束日期无效", pkgerrors.ErrInvalidConfiguration, ex.Name)
		}
		ranges = append(ranges, holidayRange{start: start, end: end, name: ex.Name})
	}
	return ranges, nil
}

// matchHoliday 返回 date 命中的第一个假期
func matchHoliday(ranges []holidayRange, date time.Time) (holidayRange, bool) {
	for _, h := range ranges {
		if !date.Before(h.start) && !date.After(h.end) {
			return h, true
		}
	}
	return holidayRange{}, false
}
