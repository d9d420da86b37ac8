package service

import (
	"time"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
)

// clockWindow 以当日分钟数表示的时间窗口
type clockWindow struct {
	start int
	end   int
}

func parseWindow(w *dto.TimeWindow) (clockWindow, error) {
	start, err := parseClock(w.Start)
	if err != nil {
		return clockWindow{}, err
	}
	end, err := parseClock(w.End)
	if err != nil {
		return clockWindow{}, err
	}
	return clockWindow{start: start, end: end}, nil
}

// withVariance 在 minutes 上叠加 [lo, hi] 分钟的随机偏移
func withVariance(r *Random, minutes, lo, hi int) int {
	return minutes + r.Int(lo, hi)
}

// atClock 将日历日（UTC 零点）与当日分钟数组合为设施时区下的时间点
// 分钟数越界时按 time.Date 规则顺延
func atClock(date time.Time, minutes int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, minutes, 0, 0, loc)
}

// dayBounds 返回日历日在设施时区下的 [00:00, 23:59:59.999]
func dayBounds(start, end time.Time, loc *time.Location) (time.Time, time.Time) {
	from := atClock(start, 0, loc)
	to := atClock(end, 24*60, loc).Add(-time.Millisecond)
	return from, to
}
