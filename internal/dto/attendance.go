package dto

// ── 出勤统计 DTO ──

// 出勤状态
const (
	AttendanceStatusNew              = "new"
	AttendanceStatusInsufficientData = "insufficient_data"
	AttendanceStatusCalculated       = "calculated"
)

// 阈值标记
const (
	FlagNone     = "none"
	FlagWarning  = "warning"
	FlagCritical = "critical"
)

// 趋势方向
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
	TrendNone   = "none"
)

// AttendanceCalculation 出勤计算结果
// 可选字段按状态填充：new 仅有 badge；insufficient_data 有计数与 display；calculated 有百分比与 flag
type AttendanceCalculation struct {
	Status     string   `json:"status"`
	Percentage *float64 `json:"percentage,omitempty"`
	Attended   *int     `json:"attended,omitempty"`
	Possible   *int     `json:"possible,omitempty"`
	Flag       string   `json:"flag,omitempty"`
	Badge      string   `json:"badge,omitempty"`
	Display    string   `json:"display,omitempty"`
}

// TrendIndicator 出勤趋势
type TrendIndicator struct {
	Trend string `json:"trend"`
	Delta *int   `json:"delta,omitempty"`
}

// MemberAttendanceResponse 单个成员出勤 + 趋势
type MemberAttendanceResponse struct {
	MemberID    string                `json:"member_id"`
	PeriodStart string                `json:"period_start"`
	PeriodEnd   string                `json:"period_end"`
	Attendance  AttendanceCalculation `json:"attendance"`
	Trend       *TrendIndicator       `json:"trend,omitempty"`
}

// BMQAttendanceResponse BMQ 成员出勤
type BMQAttendanceResponse struct {
	MemberID   string                `json:"member_id"`
	CourseID   string                `json:"course_id"`
	Attendance AttendanceCalculation `json:"attendance"`
}
