package dto

// ── 数据模拟 DTO ──

// 时间范围模式
const (
	TimeRangeLastDays = "last_days"
	TimeRangeCustom   = "custom"
)

// SimulationTimeRange 模拟时间范围
type SimulationTimeRange struct {
	Mode      string `json:"mode"       binding:"required,oneof=last_days custom"`
	LastDays  int    `json:"last_days"  binding:"omitempty,min=1,max=365"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// SimulationAttendanceRates 各类人员出勤概率（0-100）
type SimulationAttendanceRates struct {
	FTSWorkDays          float64 `json:"fts_work_days"          binding:"min=0,max=100"`
	FTSTrainingNight     float64 `json:"fts_training_night"     binding:"min=0,max=100"`
	FTSAdminNight        float64 `json:"fts_admin_night"        binding:"min=0,max=100"`
	ReserveTrainingNight float64 `json:"reserve_training_night" binding:"min=0,max=100"`
	ReserveAdminNight    float64 `json:"reserve_admin_night"    binding:"min=0,max=100"`
	BMQAttendance        float64 `json:"bmq_attendance"         binding:"min=0,max=100"`
	EDTAppearance        float64 `json:"edt_appearance"         binding:"min=0,max=100"`
}

// IntRange 闭区间
type IntRange struct {
	Min int `json:"min" binding:"min=0"`
	Max int `json:"max" binding:"gtefield=Min"`
}

// SimulationIntensity 模拟强度
type SimulationIntensity struct {
	VisitorsPerDay     IntRange `json:"visitors_per_day"`
	EventsPerMonth     IntRange `json:"events_per_month"`
	EdgeCasePercentage float64  `json:"edge_case_percentage" binding:"min=0,max=100"`
}

// SimulationRequest 模拟请求
// AttendanceRates / Intensity 为空时使用配置默认值
type SimulationRequest struct {
	TimeRange       SimulationTimeRange        `json:"time_range"       binding:"required"`
	AttendanceRates *SimulationAttendanceRates `json:"attendance_rates"`
	Intensity       *SimulationIntensity       `json:"intensity"`
	WarnOnOverlap   bool                       `json:"warn_on_overlap"`
	Seed            *uint64                    `json:"seed,omitempty"` // 固定种子以复现结果
}

// DateRange 日期区间（YYYY-MM-DD）
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// GeneratedCounts 各类生成记录数
type GeneratedCounts struct {
	Checkins       int `json:"checkins"`
	Visitors       int `json:"visitors"`
	Events         int `json:"events"`
	EventAttendees int `json:"event_attendees"`
	EventCheckins  int `json:"event_checkins"`
}

// MemberBreakdown 成员构成（ED&T 同时计入 fts / reserve）
type MemberBreakdown struct {
	FTS     int `json:"fts"`
	Reserve int `json:"reserve"`
	BMQ     int `json:"bmq"`
	EDT     int `json:"edt"`
}

// EdgeCaseCounts 注入的异常统计
type EdgeCaseCounts struct {
	ForgottenCheckouts int `json:"forgotten_checkouts"`
	LateArrivals       int `json:"late_arrivals"`
	EarlyDepartures    int `json:"early_departures"`
	FlaggedEntries     int `json:"flagged_entries"`
}

// SimulationSummary 模拟摘要
type SimulationSummary struct {
	DateRange       DateRange       `json:"date_range"`
	DaysSimulated   int             `json:"days_simulated"`
	Generated       GeneratedCounts `json:"generated"`
	MemberBreakdown MemberBreakdown `json:"member_breakdown"`
	EdgeCases       EdgeCaseCounts  `json:"edge_cases"`
}

// SimulationResponse 模拟结果
type SimulationResponse struct {
	Summary  SimulationSummary `json:"summary"`
	Warnings []string          `json:"warnings"`
}

// SimulationPrecheck 模拟前检查结果
type SimulationPrecheck struct {
	HasOverlap       bool           `json:"has_overlap"`
	ExistingCheckins int64          `json:"existing_checkins"`
	ExistingVisitors int64          `json:"existing_visitors"`
	ExistingEvents   int64          `json:"existing_events"`
	DateRange        DateRange      `json:"date_range"`
	ActiveMembers    int            `json:"active_members"`
	MemberCategories map[string]int `json:"member_categories"`
}
