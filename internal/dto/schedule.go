package dto

// ── 日程解析 DTO ──

// TimeWindow 时间窗口（HH:MM，设施本地时间）
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayProfile 某一日期的日程画像，由配置快照纯函数推导，不落库
type DayProfile struct {
	Date               string      `json:"date"`        // YYYY-MM-DD
	DayOfWeek          string      `json:"day_of_week"` // monday ... sunday
	IsHoliday          bool        `json:"is_holiday"`
	HolidayName        string      `json:"holiday_name,omitempty"`
	DayException       string      `json:"day_exception,omitempty"`
	IsWorkDay          bool        `json:"is_work_day"`
	IsSummerHours      bool        `json:"is_summer_hours"`
	IsTrainingNight    bool        `json:"is_training_night"`
	IsAdminNight       bool        `json:"is_admin_night"`
	IsBMQDay           bool        `json:"is_bmq_day"`
	BMQCourseID        string      `json:"bmq_course_id,omitempty"`
	WorkHours          *TimeWindow `json:"work_hours,omitempty"`
	TrainingNightHours *TimeWindow `json:"training_night_hours,omitempty"`
	AdminNightHours    *TimeWindow `json:"admin_night_hours,omitempty"`
	BMQHours           *TimeWindow `json:"bmq_hours,omitempty"`
}

// DateQuery 单日查询参数
type DateQuery struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// DateRangeQuery 日期区间查询参数
type DateRangeQuery struct {
	Start string `form:"start" binding:"required,datetime=2006-01-02"`
	End   string `form:"end"   binding:"required,datetime=2006-01-02"`
}
