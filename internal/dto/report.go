package dto

import "time"

// ── 报表 DTO ──

// TrainingNightReportQuery 训练夜出勤报表查询参数
type TrainingNightReportQuery struct {
	Start          string `form:"start"            binding:"required,datetime=2006-01-02"`
	End            string `form:"end"              binding:"required,datetime=2006-01-02"`
	DivisionID     string `form:"division_id"      binding:"omitempty,uuid"`
	IncludeFTStaff *bool  `form:"include_ft_staff"`
}

// ReportMember 报表中的成员摘要
type ReportMember struct {
	ID            string `json:"id"`
	ServiceNumber string `json:"service_number"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Rank          string `json:"rank"`
	DivisionID    string `json:"division_id,omitempty"`
	DivisionName  string `json:"division_name,omitempty"`
}

// TrainingNightAttendanceRow 训练夜报表行
type TrainingNightAttendanceRow struct {
	Member         ReportMember          `json:"member"`
	Attendance     AttendanceCalculation `json:"attendance"`
	Trend          *TrendIndicator       `json:"trend,omitempty"`
	IsBMQEnrolled  bool                  `json:"is_bmq_enrolled"`
	EnrollmentDate time.Time             `json:"enrollment_date"`
}

// TrainingNightReport 训练夜出勤报表
type TrainingNightReport struct {
	PeriodStart string                       `json:"period_start"`
	PeriodEnd   string                       `json:"period_end"`
	GeneratedAt time.Time                    `json:"generated_at"`
	Rows        []TrainingNightAttendanceRow `json:"rows"`
}

// BMQAttendanceRow BMQ 报表行
type BMQAttendanceRow struct {
	Member           ReportMember          `json:"member"`
	Attendance       AttendanceCalculation `json:"attendance"`
	EnrollmentStatus string                `json:"enrollment_status"`
	EnrolledAt       time.Time             `json:"enrolled_at"`
}

// BMQReport BMQ 课程出勤报表
type BMQReport struct {
	CourseID    string             `json:"course_id"`
	CourseName  string             `json:"course_name"`
	StartDate   string             `json:"start_date"`
	EndDate     string             `json:"end_date"`
	Sessions    int                `json:"sessions"`
	GeneratedAt time.Time          `json:"generated_at"`
	Rows        []BMQAttendanceRow `json:"rows"`
}
