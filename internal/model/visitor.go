package model

import "time"

// Visitor 访客登记表，对应 visitors
type Visitor struct {
	ID            string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name          string     `gorm:"type:varchar(200);not null"                     json:"name"`
	Organization  string     `gorm:"type:varchar(200);not null"                     json:"organization"`
	VisitType     string     `gorm:"type:varchar(20);not null"                      json:"visit_type"` // contractor | recruitment | official | other | general
	VisitReason   *string    `gorm:"type:varchar(200)"                              json:"visit_reason,omitempty"`
	HostMemberID  *string    `gorm:"type:uuid"                                      json:"host_member_id,omitempty"`
	CheckInTime   time.Time  `gorm:"not null"                                       json:"check_in_time"`
	CheckOutTime  *time.Time `json:"check_out_time,omitempty"`
	KioskID       string     `gorm:"type:varchar(50);not null"                      json:"kiosk_id"`
	CheckInMethod string     `gorm:"type:varchar(20);not null;default:'kiosk'"      json:"check_in_method"`
	CreatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Visitor) TableName() string { return "visitors" }
