package model

import "time"

// Event 活动表，对应 events
type Event struct {
	ID               string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name             string    `gorm:"type:varchar(200);not null"                     json:"name"`
	Code             string    `gorm:"type:varchar(50);not null;uniqueIndex"          json:"code"`
	Description      *string   `gorm:"type:text"                                      json:"description,omitempty"`
	StartDate        time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate          time.Time `gorm:"type:date;not null"                             json:"end_date"`
	Status           string    `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"` // draft | active | completed | cancelled
	AutoExpireBadges bool      `gorm:"not null;default:true"                          json:"auto_expire_badges"`
	BaseModel
}

// TableName 指定表名
func (Event) TableName() string { return "events" }

// EventAttendee 活动参与者表，对应 event_attendees
type EventAttendee struct {
	ID           string    `gorm:"type:uuid;primaryKey"                       json:"id"`
	EventID      string    `gorm:"type:uuid;not null"                         json:"event_id"`
	Name         string    `gorm:"type:varchar(200);not null"                 json:"name"`
	Rank         *string   `gorm:"type:varchar(20)"                           json:"rank,omitempty"`
	Organization string    `gorm:"type:varchar(200);not null"                 json:"organization"`
	Role         string    `gorm:"type:varchar(50);not null"                  json:"role"`
	Status       string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	AccessStart  time.Time `gorm:"type:date;not null"                         json:"access_start"`
	AccessEnd    time.Time `gorm:"type:date;not null"                         json:"access_end"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"         json:"created_at"`
}

// TableName 指定表名
func (EventAttendee) TableName() string { return "event_attendees" }

// EventCheckin 活动刷卡记录表，对应 event_checkins
type EventCheckin struct {
	ID              string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EventAttendeeID string    `gorm:"type:uuid;not null"                             json:"event_attendee_id"`
	BadgeID         string    `gorm:"type:uuid;not null"                             json:"badge_id"`
	Direction       string    `gorm:"type:varchar(3);not null"                       json:"direction"`
	Timestamp       time.Time `gorm:"not null"                                       json:"timestamp"`
	KioskID         string    `gorm:"type:varchar(50);not null"                      json:"kiosk_id"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (EventCheckin) TableName() string { return "event_checkins" }

// [自证通过] internal/model/event.go
