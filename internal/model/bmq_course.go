package model

import "time"

// BMQCourse BMQ 课程表，对应 bmq_courses
type BMQCourse struct {
	ID                string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name              string      `gorm:"type:varchar(100);not null"                     json:"name"`
	StartDate         time.Time   `gorm:"type:date;not null"                             json:"start_date"`
	EndDate           time.Time   `gorm:"type:date;not null"                             json:"end_date"`
	TrainingDays      StringArray `gorm:"type:text[];not null"                           json:"training_days"` // ["saturday","sunday"]
	TrainingStartTime string      `gorm:"type:varchar(5);not null"                       json:"training_start_time"`
	TrainingEndTime   string      `gorm:"type:varchar(5);not null"                       json:"training_end_time"`
	IsActive          bool        `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (BMQCourse) TableName() string { return "bmq_courses" }

// BMQEnrollment BMQ 报名表，对应 bmq_enrollments
type BMQEnrollment struct {
	ID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MemberID    string     `gorm:"type:uuid;not null"                             json:"member_id"`
	BMQCourseID string     `gorm:"column:bmq_course_id;type:uuid;not null"        json:"bmq_course_id"`
	EnrolledAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      string     `gorm:"type:varchar(20);not null;default:'enrolled'"   json:"status"` // enrolled | completed | withdrawn

	// 关联
	Member *Member `gorm:"foreignKey:MemberID;references:ID" json:"member,omitempty"`
}

// TableName 指定表名
func (BMQEnrollment) TableName() string { return "bmq_enrollments" }
