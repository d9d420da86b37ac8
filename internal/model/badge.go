package model

// Badge RFID 徽章表，对应 badges
type Badge struct {
	ID             string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"  json:"id"`
	SerialNumber   string `gorm:"type:varchar(100);not null;uniqueIndex"          json:"serial_number"`
	AssignmentType string `gorm:"type:varchar(20);not null;default:'unassigned'" json:"assignment_type"` // member | event | unassigned
	Status         string `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	BaseModel
}

// TableName 指定表名
func (Badge) TableName() string { return "badges" }
