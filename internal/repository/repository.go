package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	ReportSetting ReportSettingRepository
	TrainingYear  TrainingYearRepository
	BMQCourse     BMQCourseRepository
	BMQEnrollment BMQEnrollmentRepository
	Division      DivisionRepository
	Member        MemberRepository
	Badge         BadgeRepository
	Checkin       CheckinRepository
	Visitor       VisitorRepository
	Event         EventRepository
}

// NewRepository 创建 Repository 聚合
// timezone 为设施时区，用于按本地日期 / 时刻匹配刷卡记录
func NewRepository(db *gorm.DB, timezone string) *Repository {
	return &Repository{
		ReportSetting: NewReportSettingRepo(db),
		TrainingYear:  NewTrainingYearRepo(db),
		BMQCourse:     NewBMQCourseRepo(db),
		BMQEnrollment: NewBMQEnrollmentRepo(db),
		Division:      NewDivisionRepo(db),
		Member:        NewMemberRepo(db),
		Badge:         NewBadgeRepo(db),
		Checkin:       NewCheckinRepo(db, timezone),
		Visitor:       NewVisitorRepo(db),
		Event:         NewEventRepo(db),
	}
}
