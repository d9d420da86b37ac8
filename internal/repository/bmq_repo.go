package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
)

// BMQCourseRepository BMQ 课程数据访问接口
type BMQCourseRepository interface {
	GetByID(ctx context.Context, id string) (*model.BMQCourse, error)
	// ListActive 按开始日期、ID 升序，重叠课程以先出现者为准
	ListActive(ctx context.Context) ([]model.BMQCourse, error)
}

// BMQEnrollmentRepository BMQ 报名数据访问接口
type BMQEnrollmentRepository interface {
	Get(ctx context.Context, memberID, courseID string) (*model.BMQEnrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.BMQEnrollment, error)
	// ListEnrolledMemberIDs 返回当前处于 enrolled 状态的成员 ID
	ListEnrolledMemberIDs(ctx context.Context) ([]string, error)
}

// ── BMQCourse Repository 实现 ──

type bmqCourseRepo struct {
	db *gorm.DB
}

// NewBMQCourseRepo 创建 BMQCourseRepository 实例
func NewBMQCourseRepo(db *gorm.DB) BMQCourseRepository {
	return &bmqCourseRepo{db: db}
}

func (r *bmqCourseRepo) GetByID(ctx context.Context, id string) (*model.BMQCourse, error) {
	var course model.BMQCourse
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *bmqCourseRepo) ListActive(ctx context.Context) ([]model.BMQCourse, error) {
	var courses []model.BMQCourse
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("start_date ASC, id ASC").
		Find(&courses).Error
	return courses, err
}

// ── BMQEnrollment Repository 实现 ──

type bmqEnrollmentRepo struct {
	db *gorm.DB
}

// NewBMQEnrollmentRepo 创建 BMQEnrollmentRepository 实例
func NewBMQEnrollmentRepo(db *gorm.DB) BMQEnrollmentRepository {
	return &bmqEnrollmentRepo{db: db}
}

func (r *bmqEnrollmentRepo) Get(ctx context.Context, memberID, courseID string) (*model.BMQEnrollment, error) {
	var enrollment model.BMQEnrollment
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND bmq_course_id = ?", memberID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *bmqEnrollmentRepo) ListByCourse(ctx context.Context, courseID string) ([]model.BMQEnrollment, error) {
	var enrollments []model.BMQEnrollment
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Member.Division").
		Where("bmq_course_id = ?", courseID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *bmqEnrollmentRepo) ListEnrolledMemberIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.BMQEnrollment{}).
		Where("status = ?", "enrolled").
		Distinct().
		Pluck("member_id", &ids).Error
	return ids, err
}
