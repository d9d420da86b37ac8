package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
)

// MemberRepository 成员数据访问接口
type MemberRepository interface {
	GetByID(ctx context.Context, id string) (*model.Member, error)
	// ListActive 返回在册成员；divisionID 为空时不过滤部门
	ListActive(ctx context.Context, divisionID string) ([]model.Member, error)
}

// DivisionRepository 部门数据访问接口
type DivisionRepository interface {
	GetByCode(ctx context.Context, code string) (*model.Division, error)
}

// ── Member Repository 实现 ──

type memberRepo struct {
	db *gorm.DB
}

// NewMemberRepo 创建 MemberRepository 实例
func NewMemberRepo(db *gorm.DB) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) GetByID(ctx context.Context, id string) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).
		Preload("Division").
		Where("id = ?", id).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) ListActive(ctx context.Context, divisionID string) ([]model.Member, error) {
	var members []model.Member
	q := r.db.WithContext(ctx).
		Preload("Division").
		Where("status = ?", "active")
	if divisionID != "" {
		q = q.Where("division_id = ?", divisionID)
	}
	err := q.Order("last_name ASC, first_name ASC").Find(&members).Error
	return members, err
}

// ── Division Repository 实现 ──

type divisionRepo struct {
	db *gorm.DB
}

// NewDivisionRepo 创建 DivisionRepository 实例
func NewDivisionRepo(db *gorm.DB) DivisionRepository {
	return &divisionRepo{db: db}
}

func (r *divisionRepo) GetByCode(ctx context.Context, code string) (*model.Division, error) {
	var division model.Division
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&division).Error
	if err != nil {
		return nil, err
	}
	return &division, nil
}
