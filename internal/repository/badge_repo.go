package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
)

// BadgeRepository 徽章数据访问接口
type BadgeRepository interface {
	ListUnassigned(ctx context.Context, limit int) ([]model.Badge, error)
}

type badgeRepo struct {
	db *gorm.DB
}

// NewBadgeRepo 创建 BadgeRepository 实例
func NewBadgeRepo(db *gorm.DB) BadgeRepository {
	return &badgeRepo{db: db}
}

func (r *badgeRepo) ListUnassigned(ctx context.Context, limit int) ([]model.Badge, error) {
	var badges []model.Badge
	err := r.db.WithContext(ctx).
		Where("assignment_type = ? AND status = ?", "unassigned", "active").
		Order("serial_number ASC").
		Limit(limit).
		Find(&badges).Error
	return badges, err
}
