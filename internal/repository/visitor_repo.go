package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
)

// VisitorRepository 访客数据访问接口
type VisitorRepository interface {
	BatchCreate(ctx context.Context, visitors []model.Visitor) error
	CountBetween(ctx context.Context, start, end time.Time) (int64, error)
}

type visitorRepo struct {
	db *gorm.DB
}

// NewVisitorRepo 创建 VisitorRepository 实例
func NewVisitorRepo(db *gorm.DB) VisitorRepository {
	return &visitorRepo{db: db}
}

func (r *visitorRepo) BatchCreate(ctx context.Context, visitors []model.Visitor) error {
	if len(visitors) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&visitors, 500).Error
}

func (r *visitorRepo) CountBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Visitor{}).
		Where("check_in_time >= ? AND check_in_time <= ?", start, end).
		Count(&count).Error
	return count, err
}
