package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
)

// TrainingYearRepository 训练年度数据访问接口
type TrainingYearRepository interface {
	GetCurrent(ctx context.Context) (*model.TrainingYear, error)
}

type trainingYearRepo struct {
	db *gorm.DB
}

// NewTrainingYearRepo 创建 TrainingYearRepository 实例
func NewTrainingYearRepo(db *gorm.DB) TrainingYearRepository {
	return &trainingYearRepo{db: db}
}

func (r *trainingYearRepo) GetCurrent(ctx context.Context) (*model.TrainingYear, error) {
	var year model.TrainingYear
	err := r.db.WithContext(ctx).
		Where("is_current = ?", true).
		First(&year).Error
	if err != nil {
		return nil, err
	}
	return &year, nil
}
