package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
)

// ReportSettingRepository 报表设置数据访问接口
type ReportSettingRepository interface {
	Get(ctx context.Context, key string) (*model.ReportSetting, error)
}

type reportSettingRepo struct {
	db *gorm.DB
}

// NewReportSettingRepo 创建 ReportSettingRepository 实例
func NewReportSettingRepo(db *gorm.DB) ReportSettingRepository {
	return &reportSettingRepo{db: db}
}

func (r *reportSettingRepo) Get(ctx context.Context, key string) (*model.ReportSetting, error) {
	var setting model.ReportSetting
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}
