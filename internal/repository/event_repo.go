package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
)

// EventRepository 活动数据访问接口
type EventRepository interface {
	// CreateWithCohort 在同一事务中写入活动、参与者及其刷卡记录
	CreateWithCohort(ctx context.Context, event *model.Event, attendees []model.EventAttendee, checkins []model.EventCheckin) error
	// CountOverlapping 统计与 [start, end] 日期区间有交集的活动数
	CountOverlapping(ctx context.Context, start, end time.Time) (int64, error)
}

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo 创建 EventRepository 实例
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) CreateWithCohort(
	ctx context.Context, event *model.Event, attendees []model.EventAttendee, checkins []model.EventCheckin,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		if len(attendees) > 0 {
			for i := range attendees {
				attendees[i].EventID = event.ID
			}
			if err := tx.CreateInBatches(&attendees, 500).Error; err != nil {
				return err
			}
		}
		if len(checkins) > 0 {
			if err := tx.CreateInBatches(&checkins, 500).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *eventRepo) CountOverlapping(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Count(&count).Error
	return count, err
}
