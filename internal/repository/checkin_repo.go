package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
)

// CheckinRepository 刷卡记录数据访问接口
type CheckinRepository interface {
	// FindAttendedDates 返回成员在给定日期（YYYY-MM-DD）中、设施本地时刻落在
	// [windowStart, windowEnd] 内且方向为 direction 的去重日期
	FindAttendedDates(ctx context.Context, memberID string, dates []string, windowStart, windowEnd, direction string) ([]string, error)
	BatchCreate(ctx context.Context, checkins []model.Checkin) error
	CountBetween(ctx context.Context, start, end time.Time) (int64, error)
}

type checkinRepo struct {
	db       *gorm.DB
	timezone string
}

// NewCheckinRepo 创建 CheckinRepository 实例
func NewCheckinRepo(db *gorm.DB, timezone string) CheckinRepository {
	return &checkinRepo{db: db, timezone: timezone}
}

func (r *checkinRepo) FindAttendedDates(
	ctx context.Context, memberID string, dates []string, windowStart, windowEnd, direction string,
) ([]string, error) {
	if len(dates) == 0 {
		return []string{}, nil
	}

	var days []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT to_char(c.timestamp AT TIME ZONE ?, 'YYYY-MM-DD') AS day
		FROM checkins c
		WHERE c.member_id = ?
		  AND c.direction = ?
		  AND to_char(c.timestamp AT TIME ZONE ?, 'YYYY-MM-DD') IN ?
		  AND date_trunc('minute', c.timestamp AT TIME ZONE ?)::time BETWEEN ?::time AND ?::time
		ORDER BY day`,
		r.timezone, memberID, direction, r.timezone, dates, r.timezone, windowStart, windowEnd,
	).Scan(&days).Error
	return days, err
}

func (r *checkinRepo) BatchCreate(ctx context.Context, checkins []model.Checkin) error {
	if len(checkins) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&checkins, 500).Error
}

func (r *checkinRepo) CountBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Checkin{}).
		Where("timestamp >= ? AND timestamp <= ?", start, end).
		Count(&count).Error
	return count, err
}
