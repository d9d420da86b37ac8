package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DeadshotOMEGA/sentinel-sub002/internal/dto"
	"github.com/DeadshotOMEGA/sentinel-sub002/internal/model"
	pkgerrors "github.com/DeadshotOMEGA/sentinel-sub002/pkg/errors"
)

const (
	eventBadgePoolSize = 25
	eventDayStart      = 9 * 60
	eventDayEnd        = 17 * 60
	eventStatus        = "completed"
	attendeeStatus     = "active"
)

// SimulateEvents 单独生成活动数据
func (s *simulationService) SimulateEvents(
	ctx context.Context, start, end time.Time, intensity dto.SimulationIntensity, seed uint64,
) (*EventSimulationResult, error) {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end 早于 start", pkgerrors.ErrInvalidRange)
	}
	run := &simulationRun{
		rng:       NewRandom(seed),
		intensity: intensity,
		loc:       s.loc,
		kioskID:   s.cfg.Facility.KioskID,
	}
	return s.simulateEvents(ctx, run, start, end)
}

func (s *simulationService) simulateEvents(
	ctx context.Context, run *simulationRun, start, end time.Time,
) (*EventSimulationResult, error) {
	days := int(end.Sub(start).Hours() / 24)
	months := (days + 29) / 30
	if months < 1 {
		months = 1
	}
	count := run.rng.Int(run.intensity.EventsPerMonth.Min*months, run.intensity.EventsPerMonth.Max*months)

	result := &EventSimulationResult{}
	if count <= 0 {
		return result, nil
	}

	badges, err := s.repo.Badge.ListUnassigned(ctx, eventBadgePoolSize)
	if err != nil {
		s.logger.Error("查询未分配徽章失败", zap.Error(err))
		return nil, err
	}
	if len(badges) == 0 {
		s.logger.Warn("无可用的未分配徽章，活动不会产生刷卡记录")
	}

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		event, attendees, checkins := run.generateEvent(start, days, i, badges)
		if err := s.repo.Event.CreateWithCohort(ctx, event, attendees, checkins); err != nil {
			s.logger.Error("写入模拟活动失败", zap.String("code", event.Code), zap.Error(err))
			return nil, fmt.Errorf("写入活动 %s 失败: %w", event.Code, err)
		}
		result.Events++
		result.Attendees += len(attendees)
		result.Checkins += len(checkins)
	}
	return result, nil
}

// generateEvent 生成一个 1-3 天的活动及其参与者与刷卡记录
func (run *simulationRun) generateEvent(
	rangeStart time.Time, days, seq int, badges []model.Badge,
) (*model.Event, []model.EventAttendee, []model.EventCheckin) {
	offset := run.rng.Int(0, max(0, days-3))
	eventStart := rangeStart.AddDate(0, 0, offset)
	duration := run.rng.Int(1, 3)
	eventEnd := eventStart.AddDate(0, 0, duration-1)

	name := randomEventName(run.rng)
	description := "Simulated event: " + name
	event := &model.Event{
		ID:               uuid.NewString(),
		Name:             name,
		Code:             randomEventCode(run.rng, eventStart.Year(), seq),
		Description:      &description,
		StartDate:        eventStart,
		EndDate:          eventEnd,
		Status:           eventStatus,
		AutoExpireBadges: true,
	}

	n := run.rng.Int(10, 50)
	attendees := make([]model.EventAttendee, n)
	for j := range attendees {
		personName, organization := randomPerson(run.rng)
		var rank *string
		if run.rng.Chance(30) {
			if r := Pick(run.rng, attendeeRanks); r != "" {
				rank = &r
			}
		}
		attendees[j] = model.EventAttendee{
			ID:           uuid.NewString(),
			EventID:      event.ID,
			Name:         personName,
			Rank:         rank,
			Organization: organization,
			Role:         Pick(run.rng, attendeeRoles),
			Status:       attendeeStatus,
			AccessStart:  eventStart,
			AccessEnd:    eventEnd,
		}
	}

	pool := badges
	if len(pool) > len(attendees) {
		pool = pool[:len(attendees)]
	}
	var checkins []model.EventCheckin
	if len(pool) == 0 {
		return event, attendees, checkins
	}

	for d := eventStart; !d.After(eventEnd); d = d.AddDate(0, 0, 1) {
		// 每天约 70% 参与者到场
		daily := PickN(run.rng, attendees, len(attendees)*7/10)
		for k, a := range daily {
			badge := pool[k%len(pool)]
			in := withVariance(run.rng, eventDayStart, -30, 60)
			leave := withVariance(run.rng, eventDayEnd, -60, 30)

			checkins = append(checkins, model.EventCheckin{
				ID:              uuid.NewString(),
				EventAttendeeID: a.ID,
				BadgeID:         badge.ID,
				Direction:       model.DirectionIn,
				Timestamp:       atClock(d, in, run.loc),
				KioskID:         run.kioskID,
			})
			if run.rng.Chance(90) {
				checkins = append(checkins, model.EventCheckin{
					ID:              uuid.NewString(),
					EventAttendeeID: a.ID,
					BadgeID:         badge.ID,
					Direction:       model.DirectionOut,
					Timestamp:       atClock(d, leave, run.loc),
					KioskID:         run.kioskID,
				})
			}
		}
	}
	return event, attendees, checkins
}
