package service

import (
	"context"
	"errors"
	"time"

	"notevault/internal/entity"
	"notevault/internal/migration"
	"notevault/internal/pkg/logger"
	"notevault/internal/storeerr"
	"notevault/pkg/events"
	pktNats "notevault/pkg/nats"
)

type IMigrationService interface {
	Status(ctx context.Context) (entity.MigrationStatus, error)
	Subscribe(ctx context.Context) (<-chan entity.MigrationStatus, error)
	Start(ctx context.Context) error
	Skip(ctx context.Context) error
	Reset(ctx context.Context) error
	IsNeeded(ctx context.Context) (bool, error)
}

type migrationService struct {
	coordinator    migration.ICoordinator
	eventPublisher *pktNats.Publisher
	log            logger.ILogger
}

func NewMigrationService(coordinator migration.ICoordinator, eventPublisher *pktNats.Publisher, log logger.ILogger) IMigrationService {
	return &migrationService{
		coordinator:    coordinator,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (s *migrationService) Status(ctx context.Context) (entity.MigrationStatus, error) {
	return s.coordinator.Status(ctx)
}

func (s *migrationService) Subscribe(ctx context.Context) (<-chan entity.MigrationStatus, error) {
	return s.coordinator.Subscribe(ctx)
}

func (s *migrationService) Start(ctx context.Context) error {
	err := s.coordinator.Start(ctx)
	if errors.Is(err, storeerr.ErrAlreadyInProgress) {
		// The running attempt will publish its own outcome.
		return err
	}
	if errors.Is(err, storeerr.ErrMigrationSkipped) {
		// Rejected without an attempt; nothing happened worth an event.
		return err
	}

	eventType := events.TypeMigrationCompleted
	if err != nil {
		eventType = events.TypeMigrationFailed
	}
	s.publish(ctx, events.BaseEvent{
		Type:       eventType,
		Data:       map[string]interface{}{},
		OccurredAt: time.Now(),
	})
	return err
}

func (s *migrationService) Skip(ctx context.Context) error {
	return s.coordinator.Skip(ctx)
}

func (s *migrationService) Reset(ctx context.Context) error {
	return s.coordinator.Reset(ctx)
}

func (s *migrationService) IsNeeded(ctx context.Context) (bool, error) {
	return s.coordinator.IsNeeded(ctx)
}

func (s *migrationService) publish(ctx context.Context, evt events.BaseEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.log.Warn("MigrationService", "Failed to publish event", map[string]interface{}{
			"type":  evt.EventType(),
			"error": err.Error(),
		})
	}
}
