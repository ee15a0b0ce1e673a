// Package migration drives the one-time bulk transition from the keyed
// store to the transactional store and tracks which backend is
// authoritative.
package migration

import (
	"context"
	"fmt"
	"sync"

	"notevault/internal/entity"
	"notevault/internal/pkg/logger"
	"notevault/internal/pubsub"
	"notevault/internal/repository/contract"
	"notevault/internal/storage/kv"
	"notevault/internal/storeerr"
)

// Target is what the coordinator needs from the transactional store.
type Target interface {
	Available(ctx context.Context) error
	Init(ctx context.Context) error
	BulkReplace(ctx context.Context, notes []*entity.Note) error
}

type ICoordinator interface {
	Status(ctx context.Context) (entity.MigrationStatus, error)
	Subscribe(ctx context.Context) (<-chan entity.MigrationStatus, error)
	Start(ctx context.Context) error
	Skip(ctx context.Context) error
	Reset(ctx context.Context) error
	IsNeeded(ctx context.Context) (bool, error)
}

type coordinator struct {
	flags  kv.Store
	source contract.RecordStore
	target Target
	bc     *pubsub.Broadcaster[entity.MigrationStatus]
	log    logger.ILogger
	mu     sync.Mutex
}

func NewCoordinator(flags kv.Store, source contract.RecordStore, target Target, log logger.ILogger) ICoordinator {
	return &coordinator{
		flags:  flags,
		source: source,
		target: target,
		bc:     pubsub.NewBroadcaster[entity.MigrationStatus]("migration.status"),
		log:    log,
	}
}

// Status reads the persisted value, creating NOT_STARTED on first run.
func (c *coordinator) Status(ctx context.Context) (entity.MigrationStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked(ctx)
}

func (c *coordinator) statusLocked(ctx context.Context) (entity.MigrationStatus, error) {
	data, err := c.flags.Get(ctx, kv.KeyMigrationStatus)
	if err != nil {
		if err := c.setStatusLocked(ctx, entity.MigrationNotStarted); err != nil {
			return entity.MigrationNotStarted, err
		}
		return entity.MigrationNotStarted, nil
	}
	status := entity.MigrationStatus(data)
	if !status.Valid() {
		// An unreadable flag must not wedge the app; treat as fresh.
		c.log.Warn("MigrationCoordinator", "Invalid persisted status, resetting", map[string]interface{}{
			"value": string(data),
		})
		status = entity.MigrationNotStarted
	}
	return status, nil
}

// setStatusLocked persists before broadcasting: the durable write always
// precedes the in-memory notification.
func (c *coordinator) setStatusLocked(ctx context.Context, status entity.MigrationStatus) error {
	if err := c.flags.Set(ctx, kv.KeyMigrationStatus, []byte(status)); err != nil {
		return err
	}
	return c.bc.Publish(status)
}

// Subscribe replays the current status to the new observer, then streams
// changes.
func (c *coordinator) Subscribe(ctx context.Context) (<-chan entity.MigrationStatus, error) {
	if _, ok := c.bc.Last(); !ok {
		// Seed the broadcaster so the first subscriber gets a replay even
		// before any transition happened this session.
		c.mu.Lock()
		status, err := c.statusLocked(ctx)
		if err == nil {
			_ = c.bc.Publish(status)
		}
		c.mu.Unlock()
	}
	return c.bc.Subscribe(ctx)
}

// Start runs the transition rules:
//  1. IN_PROGRESS rejects reentrant starts.
//  2. COMPLETED is an idempotent no-op success.
//  3. SKIPPED rejects the start without a state change; only Reset
//     leaves it.
//  4. An unavailable target medium transitions to FAILED.
//  5. Otherwise IN_PROGRESS; zero source records complete directly, else
//     BulkReplace decides between COMPLETED and FAILED (propagated).
func (c *coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	status, err := c.statusLocked(ctx)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	switch status {
	case entity.MigrationInProgress:
		c.mu.Unlock()
		return storeerr.ErrAlreadyInProgress
	case entity.MigrationCompleted:
		c.mu.Unlock()
		return nil
	case entity.MigrationSkipped:
		// Terminal until an explicit Reset; the user declined.
		c.mu.Unlock()
		return storeerr.ErrMigrationSkipped
	}

	if err := c.target.Available(ctx); err != nil {
		_ = c.setStatusLocked(ctx, entity.MigrationFailed)
		c.mu.Unlock()
		return err
	}

	if err := c.setStatusLocked(ctx, entity.MigrationInProgress); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	if err := c.run(ctx); err != nil {
		c.transition(ctx, entity.MigrationFailed)
		return err
	}
	c.transition(ctx, entity.MigrationCompleted)
	return nil
}

func (c *coordinator) run(ctx context.Context) error {
	if err := c.target.Init(ctx); err != nil {
		return err
	}

	notes, err := c.source.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("read migration source: %w", err)
	}
	if len(notes) == 0 {
		c.log.Info("MigrationCoordinator", "No records to migrate", nil)
		return nil
	}

	if err := c.target.BulkReplace(ctx, notes); err != nil {
		return err
	}
	c.log.Info("MigrationCoordinator", "Migration completed", map[string]interface{}{
		"records": len(notes),
	})
	return nil
}

func (c *coordinator) transition(ctx context.Context, status entity.MigrationStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.setStatusLocked(ctx, status); err != nil {
		c.log.Error("MigrationCoordinator", "Failed to persist status", map[string]interface{}{
			"status": string(status),
			"error":  err.Error(),
		})
	}
}

// Skip marks the migration declined. Terminal until an explicit reset.
func (c *coordinator) Skip(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setStatusLocked(ctx, entity.MigrationSkipped)
}

// Reset forces NOT_STARTED regardless of current state. Diagnostic use.
func (c *coordinator) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setStatusLocked(ctx, entity.MigrationNotStarted)
}

// IsNeeded is true unless the status is COMPLETED or SKIPPED.
func (c *coordinator) IsNeeded(ctx context.Context) (bool, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return false, err
	}
	return !status.Terminal(), nil
}
