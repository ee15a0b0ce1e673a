package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"notevault/internal/codec"
	"notevault/internal/entity"
	"notevault/internal/migration"
	"notevault/internal/pkg/logger"
	"notevault/internal/pubsub"
	"notevault/internal/repository/contract"
	"notevault/internal/repository/memory"
	"notevault/internal/storage/keyed"
	"notevault/internal/storage/kv"
	"notevault/internal/storage/legacy"
	"notevault/internal/storage/sqlstore"
	"notevault/internal/storeerr"
	"notevault/pkg/events"
	pktNats "notevault/pkg/nats"
)

// StorageWarning reports a backend write failure that was downgraded to a
// memory-only operation. The UI stays responsive; the user is warned with
// capacity-specific wording when the quota is full.
type StorageWarning struct {
	Capacity bool
	Message  string
}

func newStorageWarning(err error) *StorageWarning {
	if errors.Is(err, storeerr.ErrCapacityExceeded) {
		return &StorageWarning{
			Capacity: true,
			Message:  "storage is full; the note was kept in memory only and will be lost on reload",
		}
	}
	return &StorageWarning{
		Message: "could not persist the note; it was kept in memory only",
	}
}

type INoteService interface {
	// Initialize resolves the authoritative backend, runs the one-time
	// legacy upgrade if needed and loads the cache. It always settles to a
	// ready state; callers must await Ready before issuing CRUD calls.
	Initialize(ctx context.Context)
	Ready() <-chan struct{}

	Add(ctx context.Context, note *entity.Note) (*entity.Note, *StorageWarning, error)
	Update(ctx context.Context, note *entity.Note) (*StorageWarning, error)
	Delete(ctx context.Context, id int64) (*StorageWarning, error)
	Get(id int64) (*entity.Note, bool)
	Snapshot() []*entity.Note
	Subscribe(ctx context.Context) (<-chan []*entity.Note, error)
	FindByCategory(ctx context.Context, category string) ([]*entity.Note, error)
	ExportAll(ctx context.Context) ([]byte, error)
	ImportAll(ctx context.Context, data []byte) (int, *StorageWarning, error)
}

type noteService struct {
	kvStore     kv.Store
	legacyStore *legacy.FlatStore
	keyedStore  *keyed.Store
	sqlStore    *sqlstore.Store
	coordinator migration.ICoordinator

	cache *memory.NoteCache
	bc    *pubsub.Broadcaster[[]*entity.Note]

	eventPublisher *pktNats.Publisher
	log            logger.ILogger

	mu      sync.Mutex
	notes   []*entity.Note // newest first; exclusively owned
	backend contract.RecordStore

	upgradeGroup singleflight.Group
	initOnce     sync.Once
	ready        chan struct{}
}

// NewNoteService builds the repository façade. sqlStore and eventPublisher
// may be nil (no transactional medium on this platform, no NATS).
func NewNoteService(
	kvStore kv.Store,
	keyedStore *keyed.Store,
	sqlStore *sqlstore.Store,
	coordinator migration.ICoordinator,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) INoteService {
	return &noteService{
		kvStore:        kvStore,
		legacyStore:    legacy.NewFlatStore(kvStore, log),
		keyedStore:     keyedStore,
		sqlStore:       sqlStore,
		coordinator:    coordinator,
		cache:          memory.NewNoteCache(),
		bc:             pubsub.NewBroadcaster[[]*entity.Note]("notes.changed"),
		eventPublisher: eventPublisher,
		log:            log,
		ready:          make(chan struct{}),
	}
}

func (s *noteService) Ready() <-chan struct{} {
	return s.ready
}

func (s *noteService) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		defer close(s.ready)

		s.probeDurableStorage(ctx)

		status, err := s.coordinator.Status(ctx)
		if err != nil {
			s.log.Error("NoteService", "Failed to read migration status", map[string]interface{}{
				"error": err.Error(),
			})
			status = entity.MigrationNotStarted
		}

		// Backend resolution is fixed for the whole session; a migration
		// completing later is picked up on next construction.
		if status == entity.MigrationCompleted && s.sqlStore != nil {
			if err := s.sqlStore.Init(ctx); err != nil {
				s.log.Error("NoteService", "Transactional store unusable, falling back to keyed store", map[string]interface{}{
					"error": err.Error(),
				})
				s.backend = s.keyedStore
			} else {
				s.backend = s.sqlStore
			}
		} else {
			if err := s.ensureKeyedUpgrade(ctx); err != nil {
				s.log.Error("NoteService", "Legacy upgrade failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
			s.backend = s.keyedStore
		}

		notes, err := s.backend.ReadAll(ctx)
		if err != nil {
			// Initialization always settles; an unreadable backend means
			// starting from an empty set, never a wedged app.
			s.log.Error("NoteService", "Failed to load records, starting empty", map[string]interface{}{
				"error": err.Error(),
			})
			notes = nil
		}
		sortNewestFirst(notes)

		s.mu.Lock()
		s.notes = notes
		if s.notes == nil {
			s.notes = []*entity.Note{}
		}
		s.cache.ReplaceAll(s.notes)
		s.mu.Unlock()

		s.publishSnapshot()
		s.log.Info("NoteService", "Repository ready", map[string]interface{}{
			"records": len(notes),
			"backend": s.backendName(),
		})
	})
}

// probeDurableStorage is the best-effort durable storage request: a marker
// write proves the medium accepts writes at all. Failure is logged, never
// fatal.
func (s *noteService) probeDurableStorage(ctx context.Context) {
	if err := s.kvStore.Set(ctx, "notes_storage_probe", []byte("1")); err != nil {
		s.log.Warn("NoteService", "Durable storage probe failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_ = s.kvStore.Delete(ctx, "notes_storage_probe")
}

// ensureKeyedUpgrade runs the one-time legacy-to-keyed upgrade. Idempotent
// via its own persisted done flag (distinct from the migration status) and
// guarded against concurrent runs with singleflight.
func (s *noteService) ensureKeyedUpgrade(ctx context.Context) error {
	_, err, _ := s.upgradeGroup.Do("legacy-upgrade", func() (interface{}, error) {
		flag, err := s.kvStore.Get(ctx, kv.KeyUpgradeDone)
		if err == nil && string(flag) == "true" {
			return nil, nil
		}

		notes, err := s.legacyStore.Read(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			if err := s.keyedStore.Upsert(ctx, n); err != nil {
				return nil, err
			}
		}
		if len(notes) > 0 {
			s.log.Info("NoteService", "Upgraded legacy records to keyed store", map[string]interface{}{
				"records": len(notes),
			})
		}
		return nil, s.kvStore.Set(ctx, kv.KeyUpgradeDone, []byte("true"))
	})
	return err
}

func (s *noteService) awaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *noteService) Add(ctx context.Context, note *entity.Note) (*entity.Note, *StorageWarning, error) {
	if err := s.awaitReady(ctx); err != nil {
		return nil, nil, err
	}

	rec := note.Clone()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.Id == 0 {
		rec.Id = rec.CreatedAt.UnixMilli()
	}
	rec.Normalize()

	warn := s.writeBackend(ctx, rec)

	s.mu.Lock()
	s.upsertLocked(rec)
	s.mu.Unlock()
	s.publishSnapshot()

	s.publishEvent(ctx, events.NoteEvent(events.TypeNoteCreated, rec.Id, rec.Title))
	return rec.Clone(), warn, nil
}

func (s *noteService) Update(ctx context.Context, note *entity.Note) (*StorageWarning, error) {
	if err := s.awaitReady(ctx); err != nil {
		return nil, err
	}

	rec := note.Clone()
	if existing, ok := s.cache.Get(rec.Id); ok {
		// Creation time is immutable once set.
		rec.CreatedAt = existing.CreatedAt
	} else if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.Normalize()

	warn := s.writeBackend(ctx, rec)

	s.mu.Lock()
	s.upsertLocked(rec)
	s.mu.Unlock()
	s.publishSnapshot()

	s.publishEvent(ctx, events.NoteEvent(events.TypeNoteUpdated, rec.Id, rec.Title))
	return warn, nil
}

func (s *noteService) Delete(ctx context.Context, id int64) (*StorageWarning, error) {
	if err := s.awaitReady(ctx); err != nil {
		return nil, err
	}

	var warn *StorageWarning
	if err := s.backend.Delete(ctx, id); err != nil {
		s.log.Error("NoteService", "Backend delete failed, removing from memory only", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
		warn = newStorageWarning(err)
	}

	s.mu.Lock()
	removed := s.removeLocked(id)
	s.mu.Unlock()
	if !removed {
		// Deleting a nonexistent id is a no-op.
		return warn, nil
	}
	s.publishSnapshot()

	s.publishEvent(ctx, events.NoteEvent(events.TypeNoteDeleted, id, ""))
	return warn, nil
}

// Get is a synchronous lookup against the current cache.
func (s *noteService) Get(id int64) (*entity.Note, bool) {
	if n, ok := s.cache.Get(id); ok {
		return n.Clone(), true
	}
	return nil, false
}

// Snapshot returns a deep copy of the current ordered record list.
func (s *noteService) Snapshot() []*entity.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.notes)
}

// Subscribe delivers the current snapshot immediately, then every change.
func (s *noteService) Subscribe(ctx context.Context) (<-chan []*entity.Note, error) {
	return s.bc.Subscribe(ctx)
}

// FindByCategory uses the transactional store's secondary index when it is
// authoritative, otherwise scans the cache.
func (s *noteService) FindByCategory(ctx context.Context, category string) ([]*entity.Note, error) {
	if err := s.awaitReady(ctx); err != nil {
		return nil, err
	}
	if finder, ok := s.backend.(contract.CategoryFinder); ok {
		return finder.FindByCategory(ctx, category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*entity.Note
	for _, n := range s.notes {
		if n.HasCategory(category) {
			matched = append(matched, n.Clone())
		}
	}
	return matched, nil
}

// ExportAll produces the downloadable JSON text, identical in shape to the
// legacy flat blob regardless of the authoritative backend.
func (s *noteService) ExportAll(ctx context.Context) ([]byte, error) {
	if err := s.awaitReady(ctx); err != nil {
		return nil, err
	}

	notes, err := s.backend.ReadAll(ctx)
	if err != nil {
		s.log.Warn("NoteService", "Export falling back to in-memory snapshot", map[string]interface{}{
			"error": err.Error(),
		})
		notes = s.Snapshot()
	}
	// The flat blob grew append-only, so exports keep oldest-first order.
	sortNewestFirst(notes)
	for i, j := 0, len(notes)-1; i < j; i, j = i+1, j-1 {
		notes[i], notes[j] = notes[j], notes[i]
	}
	return codec.EncodeRecords(notes)
}

// ImportAll writes every record of an exported blob through the
// authoritative backend. Corrupt elements are dropped, counted by the
// codec.
func (s *noteService) ImportAll(ctx context.Context, data []byte) (int, *StorageWarning, error) {
	if err := s.awaitReady(ctx); err != nil {
		return 0, nil, err
	}

	notes, dropped, err := codec.DecodeRecords(data)
	if err != nil {
		return 0, nil, err
	}
	if dropped > 0 {
		s.log.Warn("NoteService", "Import dropped corrupt records", map[string]interface{}{
			"dropped": dropped,
		})
	}

	var warn *StorageWarning
	for _, n := range notes {
		if w := s.writeBackend(ctx, n); w != nil && warn == nil {
			warn = w
		}
		s.mu.Lock()
		s.upsertLocked(n)
		s.mu.Unlock()
	}
	if len(notes) > 0 {
		s.publishSnapshot()
	}
	return len(notes), warn, nil
}

func (s *noteService) writeBackend(ctx context.Context, rec *entity.Note) *StorageWarning {
	if err := s.backend.Upsert(ctx, rec.Clone()); err != nil {
		s.log.Error("NoteService", "Backend write failed, keeping record in memory", map[string]interface{}{
			"id":       rec.Id,
			"capacity": errors.Is(err, storeerr.ErrCapacityExceeded),
			"error":    err.Error(),
		})
		return newStorageWarning(err)
	}
	return nil
}

// upsertLocked replaces or inserts the record and restores newest-first
// order. Caller holds s.mu.
func (s *noteService) upsertLocked(rec *entity.Note) {
	replaced := false
	for i, n := range s.notes {
		if n.Id == rec.Id {
			s.notes[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		s.notes = append(s.notes, rec)
	}
	sortNewestFirst(s.notes)
	s.cache.Set(rec)
}

func (s *noteService) removeLocked(id int64) bool {
	for i, n := range s.notes {
		if n.Id == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			s.cache.Delete(id)
			return true
		}
	}
	return false
}

func (s *noteService) publishSnapshot() {
	s.mu.Lock()
	snapshot := cloneAll(s.notes)
	s.mu.Unlock()
	if err := s.bc.Publish(snapshot); err != nil {
		s.log.Warn("NoteService", "Failed to publish snapshot", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// publishEvent forwards to NATS when configured. Auxiliary: failures are
// logged, never surfaced.
func (s *noteService) publishEvent(ctx context.Context, evt events.BaseEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.log.Warn("NoteService", "Failed to publish event", map[string]interface{}{
			"type":  evt.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *noteService) backendName() string {
	if s.backend == s.sqlStore && s.sqlStore != nil {
		return "transactional"
	}
	return "keyed"
}

func sortNewestFirst(notes []*entity.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].Id > notes[j].Id
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
}

func cloneAll(notes []*entity.Note) []*entity.Note {
	out := make([]*entity.Note, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Clone())
	}
	return out
}
