package bootstrap

import (
	"log"

	"gorm.io/gorm"

	"notevault/internal/config"
	"notevault/internal/controller"
	"notevault/internal/migration"
	"notevault/internal/pkg/logger"
	"notevault/internal/service"
	"notevault/internal/storage/keyed"
	"notevault/internal/storage/kv"
	"notevault/internal/storage/sqlstore"
	"notevault/internal/websocket"
	pktNats "notevault/pkg/nats"
)

type Container struct {
	NoteController      controller.INoteController
	MigrationController controller.IMigrationController

	// Exposed for main.go: the service must be initialized and the hub run
	// before the server accepts traffic.
	NoteService service.INoteService
	Hub         *websocket.Hub

	Logger logger.ILogger
}

// NewContainer wires the persistence core. db may be nil when no
// transactional medium is configured; the repository then stays on the
// keyed store and migration starts fail with a distinguishable error.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	kvStore := newKVStore(cfg, sysLogger)
	keyedStore := keyed.NewStore(kvStore, sysLogger)

	var sqlStore *sqlstore.Store
	if db != nil {
		sqlStore = sqlstore.NewStore(db, sysLogger)
	}

	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		}
	}

	coordinator := migration.NewCoordinator(kvStore, keyedStore, coordinatorTarget(sqlStore), sysLogger)

	noteService := service.NewNoteService(kvStore, keyedStore, sqlStore, coordinator, natsPub, sysLogger)
	migrationService := service.NewMigrationService(coordinator, natsPub, sysLogger)

	hub := websocket.NewHub(noteService, migrationService, sysLogger)

	return &Container{
		NoteController:      controller.NewNoteController(noteService),
		MigrationController: controller.NewMigrationController(migrationService),
		NoteService:         noteService,
		Hub:                 hub,
		Logger:              sysLogger,
	}
}

func newKVStore(cfg *config.Config, sysLogger logger.ILogger) kv.Store {
	if cfg.Storage.Medium == "redis" {
		store, err := kv.NewRedisStore(cfg.Storage.RedisURL, "notevault")
		if err == nil {
			return store
		}
		sysLogger.Error("Bootstrap", "Redis medium unusable, falling back to file store", map[string]interface{}{
			"error": err.Error(),
		})
	}

	store, err := kv.NewFileStore(cfg.Storage.RootDir, cfg.Storage.CapacityBytes)
	if err != nil {
		log.Fatalf("[FATAL] Failed to open kv store at %s: %v", cfg.Storage.RootDir, err)
	}
	return store
}

func coordinatorTarget(sqlStore *sqlstore.Store) migration.Target {
	if sqlStore == nil {
		return unavailableTarget{}
	}
	return sqlStore
}
