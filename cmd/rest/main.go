package main

import (
	"context"
	"log"

	"gorm.io/gorm"

	"notevault/internal/bootstrap"
	"notevault/internal/config"
	"notevault/internal/server"
	"notevault/internal/tracer"
	"notevault/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	// The transactional medium is optional; without it the repository
	// serves from the keyed store and migration reports the backend as
	// unavailable.
	var gormDB *gorm.DB
	db, err := database.New(cfg.Database.Driver, cfg.Database.SqlitePath, cfg.Database.Connection)
	if err != nil {
		log.Printf("[WARN] Transactional store unavailable: %v", err)
	} else {
		gormDB = db
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	ctx := context.Background()

	// Repository must be ready before the first request is honored.
	container.NoteService.Initialize(ctx)
	<-container.NoteService.Ready()

	go container.Hub.Run(ctx)

	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
