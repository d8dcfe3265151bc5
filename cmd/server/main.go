package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/fenggwsx/StudyShelf/internal/config"
	"github.com/fenggwsx/StudyShelf/internal/portal"
	"github.com/fenggwsx/StudyShelf/internal/server"
	"github.com/fenggwsx/StudyShelf/internal/snapshot"
	"github.com/fenggwsx/StudyShelf/internal/storage/sqlite"
)

func main() {
	cfg := config.LoadServerConfig()

	store, err := sqlite.NewStore(cfg.Database)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	provider := portal.New(ctx, snapshot.NewAdapter(store))
	app := server.NewApp(cfg, provider)

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server shutdown: %v", err)
	}
}
