package main

import (
	"context"
	"log"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/bootstrap"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/config"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/server"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	if app.DB != nil {
		if err := db.RunMigrations(ctx, app.DB); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
	}

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
