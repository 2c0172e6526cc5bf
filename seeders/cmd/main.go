package main

import (
	"context"
	"log"

	"fieldops/pkg/config"
	"fieldops/pkg/database/postgresql"
	"fieldops/seeders"
)

func main() {
	cfg := config.New()

	db := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer db.Close()

	if err := seeders.RunAll(context.Background(), db); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
}
