package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/config"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/logger"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/migrations"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	names := migrations.Names()
	sort.Strings(names)

	if *dryRun {
		for _, name := range names {
			fmt.Printf("-- %s\n%s\n", name, migrations.Read(name))
		}
		return
	}

	logger.Infow("connecting to database", "host", cfg.Postgres.Host)
	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		logger.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, name := range names {
		logger.Infow("applying migration", "name", name)
		if _, err := db.ExecContext(ctx, migrations.Read(name)); err != nil {
			logger.Fatalw("migration failed", "name", name, "error", err)
		}
	}

	logger.Info("migrations applied")
}
