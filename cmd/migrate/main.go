package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/localnerve/aris-backend/data"
	"github.com/localnerve/aris-backend/internal/config"
	"github.com/localnerve/aris-backend/internal/database"
	"github.com/localnerve/aris-backend/internal/services"
)

func main() {
	var showHelp, down, seed bool
	var envFilename, target string
	flag.BoolVar(&showHelp, "h", false, "show help")
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.BoolVar(&down, "down", false, "revert the newest applied migration")
	flag.BoolVar(&seed, "seed", false, "load the development fixtures after migrating")
	flag.StringVar(&target, "target", "", "migration id to migrate to (defaults to the SCHEMA_REVISION target)")
	flag.Parse()

	usage := `
Bring the database schema to the configured schema revision.

Usage:

migrate [-h] [-f ENV_FILE_PATH] [-target MIGRATION_ID] [-down] [-seed]

ENV_FILE_PATH: path to the .env file
MIGRATION_ID:  one of the migration ids, e.g. 0003_timezone_aware_deleted_at

SCHEMA_REVISION=draft-only applies 0004_retire_publication, which permanently
deletes every document that is not a DRAFT.

example
  migrate -f /path/to/something/.env -seed
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	boot := config.DefaultLogger()
	if envFilename != "" {
		boot.Info("loading environment variables", "file", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			boot.Error("failed to load environment variables", "error", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		boot.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := cfg.NewLogger("migrate")

	ctx := context.Background()
	db, err := database.ConnectWithRetry(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if down {
		previous, err := database.Previous(db)
		if err == nil {
			err = database.Rollback(db, previous, log)
		}
		if err != nil {
			log.Error("rollback failed", "error", err)
			database.Close(db)
			os.Exit(1)
		}
		log.Info("rolled back", "now_at", previous)
		return
	}

	if target == "" {
		target = database.TargetFor(cfg.Revision())
	}
	if err := database.Migrate(db, target, log); err != nil {
		log.Error("migration failed", "error", err)
		database.Close(db)
		os.Exit(1)
	}
	log.Info("schema is current", "target", target)

	if seed {
		fixtures, err := services.ParseFixtures(data.SeedFixtures)
		if err == nil {
			_, err = services.Seed(ctx, db, fixtures, cfg.Revision(), log)
		}
		if err != nil {
			log.Error("seeding failed", "error", err)
			database.Close(db)
			os.Exit(1)
		}
	}
}
