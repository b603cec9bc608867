package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/aris-backend/data"
	"github.com/localnerve/aris-backend/internal/config"
	"github.com/localnerve/aris-backend/internal/database"
	"github.com/localnerve/aris-backend/internal/services"
	"github.com/localnerve/aris-backend/internal/testhelpers"
)

func main() {
	var showHelp, seed bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.BoolVar(&seed, "seed", true, "migrate and load the development fixtures")
	flag.Parse()

	usage := `
Run a development database container for aris, migrated to the configured schema revision.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH] [-seed=false]

ENV_FILE_PATH: path to the .env file (DB_TYPE selects postgres or mysql, DB_IMAGE overrides the image)

example
  testcontainers -f /path/to/something/.env
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "postgres"
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGTSTP, syscall.SIGQUIT)

	ctx := context.Background()
	var dbContainer *testhelpers.DBContainer
	go func() {
		dbContainer = testhelpers.StartDatabase(ctx, nil, dbType)
		if seed {
			if err := prepare(ctx, dbContainer.Config); err != nil {
				log.Printf("Failed to prepare database: %v\n", err)
			}
		}
		log.Printf("Database ready, press Ctrl-C to stop\n")
	}()

	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating test containers...\n", sig)
	if dbContainer != nil {
		dbContainer.Terminate(nil)
	}
}

// prepare migrates the container database and loads the fixtures
func prepare(ctx context.Context, cfg *config.Config) error {
	if rev := os.Getenv("SCHEMA_REVISION"); rev != "" {
		cfg.SchemaRevision = rev
	}
	logger := cfg.NewLogger("testcontainers")

	db, err := database.ConnectWithRetry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db, database.TargetFor(cfg.Revision()), logger); err != nil {
		return err
	}

	fixtures, err := services.ParseFixtures(data.SeedFixtures)
	if err != nil {
		return err
	}
	_, err = services.Seed(ctx, db, fixtures, cfg.Revision(), logger)
	return err
}
