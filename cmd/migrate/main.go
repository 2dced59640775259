package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/Rrens/identity-api/internal/config"
	"github.com/Rrens/identity-api/internal/logger"
	"github.com/Rrens/identity-api/internal/repository"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const usage = `usage: migrate [-steps n] up|down|version`

func main() {
	logger.Default()

	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	// Load .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	m, err := repository.NewMigrator(cfg.Database)
	if errors.Is(err, repository.ErrNoMigrations) {
		log.Info().Str("driver", cfg.Database.Driver).Msg("Nothing to migrate; indexes are created on connect")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare migrations")
	}
	defer m.Close()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down(*steps)
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = m.Version()
		if err == nil {
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Schema version")
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Migration failed")
	}
}
