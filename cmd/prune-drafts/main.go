// Command prune-drafts deletes autosaved drafts that have not been touched
// for a while. It works on the persistent draft backends (sqlite and fs).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/db"
	"github.com/debemdeboas/the-archive-admin/internal/logger"
	"github.com/debemdeboas/the-archive-admin/internal/repository/editor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	olderThan := flag.String("older-than", "720h", "age after which a draft is dropped (e.g. 72h, 30d, 2w)")
	flag.Parse()

	godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	db.SetLogger(logger.Component(log, "db"))
	editor.SetLogger(logger.Component(log, "drafts"))

	age, err := parseAge(*olderThan)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid --older-than")
	}

	n, err := prune(cfg.Drafts, time.Now().Add(-age))
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Drafts.Backend).Msg("Prune failed")
	}
	log.Info().Int("count", n).Str("backend", cfg.Drafts.Backend).Dur("older_than", age).Msg("Drafts pruned")
}

func prune(cfg config.DraftsConfig, before time.Time) (int, error) {
	if cfg.Backend == "" || cfg.Backend == "memory" {
		return 0, fmt.Errorf("backend %q keeps no drafts between runs", cfg.Backend)
	}

	repo, closeRepo, err := editor.New(cfg)
	if err != nil {
		return 0, err
	}
	defer closeRepo()

	pruner, ok := repo.(editor.Pruner)
	if !ok {
		return 0, fmt.Errorf("backend %q cannot prune", cfg.Backend)
	}
	return pruner.Prune(before)
}

// parseAge accepts Go durations plus whole days ("30d") and weeks ("2w").
func parseAge(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	var n int
	var unit string
	if _, err := fmt.Sscanf(s, "%d%s", &n, &unit); err != nil || n < 0 {
		return 0, fmt.Errorf("failed to parse age '%s'", s)
	}
	switch unit {
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "w":
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("failed to parse age '%s'", s)
}
