// Package main applies or rolls back the result-store schema.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/viper"

	"github.com/cory-johannsen/simfell/internal/config"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/rime.yaml", "path to configuration file")
	dir := flag.String("dir", "migrations", "directory holding migration files")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	dbCfg, err := loadDatabase(*configPath)
	if err != nil {
		log.Fatalf("loading database config: %v", err)
	}

	abs, err := filepath.Abs(*dir)
	if err != nil {
		log.Fatalf("resolving migrations dir: %v", err)
	}
	m, err := migrate.New("file://"+filepath.ToSlash(abs), dbCfg.DSN())
	if err != nil {
		log.Fatalf("creating migrator: %v", err)
	}
	defer m.Close()

	switch *direction {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	default:
		log.Fatalf("invalid direction %q: must be 'up' or 'down'", *direction)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migration failed: %v", err)
	}

	version, dirty, _ := m.Version()
	elapsed := time.Since(start)

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintf(os.Stdout, "no changes (version=%d dirty=%v) [%s]\n", version, dirty, elapsed)
	} else {
		fmt.Fprintf(os.Stdout, "migrated %s to version=%d dirty=%v [%s]\n", *direction, version, dirty, elapsed)
	}
}

// loadDatabase reads only the database section so the rest of the
// simulation config need not be valid.
func loadDatabase(path string) (config.DatabaseConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SIMFELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	config.SetDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("reading config: %w", err)
	}
	var dbCfg config.DatabaseConfig
	if err := v.UnmarshalKey("database", &dbCfg); err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("parsing database config: %w", err)
	}
	return dbCfg, nil
}
