package main

import (
	"context"
	"field-swarm/catalog"
	"field-swarm/config"
	"field-swarm/database"
	"field-swarm/logging"
	"field-swarm/store"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "fieldd",
	Short:         "fieldd - community coherence backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		l, err := logging.New(logging.Options{
			Level:      c.Log.Level,
			File:       c.Log.File,
			MaxSizeMB:  c.Log.MaxSizeMB,
			MaxBackups: c.Log.MaxBackups,
			MaxAgeDays: c.Log.MaxAgeDays,
		})
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./field.yaml when present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(triggersCmd)
	rootCmd.AddCommand(outcomesCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// lockDatabase takes the writer lock beside the database file. Only one
// process may migrate or serve a given database at a time.
func lockDatabase() (*flock.Flock, error) {
	lock := flock.New(cfg.Database.Path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring database lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("database %s is in use by another fieldd process", cfg.Database.Path)
	}
	return lock, nil
}

// openStore opens and migrates the configured database. When seed is true
// the embedded bundles and rituals are loaded into empty tables.
func openStore(ctx context.Context, seed bool) (*store.Store, func(), error) {
	db, err := database.OpenAndMigrate(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := database.Close(db); err != nil {
			logger.Warn("closing database", zap.Error(err))
		}
	}

	st := store.New(db)
	if seed {
		if err := seedCatalog(ctx, st); err != nil {
			closeDB()
			return nil, nil, err
		}
	}
	return st, closeDB, nil
}

func seedCatalog(ctx context.Context, st *store.Store) error {
	bundles, err := catalog.Bundles()
	if err != nil {
		return err
	}
	nb, err := st.SeedInstitutionBundles(ctx, bundles)
	if err != nil {
		return fmt.Errorf("seeding institution bundles: %w", err)
	}

	rituals, err := catalog.Rituals()
	if err != nil {
		return err
	}
	nr, err := st.SeedFieldRituals(ctx, rituals)
	if err != nil {
		return fmt.Errorf("seeding field rituals: %w", err)
	}

	if nb > 0 || nr > 0 {
		logger.Info("catalog seeded", zap.Int("bundles", nb), zap.Int("rituals", nr))
	}
	return nil
}
