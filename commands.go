package main

import (
	"encoding/json"
	"field-swarm/events"
	"field-swarm/swarm"
	"field-swarm/trust"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and seed the starter catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		lock, err := lockDatabase()
		if err != nil {
			return err
		}
		defer lock.Unlock() //nolint:errcheck

		_, closeDB, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		closeDB()
		logger.Info("database ready", zap.String("path", cfg.Database.Path))
		return nil
	},
}

var triggersCmd = &cobra.Command{
	Use:   "triggers [targetType] [targetId]",
	Short: "Print swarm triggers as JSON",
	Long: `With no arguments, prints every trigger active within the configured window.
With a target, evaluates the trigger rules for that bucket only.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, closeDB, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer closeDB()

		engine := swarm.New(st, nil, logger.Named("swarm"))

		var triggers []swarm.Trigger
		if len(args) == 0 {
			triggers, err = engine.Active(ctx, cfg.ActiveWindow)
		} else {
			t := swarm.Target{Type: args[0]}
			if len(args) == 2 {
				id, perr := strconv.ParseInt(args[1], 10, 64)
				if perr != nil {
					return fmt.Errorf("invalid target id %q", args[1])
				}
				t.ID = &id
			}
			triggers, err = engine.Evaluate(ctx, t)
		}
		if err != nil {
			return err
		}
		if triggers == nil {
			triggers = []swarm.Trigger{}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(triggers)
	},
}

var outcomesCmd = &cobra.Command{
	Use:   "outcomes",
	Short: "Score open signals whose outcome the swarm has since made clear",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, closeDB, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer closeDB()

		ledger := trust.NewLedger(st, logger.Named("trust"))
		n, err := trust.NewEvaluator(st, ledger, logger.Named("outcomes")).AutoDetectOutcomes(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("evaluated %d signal(s)\n", n)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [subject]",
	Short: "Follow field events on the bus",
	Long:  "Prints every field event published to NATS. The subject defaults to " + events.AllSubjects + ".",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.NATS.URL == "" {
			return fmt.Errorf("nats.url is not configured")
		}
		subject := events.AllSubjects
		if len(args) == 1 {
			subject = args[0]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sub, err := events.NewNATSSubscriber(cfg.NATS.URL, nats.Name("fieldd-watch"))
		if err != nil {
			return err
		}
		defer sub.Close() //nolint:errcheck

		enc := json.NewEncoder(os.Stdout)
		return sub.Follow(ctx, subject, func(subject string, msg events.Message) {
			if err := enc.Encode(map[string]any{"subject": subject, "type": msg.Type, "data": msg.Data}); err != nil {
				logger.Warn("writing event", zap.Error(err))
			}
		})
	},
}
