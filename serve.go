package main

import (
	"context"
	"errors"
	"field-swarm/auth"
	"field-swarm/events"
	"field-swarm/handlers"
	"field-swarm/realtime"
	"field-swarm/swarm"
	"field-swarm/trust"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API, the /ws feed and the decay scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		lock, err := lockDatabase()
		if err != nil {
			return err
		}
		defer lock.Unlock() //nolint:errcheck

		st, closeDB, err := openStore(ctx, true)
		if err != nil {
			return err
		}
		defer closeDB()

		var pub events.Publisher = &events.NoopPublisher{}
		if cfg.NATS.URL != "" {
			np, err := events.NewNATSPublisher(cfg.NATS.URL)
			if err != nil {
				return err
			}
			pub = np
			logger.Info("events enabled", zap.String("nats_url", cfg.NATS.URL))
		} else {
			logger.Info("events disabled (nats.url not set)")
		}
		defer pub.Close() //nolint:errcheck

		hub := realtime.NewHub(cfg.WSBuffer, pub, logger.Named("ws"))

		ledger := trust.NewLedger(st, logger.Named("trust"))
		h := handlers.New(handlers.Deps{
			Store:        st,
			Engine:       swarm.New(st, ledger, logger.Named("swarm")),
			Ledger:       ledger,
			Outcomes:     trust.NewEvaluator(st, ledger, logger.Named("outcomes")),
			Auth:         auth.NewService(st, logger.Named("auth")),
			Hub:          hub,
			Log:          logger.Named("http"),
			ActiveWindow: cfg.ActiveWindow,
		})

		gin.SetMode(cfg.GinMode)
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           handlers.NewRouter(h, hub.Handler()),
			ReadHeaderTimeout: 10 * time.Second,
		}
		scheduler := trust.NewScheduler(cfg.DecayInterval, logger.Named("decay"))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return hub.Run(gctx) })
		g.Go(func() error { return scheduler.Run(gctx) })
		g.Go(func() error {
			logger.Info("fieldd listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}
