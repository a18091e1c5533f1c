package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/court-scheduler/internal/auth"
	"github.com/example/court-scheduler/internal/config"
	"github.com/example/court-scheduler/internal/court"
	"github.com/example/court-scheduler/internal/crypto"
	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/migrate"
	"github.com/example/court-scheduler/internal/pipeline"
	"github.com/example/court-scheduler/internal/scheduler"
	"github.com/example/court-scheduler/internal/store"
	"github.com/example/court-scheduler/internal/trigger"
	"github.com/example/court-scheduler/internal/web"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the web UI + cron scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			logger := hclog.New(&hclog.LoggerOptions{
				Name:  "courtsched",
				Level: hclog.LevelFromString(os.Getenv("LOG_LEVEL")),
			})

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d, logger); err != nil {
					return err
				}
			}

			aead, err := crypto.New(cfg.TokenEncKey)
			if err != nil {
				return fmt.Errorf("token encryption key: %w", err)
			}

			loc, err := time.LoadLocation(cfg.Timezone)
			if err != nil {
				return fmt.Errorf("invalid SCHED_TIMEZONE: %w", err)
			}

			authStore := auth.NewStore(d, cfg.CookieHashKey, cfg.CookieBlockKey)
			schedRepo := store.NewScheduleRepo(d)
			slotRepo := store.NewTimeSlotRepo(d)
			logRepo := store.NewExecLogRepo(d)
			resRepo := store.NewReservationRepo(d)
			tokens := store.NewTokenStore(d, aead)

			pipe := &pipeline.Pipeline{
				Schedules: store.PipelineSchedules{Repo: schedRepo},
				Tokens:    tokens,
				Client:    court.New(cfg.CourtAPIBaseURL, cfg.CourtAPITimeout),
				Logger:    logger.Named("pipeline"),
			}

			runner := &scheduler.Runner{
				Pipeline:     pipe,
				Schedules:    schedRepo,
				Logs:         logRepo,
				Reservations: resRepo,
				Logger:       logger.Named("runner"),
			}

			cronSvc := scheduler.NewCron(loc, runner, logger)
			if err := cronSvc.Sync(ctx); err != nil {
				return fmt.Errorf("sync schedules: %w", err)
			}
			cronSvc.Start()
			go func() {
				<-ctx.Done()
				cronSvc.Stop()
			}()

			svc := &scheduler.Service{
				Repo:       schedRepo,
				Slots:      slotRepo,
				Triggers:   cronSvc,
				Translator: trigger.New(),
			}

			ws := &web.Server{
				Auth:         authStore,
				Schedules:    svc,
				Slots:        slotRepo,
				Logs:         logRepo,
				Reservations: resRepo,
				Tokens:       tokens,
				Runner:       runner,
				Logger:       logger.Named("web"),
				BaseURL:      cfg.BaseURL,
			}
			logger.Info("listening", "addr", cfg.ListenAddr, "tz", cfg.Timezone)
			return web.Start(ctx, cfg.ListenAddr, ws.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
