package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/example/court-scheduler/internal/config"
	"github.com/example/court-scheduler/internal/court"
	"github.com/example/court-scheduler/internal/crypto"
	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/pipeline"
	"github.com/example/court-scheduler/internal/scheduler"
	"github.com/example/court-scheduler/internal/store"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		scheduleID string
		test       bool
		hour       int
		preflight  bool
	)

	c := &cobra.Command{
		Use:          "run",
		Short:        "Execute the reservation flow once and print the result",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !preflight && !test && scheduleID == "" {
				return fmt.Errorf("one of --schedule, --test or --preflight is required")
			}

			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
			if err != nil {
				return err
			}
			defer d.Close()

			aead, err := crypto.New(cfg.TokenEncKey)
			if err != nil {
				return err
			}

			logger := hclog.New(&hclog.LoggerOptions{
				Name:  "courtsched",
				Level: hclog.LevelFromString(os.Getenv("LOG_LEVEL")),
			})

			schedRepo := store.NewScheduleRepo(d)
			runner := &scheduler.Runner{
				Pipeline: &pipeline.Pipeline{
					Schedules: store.PipelineSchedules{Repo: schedRepo},
					Tokens:    store.NewTokenStore(d, aead),
					Client:    court.New(cfg.CourtAPIBaseURL, cfg.CourtAPITimeout),
					Logger:    logger.Named("pipeline"),
				},
				Schedules:    schedRepo,
				Logs:         store.NewExecLogRepo(d),
				Reservations: store.NewReservationRepo(d),
				Logger:       logger.Named("runner"),
			}

			var res pipeline.Result
			switch {
			case preflight:
				res = runner.RunPreflight(ctx)
			case test:
				res = runner.RunTest(ctx, hour)
			default:
				sid, err := uuid.Parse(scheduleID)
				if err != nil {
					return fmt.Errorf("invalid --schedule: %w", err)
				}
				res = runner.RunSchedule(ctx, sid)
			}

			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(out))
			return resultError(res)
		},
	}

	c.Flags().StringVar(&scheduleID, "schedule", "", "schedule id to run")
	c.Flags().BoolVar(&test, "test", false, "synthetic test run (no schedule lookup)")
	c.Flags().IntVar(&hour, "hour", 0, "hour for --test runs (0..23)")
	c.Flags().BoolVar(&preflight, "preflight", false, "verify credentials without booking")
	return c
}

// resultError maps a completed result to the command's exit condition. A
// returned error (instead of os.Exit) lets deferred cleanup run; cobra maps
// it to exit status 1.
func resultError(res pipeline.Result) error {
	if res.Success {
		return nil
	}
	return fmt.Errorf("run failed at step %q: %s", res.Step, res.Error)
}
