package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/example/court-scheduler/internal/config"
	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/store"
	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	var days int

	c := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete execution logs and past reservations older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if days == 0 {
				days = cfg.RetentionDays
			}
			if days < 1 {
				return fmt.Errorf("retention must be at least 1 day")
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
			if err != nil {
				return err
			}
			defer d.Close()

			logs, err := store.NewExecLogRepo(d).DeleteOlderThan(ctx, days)
			if err != nil {
				return err
			}
			reservations, err := store.NewReservationRepo(d).DeleteOlderThan(ctx, days)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "deleted %d execution logs, %d reservations (older than %d days)\n",
				logs, reservations, days)
			return nil
		},
	}

	c.Flags().IntVar(&days, "days", 0, "retention window in days (defaults to RETENTION_DAYS)")
	return c
}
