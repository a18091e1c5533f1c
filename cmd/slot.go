package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/example/court-scheduler/internal/config"
	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/migrate"
	"github.com/example/court-scheduler/internal/store"
	"github.com/spf13/cobra"
)

func newSlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Manage bookable time slots",
	}
	cmd.AddCommand(newSlotAddCmd())
	cmd.AddCommand(newSlotListCmd())
	return cmd
}

func newSlotAddCmd() *cobra.Command {
	var (
		hour       int
		externalID string
		name       string
	)

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a time slot (hour + court API slot id)",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if err := migrate.Up(ctx, d, nil); err != nil {
				return err
			}

			id, err := store.NewTimeSlotRepo(d).Create(ctx, hour, externalID, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created time slot id=%s hour=%02d:00\n", id, hour)
			return nil
		},
	}

	c.Flags().IntVar(&hour, "hour", 0, "slot hour (0..23)")
	c.Flags().StringVar(&externalID, "external-id", "", "court API time slot id")
	c.Flags().StringVar(&name, "name", "", "display name (defaults to HH:00)")
	_ = c.MarkFlagRequired("hour")
	_ = c.MarkFlagRequired("external-id")
	return c
}

func newSlotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List time slots",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			slots, err := store.NewTimeSlotRepo(d).List(ctx)
			if err != nil {
				return err
			}
			for _, s := range slots {
				fmt.Fprintf(os.Stdout, "id=%s hour=%02d:00 external_id=%s name=%q\n",
					s.ID, s.Hour, s.ExternalID, s.DisplayName)
			}
			return nil
		},
	}
}
