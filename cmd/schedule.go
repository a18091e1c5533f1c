package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/example/court-scheduler/internal/config"
	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/migrate"
	"github.com/example/court-scheduler/internal/scheduler"
	"github.com/example/court-scheduler/internal/store"
	"github.com/example/court-scheduler/internal/trigger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage recurring reservation schedules (non-UI)",
	}
	cmd.AddCommand(newScheduleCreateCmd())
	cmd.AddCommand(newScheduleListCmd())
	cmd.AddCommand(newScheduleDeleteCmd())
	return cmd
}

// noopRegistrar stands in for the server's cron when schedules are managed
// from the CLI: the server re-registers every active schedule at boot, so a
// schedule created here picks up a live trigger on the next server start.
type noopRegistrar struct{}

func (noopRegistrar) Register(uuid.UUID, string) (string, error) { return "", nil }
func (noopRegistrar) Deregister(string) error                    { return nil }

func scheduleService(d *db.DB) *scheduler.Service {
	return &scheduler.Service{
		Repo:       store.NewScheduleRepo(d),
		Slots:      store.NewTimeSlotRepo(d),
		Triggers:   noopRegistrar{},
		Translator: trigger.New(),
	}
}

func newScheduleCreateCmd() *cobra.Command {
	var (
		name      string
		day       int
		slotHour  int
		frequency string
		notifyOK  bool
		notifyErr bool
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a schedule for a reservation weekday and time slot",
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

			slot, err := store.NewTimeSlotRepo(d).GetByHour(ctx, slotHour)
			if err != nil {
				if db.IsNotFound(err) {
					return fmt.Errorf("no time slot for hour %d (create one with 'courtsched slot add')", slotHour)
				}
				return err
			}

			s, err := scheduleService(d).Create(ctx, scheduler.ScheduleInput{
				Name:            name,
				TimeSlotID:      slot.ID,
				ReservationDay:  day,
				Frequency:       store.Frequency(frequency),
				NotifyOnSuccess: notifyOK,
				NotifyOnFailure: notifyErr,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created schedule id=%s trigger=%q cron=%q\n",
				s.ID, s.TriggerDay(), s.CronExpression)
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "", "schedule name")
	c.Flags().IntVar(&day, "day", 0, "reservation day of week (0=Sunday..6=Saturday)")
	c.Flags().IntVar(&slotHour, "hour", 0, "time slot hour (must exist, see 'slot list')")
	c.Flags().StringVar(&frequency, "frequency", "weekly", "weekly|biweekly|monthly")
	c.Flags().BoolVar(&notifyOK, "notify-on-success", false, "flag schedule for success notifications")
	c.Flags().BoolVar(&notifyErr, "notify-on-failure", true, "flag schedule for failure notifications")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("day")
	_ = c.MarkFlagRequired("hour")
	return c
}

func newScheduleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List schedules",
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

			scheds, err := store.NewScheduleRepo(d).List(ctx)
			if err != nil {
				return err
			}
			for _, s := range scheds {
				fmt.Fprintf(os.Stdout, "id=%s name=%q day=%s slot=%02d:00 cron=%q active=%t\n",
					s.ID, s.Name, s.ReservationDay, s.SlotHour, s.CronExpression, s.IsActive)
			}
			return nil
		},
	}
}

func newScheduleDeleteCmd() *cobra.Command {
	var id string
	c := &cobra.Command{
		Use:   "delete",
		Short: "Delete a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := uuid.Parse(id)
			if err != nil {
				return fmt.Errorf("invalid --id: %w", err)
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

			if err := scheduleService(d).Delete(ctx, sid); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "deleted schedule %s\n", sid)
			return nil
		},
	}
	c.Flags().StringVar(&id, "id", "", "schedule id")
	_ = c.MarkFlagRequired("id")
	return c
}
