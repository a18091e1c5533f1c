package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/example/court-scheduler/internal/config"
	"github.com/example/court-scheduler/internal/crypto"
	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/migrate"
	"github.com/example/court-scheduler/internal/store"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the court API refresh token",
	}
	cmd.AddCommand(newTokenSetCmd())
	return cmd
}

func newTokenSetCmd() *cobra.Command {
	var value string

	c := &cobra.Command{
		Use:   "set",
		Short: "Store the initial refresh token (sealed at rest); reads stdin when --value is omitted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if value == "" {
				fmt.Fprint(os.Stderr, "refresh token: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return err
				}
				value = strings.TrimSpace(line)
			}
			if value == "" {
				return fmt.Errorf("empty token")
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

			if err := migrate.Up(ctx, d, nil); err != nil {
				return err
			}

			aead, err := crypto.New(cfg.TokenEncKey)
			if err != nil {
				return err
			}
			if err := store.NewTokenStore(d, aead).SetToken(ctx, value); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "refresh token stored")
			return nil
		},
	}

	c.Flags().StringVar(&value, "value", "", "refresh token value")
	return c
}
