package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dailytracker/backend/internal/config"
	"github.com/dailytracker/backend/internal/logging"
	"github.com/dailytracker/backend/internal/model/diary"
	"github.com/dailytracker/backend/internal/service/conversation"
	"github.com/dailytracker/backend/internal/service/reminder"
	"github.com/dailytracker/backend/internal/service/report"
	"github.com/dailytracker/backend/internal/storage"
	"github.com/dailytracker/backend/internal/transport/telegram"
)

// app is shared by every subcommand once the root has loaded the configuration.
type app struct {
	cfg    *config.Config
	logger logging.Logger
}

func (a *app) openStore(ctx context.Context) (storage.EntryStore, error) {
	return storage.Open(ctx, a.cfg.Storage, a.logger)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "diaryctl",
		Short:         "Administer the daily tracker store",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Env)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
	}

	rootCmd.AddCommand(reportCmd(a))
	rootCmd.AddCommand(usersCmd(a))
	rootCmd.AddCommand(migrateCmd(a))
	rootCmd.AddCommand(remindCmd(a))

	return rootCmd
}

func reportCmd(a *app) *cobra.Command {
	var (
		userID int64
		date   string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the daily report of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			gen := report.NewGenerator(store)
			day := gen.Today()
			if date != "" {
				if day, err = diary.ParseDay(date); err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}

			text, err := gen.Build(ctx, userID, day)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "user id")
	cmd.Flags().StringVarP(&date, "date", "d", "", "day as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func usersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List every user with stored entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			ids, err := store.ListKnownUserIDs(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the entry store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", a.cfg.Storage.Backend)
			return nil
		},
	}
}

func remindCmd(a *app) *cobra.Command {
	var slot string

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send one reminder broadcast through Telegram now",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := reminder.ParseSlot(slot)
			if err != nil {
				return err
			}
			if !a.cfg.Telegram.Enabled {
				return errors.New("TELEGRAM_BOT_TOKEN is required for reminders")
			}

			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			bot, err := telegram.New(a.cfg.Telegram, a.logger)
			if err != nil {
				return err
			}

			scheduler, err := reminder.NewScheduler(store, bot, a.cfg.Reminder,
				reminder.WithMenu(conversation.MainMenu()),
				reminder.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}

			res, err := scheduler.Broadcast(ctx, s)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recipients=%d delivered=%d failed=%d\n", res.Recipients, res.Delivered, res.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&slot, "slot", "s", string(reminder.Morning), "morning or evening")

	return cmd
}
