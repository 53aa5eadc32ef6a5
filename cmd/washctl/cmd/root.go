package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"washplan/config"
	txContext "washplan/internal/context"
	"washplan/internal/database"
	"washplan/internal/repositories"
	"washplan/internal/services"
	"washplan/internal/types"

	"github.com/spf13/cobra"
)

// Runtime is the engine a command operates on plus its cleanup.
type Runtime struct {
	Service services.Service
	Close   func() error
}

// Opener builds the Runtime lazily so flag parsing and help never touch the database.
type Opener func() (*Runtime, error)

// OpenDatabase connects using the environment configuration, bypassing the task cache.
func OpenDatabase() (*Runtime, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	anchor, err := cfg.CycleAnchor()
	if err != nil {
		return nil, fmt.Errorf("cycle anchor: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repos := repositories.New(db, 0)
	return &Runtime{
		Service: services.New(db, repos.Schedule, services.Options{CycleAnchor: anchor}),
		Close:   db.Close,
	}, nil
}

// Execute runs the CLI.
func Execute() error { return NewRootCommand(OpenDatabase).Execute() }

func NewRootCommand(open Opener) *cobra.Command {
	var actor string

	root := &cobra.Command{
		Use:           "washctl",
		Short:         "Operate the wash schedule",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&actor, "actor", "washctl", "actor recorded on audit entries")

	run := func(fn func(ctx context.Context, svc services.Service, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := open()
			if err != nil {
				return err
			}
			defer func() {
				if rt.Close != nil {
					_ = rt.Close()
				}
			}()

			return fn(txContext.WithActor(ctx, actor), rt.Service, cmd)
		}
	}

	root.AddCommand(
		newRegenerateCommand(run),
		newConflictsCommand(run),
		newCompleteVisitsCommand(run),
	)
	return root
}

type runner func(fn func(ctx context.Context, svc services.Service, cmd *cobra.Command) error) func(*cobra.Command, []string) error

func newRegenerateCommand(run runner) *cobra.Command {
	var week string
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Regenerate the tasks of one week",
		RunE: run(func(ctx context.Context, svc services.Service, cmd *cobra.Command) error {
			key, err := resolveWeek(week)
			if err != nil {
				return err
			}
			result, err := svc.Assigner.Regenerate(ctx, key)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		}),
	}
	cmd.Flags().StringVar(&week, "week", "", "ISO week (YYYY-Www), defaults to next week")
	return cmd
}

func newConflictsCommand(run runner) *cobra.Command {
	var week string
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Report double-booked workers and split customer slots",
		RunE: run(func(ctx context.Context, svc services.Service, cmd *cobra.Command) error {
			key, err := resolveWeek(week)
			if err != nil {
				return err
			}
			report, err := svc.Conflicts.GetConflicts(ctx, key)
			if err != nil {
				return err
			}
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if !report.Empty() {
				return fmt.Errorf("week %s has conflicts", key)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&week, "week", "", "ISO week (YYYY-Www), defaults to next week")
	return cmd
}

func newCompleteVisitsCommand(run runner) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "complete-visits",
		Short: "Record wash history for visits before a date",
		RunE: run(func(ctx context.Context, svc services.Service, cmd *cobra.Command) error {
			at := time.Now().UTC()
			if asOf != "" {
				parsed, err := time.Parse(time.DateOnly, asOf)
				if err != nil {
					return types.Validation("invalid --as-of %q", asOf)
				}
				at = parsed
			}
			completed, err := svc.History.CompleteVisits(ctx, at)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"asOf": at.Format(time.DateOnly), "completed": completed})
		}),
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "completion date (YYYY-MM-DD), defaults to today")
	return cmd
}

func resolveWeek(value string) (types.WeekKey, error) {
	if value == "" {
		return types.WeekOf(time.Now().UTC()).Add(1), nil
	}
	week, err := types.ParseWeekKey(value)
	if err != nil {
		return types.WeekKey{}, types.Validation("invalid --week %q", value)
	}
	return week, nil
}

func printJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
