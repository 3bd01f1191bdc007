package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"supplement_tracker/internal/app"
	"supplement_tracker/internal/domain/notification"
	"supplement_tracker/internal/domain/schedule"
)

// withServices loads config, wires the services without polling Telegram
// and runs fn.
func withServices(fn func(ctx context.Context, svc *services) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	svc, err := buildServices(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, svc)
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <email> [display name]",
	Short: "Register a user",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tz, _ := cmd.Flags().GetString("tz")
		name := ""
		if len(args) == 2 {
			name = args[1]
		}
		return withServices(func(ctx context.Context, svc *services) error {
			u, err := svc.users.Register(ctx, args[0], name, tz)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d registered (%s)\n", u.ID, u.Email)
			return nil
		})
	},
}

var userNotifyCmd = &cobra.Command{
	Use:   "notify <email> on|off",
	Short: "Turn reminders on or off for a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var enabled bool
		switch strings.ToLower(args[1]) {
		case "on":
			enabled = true
		case "off":
		default:
			return fmt.Errorf("expected on or off, got %q", args[1])
		}
		return withServices(func(ctx context.Context, svc *services) error {
			u, err := svc.users.GetByEmail(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = svc.users.SetNotifications(ctx, u.ID, enabled)
			return err
		})
	},
}

var userLinkCmd = &cobra.Command{
	Use:   "link <email> <telegram chat id>",
	Short: "Link a Telegram chat to an account without the e-mailed code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chatID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chat id %q: %w", args[1], err)
		}
		return withServices(func(ctx context.Context, svc *services) error {
			u, err := svc.users.LinkTelegram(ctx, args[0], chatID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d linked to chat %d\n", u.ID, chatID)
			return nil
		})
	},
}

var userUnlinkCmd = &cobra.Command{
	Use:   "unlink <email>",
	Short: "Detach the Telegram chat from an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(ctx context.Context, svc *services) error {
			u, err := svc.users.GetByEmail(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = svc.users.UnlinkTelegram(ctx, u.ID)
			return err
		})
	},
}

var supplementCmd = &cobra.Command{
	Use:   "supplement",
	Short: "Manage a user's supplements",
}

var supplementAddCmd = &cobra.Command{
	Use:   "add <email> <name>",
	Short: "Add a supplement",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := supplementInputFromFlags(cmd)
		if err != nil {
			return err
		}
		in.Name = args[1]
		return withServices(func(ctx context.Context, svc *services) error {
			u, err := svc.users.GetByEmail(ctx, args[0])
			if err != nil {
				return err
			}
			sp, err := svc.supplements.Add(ctx, u.ID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "supplement %d added\n", sp.ID)
			return nil
		})
	},
}

var supplementListCmd = &cobra.Command{
	Use:   "list <email>",
	Short: "Show a user's supplements with remaining supply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(ctx context.Context, svc *services) error {
			u, err := svc.users.GetByEmail(ctx, args[0])
			if err != nil {
				return err
			}
			cards, today, err := svc.summaries.Summaries(ctx, u.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), app.FormatSummary(today, cards))
			return nil
		})
	},
}

var supplementDeleteCmd = &cobra.Command{
	Use:   "delete <email> <id>",
	Short: "Delete a supplement",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid supplement id %q: %w", args[1], err)
		}
		return withServices(func(ctx context.Context, svc *services) error {
			u, err := svc.users.GetByEmail(ctx, args[0])
			if err != nil {
				return err
			}
			return svc.supplements.Delete(ctx, u.ID, id)
		})
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs [run id]",
	Short: "Show recent notification runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withServices(func(ctx context.Context, svc *services) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "ID\tDATE\tSTARTED\tSTATUS\tSENT\tSKIPPED\tFAILED")

			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid run id: %w", err)
				}
				run, err := svc.runs.GetRun(ctx, id)
				if err != nil {
					return err
				}
				printRun(w, run)
				return nil
			}

			runs, err := svc.runs.ListRecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			for _, run := range runs {
				printRun(w, run)
			}
			return nil
		})
	},
}

func printRun(w io.Writer, run *notification.Run) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n", run.ID, run.RunDate.Format(schedule.DayLayout), run.StartedAt.Format("15:04:05"), run.Status(), run.SentCount, run.SkippedCount, run.FailedCount)
	if run.Error != "" {
		fmt.Fprintf(w, "\t  error: %s\n", run.Error)
	}
}

func supplementInputFromFlags(cmd *cobra.Command) (app.SupplementInput, error) {
	f := cmd.Flags()
	var in app.SupplementInput
	in.StartDate, _ = f.GetString("start")
	in.DosesPerDay, _ = f.GetInt("doses")
	in.Dosage, _ = f.GetString("dosage")
	in.Times, _ = f.GetStringSlice("times")
	in.Notes, _ = f.GetString("notes")
	if f.Changed("servings") {
		v, _ := f.GetFloat64("servings")
		in.Servings = &v
	}
	if cycle, _ := f.GetString("cycle"); cycle != "" {
		c, err := parseCycle(cycle)
		if err != nil {
			return in, err
		}
		in.Cycle = c
	}
	return in, nil
}

// parseCycle reads "on/off", e.g. "5/2".
func parseCycle(s string) (*schedule.Cycle, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return nil, fmt.Errorf("cycle must look like on/off, e.g. 5/2")
	}
	on, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid on days: %w", err)
	}
	off, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid off days: %w", err)
	}
	return &schedule.Cycle{On: on, Off: off}, nil
}

func init() {
	userAddCmd.Flags().String("tz", "", "IANA timezone for the user")
	userCmd.AddCommand(userAddCmd, userNotifyCmd, userLinkCmd, userUnlinkCmd)

	f := supplementAddCmd.Flags()
	f.String("start", "", "start date (YYYY-MM-DD)")
	f.String("cycle", "", "on/off days, e.g. 5/2")
	f.Float64("servings", 0, "servings in the container")
	f.Int("doses", 0, "doses per day")
	f.String("dosage", "", "free-text dosage")
	f.StringSlice("times", nil, "time slots, e.g. 08:00,20:00")
	f.String("notes", "", "notes")
	supplementCmd.AddCommand(supplementAddCmd, supplementListCmd, supplementDeleteCmd)

	runsCmd.Flags().Int("limit", 10, "number of runs to show")
	rootCmd.AddCommand(runsCmd)
}
