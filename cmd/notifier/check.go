package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"supplement_tracker/internal/app"
	"supplement_tracker/internal/domain/schedule"
)

var checkCmd = newCheckCmd()

// newCheckCmd builds the offline calculator. It needs no database or config.
func newCheckCmd() *cobra.Command {
	var (
		start    string
		on, off  int
		date     string
		tz       string
		servings float64
		doses    int
		dosage   string
		times    []string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate one schedule without touching the database",
		Example: `  notifier check --start 2024-01-01 --on 5 --off 2 --date 2024-01-05
  notifier check --start 2024-03-01 --servings 60 --dosage "2 capsules daily"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			startDay, err := schedule.ParseDay(start)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			if tz == "" {
				tz = schedule.DefaultTimezone
			}
			if _, err := schedule.LoadLocation(tz); err != nil {
				return fmt.Errorf("invalid --tz: %w", err)
			}

			var clock schedule.Clock = schedule.SystemClock{}
			if date != "" {
				day, err := schedule.ParseDay(date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				clock = schedule.FixedClock{Day: day}
			}

			sch := schedule.Schedule{
				StartDate:   startDay,
				DosesPerDay: doses,
				Timezone:    tz,
				Dosage:      dosage,
				Times:       times,
			}
			if cmd.Flags().Changed("on") || cmd.Flags().Changed("off") {
				sch.Cycle = &schedule.Cycle{On: on, Off: off}
				if !sch.Cycle.Valid() {
					return fmt.Errorf("invalid cycle %d/%d: %w", on, off, app.ErrInvalidCycle)
				}
			}
			if cmd.Flags().Changed("servings") {
				if !(servings >= 0 && servings <= schedule.MaxServings) {
					return fmt.Errorf("invalid --servings: must be between 0 and %d", schedule.MaxServings)
				}
				sch.TotalServings = &servings
			}

			now := clock.Now(tz)
			card := app.Summarize(0, "Schedule", sch, now)
			out := cmd.OutOrStdout()
			fmt.Fprint(out, app.FormatSummary(schedule.DayIn(now, tz), []app.SupplementSummary{card}))
			if card.Boundary == nil {
				fmt.Fprintln(out, "  no phase change tomorrow")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first day of the schedule (YYYY-MM-DD)")
	cmd.Flags().IntVar(&on, "on", 0, "days on per cycle")
	cmd.Flags().IntVar(&off, "off", 0, "days off per cycle")
	cmd.Flags().StringVar(&date, "date", "", "evaluate as if today were this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA timezone the days are counted in")
	cmd.Flags().Float64Var(&servings, "servings", 0, "servings in the container")
	cmd.Flags().IntVar(&doses, "doses", 0, "explicit doses per day")
	cmd.Flags().StringVar(&dosage, "dosage", "", "free-text dosage, e.g. \"2 capsules daily\"")
	cmd.Flags().StringSliceVar(&times, "times", nil, "time slots, e.g. 08:00,20:00")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}
