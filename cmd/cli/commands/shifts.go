package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/services"
)

// PostShiftCmd creates the postShift command
func PostShiftCmd(app *AppContext) *cobra.Command {
	var description, rrule string

	cmd := &cobra.Command{
		Use:   "postShift <date> <type> <rate> <postcode>",
		Short: "Post a shift, or a recurring series with --rrule (practices)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("rate must be a number: %w", err)
			}

			s, err := app.Session()
			if err != nil {
				return err
			}

			app.Logger.Debug("postShift command",
				zap.String("date", args[0]),
				zap.String("type", args[1]),
				zap.String("rrule", rrule))

			shifts, err := services.PostShift(app.Ctx, app.Database, app.Geocoder, app.Logger, s, app.Cfg.MaxRecurrences,
				services.PostShiftInput{
					ShiftDate:   args[0],
					ShiftType:   args[1],
					Rate:        rate,
					Location:    args[3],
					Description: description,
					RRule:       rrule,
				})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Posted %d shift(s)\n\n", len(shifts))
			for i, shift := range shifts {
				fmt.Printf("  %2d. %s  (%s)\n", i+1, formatShift(shift), shift.ID)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Shift description")
	cmd.Flags().StringVar(&rrule, "rrule", "", `Recurrence rule, e.g. "FREQ=WEEKLY;COUNT=4"`)
	return cmd
}

// BrowseShiftsCmd creates the browseShifts command
func BrowseShiftsCmd(app *AppContext) *cobra.Command {
	var search services.ShiftSearch

	cmd := &cobra.Command{
		Use:   "browseShifts <postcode>",
		Short: "Find upcoming shifts near a postcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Session()
			if err != nil {
				return err
			}

			search.Postcode = args[0]
			results, err := services.BrowseShifts(app.Ctx, app.Database, app.Geocoder, app.Logger, s, app.Cfg.Search.DefaultRadiusKm, search)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d shift(s) within %.0f km of %s\n\n", len(results.Candidates), results.RadiusKm, args[0])
			for _, c := range results.Candidates {
				fmt.Printf("  %s  %12s  %s\n", formatShift(c.Shift), formatDistance(c.DistanceKm), c.Shift.ID)
			}
			fmt.Printf("\nMap: centre %.4f, %.4f with %d marker(s), tiles %s\n\n",
				results.Map.Center.Lat, results.Map.Center.Lng, len(results.Map.Markers), results.Map.TileURL)
			return nil
		},
	}

	cmd.Flags().Float64Var(&search.RadiusKm, "radius", 0, "Search radius in km (defaults to the configured radius)")
	cmd.Flags().StringVar(&search.ShiftType, "type", "", "Only shifts of this type")
	cmd.Flags().Float64Var(&search.MinRate, "min-rate", 0, "Only shifts paying at least this rate")
	return cmd
}

// BrowseLocumsCmd creates the browseLocums command
func BrowseLocumsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "browseLocums",
		Short: "List locum dentists anonymously",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Session()
			if err != nil {
				return err
			}

			cards, err := services.BrowseLocums(app.Ctx, app.Database, app.Logger, s)
			if err != nil {
				return err
			}

			fmt.Printf("\n%d locum(s)\n\n", len(cards))
			for _, c := range cards {
				if !c.HasDetails {
					fmt.Printf("  %-10s  profile incomplete\n", c.Label)
					continue
				}
				fmt.Printf("  %-10s  %2d yrs UK  %-9s %-7s %s-%s\n",
					c.Label, c.UKExperience, c.LocumType, c.NHSPreference, formatRate(c.RateMin), formatRate(c.RateMax))
			}
			fmt.Println()
			return nil
		},
	}
}
