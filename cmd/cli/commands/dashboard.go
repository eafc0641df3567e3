package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/locum-dental/pkg/core/services"
	"github.com/jakechorley/locum-dental/pkg/db"
)

func printBookingLines(details []services.BookingDetail) {
	if len(details) == 0 {
		fmt.Printf("  none\n")
		return
	}
	for i := range details {
		d := &details[i]
		fmt.Printf("  %s  %-24s %-38s %s\n", d.Shift.ShiftDate, d.CounterpartName, stateLabel(d), d.Booking.ID)
	}
}

// DashboardCmd creates the dashboard command
func DashboardCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show your bookings, shifts and reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Session()
			if err != nil {
				return err
			}

			dash, err := services.GetDashboard(app.Ctx, app.Database, app.Logger, s)
			if err != nil {
				return err
			}

			fmt.Printf("\nDashboard for %s (%s)\n\n", dash.Profile.FullName, dash.Profile.Role)

			if dash.Profile.Role == db.RolePractice {
				fmt.Printf("Posted shifts:\n")
				if len(dash.PostedShifts) == 0 {
					fmt.Printf("  none\n")
				}
				for _, shift := range dash.PostedShifts {
					fmt.Printf("  %s  %s\n", formatShift(shift), shift.ID)
				}
				fmt.Printf("\nEnquiries:\n")
				printBookingLines(dash.Enquiries)
			} else {
				fmt.Printf("Bookings:\n")
				printBookingLines(dash.Bookings)
			}

			fmt.Printf("\nReviews to write:\n")
			printPendingReviews(dash.PendingReviews)
			return nil
		},
	}
}
