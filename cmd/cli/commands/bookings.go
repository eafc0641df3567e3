package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/services"
	"github.com/jakechorley/locum-dental/pkg/session"
)

type bookingAction func(ctx context.Context, s *session.Session, id string) (*services.BookingDetail, error)

// bookingCmd builds a command that runs one booking workflow step and prints the result
func bookingCmd(app *AppContext, use, short, done string, action bookingAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Session()
			if err != nil {
				return err
			}

			app.Logger.Debug(cmd.Name()+" command", zap.String("id", args[0]))

			detail, err := action(app.Ctx, s, args[0])
			if err != nil {
				return err
			}

			if done != "" {
				fmt.Printf("\n✓ %s\n\n", done)
			} else {
				fmt.Println()
			}
			printBookingDetail(detail)
			return nil
		},
	}
}

// EnquireCmd creates the enquire command
func EnquireCmd(app *AppContext) *cobra.Command {
	return bookingCmd(app, "enquire <shift_id>", "Enquire about a shift (dentists)", "Enquiry sent",
		func(ctx context.Context, s *session.Session, id string) (*services.BookingDetail, error) {
			return services.Enquire(ctx, app.Database, app.Notifier, app.Logger, s, id)
		})
}

// AcceptCmd creates the accept command
func AcceptCmd(app *AppContext) *cobra.Command {
	return bookingCmd(app, "accept <booking_id>", "Accept an enquiry (practices)", "Booking accepted",
		func(ctx context.Context, s *session.Session, id string) (*services.BookingDetail, error) {
			return services.AcceptBooking(ctx, app.Database, app.Notifier, app.Logger, s, id)
		})
}

// ConfirmCmd creates the confirm command
func ConfirmCmd(app *AppContext) *cobra.Command {
	return bookingCmd(app, "confirm <booking_id>", "Confirm an accepted booking for your side", "Confirmation recorded",
		func(ctx context.Context, s *session.Session, id string) (*services.BookingDetail, error) {
			return services.ConfirmBooking(ctx, app.Database, app.Notifier, app.Logger, s, id)
		})
}

// ViewBookingCmd creates the viewBooking command
func ViewBookingCmd(app *AppContext) *cobra.Command {
	return bookingCmd(app, "viewBooking <booking_id>", "Show a booking you take part in", "",
		func(ctx context.Context, s *session.Session, id string) (*services.BookingDetail, error) {
			return services.ViewBooking(ctx, app.Database, app.Logger, s, id)
		})
}
