package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jakechorley/locum-dental/pkg/core/services"
)

func printPendingReviews(pending []services.PendingReview) {
	if len(pending) == 0 {
		fmt.Printf("No reviews waiting\n\n")
		return
	}
	for _, p := range pending {
		fmt.Printf("  %s  %s  booking %s\n", p.Shift.ShiftDate, p.RecipientName, p.BookingID)
	}
	fmt.Println()
}

// PendingReviewsCmd creates the pendingReviews command
func PendingReviewsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pendingReviews",
		Short: "List finished bookings you have not reviewed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Session()
			if err != nil {
				return err
			}

			pending, err := services.PendingReviews(app.Ctx, app.Database, app.Logger, s)
			if err != nil {
				return err
			}

			fmt.Printf("\nReviews to write:\n\n")
			printPendingReviews(pending)
			return nil
		},
	}
}

// SubmitReviewCmd creates the submitReview command
func SubmitReviewCmd(app *AppContext) *cobra.Command {
	var comments string

	cmd := &cobra.Command{
		Use:   "submitReview <booking_id> <rating>",
		Short: "Rate the other side of a finished booking from 1 to 5",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rating must be a number: %w", err)
			}

			s, err := app.Session()
			if err != nil {
				return err
			}

			review, err := services.SubmitReview(app.Ctx, app.Database, app.Logger, s, services.ReviewInput{
				BookingID: args[0],
				Rating:    rating,
				Comments:  comments,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Review submitted %s\n\n", formatStars(review.Rating))
			return nil
		},
	}

	cmd.Flags().StringVar(&comments, "comments", "", "Optional comments")
	return cmd
}
