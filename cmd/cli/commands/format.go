package commands

import (
	"fmt"
	"strings"

	"github.com/jakechorley/locum-dental/pkg/core/booking"
	"github.com/jakechorley/locum-dental/pkg/core/services"
	"github.com/jakechorley/locum-dental/pkg/db"
)

// stateLabel describes where a booking stands from the viewer's side
func stateLabel(d *services.BookingDetail) string {
	switch d.State {
	case booking.StatePending:
		return "Pending practice acceptance"
	case booking.StateAccepted:
		return "Accepted, awaiting confirmation"
	case booking.StatePartiallyConfirmed:
		if d.ConfirmedBy == d.ViewerSide {
			return "You confirmed, waiting for the " + string(otherSide(d.ViewerSide))
		}
		return "The " + string(d.ConfirmedBy) + " confirmed, waiting for you"
	case booking.StateFullyConfirmed:
		return "Confirmed"
	default:
		return string(d.State)
	}
}

func otherSide(side booking.Side) booking.Side {
	if side == booking.SideDentist {
		return booking.SidePractice
	}
	return booking.SideDentist
}

func formatRate(rate float64) string {
	return fmt.Sprintf("£%.2f", rate)
}

func formatDistance(km *float64) string {
	if km == nil {
		return "distance unknown"
	}
	return fmt.Sprintf("%.1f km", *km)
}

func formatShift(s db.Shift) string {
	line := fmt.Sprintf("%s  %-8s %10s  %s", s.ShiftDate, s.ShiftType, formatRate(s.Rate), s.Location)
	if s.Description != "" {
		line += "  " + s.Description
	}
	return line
}

func formatStars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

func printBookingDetail(d *services.BookingDetail) {
	fmt.Printf("Booking:    %s\n", d.Booking.ID)
	fmt.Printf("Shift:      %s\n", formatShift(d.Shift))
	fmt.Printf("With:       %s\n", d.CounterpartName)
	fmt.Printf("Status:     %s\n", stateLabel(d))

	if d.Booking.ConfirmedDate != nil && d.Booking.ConfirmedRate != nil {
		fmt.Printf("Agreed:     %s at %s\n", *d.Booking.ConfirmedDate, formatRate(*d.Booking.ConfirmedRate))
	}

	if d.Contact != nil {
		fmt.Printf("\nContact details:\n")
		fmt.Printf("  Name:  %s\n", d.Contact.Name)
		fmt.Printf("  Email: %s\n", d.Contact.Email)
		if d.Contact.Phone != "" {
			fmt.Printf("  Phone: %s\n", d.Contact.Phone)
		}
	}
	fmt.Println()
}
