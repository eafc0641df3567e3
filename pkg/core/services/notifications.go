package services

import (
	"fmt"

	"github.com/jakechorley/locum-dental/pkg/db"
)

type email struct {
	to, subject, body string
}

func practiceEmail(view *db.BookingView) string {
	if view.PracticeDetails != nil && view.PracticeDetails.ContactEmail != "" {
		return view.PracticeDetails.ContactEmail
	}
	return view.Practice.Email
}

func enquiryEmail(view *db.BookingView) (to, subject, body string) {
	return practiceEmail(view),
		fmt.Sprintf("New enquiry for your %s shift", view.Shift.ShiftDate),
		fmt.Sprintf("A locum dentist has enquired about your %s shift on %s at £%.2f.\n\n"+
			"Open your dashboard to accept the enquiry and chat about the details.",
			view.Shift.ShiftType, view.Shift.ShiftDate, view.Shift.Rate)
}

func acceptedEmail(view *db.BookingView) (to, subject, body string) {
	return view.Dentist.Email,
		fmt.Sprintf("%s accepted your enquiry", practiceName(view)),
		fmt.Sprintf("Your enquiry for the shift on %s has been accepted.\n\n"+
			"Confirm the booking from your dashboard once you have agreed the details in chat.",
			view.Shift.ShiftDate)
}

func confirmedEmails(view *db.BookingView) []email {
	b := view.Booking
	terms := fmt.Sprintf("Both sides have confirmed the shift on %s at £%.2f.", *b.ConfirmedDate, *b.ConfirmedRate)
	return []email{
		{
			to:      view.Dentist.Email,
			subject: "Booking confirmed",
			body:    terms + "\n\nThe practice's contact details are now on your dashboard.",
		},
		{
			to:      practiceEmail(view),
			subject: "Booking confirmed",
			body:    terms + "\n\nThe dentist's contact details are now on your dashboard.",
		},
	}
}
