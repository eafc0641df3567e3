package booking

import (
	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/db"
)

// Accept moves a pending booking to accepted on behalf of actorID.
// Only the practice that owns the shift may accept. Accepting twice is a no-op.
func Accept(b *db.Booking, shift *db.Shift, actorID string) (changed bool, err error) {
	side, err := ParticipantsOf(b, shift).SideOf(actorID)
	if err != nil {
		return false, err
	}
	if side != SidePractice {
		return false, apperr.Authorization("accept booking", "only the practice can accept a booking")
	}

	if b.Status == db.BookingStatusAccepted {
		return false, nil
	}

	b.Status = db.BookingStatusAccepted
	return true, nil
}

// Confirm sets the actor's confirmation flag. When the other flag is already set it also
// snapshots the shift's date and rate, so the flag and the snapshot land in one write.
// Confirming an already confirmed side is a no-op.
func Confirm(b *db.Booking, shift *db.Shift, actorID string) (changed bool, err error) {
	side, err := ParticipantsOf(b, shift).SideOf(actorID)
	if err != nil {
		return false, err
	}

	if b.Status != db.BookingStatusAccepted {
		return false, apperr.Conflict("confirm booking", "booking must be accepted by the practice before it can be confirmed")
	}

	if HasConfirmed(b, side) {
		return false, nil
	}

	switch side {
	case SideDentist:
		b.DentistConfirmed = true
	case SidePractice:
		b.PracticeConfirmed = true
	}

	if BothConfirmed(b) {
		date := shift.ShiftDate
		rate := shift.Rate
		b.ConfirmedDate = &date
		b.ConfirmedRate = &rate
	}

	return true, nil
}
