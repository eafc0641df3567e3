package booking

import (
	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/db"
)

// State is the derived confirmation state of a booking
type State string

const (
	StatePending            State = "pending"
	StateAccepted           State = "accepted"
	StatePartiallyConfirmed State = "partially_confirmed"
	StateFullyConfirmed     State = "fully_confirmed"
)

// Side identifies one of the two participants of a booking
type Side string

const (
	SideDentist  Side = "dentist"
	SidePractice Side = "practice"
)

// Participants are the two resolved sides of a booking.
// DentistID comes from the booking, PracticeID from the shift that owns it.
type Participants struct {
	DentistID  string
	PracticeID string
}

// ParticipantsOf resolves both sides from the booking and its shift
func ParticipantsOf(b *db.Booking, shift *db.Shift) Participants {
	return Participants{
		DentistID:  b.DentistID,
		PracticeID: shift.PracticeID,
	}
}

// SideOf verifies profileID against both sides explicitly.
// A profile that matches neither side gets an authorization error.
func (p Participants) SideOf(profileID string) (Side, error) {
	switch {
	case profileID == "":
		return "", apperr.Authorization("resolve participant", "no acting profile")
	case profileID == p.DentistID:
		return SideDentist, nil
	case profileID == p.PracticeID:
		return SidePractice, nil
	default:
		return "", apperr.Authorization("resolve participant", "profile %s is not a participant of this booking", profileID)
	}
}

// IsParticipant reports whether profileID is either side of the booking
func (p Participants) IsParticipant(profileID string) bool {
	_, err := p.SideOf(profileID)
	return err == nil
}

// Counterpart returns the profile ID on the other side of side
func (p Participants) Counterpart(side Side) string {
	if side == SideDentist {
		return p.PracticeID
	}
	return p.DentistID
}

// StateOf derives the confirmation state purely from the stored status and flags
func StateOf(b *db.Booking) State {
	switch {
	case b.DentistConfirmed && b.PracticeConfirmed:
		return StateFullyConfirmed
	case b.DentistConfirmed || b.PracticeConfirmed:
		return StatePartiallyConfirmed
	case b.Status == db.BookingStatusAccepted:
		return StateAccepted
	default:
		return StatePending
	}
}

// ConfirmedBy returns the side holding the only confirmation flag, or "" when the
// booking is not partially confirmed
func ConfirmedBy(b *db.Booking) Side {
	if StateOf(b) != StatePartiallyConfirmed {
		return ""
	}
	if b.DentistConfirmed {
		return SideDentist
	}
	return SidePractice
}

// BothConfirmed reports mutual confirmation
func BothConfirmed(b *db.Booking) bool {
	return b.DentistConfirmed && b.PracticeConfirmed
}

// HasConfirmed reports whether side has already set its flag
func HasConfirmed(b *db.Booking, side Side) bool {
	if side == SideDentist {
		return b.DentistConfirmed
	}
	return b.PracticeConfirmed
}
