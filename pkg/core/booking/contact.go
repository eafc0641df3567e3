package booking

import "github.com/jakechorley/locum-dental/pkg/db"

// Contact holds the counterpart's direct contact fields. Empty means not provided.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Provided reports whether any contact channel is present
func (c Contact) Provided() bool {
	return c.Email != "" || c.Phone != ""
}

// ContactVisible reports whether contact details may be shown to viewerID.
// It is derived from the two flags on every call and never cached.
func ContactVisible(b *db.Booking, shift *db.Shift, viewerID string) bool {
	if !BothConfirmed(b) {
		return false
	}
	return ParticipantsOf(b, shift).IsParticipant(viewerID)
}

// ContactFor returns the counterpart's contact details for viewerID, and false when
// they may not be disclosed.
func ContactFor(view *db.BookingView, viewerID string) (Contact, bool) {
	if !ContactVisible(&view.Booking, &view.Shift, viewerID) {
		return Contact{}, false
	}

	side, _ := ParticipantsOf(&view.Booking, &view.Shift).SideOf(viewerID)
	if side == SidePractice {
		return Contact{
			Name:  view.Dentist.FullName,
			Email: view.Dentist.Email,
			Phone: view.Dentist.Phone,
		}, true
	}

	// Dentists see the practice's contact details, falling back to its profile
	contact := Contact{
		Name:  view.Practice.FullName,
		Email: view.Practice.Email,
		Phone: view.Practice.Phone,
	}
	if d := view.PracticeDetails; d != nil {
		if d.PracticeName != "" {
			contact.Name = d.PracticeName
		}
		if d.ContactEmail != "" {
			contact.Email = d.ContactEmail
		}
		if d.ContactPhone != "" {
			contact.Phone = d.ContactPhone
		}
	}
	return contact, true
}
