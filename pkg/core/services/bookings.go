package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/core/booking"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

// EnquireStore defines the database operations needed to enquire about a shift
type EnquireStore interface {
	GetShift(ctx context.Context, id string) (*db.Shift, error)
	InsertBooking(ctx context.Context, booking *db.Booking) error
	GetBookingView(ctx context.Context, id string) (*db.BookingView, error)
}

// BookingUpdateStore defines the database operations needed to accept or confirm a booking
type BookingUpdateStore interface {
	UpdateBooking(ctx context.Context, id string, fn db.BookingMutation) (*db.Booking, error)
	GetBookingView(ctx context.Context, id string) (*db.BookingView, error)
}

// BookingViewStore defines the database operations needed to view a booking
type BookingViewStore interface {
	GetBookingView(ctx context.Context, id string) (*db.BookingView, error)
}

// BookingDetail is a booking as one participant sees it
type BookingDetail struct {
	Booking db.Booking    `json:"booking"`
	Shift   db.Shift      `json:"shift"`
	State   booking.State `json:"state"`
	// ConfirmedBy is set while exactly one side has confirmed
	ConfirmedBy     booking.Side `json:"confirmedBy"`
	ViewerSide      booking.Side `json:"viewerSide"`
	CounterpartID   string       `json:"counterpartId"`
	CounterpartName string       `json:"counterpartName"`
	// Contact is nil until both sides have confirmed
	Contact *booking.Contact `json:"contact"`
}

// detailFor derives the viewer's picture of a booking. The viewer must be a participant.
func detailFor(view *db.BookingView, viewerID string) (BookingDetail, error) {
	participants := booking.ParticipantsOf(&view.Booking, &view.Shift)
	side, err := participants.SideOf(viewerID)
	if err != nil {
		return BookingDetail{}, err
	}

	detail := BookingDetail{
		Booking:       view.Booking,
		Shift:         view.Shift,
		State:         booking.StateOf(&view.Booking),
		ConfirmedBy:   booking.ConfirmedBy(&view.Booking),
		ViewerSide:    side,
		CounterpartID: participants.Counterpart(side),
	}

	if side == booking.SidePractice {
		detail.CounterpartName = view.Dentist.FullName
	} else {
		detail.CounterpartName = practiceName(view)
	}

	if contact, ok := booking.ContactFor(view, viewerID); ok {
		detail.Contact = &contact
	}

	return detail, nil
}

func practiceName(view *db.BookingView) string {
	if view.PracticeDetails != nil && view.PracticeDetails.PracticeName != "" {
		return view.PracticeDetails.PracticeName
	}
	return view.Practice.FullName
}

// loadParticipantView fetches a booking and checks the session is one of its participants
func loadParticipantView(ctx context.Context, store BookingViewStore, op string, s *session.Session, bookingID string) (*db.BookingView, error) {
	if err := requireSession(op, s); err != nil {
		return nil, err
	}

	view, err := store.GetBookingView(ctx, bookingID)
	if err != nil {
		return nil, fromStore(op, err, "booking %s not found", bookingID)
	}

	if !booking.ParticipantsOf(&view.Booking, &view.Shift).IsParticipant(s.ProfileID) {
		return nil, apperr.Authorization(op, "you are not a participant of this booking")
	}
	return view, nil
}

// Enquire creates a pending booking for the signed-in dentist on a future shift
func Enquire(ctx context.Context, store EnquireStore, notifier Notifier, logger *zap.Logger, s *session.Session, shiftID string) (*BookingDetail, error) {
	const op = "enquire"

	if err := requireRole(op, s, db.RoleDentist); err != nil {
		return nil, err
	}

	shift, err := store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, fromStore(op, err, "shift %s not found", shiftID)
	}
	if shift.ShiftDate <= today() {
		return nil, apperr.Rejected(op, "shift on %s has already taken place", shift.ShiftDate)
	}

	b := &db.Booking{
		ID:        uuid.New().String(),
		ShiftID:   shift.ID,
		DentistID: s.ProfileID,
		Status:    db.BookingStatusPending,
	}
	if err := store.InsertBooking(ctx, b); err != nil {
		return nil, fromStore(op, err, "you have already enquired about this shift")
	}

	logger.Info("Enquiry created",
		zap.String("booking_id", b.ID),
		zap.String("shift_id", shift.ID),
		zap.String("dentist_id", s.ProfileID))

	view, err := store.GetBookingView(ctx, b.ID)
	if err != nil {
		return nil, fromStore(op, err, "booking %s not found", b.ID)
	}

	to, subject, body := enquiryEmail(view)
	notify(ctx, notifier, logger, to, subject, body)

	detail, err := detailFor(view, s.ProfileID)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// AcceptBooking moves a pending booking to accepted on behalf of the shift's practice
func AcceptBooking(ctx context.Context, store BookingUpdateStore, notifier Notifier, logger *zap.Logger, s *session.Session, bookingID string) (*BookingDetail, error) {
	const op = "accept booking"

	if err := requireSession(op, s); err != nil {
		return nil, err
	}

	var changed bool
	_, err := store.UpdateBooking(ctx, bookingID, func(b *db.Booking, shift *db.Shift) (bool, error) {
		var err error
		changed, err = booking.Accept(b, shift, s.ProfileID)
		return changed, err
	})
	if err != nil {
		return nil, fromStore(op, err, "booking %s not found", bookingID)
	}

	view, err := store.GetBookingView(ctx, bookingID)
	if err != nil {
		return nil, fromStore(op, err, "booking %s not found", bookingID)
	}

	if changed {
		logger.Info("Booking accepted", zap.String("booking_id", bookingID), zap.String("practice_id", s.ProfileID))
		to, subject, body := acceptedEmail(view)
		notify(ctx, notifier, logger, to, subject, body)
	} else {
		logger.Debug("Booking already accepted", zap.String("booking_id", bookingID))
	}

	detail, err := detailFor(view, s.ProfileID)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// ConfirmBooking records the signed-in participant's confirmation. The second confirmation
// snapshots the shift's date and rate in the same write.
func ConfirmBooking(ctx context.Context, store BookingUpdateStore, notifier Notifier, logger *zap.Logger, s *session.Session, bookingID string) (*BookingDetail, error) {
	const op = "confirm booking"

	if err := requireSession(op, s); err != nil {
		return nil, err
	}

	var changed bool
	updated, err := store.UpdateBooking(ctx, bookingID, func(b *db.Booking, shift *db.Shift) (bool, error) {
		var err error
		changed, err = booking.Confirm(b, shift, s.ProfileID)
		return changed, err
	})
	if err != nil {
		return nil, fromStore(op, err, "booking %s not found", bookingID)
	}

	view, err := store.GetBookingView(ctx, bookingID)
	if err != nil {
		return nil, fromStore(op, err, "booking %s not found", bookingID)
	}

	switch {
	case !changed:
		logger.Debug("Booking already confirmed by this side", zap.String("booking_id", bookingID))
	case booking.BothConfirmed(updated):
		logger.Info("Booking mutually confirmed",
			zap.String("booking_id", bookingID),
			zap.String("confirmed_date", *updated.ConfirmedDate),
			zap.Float64("confirmed_rate", *updated.ConfirmedRate))
		for _, email := range confirmedEmails(view) {
			notify(ctx, notifier, logger, email.to, email.subject, email.body)
		}
	default:
		logger.Info("Booking confirmed by one side",
			zap.String("booking_id", bookingID),
			zap.String("confirmed_by", string(booking.ConfirmedBy(updated))))
	}

	detail, err := detailFor(view, s.ProfileID)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// ViewBooking returns a booking with its derived state and, once mutually confirmed,
// the counterpart's contact details
func ViewBooking(ctx context.Context, store BookingViewStore, logger *zap.Logger, s *session.Session, bookingID string) (*BookingDetail, error) {
	const op = "view booking"

	view, err := loadParticipantView(ctx, store, op, s, bookingID)
	if err != nil {
		return nil, err
	}

	logger.Debug("Viewing booking", zap.String("booking_id", bookingID), zap.String("viewer_id", s.ProfileID))

	detail, err := detailFor(view, s.ProfileID)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}
