package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/core/booking"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

// ReviewStore defines the database operations needed for reviews
type ReviewStore interface {
	GetBookingView(ctx context.Context, id string) (*db.BookingView, error)
	GetBookingViewsByDentist(ctx context.Context, dentistID string) ([]db.BookingView, error)
	GetBookingViewsByPractice(ctx context.Context, practiceID string) ([]db.BookingView, error)
	GetReviewsByReviewer(ctx context.Context, reviewerID string) ([]db.Review, error)
	InsertReview(ctx context.Context, review *db.Review) error
}

// ReviewInput is a rating of the other side of a booking
type ReviewInput struct {
	BookingID string `json:"bookingId" validate:"required"`
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	Comments  string `json:"comments"`
}

// PendingReview is a finished booking the viewer has not reviewed yet
type PendingReview struct {
	BookingID     string   `json:"bookingId"`
	Shift         db.Shift `json:"shift"`
	RecipientID   string   `json:"recipientId"`
	RecipientName string   `json:"recipientName"`
}

// reviewable reports whether a booking is ready to be reviewed as of date
func reviewable(view *db.BookingView, date string) bool {
	return view.Booking.Status == db.BookingStatusAccepted && view.Shift.ShiftDate < date
}

// pendingReviews filters views down to the ones reviewerID still owes a review for
func pendingReviews(views []db.BookingView, written []db.Review, reviewerID, date string) []PendingReview {
	reviewed := make(map[string]bool, len(written))
	for _, r := range written {
		reviewed[r.ShiftID] = true
	}

	var pending []PendingReview
	for i := range views {
		view := &views[i]
		if !reviewable(view, date) || reviewed[view.Shift.ID] {
			continue
		}
		detail, err := detailFor(view, reviewerID)
		if err != nil {
			continue
		}
		pending = append(pending, PendingReview{
			BookingID:     view.Booking.ID,
			Shift:         view.Shift,
			RecipientID:   detail.CounterpartID,
			RecipientName: detail.CounterpartName,
		})
	}
	return pending
}

func participantViews(ctx context.Context, store ReviewStore, s *session.Session) ([]db.BookingView, error) {
	if s.Role == db.RolePractice {
		return store.GetBookingViewsByPractice(ctx, s.ProfileID)
	}
	return store.GetBookingViewsByDentist(ctx, s.ProfileID)
}

// PendingReviews lists the accepted bookings whose shift has passed and that the
// signed-in participant has not reviewed yet
func PendingReviews(ctx context.Context, store ReviewStore, logger *zap.Logger, s *session.Session) ([]PendingReview, error) {
	const op = "pending reviews"

	if err := requireSession(op, s); err != nil {
		return nil, err
	}

	views, err := participantViews(ctx, store, s)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}

	written, err := store.GetReviewsByReviewer(ctx, s.ProfileID)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}

	pending := pendingReviews(views, written, s.ProfileID, today())
	logger.Debug("Found pending reviews", zap.String("profile_id", s.ProfileID), zap.Int("count", len(pending)))
	return pending, nil
}

// SubmitReview records the signed-in participant's rating of the other side once the shift has passed
func SubmitReview(ctx context.Context, store ReviewStore, logger *zap.Logger, s *session.Session, in ReviewInput) (*db.Review, error) {
	const op = "submit review"

	if err := validateInput(op, in); err != nil {
		return nil, err
	}

	view, err := loadParticipantView(ctx, store, op, s, in.BookingID)
	if err != nil {
		return nil, err
	}
	if !reviewable(view, today()) {
		return nil, apperr.Rejected(op, "reviews open once an accepted booking's shift has taken place")
	}

	side, err := booking.ParticipantsOf(&view.Booking, &view.Shift).SideOf(s.ProfileID)
	if err != nil {
		return nil, err
	}

	review := &db.Review{
		ID:           uuid.New().String(),
		ReviewerID:   s.ProfileID,
		RecipientID:  booking.ParticipantsOf(&view.Booking, &view.Shift).Counterpart(side),
		ShiftID:      view.Shift.ID,
		ReviewerRole: db.Role(side),
		Rating:       in.Rating,
		Comments:     strings.TrimSpace(in.Comments),
	}
	if err := store.InsertReview(ctx, review); err != nil {
		return nil, fromStore(op, err, "you have already reviewed this shift")
	}

	logger.Info("Review submitted",
		zap.String("booking_id", in.BookingID),
		zap.String("reviewer_id", review.ReviewerID),
		zap.Int("rating", review.Rating))

	return review, nil
}
