package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

// DashboardStore defines the database operations needed for the dashboard
type DashboardStore interface {
	ReviewStore
	GetProfile(ctx context.Context, id string) (*db.Profile, error)
	GetShiftsByPractice(ctx context.Context, practiceID string) ([]db.Shift, error)
}

// Dashboard is the signed-in user's overview. Dentists get Bookings; practices get
// PostedShifts and Enquiries.
type Dashboard struct {
	Profile        db.Profile      `json:"profile"`
	Bookings       []BookingDetail `json:"bookings"`
	PostedShifts   []db.Shift      `json:"postedShifts"`
	Enquiries      []BookingDetail `json:"enquiries"`
	PendingReviews []PendingReview `json:"pendingReviews"`
}

// GetDashboard assembles the dashboard for the signed-in profile
func GetDashboard(ctx context.Context, store DashboardStore, logger *zap.Logger, s *session.Session) (*Dashboard, error) {
	const op = "dashboard"

	if err := requireSession(op, s); err != nil {
		return nil, err
	}

	profile, err := store.GetProfile(ctx, s.ProfileID)
	if err != nil {
		return nil, fromStore(op, err, "profile %s not found", s.ProfileID)
	}
	dash := &Dashboard{Profile: *profile}

	views, err := participantViews(ctx, store, s)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}

	details := make([]BookingDetail, 0, len(views))
	for i := range views {
		detail, err := detailFor(&views[i], s.ProfileID)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}

	if profile.Role == db.RolePractice {
		dash.Enquiries = details
		dash.PostedShifts, err = store.GetShiftsByPractice(ctx, profile.ID)
		if err != nil {
			return nil, apperr.Upstream(op, err)
		}
	} else {
		dash.Bookings = details
	}

	written, err := store.GetReviewsByReviewer(ctx, s.ProfileID)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}
	dash.PendingReviews = pendingReviews(views, written, s.ProfileID, today())

	logger.Debug("Dashboard loaded",
		zap.String("profile_id", profile.ID),
		zap.Int("bookings", len(details)),
		zap.Int("posted_shifts", len(dash.PostedShifts)),
		zap.Int("pending_reviews", len(dash.PendingReviews)))

	return dash, nil
}
