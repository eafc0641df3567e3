package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

// ProfileStore defines the database operations needed to view and edit a profile
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*db.Profile, error)
	UpdateProfile(ctx context.Context, profile *db.Profile, dentist *db.DentistDetails, practice *db.PracticeDetails) error
	GetDentistDetails(ctx context.Context, profileID string) (*db.DentistDetails, error)
	GetPracticeDetails(ctx context.Context, profileID string) (*db.PracticeDetails, error)
}

// ProfileView is a profile with whichever role details it has
type ProfileView struct {
	Profile  db.Profile          `json:"profile"`
	Dentist  *db.DentistDetails  `json:"dentist"`
	Practice *db.PracticeDetails `json:"practice"`
}

// ProfileUpdate carries the editable profile fields. Role details are replaced when present.
type ProfileUpdate struct {
	FullName string         `json:"fullName" validate:"required"`
	Email    string         `json:"email" validate:"required,email"`
	Phone    string         `json:"phone"`
	Postcode string         `json:"postcode" validate:"required"`
	Dentist  *DentistInput  `json:"dentist"`
	Practice *PracticeInput `json:"practice"`
}

// ownProfile loads the session's profile and checks it belongs to the session's user
func ownProfile(ctx context.Context, store ProfileStore, op string, s *session.Session) (*db.Profile, error) {
	if err := requireSession(op, s); err != nil {
		return nil, err
	}

	profile, err := store.GetProfile(ctx, s.ProfileID)
	if err != nil {
		return nil, fromStore(op, err, "profile %s not found", s.ProfileID)
	}
	if profile.UserID != s.UserID {
		return nil, apperr.Authorization(op, "you can only manage your own profile")
	}
	return profile, nil
}

func loadProfileView(ctx context.Context, store ProfileStore, op string, profile *db.Profile) (*ProfileView, error) {
	view := &ProfileView{Profile: *profile}

	var err error
	switch profile.Role {
	case db.RoleDentist:
		view.Dentist, err = store.GetDentistDetails(ctx, profile.ID)
	case db.RolePractice:
		view.Practice, err = store.GetPracticeDetails(ctx, profile.ID)
	}
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, apperr.Upstream(op, err)
	}
	return view, nil
}

// GetMyProfile returns the signed-in user's profile and role details
func GetMyProfile(ctx context.Context, store ProfileStore, logger *zap.Logger, s *session.Session) (*ProfileView, error) {
	const op = "get profile"

	profile, err := ownProfile(ctx, store, op, s)
	if err != nil {
		return nil, err
	}

	logger.Debug("Loaded profile", zap.String("profile_id", profile.ID))
	return loadProfileView(ctx, store, op, profile)
}

// UpdateProfile edits the signed-in user's own profile
func UpdateProfile(ctx context.Context, store ProfileStore, logger *zap.Logger, s *session.Session, update ProfileUpdate) (*ProfileView, error) {
	const op = "update profile"

	if err := validateInput(op, update); err != nil {
		return nil, err
	}

	profile, err := ownProfile(ctx, store, op, s)
	if err != nil {
		return nil, err
	}

	if update.Dentist != nil && profile.Role != db.RoleDentist {
		return nil, apperr.Rejected(op, "a %s profile cannot carry dentist details", profile.Role)
	}
	if update.Practice != nil && profile.Role != db.RolePractice {
		return nil, apperr.Rejected(op, "a %s profile cannot carry practice details", profile.Role)
	}

	profile.FullName = strings.TrimSpace(update.FullName)
	profile.Email = strings.TrimSpace(update.Email)
	profile.Phone = strings.TrimSpace(update.Phone)
	profile.Postcode = strings.ToUpper(strings.TrimSpace(update.Postcode))

	var (
		dentist  *db.DentistDetails
		practice *db.PracticeDetails
	)
	if update.Dentist != nil {
		dentist = update.Dentist.details(profile.ID)
	}
	if update.Practice != nil {
		practice = update.Practice.details(profile.ID)
	}

	if err := store.UpdateProfile(ctx, profile, dentist, practice); err != nil {
		return nil, fromStore(op, err, "profile %s not found", profile.ID)
	}

	logger.Info("Profile updated", zap.String("profile_id", profile.ID))
	return loadProfileView(ctx, store, op, profile)
}
