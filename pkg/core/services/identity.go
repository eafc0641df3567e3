package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

// SessionIssuer starts sessions. session.Manager implements it.
type SessionIssuer interface {
	Issue(user *db.User, profile *db.Profile) (*session.Session, error)
}

// SessionRevoker ends sessions. session.Manager implements it.
type SessionRevoker interface {
	Revoke(ctx context.Context, s *session.Session) error
}

// RegisterStore defines the database operations needed to register
type RegisterStore interface {
	CreateAccount(ctx context.Context, account *db.Account) error
}

// LoginStore defines the database operations needed to log in
type LoginStore interface {
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	GetProfileByUserID(ctx context.Context, userID string) (*db.Profile, error)
}

// DentistInput carries the professional details collected from a dentist
type DentistInput struct {
	GDCNumber        string   `json:"gdcNumber" validate:"required"`
	PerformerNumber  string   `json:"performerNumber"`
	YearQualified    int      `json:"yearQualified" validate:"gte=1950,lte=2100"`
	UKExperience     int      `json:"ukExperience" validate:"gte=0"`
	AdditionalSkills []string `json:"additionalSkills"`
	LocumType        string   `json:"locumType" validate:"required,oneof=temporary ongoing"`
	NHSPreference    string   `json:"nhsPreference" validate:"required,oneof=nhs private either"`
	RateMin          float64  `json:"rateMin" validate:"gte=0"`
	RateMax          float64  `json:"rateMax" validate:"gtefield=RateMin"`
}

func (in *DentistInput) details(profileID string) *db.DentistDetails {
	return &db.DentistDetails{
		ProfileID:        profileID,
		GDCNumber:        strings.TrimSpace(in.GDCNumber),
		PerformerNumber:  strings.TrimSpace(in.PerformerNumber),
		YearQualified:    in.YearQualified,
		UKExperience:     in.UKExperience,
		AdditionalSkills: in.AdditionalSkills,
		LocumType:        in.LocumType,
		NHSPreference:    in.NHSPreference,
		RateMin:          in.RateMin,
		RateMax:          in.RateMax,
	}
}

// PracticeInput carries the details collected from a practice
type PracticeInput struct {
	PracticeName  string `json:"practiceName" validate:"required"`
	PrincipalName string `json:"principalName"`
	ContactEmail  string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone  string `json:"contactPhone"`
}

func (in *PracticeInput) details(profileID string) *db.PracticeDetails {
	return &db.PracticeDetails{
		ProfileID:     profileID,
		PracticeName:  strings.TrimSpace(in.PracticeName),
		PrincipalName: strings.TrimSpace(in.PrincipalName),
		ContactEmail:  strings.TrimSpace(in.ContactEmail),
		ContactPhone:  strings.TrimSpace(in.ContactPhone),
	}
}

// RegisterInput is everything collected by the sign-up form
type RegisterInput struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8"`
	Role     db.Role        `json:"role" validate:"required,oneof=dentist practice"`
	FullName string         `json:"fullName" validate:"required"`
	Phone    string         `json:"phone"`
	Postcode string         `json:"postcode" validate:"required"`
	Dentist  *DentistInput  `json:"dentist"`
	Practice *PracticeInput `json:"practice"`
}

// RegisterResult is the new profile and the session it is signed in with
type RegisterResult struct {
	Profile *db.Profile      `json:"profile"`
	Session *session.Session `json:"session"`
}

// checkRoleDetails requires the details block matching the role and nothing else
func checkRoleDetails(op string, role db.Role, dentist *DentistInput, practice *PracticeInput) error {
	switch role {
	case db.RoleDentist:
		if dentist == nil {
			return apperr.Rejected(op, "dentist details are required")
		}
		if practice != nil {
			return apperr.Rejected(op, "a dentist profile cannot carry practice details")
		}
	case db.RolePractice:
		if practice == nil {
			return apperr.Rejected(op, "practice details are required")
		}
		if dentist != nil {
			return apperr.Rejected(op, "a practice profile cannot carry dentist details")
		}
	}
	return nil
}

// Register creates a login, its profile and the role details, then signs the user in
func Register(ctx context.Context, store RegisterStore, issuer SessionIssuer, logger *zap.Logger, in RegisterInput) (*RegisterResult, error) {
	const op = "register"

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(op, in); err != nil {
		return nil, err
	}
	if err := checkRoleDetails(op, in.Role, in.Dentist, in.Practice); err != nil {
		return nil, err
	}

	logger.Debug("Registering user", zap.String("email", in.Email), zap.String("role", string(in.Role)))

	hash, err := session.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}

	user := &db.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		PasswordHash: hash,
	}
	profile := &db.Profile{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		Role:     in.Role,
		FullName: strings.TrimSpace(in.FullName),
		Email:    in.Email,
		Phone:    strings.TrimSpace(in.Phone),
		Postcode: strings.ToUpper(strings.TrimSpace(in.Postcode)),
	}
	account := &db.Account{User: user, Profile: profile}
	if in.Dentist != nil {
		account.Dentist = in.Dentist.details(profile.ID)
	} else {
		account.Practice = in.Practice.details(profile.ID)
	}

	if err := store.CreateAccount(ctx, account); err != nil {
		return nil, fromStore(op, err, "an account already exists for %s", in.Email)
	}

	s, err := issuer.Issue(user, profile)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}

	logger.Info("User registered", zap.String("profile_id", profile.ID), zap.String("role", string(profile.Role)))

	return &RegisterResult{Profile: profile, Session: s}, nil
}

// Login checks a password and starts a session
func Login(ctx context.Context, store LoginStore, issuer SessionIssuer, logger *zap.Logger, email, password string) (*session.Session, error) {
	const op = "login"

	email = strings.ToLower(strings.TrimSpace(email))
	logger.Debug("Logging in", zap.String("email", email))

	user, err := store.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.Authorization(op, "invalid email or password")
	}
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}

	if !session.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.Authorization(op, "invalid email or password")
	}

	profile, err := store.GetProfileByUserID(ctx, user.ID)
	if err != nil {
		return nil, fromStore(op, err, "no profile found for %s", email)
	}

	s, err := issuer.Issue(user, profile)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}

	logger.Info("User logged in", zap.String("profile_id", profile.ID))
	return s, nil
}

// Logout ends a session
func Logout(ctx context.Context, revoker SessionRevoker, logger *zap.Logger, s *session.Session) error {
	const op = "logout"

	if err := requireSession(op, s); err != nil {
		return err
	}
	if err := revoker.Revoke(ctx, s); err != nil {
		return err
	}

	logger.Info("User logged out", zap.String("profile_id", s.ProfileID))
	return nil
}
