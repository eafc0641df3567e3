package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/clients/postcodeclient"
	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

// now is the clock used for every date comparison. Tests replace it.
var now = time.Now

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// today returns the current date in db.DateLayout
func today() string {
	return now().Format(db.DateLayout)
}

// Notifier sends a plain-text email. gmailclient.Client implements it.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Geocoder resolves a postcode to coordinates. postcodeclient.Client implements it.
type Geocoder interface {
	Lookup(ctx context.Context, postcode string) (*postcodeclient.Location, error)
}

// requireSession rejects calls made without a signed-in identity
func requireSession(op string, s *session.Session) error {
	if s.Anonymous() || s.ProfileID == "" {
		return apperr.Authorization(op, "you must be signed in")
	}
	return nil
}

// requireRole rejects calls made by the wrong side of the marketplace
func requireRole(op string, s *session.Session, role db.Role) error {
	if err := requireSession(op, s); err != nil {
		return err
	}
	if s.Role != role {
		return apperr.Authorization(op, "only a %s can do this", role)
	}
	return nil
}

// fromStore converts store errors into workflow errors
func fromStore(op string, err error, format string, args ...any) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return apperr.NotFound(op, format, args...)
	case errors.Is(err, db.ErrDuplicate):
		return apperr.Conflict(op, format, args...)
	default:
		return apperr.Upstream(op, err)
	}
}

// validateInput runs struct validation and reports failures as a rejection
func validateInput(op string, input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Rejected(op, "%v", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describeFieldError(fe))
	}
	return apperr.Rejected(op, "%s", strings.Join(problems, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be an email address", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
}

// notify sends an email when a notifier is configured. Failures are logged, never returned.
func notify(ctx context.Context, notifier Notifier, logger *zap.Logger, to, subject, body string) {
	if notifier == nil || to == "" {
		return
	}
	if err := notifier.SendEmail(ctx, to, subject, body); err != nil {
		logger.Warn("Failed to send notification", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return
	}
	logger.Debug("Notification sent", zap.String("to", to), zap.String("subject", subject))
}
