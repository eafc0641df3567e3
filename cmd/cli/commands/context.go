package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/internal/config"
	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/core/messagegate"
	"github.com/jakechorley/locum-dental/pkg/core/services"
	"github.com/jakechorley/locum-dental/pkg/postgres"
	"github.com/jakechorley/locum-dental/pkg/session"
	"github.com/jakechorley/locum-dental/pkg/utils"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Database *postgres.DB
	Sessions *session.Manager
	// Redis is nil when revocations are kept in memory
	Redis    *session.RedisRevocations
	Geocoder services.Geocoder
	// Notifier is nil when notifications are disabled
	Notifier services.Notifier
	Gate     *messagegate.Gate
	Logger   *zap.Logger
	Ctx      context.Context
}

// Session returns the session saved by the last login for this environment
func (app *AppContext) Session() (*session.Session, error) {
	token, err := utils.LoadSessionToken(app.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if token == "" {
		return nil, apperr.Authorization("session", "not logged in, run login first")
	}
	return app.Sessions.Parse(app.Ctx, token)
}
