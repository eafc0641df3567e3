package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/api"
	"github.com/jakechorley/locum-dental/pkg/session"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if app.Redis != nil {
				go app.Redis.Relay(ctx, app.Sessions, app.Logger)
			}

			unsubscribe := app.Sessions.Subscribe(func(e session.Event) {
				app.Logger.Debug("Session event",
					zap.String("type", string(e.Type)),
					zap.String("session_id", e.SessionID),
					zap.String("profile_id", e.ProfileID))
			})
			defer unsubscribe()

			srv := api.NewServer(api.Dependencies{
				Store:    app.Database,
				Sessions: app.Sessions,
				Geocoder: app.Geocoder,
				Notifier: app.Notifier,
				Gate:     app.Gate,
				Config:   app.Cfg,
				Logger:   app.Logger,
			})

			fmt.Printf("\n🚀 Serving on %s (Ctrl+C to stop)\n\n", app.Cfg.Server.Addr)
			if err := srv.Run(ctx); err != nil {
				return fmt.Errorf("server stopped: %w", err)
			}
			return nil
		},
	}
}
