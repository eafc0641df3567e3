package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/cmd/cli/commands"
	"github.com/jakechorley/locum-dental/internal/config"
	"github.com/jakechorley/locum-dental/pkg/clients/gmailclient"
	"github.com/jakechorley/locum-dental/pkg/clients/postcodeclient"
	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/core/messagegate"
	"github.com/jakechorley/locum-dental/pkg/postgres"
	"github.com/jakechorley/locum-dental/pkg/session"
	"github.com/jakechorley/locum-dental/pkg/utils/logging"
)

var (
	env string
	app = &commands.AppContext{Ctx: context.Background()}
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "cli",
		Short:         "Locum Dental CLI - book locum dentists into practice shifts",
		Long:          `A CLI tool for posting and finding locum dental shifts, agreeing bookings, chatting and leaving reviews.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeApp()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.RegisterCmd(app))
	rootCmd.AddCommand(commands.LoginCmd(app))
	rootCmd.AddCommand(commands.LogoutCmd(app))
	rootCmd.AddCommand(commands.ProfileCmd(app))
	rootCmd.AddCommand(commands.UpdateProfileCmd(app))
	rootCmd.AddCommand(commands.PostShiftCmd(app))
	rootCmd.AddCommand(commands.BrowseShiftsCmd(app))
	rootCmd.AddCommand(commands.BrowseLocumsCmd(app))
	rootCmd.AddCommand(commands.EnquireCmd(app))
	rootCmd.AddCommand(commands.AcceptCmd(app))
	rootCmd.AddCommand(commands.ConfirmCmd(app))
	rootCmd.AddCommand(commands.ViewBookingCmd(app))
	rootCmd.AddCommand(commands.MessagesCmd(app))
	rootCmd.AddCommand(commands.SendCmd(app))
	rootCmd.AddCommand(commands.DashboardCmd(app))
	rootCmd.AddCommand(commands.PendingReviewsCmd(app))
	rootCmd.AddCommand(commands.SubmitReviewCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %s\n", apperr.Message(err))
		closeApp()
		os.Exit(1)
	}
}

// initApp sets up logger, config, database, sessions and clients
func initApp() error {
	var err error
	app.Env = env

	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	app.Logger.Info("Connecting to database")
	app.Database, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Logger.Debug("Database connected")

	var revocations session.RevocationStore
	if app.Cfg.RedisAddr != "" {
		app.Logger.Info("Connecting to redis", zap.String("addr", app.Cfg.RedisAddr))
		app.Redis, err = session.NewRedisRevocations(app.Ctx, app.Cfg.RedisAddr, app.Cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		revocations = app.Redis
	} else {
		app.Logger.Debug("No redis configured, session revocations are kept in memory")
		revocations = session.NewMemoryRevocations()
	}
	app.Sessions = session.NewManager(app.Cfg.JWTSecret, app.Cfg.SessionTTL, revocations, app.Logger)

	app.Geocoder = postcodeclient.NewClient(app.Cfg.PostcodesBaseURL, app.Cfg.GeocodeRatePerSecond)

	app.Gate, err = messagegate.NewDefault(app.Cfg.MessageGate.ExtraBlockedTerms)
	if err != nil {
		return fmt.Errorf("failed to build message gate: %w", err)
	}

	if app.Cfg.Notifications.Enabled {
		app.Logger.Info("Loading OAuth client configuration")
		oauthCfg, err := app.Cfg.LoadOAuthClient()
		if err != nil {
			return fmt.Errorf("failed to load OAuth client config: %w", err)
		}

		app.Logger.Info("Initializing gmail client")
		gmail, err := gmailclient.NewClient(app.Ctx, oauthCfg, app.Cfg.Notifications.GmailSender, env, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to create gmail client: %w", err)
		}
		app.Notifier = gmail
		app.Logger.Debug("Gmail client initialized successfully")
	}

	app.Logger.Info("Application initialized")
	return nil
}

func closeApp() {
	if app.Database != nil {
		app.Database.Close()
		app.Database = nil
	}
	if app.Redis != nil {
		app.Redis.Close()
		app.Redis = nil
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
