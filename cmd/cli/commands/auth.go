package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/services"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/utils"
)

// readPassword prompts for a password on stdin when none was passed as a flag
func readPassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Print("Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// RegisterCmd creates the register command
func RegisterCmd(app *AppContext) *cobra.Command {
	var (
		in       services.RegisterInput
		password string
		role     string
		dentist  services.DentistInput
		practice services.PracticeInput
	)

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Register as a dentist or a practice and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			in.Email = args[0]
			in.Role = db.Role(role)
			if in.Password, err = readPassword(password); err != nil {
				return err
			}

			switch in.Role {
			case db.RoleDentist:
				d := dentist
				in.Dentist = &d
				in.Practice = nil
			case db.RolePractice:
				p := practice
				in.Practice = &p
				in.Dentist = nil
			}

			app.Logger.Debug("register command", zap.String("email", in.Email), zap.String("role", role))

			result, err := services.Register(app.Ctx, app.Database, app.Sessions, app.Logger, in)
			if err != nil {
				return err
			}
			if err := utils.SaveSessionToken(app.Env, result.Session.Token); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			fmt.Printf("\n✓ Registered %s as a %s\n", result.Profile.Email, result.Profile.Role)
			fmt.Printf("Profile ID: %s\n\n", result.Profile.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&password, "password", "", "Password (prompted when omitted)")
	f.StringVar(&role, "role", "", "dentist or practice")
	f.StringVar(&in.FullName, "name", "", "Full name")
	f.StringVar(&in.Phone, "phone", "", "Phone number")
	f.StringVar(&in.Postcode, "postcode", "", "Postcode")

	f.StringVar(&dentist.GDCNumber, "gdc", "", "GDC number (dentists)")
	f.StringVar(&dentist.PerformerNumber, "performer", "", "Performer number (dentists)")
	f.IntVar(&dentist.YearQualified, "year-qualified", 0, "Year qualified (dentists)")
	f.IntVar(&dentist.UKExperience, "uk-experience", 0, "Years of UK experience (dentists)")
	f.StringSliceVar(&dentist.AdditionalSkills, "skills", nil, "Additional skills, comma separated (dentists)")
	f.StringVar(&dentist.LocumType, "locum-type", "", "temporary or ongoing (dentists)")
	f.StringVar(&dentist.NHSPreference, "nhs-preference", "", "nhs, private or either (dentists)")
	f.Float64Var(&dentist.RateMin, "rate-min", 0, "Minimum daily rate (dentists)")
	f.Float64Var(&dentist.RateMax, "rate-max", 0, "Maximum daily rate (dentists)")

	f.StringVar(&practice.PracticeName, "practice-name", "", "Practice name (practices)")
	f.StringVar(&practice.PrincipalName, "principal", "", "Principal dentist (practices)")
	f.StringVar(&practice.ContactEmail, "contact-email", "", "Contact email (practices)")
	f.StringVar(&practice.ContactPhone, "contact-phone", "", "Contact phone (practices)")

	return cmd
}

// LoginCmd creates the login command
func LoginCmd(app *AppContext) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and remember the session for this environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password)
			if err != nil {
				return err
			}

			s, err := services.Login(app.Ctx, app.Database, app.Sessions, app.Logger, args[0], pw)
			if err != nil {
				return err
			}
			if err := utils.SaveSessionToken(app.Env, s.Token); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			fmt.Printf("\n✓ Logged in as %s (%s)\n", s.Email, s.Role)
			fmt.Printf("Session expires %s\n\n", s.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

// LogoutCmd creates the logout command
func LogoutCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Session()
			if err != nil {
				return err
			}
			if err := services.Logout(app.Ctx, app.Sessions, app.Logger, s); err != nil {
				return err
			}
			if err := utils.DeleteSessionToken(app.Env); err != nil {
				return fmt.Errorf("failed to remove saved session: %w", err)
			}

			fmt.Printf("\n✓ Logged out\n\n")
			return nil
		},
	}
}
