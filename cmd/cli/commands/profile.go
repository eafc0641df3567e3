package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/locum-dental/pkg/core/services"
)

func printProfile(view *services.ProfileView) {
	p := view.Profile
	fmt.Printf("\n%s (%s)\n", p.FullName, p.Role)
	fmt.Printf("  Email:    %s\n", p.Email)
	if p.Phone != "" {
		fmt.Printf("  Phone:    %s\n", p.Phone)
	}
	fmt.Printf("  Postcode: %s\n", p.Postcode)

	if d := view.Dentist; d != nil {
		fmt.Printf("  GDC:      %s\n", d.GDCNumber)
		fmt.Printf("  Qualified %d, %d years UK experience\n", d.YearQualified, d.UKExperience)
		fmt.Printf("  Locum:    %s, %s, %s to %s\n", d.LocumType, d.NHSPreference, formatRate(d.RateMin), formatRate(d.RateMax))
		if len(d.AdditionalSkills) > 0 {
			fmt.Printf("  Skills:   %s\n", strings.Join(d.AdditionalSkills, ", "))
		}
	}
	if pd := view.Practice; pd != nil {
		fmt.Printf("  Practice: %s\n", pd.PracticeName)
		if pd.PrincipalName != "" {
			fmt.Printf("  Principal: %s\n", pd.PrincipalName)
		}
		fmt.Printf("  Contact:  %s %s\n", pd.ContactEmail, pd.ContactPhone)
	}
	fmt.Println()
}

// ProfileCmd creates the profile command
func ProfileCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Session()
			if err != nil {
				return err
			}

			view, err := services.GetMyProfile(app.Ctx, app.Database, app.Logger, s)
			if err != nil {
				return err
			}
			printProfile(view)
			return nil
		},
	}
}

// UpdateProfileCmd creates the updateProfile command. Unset flags keep their current value.
func UpdateProfileCmd(app *AppContext) *cobra.Command {
	var (
		update   services.ProfileUpdate
		dentist  services.DentistInput
		practice services.PracticeInput
	)

	cmd := &cobra.Command{
		Use:   "updateProfile",
		Short: "Edit your profile and role details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Session()
			if err != nil {
				return err
			}

			current, err := services.GetMyProfile(app.Ctx, app.Database, app.Logger, s)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			merged := services.ProfileUpdate{
				FullName: pick(f.Changed("name"), update.FullName, current.Profile.FullName),
				Email:    pick(f.Changed("email"), update.Email, current.Profile.Email),
				Phone:    pick(f.Changed("phone"), update.Phone, current.Profile.Phone),
				Postcode: pick(f.Changed("postcode"), update.Postcode, current.Profile.Postcode),
			}

			if d := current.Dentist; d != nil {
				merged.Dentist = &services.DentistInput{
					GDCNumber:        pick(f.Changed("gdc"), dentist.GDCNumber, d.GDCNumber),
					PerformerNumber:  pick(f.Changed("performer"), dentist.PerformerNumber, d.PerformerNumber),
					YearQualified:    pick(f.Changed("year-qualified"), dentist.YearQualified, d.YearQualified),
					UKExperience:     pick(f.Changed("uk-experience"), dentist.UKExperience, d.UKExperience),
					AdditionalSkills: pick(f.Changed("skills"), dentist.AdditionalSkills, d.AdditionalSkills),
					LocumType:        pick(f.Changed("locum-type"), dentist.LocumType, d.LocumType),
					NHSPreference:    pick(f.Changed("nhs-preference"), dentist.NHSPreference, d.NHSPreference),
					RateMin:          pick(f.Changed("rate-min"), dentist.RateMin, d.RateMin),
					RateMax:          pick(f.Changed("rate-max"), dentist.RateMax, d.RateMax),
				}
			}
			if p := current.Practice; p != nil {
				merged.Practice = &services.PracticeInput{
					PracticeName:  pick(f.Changed("practice-name"), practice.PracticeName, p.PracticeName),
					PrincipalName: pick(f.Changed("principal"), practice.PrincipalName, p.PrincipalName),
					ContactEmail:  pick(f.Changed("contact-email"), practice.ContactEmail, p.ContactEmail),
					ContactPhone:  pick(f.Changed("contact-phone"), practice.ContactPhone, p.ContactPhone),
				}
			}

			view, err := services.UpdateProfile(app.Ctx, app.Database, app.Logger, s, merged)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Profile updated\n")
			printProfile(view)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&update.FullName, "name", "", "Full name")
	f.StringVar(&update.Email, "email", "", "Email")
	f.StringVar(&update.Phone, "phone", "", "Phone number")
	f.StringVar(&update.Postcode, "postcode", "", "Postcode")

	f.StringVar(&dentist.GDCNumber, "gdc", "", "GDC number")
	f.StringVar(&dentist.PerformerNumber, "performer", "", "Performer number")
	f.IntVar(&dentist.YearQualified, "year-qualified", 0, "Year qualified")
	f.IntVar(&dentist.UKExperience, "uk-experience", 0, "Years of UK experience")
	f.StringSliceVar(&dentist.AdditionalSkills, "skills", nil, "Additional skills, comma separated")
	f.StringVar(&dentist.LocumType, "locum-type", "", "temporary or ongoing")
	f.StringVar(&dentist.NHSPreference, "nhs-preference", "", "nhs, private or either")
	f.Float64Var(&dentist.RateMin, "rate-min", 0, "Minimum daily rate")
	f.Float64Var(&dentist.RateMax, "rate-max", 0, "Maximum daily rate")

	f.StringVar(&practice.PracticeName, "practice-name", "", "Practice name")
	f.StringVar(&practice.PrincipalName, "principal", "", "Principal dentist")
	f.StringVar(&practice.ContactEmail, "contact-email", "", "Contact email")
	f.StringVar(&practice.ContactPhone, "contact-phone", "", "Contact phone")

	return cmd
}

// pick returns the flag value when the flag was set and the current value otherwise
func pick[T any](changed bool, flagValue, current T) T {
	if changed {
		return flagValue
	}
	return current
}
