package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/locum-dental/pkg/db"
)

const profileColumns = `id, user_id, role, full_name, email, COALESCE(phone, ''), postcode, created_at`

func scanProfile(row rowScanner, p *db.Profile) error {
	return row.Scan(&p.ID, &p.UserID, &p.Role, &p.FullName, &p.Email, &p.Phone, &p.Postcode, &p.CreatedAt)
}

// nullIfEmpty stores optional text as NULL
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func insertProfile(ctx context.Context, tx pgx.Tx, profile *db.Profile) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO profiles (id, user_id, role, full_name, email, phone, postcode)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, profile.ID, profile.UserID, profile.Role, profile.FullName, profile.Email,
		nullIfEmpty(profile.Phone), profile.Postcode).Scan(&profile.CreatedAt)
	if err != nil {
		return storeErr("insert profile", err)
	}
	return nil
}

// UpdateProfile updates the editable fields of a profile and upserts whichever role details
// are given. Role and owner never change.
func (d *DB) UpdateProfile(ctx context.Context, profile *db.Profile, dentist *db.DentistDetails, practice *db.PracticeDetails) error {
	return d.inTx(ctx, "profile update", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE profiles
			SET full_name = $2, email = $3, phone = $4, postcode = $5
			WHERE id = $1
		`, profile.ID, profile.FullName, profile.Email, nullIfEmpty(profile.Phone), profile.Postcode)
		if err != nil {
			return storeErr("update profile", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("failed to update profile: %w", db.ErrNotFound)
		}
		return saveRoleDetails(ctx, tx, dentist, practice)
	})
}

func saveRoleDetails(ctx context.Context, tx pgx.Tx, dentist *db.DentistDetails, practice *db.PracticeDetails) error {
	if dentist != nil {
		if err := upsertDentistDetails(ctx, tx, dentist); err != nil {
			return err
		}
	}
	if practice != nil {
		if err := upsertPracticeDetails(ctx, tx, practice); err != nil {
			return err
		}
	}
	return nil
}

// GetProfile retrieves a profile by ID
func (d *DB) GetProfile(ctx context.Context, id string) (*db.Profile, error) {
	var p db.Profile
	row := d.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	if err := scanProfile(row, &p); err != nil {
		return nil, storeErr("get profile", err)
	}
	return &p, nil
}

// GetProfileByUserID retrieves the profile owned by a user
func (d *DB) GetProfileByUserID(ctx context.Context, userID string) (*db.Profile, error) {
	var p db.Profile
	row := d.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	if err := scanProfile(row, &p); err != nil {
		return nil, storeErr("get profile by user", err)
	}
	return &p, nil
}

func upsertDentistDetails(ctx context.Context, tx pgx.Tx, details *db.DentistDetails) error {
	skills := details.AdditionalSkills
	if skills == nil {
		skills = []string{}
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO dentist_details (
			profile_id, gdc_number, performer_number, year_qualified, uk_experience,
			additional_skills, locum_type, nhs_preference, rate_min, rate_max
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (profile_id) DO UPDATE SET
			gdc_number = EXCLUDED.gdc_number,
			performer_number = EXCLUDED.performer_number,
			year_qualified = EXCLUDED.year_qualified,
			uk_experience = EXCLUDED.uk_experience,
			additional_skills = EXCLUDED.additional_skills,
			locum_type = EXCLUDED.locum_type,
			nhs_preference = EXCLUDED.nhs_preference,
			rate_min = EXCLUDED.rate_min,
			rate_max = EXCLUDED.rate_max
	`, details.ProfileID, details.GDCNumber, nullIfEmpty(details.PerformerNumber), details.YearQualified,
		details.UKExperience, skills, details.LocumType, details.NHSPreference, details.RateMin, details.RateMax)
	if err != nil {
		return storeErr("upsert dentist details", err)
	}
	return nil
}

// GetDentistDetails retrieves the details of a dentist profile
func (d *DB) GetDentistDetails(ctx context.Context, profileID string) (*db.DentistDetails, error) {
	var dd db.DentistDetails
	err := d.pool.QueryRow(ctx, `
		SELECT profile_id, gdc_number, COALESCE(performer_number, ''), year_qualified, uk_experience,
			additional_skills, locum_type, nhs_preference, rate_min, rate_max
		FROM dentist_details
		WHERE profile_id = $1
	`, profileID).Scan(&dd.ProfileID, &dd.GDCNumber, &dd.PerformerNumber, &dd.YearQualified, &dd.UKExperience,
		&dd.AdditionalSkills, &dd.LocumType, &dd.NHSPreference, &dd.RateMin, &dd.RateMax)
	if err != nil {
		return nil, storeErr("get dentist details", err)
	}
	return &dd, nil
}

func upsertPracticeDetails(ctx context.Context, tx pgx.Tx, details *db.PracticeDetails) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO practice_details (profile_id, practice_name, principal_name, contact_email, contact_phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile_id) DO UPDATE SET
			practice_name = EXCLUDED.practice_name,
			principal_name = EXCLUDED.principal_name,
			contact_email = EXCLUDED.contact_email,
			contact_phone = EXCLUDED.contact_phone
	`, details.ProfileID, details.PracticeName, details.PrincipalName, details.ContactEmail, details.ContactPhone)
	if err != nil {
		return storeErr("upsert practice details", err)
	}
	return nil
}

// GetPracticeDetails retrieves the details of a practice profile
func (d *DB) GetPracticeDetails(ctx context.Context, profileID string) (*db.PracticeDetails, error) {
	var pd db.PracticeDetails
	err := d.pool.QueryRow(ctx, `
		SELECT profile_id, practice_name, principal_name, contact_email, contact_phone
		FROM practice_details
		WHERE profile_id = $1
	`, profileID).Scan(&pd.ProfileID, &pd.PracticeName, &pd.PrincipalName, &pd.ContactEmail, &pd.ContactPhone)
	if err != nil {
		return nil, storeErr("get practice details", err)
	}
	return &pd, nil
}

// ListLocums retrieves every dentist profile with its details, oldest first
func (d *DB) ListLocums(ctx context.Context) ([]db.LocumListing, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT p.id, p.user_id, p.role, p.full_name, p.email, COALESCE(p.phone, ''), p.postcode, p.created_at,
			dd.profile_id, dd.gdc_number, COALESCE(dd.performer_number, ''), dd.year_qualified, dd.uk_experience,
			dd.additional_skills, dd.locum_type, dd.nhs_preference, dd.rate_min, dd.rate_max
		FROM profiles p
		LEFT JOIN dentist_details dd ON dd.profile_id = p.id
		WHERE p.role = 'dentist'
		ORDER BY p.created_at, p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locums: %w", err)
	}
	defer rows.Close()

	var listings []db.LocumListing
	for rows.Next() {
		var l db.LocumListing
		var (
			detailsID              *string
			gdc, performer         *string
			yearQualified, ukYears *int
			skills                 []string
			locumType, nhsPref     *string
			rateMin, rateMax       *float64
		)
		if err := rows.Scan(&l.Profile.ID, &l.Profile.UserID, &l.Profile.Role, &l.Profile.FullName, &l.Profile.Email,
			&l.Profile.Phone, &l.Profile.Postcode, &l.Profile.CreatedAt,
			&detailsID, &gdc, &performer, &yearQualified, &ukYears, &skills, &locumType, &nhsPref, &rateMin, &rateMax); err != nil {
			return nil, fmt.Errorf("failed to scan locum: %w", err)
		}
		if detailsID != nil {
			l.Details = &db.DentistDetails{
				ProfileID:        *detailsID,
				GDCNumber:        *gdc,
				PerformerNumber:  *performer,
				YearQualified:    *yearQualified,
				UKExperience:     *ukYears,
				AdditionalSkills: skills,
				LocumType:        *locumType,
				NHSPreference:    *nhsPref,
				RateMin:          *rateMin,
				RateMax:          *rateMax,
			}
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locums: %w", err)
	}

	return listings, nil
}
