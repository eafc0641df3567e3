package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/locum-dental/pkg/db"
)

const bookingColumns = `id, shift_id, dentist_id, status, dentist_confirmed, practice_confirmed,
	confirmed_date, confirmed_rate, created_at`

// bookingViewQuery joins a booking with its shift, both profiles and the practice details
const bookingViewQuery = `
	SELECT b.id, b.shift_id, b.dentist_id, b.status, b.dentist_confirmed, b.practice_confirmed,
		b.confirmed_date, b.confirmed_rate, b.created_at,
		s.id, s.practice_id, s.shift_date, s.shift_type, s.rate, s.location, s.latitude, s.longitude,
		s.description, s.created_at,
		d.id, d.user_id, d.role, d.full_name, d.email, COALESCE(d.phone, ''), d.postcode, d.created_at,
		p.id, p.user_id, p.role, p.full_name, p.email, COALESCE(p.phone, ''), p.postcode, p.created_at,
		pd.profile_id, pd.practice_name, pd.principal_name, pd.contact_email, pd.contact_phone
	FROM bookings b
	JOIN shifts s ON s.id = b.shift_id
	JOIN profiles d ON d.id = b.dentist_id
	JOIN profiles p ON p.id = s.practice_id
	LEFT JOIN practice_details pd ON pd.profile_id = p.id
`

// bookingScan holds the nullable columns of a booking row while it is scanned
type bookingScan struct {
	confirmedDate *time.Time
}

func (bs *bookingScan) targets(b *db.Booking) []any {
	return []any{&b.ID, &b.ShiftID, &b.DentistID, &b.Status, &b.DentistConfirmed, &b.PracticeConfirmed,
		&bs.confirmedDate, &b.ConfirmedRate, &b.CreatedAt}
}

func (bs *bookingScan) finish(b *db.Booking) {
	b.ConfirmedDate = nil
	if bs.confirmedDate != nil {
		date := formatDate(*bs.confirmedDate)
		b.ConfirmedDate = &date
	}
}

func scanBooking(row rowScanner, b *db.Booking) error {
	var bs bookingScan
	if err := row.Scan(bs.targets(b)...); err != nil {
		return err
	}
	bs.finish(b)
	return nil
}

func scanBookingView(row rowScanner, v *db.BookingView) error {
	var (
		bs               bookingScan
		shiftDate        time.Time
		pdID, pdName     *string
		pdPrincipal      *string
		pdEmail, pdPhone *string
	)

	targets := append(bs.targets(&v.Booking),
		&v.Shift.ID, &v.Shift.PracticeID, &shiftDate, &v.Shift.ShiftType, &v.Shift.Rate, &v.Shift.Location,
		&v.Shift.Latitude, &v.Shift.Longitude, &v.Shift.Description, &v.Shift.CreatedAt,
		&v.Dentist.ID, &v.Dentist.UserID, &v.Dentist.Role, &v.Dentist.FullName, &v.Dentist.Email,
		&v.Dentist.Phone, &v.Dentist.Postcode, &v.Dentist.CreatedAt,
		&v.Practice.ID, &v.Practice.UserID, &v.Practice.Role, &v.Practice.FullName, &v.Practice.Email,
		&v.Practice.Phone, &v.Practice.Postcode, &v.Practice.CreatedAt,
		&pdID, &pdName, &pdPrincipal, &pdEmail, &pdPhone,
	)
	if err := row.Scan(targets...); err != nil {
		return err
	}

	bs.finish(&v.Booking)
	v.Shift.ShiftDate = formatDate(shiftDate)

	// Practice details columns are all NULL when the left join misses
	v.PracticeDetails = nil
	if pdID != nil {
		v.PracticeDetails = &db.PracticeDetails{
			ProfileID:     *pdID,
			PracticeName:  deref(pdName),
			PrincipalName: deref(pdPrincipal),
			ContactEmail:  deref(pdEmail),
			ContactPhone:  deref(pdPhone),
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (d *DB) queryBookingViews(ctx context.Context, where string, arg any) ([]db.BookingView, error) {
	rows, err := d.pool.Query(ctx, bookingViewQuery+where+` ORDER BY s.shift_date, b.created_at`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var views []db.BookingView
	for rows.Next() {
		var v db.BookingView
		if err := scanBookingView(rows, &v); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return views, nil
}

// InsertBooking inserts a new booking. A second enquiry for the same shift and dentist fails with db.ErrDuplicate.
func (d *DB) InsertBooking(ctx context.Context, booking *db.Booking) error {
	err := d.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, shift_id, dentist_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, booking.ID, booking.ShiftID, booking.DentistID, booking.Status).Scan(&booking.CreatedAt)
	if err != nil {
		return storeErr("insert booking", err)
	}
	return nil
}

// GetBookingView retrieves a booking with its shift and both parties
func (d *DB) GetBookingView(ctx context.Context, id string) (*db.BookingView, error) {
	var v db.BookingView
	row := d.pool.QueryRow(ctx, bookingViewQuery+` WHERE b.id = $1`, id)
	if err := scanBookingView(row, &v); err != nil {
		return nil, storeErr("get booking", err)
	}
	return &v, nil
}

// GetBookingViewsByDentist retrieves every booking a dentist has made
func (d *DB) GetBookingViewsByDentist(ctx context.Context, dentistID string) ([]db.BookingView, error) {
	return d.queryBookingViews(ctx, ` WHERE b.dentist_id = $1`, dentistID)
}

// GetBookingViewsByPractice retrieves every booking on a practice's shifts
func (d *DB) GetBookingViewsByPractice(ctx context.Context, practiceID string) ([]db.BookingView, error) {
	return d.queryBookingViews(ctx, ` WHERE s.practice_id = $1`, practiceID)
}

// UpdateBooking locks the booking row, applies fn and writes the result in one transaction.
// Concurrent callers for the same booking run one after another.
func (d *DB) UpdateBooking(ctx context.Context, id string, fn db.BookingMutation) (*db.Booking, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var b db.Booking
	row := tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if err := scanBooking(row, &b); err != nil {
		return nil, storeErr("lock booking", err)
	}

	var s db.Shift
	row = tx.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, b.ShiftID)
	if err := scanShift(row, &s); err != nil {
		return nil, storeErr("get booking shift", err)
	}

	changed, err := fn(&b, &s)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &b, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE bookings
		SET status = $2, dentist_confirmed = $3, practice_confirmed = $4, confirmed_date = $5, confirmed_rate = $6
		WHERE id = $1
	`, b.ID, b.Status, b.DentistConfirmed, b.PracticeConfirmed, b.ConfirmedDate, b.ConfirmedRate)
	if err != nil {
		return nil, storeErr("update booking", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit booking update: %w", err)
	}

	return &b, nil
}
