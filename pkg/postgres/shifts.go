package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/locum-dental/pkg/db"
)

const shiftColumns = `id, practice_id, shift_date, shift_type, rate, location, latitude, longitude, description, created_at`

func scanShift(row rowScanner, s *db.Shift) error {
	var shiftDate time.Time
	if err := row.Scan(&s.ID, &s.PracticeID, &shiftDate, &s.ShiftType, &s.Rate, &s.Location,
		&s.Latitude, &s.Longitude, &s.Description, &s.CreatedAt); err != nil {
		return err
	}
	s.ShiftDate = formatDate(shiftDate)
	return nil
}

func collectShifts(rows pgx.Rows) ([]db.Shift, error) {
	defer rows.Close()

	var shifts []db.Shift
	for rows.Next() {
		var s db.Shift
		if err := scanShift(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shifts: %w", err)
	}

	return shifts, nil
}

// InsertShifts inserts shifts in a single transaction, so a recurring posting lands whole or not at all
func (d *DB) InsertShifts(ctx context.Context, shifts []db.Shift) error {
	return d.inTx(ctx, "shifts", func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range shifts {
			s := &shifts[i]
			batch.Queue(`
				INSERT INTO shifts (id, practice_id, shift_date, shift_type, rate, location, latitude, longitude, description)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING created_at
			`, s.ID, s.PracticeID, s.ShiftDate, s.ShiftType, s.Rate, s.Location, s.Latitude, s.Longitude, s.Description,
			).QueryRow(func(row pgx.Row) error {
				return row.Scan(&s.CreatedAt)
			})
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return storeErr("insert shifts", err)
		}
		return nil
	})
}

// GetShift retrieves a shift by ID
func (d *DB) GetShift(ctx context.Context, id string) (*db.Shift, error) {
	var s db.Shift
	row := d.pool.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id)
	if err := scanShift(row, &s); err != nil {
		return nil, storeErr("get shift", err)
	}
	return &s, nil
}

// GetShiftsAfter retrieves shifts dated strictly after date, earliest first
func (d *DB) GetShiftsAfter(ctx context.Context, date string) ([]db.Shift, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE shift_date > $1
		ORDER BY shift_date, created_at
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	return collectShifts(rows)
}

// GetShiftsByPractice retrieves the shifts posted by a practice, earliest first
func (d *DB) GetShiftsByPractice(ctx context.Context, practiceID string) ([]db.Shift, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE practice_id = $1
		ORDER BY shift_date, created_at
	`, practiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query practice shifts: %w", err)
	}
	return collectShifts(rows)
}
