package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/locum-dental/pkg/db"
)

// InsertReview inserts a review. A second review of the same shift by the same reviewer fails with db.ErrDuplicate.
func (d *DB) InsertReview(ctx context.Context, review *db.Review) error {
	err := d.pool.QueryRow(ctx, `
		INSERT INTO reviews (id, reviewer_id, recipient_id, shift_id, reviewer_role, rating, comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, review.ID, review.ReviewerID, review.RecipientID, review.ShiftID, review.ReviewerRole,
		review.Rating, review.Comments).Scan(&review.CreatedAt)
	if err != nil {
		return storeErr("insert review", err)
	}
	return nil
}

// GetReviewsByReviewer retrieves the reviews a profile has written
func (d *DB) GetReviewsByReviewer(ctx context.Context, reviewerID string) ([]db.Review, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, reviewer_id, recipient_id, shift_id, reviewer_role, rating, comments, created_at
		FROM reviews
		WHERE reviewer_id = $1
		ORDER BY created_at
	`, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []db.Review
	for rows.Next() {
		var r db.Review
		if err := rows.Scan(&r.ID, &r.ReviewerID, &r.RecipientID, &r.ShiftID, &r.ReviewerRole,
			&r.Rating, &r.Comments, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
