package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/locum-dental/pkg/db"
)

// CreateAccount inserts the login, its profile and the role details together.
// A duplicate email fails with db.ErrDuplicate and leaves nothing behind.
func (d *DB) CreateAccount(ctx context.Context, account *db.Account) error {
	return d.inTx(ctx, "account", func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, account.User); err != nil {
			return err
		}
		if err := insertProfile(ctx, tx, account.Profile); err != nil {
			return err
		}
		return saveRoleDetails(ctx, tx, account.Dentist, account.Practice)
	})
}

// insertUser stores emails lower-cased
func insertUser(ctx context.Context, tx pgx.Tx, user *db.User) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, user.ID, strings.ToLower(user.Email), user.PasswordHash).Scan(&user.CreatedAt)
	if err != nil {
		return storeErr("insert user", err)
	}
	return nil
}

// GetUserByEmail retrieves a login identity by email, case-insensitively
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	err := d.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`, strings.ToLower(email)).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return &u, nil
}
