package userservice

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrNotFound       = errors.New("user not found")
)

func newUserModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

func (m *DBModel) insertUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (email, password, name, profile_image)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_verified, created_at, updated_at`

	args := []any{
		u.Email,
		u.Password.hash,
		u.Name,
		u.ProfileImage,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case err.Error() == `pq: duplicate key value violates unique constraint "users_email_key"`:
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	return nil
}

func (m *DBModel) getUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password, name, is_verified, profile_image, created_at, updated_at
		FROM users
		WHERE email = $1`

	var (
		u            User
		profileImage sql.NullString
	)

	err := m.db.QueryRowContext(ctx, query, email).
		Scan(&u.ID, &u.Email, &u.Password.hash, &u.Name, &u.IsVerified, &profileImage, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	if profileImage.Valid {
		u.ProfileImage = &profileImage.String
	}

	return &u, nil
}

func (m *DBModel) getUserByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, email, name, is_verified, profile_image, created_at, updated_at
		FROM users
		WHERE id = $1`

	var (
		u            User
		profileImage sql.NullString
	)

	err := m.db.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.IsVerified, &profileImage, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	if profileImage.Valid {
		u.ProfileImage = &profileImage.String
	}

	return &u, nil
}

func (m *DBModel) markUserVerified(tx *sql.Tx, ctx context.Context, email string) error {
	query := `
		UPDATE users
		SET is_verified = true, updated_at = now()
		WHERE email = $1`

	res, err := tx.ExecContext(ctx, query, email)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// deleteUnverifiedUsersBefore removes accounts still unverified past the
// cutoff. Their posts, comments, profiles, and sessions cascade.
func (m *DBModel) deleteUnverifiedUsersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM users
		WHERE is_verified = false AND created_at < $1`

	res, err := m.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
