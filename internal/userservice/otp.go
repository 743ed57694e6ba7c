package userservice

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidOTP covers every rejected verification attempt: no pending code,
// a wrong code, or a code past its expiry. Callers cannot distinguish them.
var ErrInvalidOTP = errors.New("invalid or expired OTP")

// generateOTPCode returns a fresh 6-digit numeric code.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// storeOTP moves the email to the pending state: the code hash and expiry
// replace any prior pending record, so at most one OTP is active per email.
func (m *DBModel) storeOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), 10)
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM otp_verification WHERE email = $1", email)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	query := `
		INSERT INTO otp_verification (email, otp_hash, expires_at)
		VALUES ($1, $2, $3)`

	_, err = tx.ExecContext(ctx, query, email, hash, time.Now().Add(ttl))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// verifyOTP drives the pending record to its terminal state in a single
// transaction. A matching, unexpired code deletes the record together with
// marking the user verified, so the code cannot be replayed. An expired
// record is deleted and the attempt rejected.
func (m *DBModel) verifyOTP(ctx context.Context, email, code string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	var (
		hash    []byte
		expires time.Time
	)

	query := `
		SELECT otp_hash, expires_at
		FROM otp_verification
		WHERE email = $1
		FOR UPDATE`

	err = tx.QueryRowContext(ctx, query, email).Scan(&hash, &expires)
	if err != nil {
		_ = tx.Rollback()
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrInvalidOTP
		default:
			return err
		}
	}

	if time.Now().After(expires) {
		_, delErr := tx.ExecContext(ctx, "DELETE FROM otp_verification WHERE email = $1", email)
		if delErr != nil {
			_ = tx.Rollback()
			return delErr
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		return ErrInvalidOTP
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(code)); err != nil {
		_ = tx.Rollback()
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return ErrInvalidOTP
		default:
			return err
		}
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM otp_verification WHERE email = $1", email)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := m.markUserVerified(tx, ctx, email); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// deleteExpiredOTPs is the periodic sweep over records past expiry.
func (m *DBModel) deleteExpiredOTPs(ctx context.Context) (int64, error) {
	res, err := m.db.ExecContext(ctx, "DELETE FROM otp_verification WHERE expires_at < $1", time.Now())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
