package userservice

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base32"
	"errors"
	"time"
)

func hashToken(token string) []byte {
	hash := sha256.Sum256([]byte(token))
	return hash[:]
}

func newSession(userID int, ttl time.Duration) (*Session, error) {
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return nil, err
	}

	session := &Session{
		Plain:  base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes),
		UserID: userID,
		Expiry: time.Now().Add(ttl),
	}

	session.Hash = hashToken(session.Plain)

	return session, nil
}

func (m *DBModel) createSession(ctx context.Context, userID int, ttl time.Duration) (*Session, error) {
	session, err := newSession(userID, ttl)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO sessions (hash, user_id, expiry)
		VALUES ($1, $2, $3)`

	_, err = m.db.ExecContext(ctx, query, session.Hash, session.UserID, session.Expiry)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// getUserBySessionHash resolves an unexpired session to its user.
func (m *DBModel) getUserBySessionHash(ctx context.Context, hash []byte) (*User, error) {
	query := `
		SELECT u.id, u.email, u.name, u.is_verified, u.profile_image, u.created_at, u.updated_at
		FROM users u
		INNER JOIN sessions s ON u.id = s.user_id
		WHERE s.hash = $1 AND s.expiry > $2`

	var (
		u            User
		profileImage sql.NullString
	)

	err := m.db.QueryRowContext(ctx, query, hash, time.Now()).
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

func (m *DBModel) deleteSessions(ctx context.Context, userID int) error {
	_, err := m.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = $1", userID)
	return err
}

func (m *DBModel) deleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := m.db.ExecContext(ctx, "DELETE FROM sessions WHERE expiry < $1", time.Now())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
