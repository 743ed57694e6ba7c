package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrCommentNotFound = errors.New("comment not found")

const commentColumns = `
	c.id, c.content, c.user_id, c.blog_id, c.created_at,
	u.id, u.email, u.name, u.profile_image,
	p.first_name, p.last_name, p.avatar`

const commentJoins = `
	FROM comments c
	JOIN users u ON c.user_id = u.id
	LEFT JOIN user_profiles p ON u.id = p.user_id`

func scanComment(row interface{ Scan(...any) error }) (*Comment, error) {
	var (
		c                   Comment
		profileImage        sql.NullString
		firstName, lastName sql.NullString
		avatar              sql.NullString
	)

	err := row.Scan(
		&c.ID, &c.Content, &c.UserID, &c.BlogID, &c.CreatedAt,
		&c.User.ID, &c.User.Email, &c.User.Name, &profileImage,
		&firstName, &lastName, &avatar,
	)
	if err != nil {
		return nil, err
	}

	if profileImage.Valid {
		c.User.ProfileImage = &profileImage.String
	}
	if avatar.Valid {
		c.User.Avatar = &avatar.String
	}
	if firstName.Valid && lastName.Valid {
		c.User.Name = firstName.String + " " + lastName.String
	}

	return &c, nil
}

func (m *BlogModel) insertComment(ctx context.Context, blogID, userID int, content string) (*Comment, error) {
	query := `
		INSERT INTO comments (content, user_id, blog_id)
		VALUES ($1, $2, $3)
		RETURNING id, content, user_id, blog_id, created_at`

	var c Comment
	err := m.db.QueryRowContext(ctx, query, content, userID, blogID).
		Scan(&c.ID, &c.Content, &c.UserID, &c.BlogID, &c.CreatedAt)
	if err != nil {
		switch {
		case ForeignKeyError(err, "comments_blog_id_fkey"):
			return nil, ErrRecordNotFound
		case ForeignKeyError(err, "comments_user_id_fkey"):
			return nil, ErrUserForeignKey
		default:
			return nil, err
		}
	}

	return &c, nil
}

func (m *BlogModel) getComment(ctx context.Context, blogID, commentID int) (*Comment, error) {
	query := `SELECT` + commentColumns + commentJoins + `
	WHERE c.id = $1 AND c.blog_id = $2`

	comment, err := scanComment(m.db.QueryRowContext(ctx, query, commentID, blogID))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrCommentNotFound
		default:
			return nil, err
		}
	}

	return comment, nil
}

func (m *BlogModel) getComments(ctx context.Context, blogID, limit, offset int) ([]Comment, error) {
	query := `SELECT` + commentColumns + commentJoins + `
	WHERE c.blog_id = $1
	ORDER BY c.created_at DESC, c.id DESC
	LIMIT $2 OFFSET $3`

	rows, err := m.db.QueryContext(ctx, query, blogID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}

	return comments, rows.Err()
}

func (m *BlogModel) countComments(ctx context.Context, blogID int) (int, error) {
	var total int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments WHERE blog_id = $1", blogID).Scan(&total)
	return total, err
}

func (m *BlogModel) deleteComment(ctx context.Context, commentID int) error {
	res, err := m.db.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", commentID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrCommentNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}
