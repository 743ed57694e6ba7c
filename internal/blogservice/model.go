package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUserForeignKey = errors.New("author does not exist")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// ForeignKeyError reports whether err is a violation of the named constraint.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

// blogColumns is the shared projection for list, detail, and recent-post
// views: the post row, its author, the optional profile, and the comment
// count as a correlated subquery.
const blogColumns = `
	b.id, b.title, b.content, b.tags, b.image, b.author_id, b.created_at, b.updated_at, b.order_id,
	(SELECT COUNT(*) FROM comments c WHERE c.blog_id = b.id),
	u.id, u.email, u.name, u.profile_image,
	p.first_name, p.last_name, p.avatar`

const blogJoins = `
	FROM blogs b
	JOIN users u ON b.author_id = u.id
	LEFT JOIN user_profiles p ON u.id = p.user_id`

func scanBlog(row interface{ Scan(...any) error }) (*Blog, error) {
	var (
		b                   Blog
		profileImage        sql.NullString
		firstName, lastName sql.NullString
		avatar              sql.NullString
		image               sql.NullString
	)

	err := row.Scan(
		&b.ID, &b.Title, &b.Content, pq.Array(&b.Tags), &image, &b.AuthorID, &b.CreatedAt, &b.UpdatedAt, &b.OrderID,
		&b.CommentCount,
		&b.Author.ID, &b.Author.Email, &b.Author.Name, &profileImage,
		&firstName, &lastName, &avatar,
	)
	if err != nil {
		return nil, err
	}

	if b.Tags == nil {
		b.Tags = []string{}
	}
	if image.Valid {
		b.Image = &image.String
	}
	if profileImage.Valid {
		b.Author.ProfileImage = &profileImage.String
	}
	if avatar.Valid {
		b.Author.Avatar = &avatar.String
	}
	if firstName.Valid && lastName.Valid {
		b.Author.Name = firstName.String + " " + lastName.String
	}

	return &b, nil
}

func (m *BlogModel) insert(ctx context.Context, title, content string, tags []string, image *string, authorID int) (*Blog, error) {
	query := `
		INSERT INTO blogs (title, content, tags, image, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, title, content, tags, image, author_id, created_at, updated_at, order_id`

	var (
		b        Blog
		imageCol sql.NullString
	)

	err := m.db.QueryRowContext(ctx, query, title, content, pq.Array(tags), image, authorID).
		Scan(&b.ID, &b.Title, &b.Content, pq.Array(&b.Tags), &imageCol, &b.AuthorID, &b.CreatedAt, &b.UpdatedAt, &b.OrderID)
	if err != nil {
		switch {
		case ForeignKeyError(err, "blogs_author_id_fkey"):
			return nil, ErrUserForeignKey
		default:
			return nil, err
		}
	}

	if b.Tags == nil {
		b.Tags = []string{}
	}
	if imageCol.Valid {
		b.Image = &imageCol.String
	}

	return &b, nil
}

func (m *BlogModel) getBlogByID(ctx context.Context, id int) (*Blog, error) {
	query := `SELECT` + blogColumns + blogJoins + `
	WHERE b.id = $1`

	blog, err := scanBlog(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return blog, nil
}

// listFilter is shared between the page query and the count query so both see
// the same rows. Empty or zero parameters disable the corresponding filter.
const listFilter = `
	($1 = '' OR b.tags @> ARRAY[$1]::text[])
	AND ($2 = '' OR b.title ILIKE '%' || $2 || '%' OR b.content ILIKE '%' || $2 || '%')
	AND ($3 = 0 OR b.author_id = $3)`

func (m *BlogModel) getBlogs(ctx context.Context, p ListBlogsParams) ([]Blog, error) {
	query := `SELECT` + blogColumns + blogJoins + `
	WHERE` + listFilter + `
	ORDER BY b.created_at DESC, b.id DESC
	LIMIT $4 OFFSET $5`

	offset := (p.Page - 1) * p.Limit

	rows, err := m.db.QueryContext(ctx, query, p.Tag, p.Search, p.Author, p.Limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, *blog)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}

func (m *BlogModel) countBlogs(ctx context.Context, p ListBlogsParams) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM blogs b
		WHERE` + listFilter

	var total int
	err := m.db.QueryRowContext(ctx, query, p.Tag, p.Search, p.Author).Scan(&total)
	return total, err
}

func (m *BlogModel) updateBlog(ctx context.Context, id int, title, content string, tags []string, image *string) (*Blog, error) {
	query := `
		UPDATE blogs
		SET title = $1, content = $2, tags = $3, image = $4, updated_at = now()
		WHERE id = $5
		RETURNING id, title, content, tags, image, author_id, created_at, updated_at, order_id`

	var (
		b        Blog
		imageCol sql.NullString
	)

	err := m.db.QueryRowContext(ctx, query, title, content, pq.Array(tags), image, id).
		Scan(&b.ID, &b.Title, &b.Content, pq.Array(&b.Tags), &imageCol, &b.AuthorID, &b.CreatedAt, &b.UpdatedAt, &b.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	if b.Tags == nil {
		b.Tags = []string{}
	}
	if imageCol.Valid {
		b.Image = &imageCol.String
	}

	return &b, nil
}

func (m *BlogModel) deleteBlog(ctx context.Context, id int) error {
	query := `
		DELETE FROM blogs
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
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
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

func (m *BlogModel) blogExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM blogs WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

// existingIDs returns which of the given ids resolve to posts, for whole-batch
// validation before any reorder write is issued.
func (m *BlogModel) existingIDs(ctx context.Context, ids []int) (map[int]bool, error) {
	query := `
		SELECT id
		FROM blogs
		WHERE id = ANY($1)`

	rows, err := m.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[int]bool, len(ids))
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}

	return found, rows.Err()
}

func (m *BlogModel) updateOrder(ctx context.Context, id, orderID int) error {
	res, err := m.db.ExecContext(ctx, "UPDATE blogs SET order_id = $1 WHERE id = $2", orderID, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// getBlogsInOrder reads the full ordered list. Ties on order_id are broken by
// id ascending so the listing stays deterministic.
func (m *BlogModel) getBlogsInOrder(ctx context.Context) ([]OrderedBlog, error) {
	query := `
		SELECT id, title, order_id
		FROM blogs
		ORDER BY order_id ASC, id ASC`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []OrderedBlog{}
	for rows.Next() {
		var b OrderedBlog
		if err := rows.Scan(&b.ID, &b.Title, &b.OrderID); err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}

	return blogs, rows.Err()
}

func (m *BlogModel) countAll(ctx context.Context, table string) (int, error) {
	var total int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&total)
	return total, err
}

func (m *BlogModel) getRecentBlogs(ctx context.Context, limit int) ([]Blog, error) {
	query := `SELECT` + blogColumns + blogJoins + `
	ORDER BY b.created_at DESC, b.id DESC
	LIMIT $1`

	rows, err := m.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, *blog)
	}

	return blogs, rows.Err()
}

func (m *BlogModel) getAllTags(ctx context.Context) ([][]string, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT tags FROM blogs")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all [][]string
	for rows.Next() {
		var tags []string
		if err := rows.Scan(pq.Array(&tags)); err != nil {
			return nil, err
		}
		all = append(all, tags)
	}

	return all, rows.Err()
}
