package blogservice

import (
	"database/sql"
	"encoding/json"
	"math"
	"time"

	"github.com/MishraShardendu22/blog-backend/internal/common"
)

type BlogService struct {
	m *BlogModel
	c common.Cache
}

type BlogModel struct {
	db *sql.DB
}

// Author is the post author as embedded in list/detail/stats views. Name
// prefers the profile first/last name pair over the account name.
type Author struct {
	ID           int     `json:"id"`
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	Avatar       *string `json:"avatar"`
	ProfileImage *string `json:"profileImage"`
}

// Blog is a single post with its author and comment count.
type Blog struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags"`
	Image        *string   `json:"image"`
	AuthorID     int       `json:"authorId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	OrderID      int       `json:"orderId"`
	CommentCount int       `json:"comments"`
	Author       Author    `json:"author"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func newPagination(page, limit, total int) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// BlogList is the assembled list response, cached as one unit so a hit
// returns an exact serialization of a prior response.
type BlogList struct {
	Blogs      []Blog     `json:"blogs"`
	Pagination Pagination `json:"pagination"`
}

type ListBlogsParams struct {
	Page   int
	Limit  int
	Tag    string
	Author int
	Search string
}

type Comment struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	UserID    int       `json:"userId"`
	BlogID    int       `json:"blogId"`
	CreatedAt time.Time `json:"createdAt"`
	User      Author    `json:"user"`
}

type CommentList struct {
	Comments   []Comment  `json:"comments"`
	Pagination Pagination `json:"pagination"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Stats is the aggregate dashboard payload, cached under a single fixed key.
type Stats struct {
	TotalPosts    int        `json:"totalPosts"`
	TotalComments int        `json:"totalComments"`
	RecentPosts   []Blog     `json:"recentPosts"`
	PopularTags   []TagCount `json:"popularTags"`
}

// OrderedBlog is the projection returned by the ascending-order read.
type OrderedBlog struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	OrderID int    `json:"orderId"`
}

type ReorderPair struct {
	ID       int `json:"id"`
	NewOrder int `json:"newOrder"`
}

type ReorderFailure struct {
	ID    int    `json:"id"`
	Error string `json:"error"`
}

// ReorderResult reports partial failure: updates that did not land are listed,
// nothing is rolled back.
type ReorderResult struct {
	Requested int              `json:"requested"`
	Applied   int              `json:"applied"`
	Failures  []ReorderFailure `json:"failures,omitempty"`
}

type CreateBlogRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Image   string   `json:"image"`
}

// OptionalString distinguishes an absent JSON field from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// UpdateBlogRequest applies only the fields present in the request body.
// Image is tri-state: absent keeps the stored value, null clears it.
type UpdateBlogRequest struct {
	Title   *string        `json:"title"`
	Content *string        `json:"content"`
	Tags    *[]string      `json:"tags"`
	Image   OptionalString `json:"image"`
}
