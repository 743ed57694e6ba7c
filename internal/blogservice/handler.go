package blogservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MishraShardendu22/blog-backend/internal/common"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	recentPostCount = 5
	popularTagCount = 10
)

func NewBlogService(db *sql.DB, cache common.Cache) *BlogService {
	return &BlogService{m: newBlogModel(db), c: cache}
}

func normalizeListParams(p *ListBlogsParams) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
}

// ListBlogs serves the paginated, filtered list view. The assembled response
// is cached as one unit; the page and count queries are independent reads
// issued as a batch and joined before assembly.
func (s *BlogService) ListBlogs(ctx context.Context, p ListBlogsParams) (*BlogList, error) {
	normalizeListParams(&p)

	key := common.CacheKeyBlogList(p.Page, p.Limit, p.Tag, itoaOrEmpty(p.Author), p.Search)
	if data, ok := s.c.Get(ctx, key); ok {
		var list BlogList
		if err := json.Unmarshal(data, &list); err == nil {
			return &list, nil
		}
	}

	var (
		blogs []Blog
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		blogs, err = s.m.getBlogs(gctx, p)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.m.countBlogs(gctx, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	list := &BlogList{
		Blogs:      blogs,
		Pagination: newPagination(p.Page, p.Limit, total),
	}

	s.cacheSet(ctx, key, list, common.BlogListTTL)

	return list, nil
}

// GetBlog returns a single post with author and comment count.
func (s *BlogService) GetBlog(ctx context.Context, id int) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.CacheKeyBlog(id)
	if data, ok := s.c.Get(ctx, key); ok {
		var blog Blog
		if err := json.Unmarshal(data, &blog); err == nil {
			return &blog, nil
		}
	}

	blog, err := s.m.getBlogByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, blog, common.BlogDetailTTL)

	return blog, nil
}

// CreateBlog validates and inserts a post, then invalidates every cache entry
// the new row could have changed. Invalidation runs only after the store
// write succeeds, and its failure never fails the mutation.
func (s *BlogService) CreateBlog(ctx context.Context, req *CreateBlogRequest, authorID int) (*Blog, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateImageURL(v, req.Image)
	validateInt(v, authorID, "author_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	blog, err := s.m.insert(ctx, req.Title, sanitizeContent(req.Content), tags, &req.Image, authorID)
	if err != nil {
		return nil, err
	}

	s.c.DeletePattern(ctx, common.CacheKeyBlogListPattern())
	s.c.Delete(ctx, common.CacheKeyStats())

	return blog, nil
}

// UpdateBlog applies only the fields present in the request, falling back to
// the stored values for the rest. The image field is tri-state: absent keeps
// the old value, explicit null clears it.
func (s *BlogService) UpdateBlog(ctx context.Context, id int, req *UpdateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	existing, err := s.m.getBlogByID(ctx, id)
	if err != nil {
		return nil, err
	}

	title := existing.Title
	if req.Title != nil {
		title = *req.Title
	}

	content := existing.Content
	if req.Content != nil {
		content = sanitizeContent(*req.Content)
	}

	tags := existing.Tags
	if req.Tags != nil {
		tags = *req.Tags
	}

	image := existing.Image
	if req.Image.Set {
		image = req.Image.Value
	}

	validateTitle(v, title)
	validateContent(v, content)
	if image != nil {
		validateImageURL(v, *image)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog, err := s.m.updateBlog(ctx, id, title, content, tags, image)
	if err != nil {
		return nil, err
	}

	s.invalidateBlog(ctx, id)

	return blog, nil
}

func (s *BlogService) DeleteBlog(ctx context.Context, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	if err := s.m.deleteBlog(ctx, id); err != nil {
		return err
	}

	s.invalidateBlog(ctx, id)
	s.c.DeletePattern(ctx, common.CacheKeyCommentsPattern(id))

	return nil
}

// Stats assembles the dashboard payload from four independent reads fanned
// out concurrently. They are read-only and side-effect-free relative to each
// other, so no ordering between them is required.
func (s *BlogService) Stats(ctx context.Context) (*Stats, error) {
	key := common.CacheKeyStats()
	if data, ok := s.c.Get(ctx, key); ok {
		var stats Stats
		if err := json.Unmarshal(data, &stats); err == nil {
			return &stats, nil
		}
	}

	var (
		totalPosts    int
		totalComments int
		recent        []Blog
		allTags       [][]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totalPosts, err = s.m.countAll(gctx, "blogs")
		return err
	})
	g.Go(func() error {
		var err error
		totalComments, err = s.m.countAll(gctx, "comments")
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.m.getRecentBlogs(gctx, recentPostCount)
		return err
	})
	g.Go(func() error {
		var err error
		allTags, err = s.m.getAllTags(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalPosts:    totalPosts,
		TotalComments: totalComments,
		RecentPosts:   recent,
		PopularTags:   popularTags(allTags, popularTagCount),
	}

	s.cacheSet(ctx, key, stats, common.BlogDetailTTL)

	return stats, nil
}

// popularTags counts tag occurrences across all posts and returns the top n,
// sorted by count descending with tag name as the deterministic tie-break.
func popularTags(all [][]string, n int) []TagCount {
	counts := make(map[string]int)
	for _, tags := range all {
		for _, tag := range tags {
			counts[tag]++
		}
	}

	result := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, TagCount{Tag: tag, Count: count})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})

	if len(result) > n {
		result = result[:n]
	}

	return result
}

// BlogsInOrder reads the full ordered list directly from the store, ungated
// by cache, so a reorder is visible on the next read.
func (s *BlogService) BlogsInOrder(ctx context.Context) ([]OrderedBlog, error) {
	return s.m.getBlogsInOrder(ctx)
}

// Reorder validates the whole batch before any write: an empty batch, a
// malformed pair, or an id that does not resolve to a post rejects the batch
// with nothing applied. Valid batches update disjoint rows concurrently; the
// operation is deliberately not wrapped in a transaction, so some updates can
// land while others fail. Failures are reported per id, not rolled back.
func (s *BlogService) Reorder(ctx context.Context, pairs []ReorderPair) (*ReorderResult, error) {
	v := common.NewValidator()
	v.Check(len(pairs) > 0, "data", "must not be empty")
	for _, p := range pairs {
		validateInt(v, p.ID, "id")
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	ids := make([]int, 0, len(pairs))
	for _, p := range pairs {
		ids = append(ids, p.ID)
	}

	found, err := s.m.existingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		if !found[p.ID] {
			return nil, ErrRecordNotFound
		}
	}

	var (
		mu       sync.Mutex
		failures []ReorderFailure
		wg       sync.WaitGroup
	)

	for _, p := range pairs {
		wg.Add(1)
		go func(p ReorderPair) {
			defer wg.Done()
			if err := s.m.updateOrder(ctx, p.ID, p.NewOrder); err != nil {
				mu.Lock()
				failures = append(failures, ReorderFailure{ID: p.ID, Error: err.Error()})
				mu.Unlock()
			}
		}(p)
	}
	wg.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].ID < failures[j].ID })

	return &ReorderResult{
		Requested: len(pairs),
		Applied:   len(pairs) - len(failures),
		Failures:  failures,
	}, nil
}

// ListComments serves the paginated comment view for a post, newest first.
func (s *BlogService) ListComments(ctx context.Context, blogID, page, limit int) (*CommentList, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	key := common.CacheKeyComments(blogID, page, limit)
	if data, ok := s.c.Get(ctx, key); ok {
		var list CommentList
		if err := json.Unmarshal(data, &list); err == nil {
			return &list, nil
		}
	}

	exists, err := s.m.blogExists(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRecordNotFound
	}

	var (
		comments []Comment
		total    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		comments, err = s.m.getComments(gctx, blogID, limit, (page-1)*limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.m.countComments(gctx, blogID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	list := &CommentList{
		Comments:   comments,
		Pagination: newPagination(page, limit, total),
	}

	s.cacheSet(ctx, key, list, common.BlogListTTL)

	return list, nil
}

// CreateComment inserts a comment and invalidates the comment pages, the post
// detail (embedded comment count), and the stats payload.
func (s *BlogService) CreateComment(ctx context.Context, blogID, userID int, content string) (*Comment, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "id")
	validateInt(v, userID, "user_id")
	validateCommentContent(v, content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	exists, err := s.m.blogExists(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRecordNotFound
	}

	inserted, err := s.m.insertComment(ctx, blogID, userID, content)
	if err != nil {
		return nil, err
	}

	s.invalidateComments(ctx, blogID)

	comment, err := s.m.getComment(ctx, blogID, inserted.ID)
	if err != nil {
		return inserted, nil
	}

	return comment, nil
}

// GetComment is used by the delete path to authorize the caller before the
// write is issued.
func (s *BlogService) GetComment(ctx context.Context, blogID, commentID int) (*Comment, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "id")
	validateInt(v, commentID, "comment_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	exists, err := s.m.blogExists(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRecordNotFound
	}

	return s.m.getComment(ctx, blogID, commentID)
}

func (s *BlogService) DeleteComment(ctx context.Context, blogID, commentID int) error {
	if err := s.m.deleteComment(ctx, commentID); err != nil {
		return err
	}

	s.invalidateComments(ctx, blogID)

	return nil
}

// invalidateBlog removes every cache entry a post mutation could have staled:
// the detail key, all list pages, and the stats payload.
func (s *BlogService) invalidateBlog(ctx context.Context, id int) {
	s.c.Delete(ctx, common.CacheKeyBlog(id), common.CacheKeyStats())
	s.c.DeletePattern(ctx, common.CacheKeyBlogListPattern())
}

func (s *BlogService) invalidateComments(ctx context.Context, blogID int) {
	s.c.Delete(ctx, common.CacheKeyBlog(blogID), common.CacheKeyStats())
	s.c.DeletePattern(ctx, common.CacheKeyCommentsPattern(blogID))
}

func (s *BlogService) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.c.Set(ctx, key, data, ttl)
}

func itoaOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
