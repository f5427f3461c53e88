package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"anoa.com/devconnector/internal/entity"
	notification "anoa.com/devconnector/internal/modules/notification/service"
	"anoa.com/devconnector/internal/modules/post/dto"
	postRepo "anoa.com/devconnector/internal/modules/post/repository"
	userRepo "anoa.com/devconnector/internal/modules/user/repository"
	"anoa.com/devconnector/internal/testutil"
	"anoa.com/devconnector/pkg/apperror"
	"anoa.com/devconnector/pkg/ratelimiter"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubSearch struct {
	indexed []uuid.UUID
	deleted []uuid.UUID
	hits    []uuid.UUID
	bulk    int
}

func (s *stubSearch) IndexPost(post *entity.Post) error {
	s.indexed = append(s.indexed, post.ID)
	return nil
}

func (s *stubSearch) IndexPosts(posts []*entity.Post) error {
	s.bulk += len(posts)
	return nil
}

func (s *stubSearch) DeletePost(id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubSearch) SearchPostIDs(query string, limit int64) ([]uuid.UUID, error) {
	return s.hits, nil
}

type fixture struct {
	svc    PostService
	db     *gorm.DB
	search *stubSearch
}

func setup(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	search := &stubSearch{}
	svc := NewPostService(postRepo.NewPostRepository(db), userRepo.NewUserRepository(db), nil, nil, search, RateLimits{})
	return &fixture{svc: svc, db: db, search: search}
}

func requireAppError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperror.MapErrorToStatus(err))
	assert.EqualError(t, err, msg)
}

func TestCreateAndGet(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ann := testutil.CreateUser(t, f.db, "Ann")

	p, err := f.svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Text)
	assert.Equal(t, "Ann", p.Name)
	assert.Equal(t, ann.Avatar, p.Avatar)
	assert.Equal(t, ann.ID, p.UserID)
	assert.NotNil(t, p.Likes)
	assert.NotNil(t, p.Comments)
	assert.Equal(t, []uuid.UUID{p.ID}, f.search.indexed)

	got, err := f.svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Empty(t, got.Likes)

	_, err = f.svc.GetByID(ctx, uuid.New())
	requireAppError(t, err, http.StatusNotFound, "Post not found")
}

func TestCreate_UnknownAuthor(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), uuid.New(), dto.CreatePostRequest{Text: "hello"})
	require.ErrorIs(t, err, apperror.ErrInternal)
	assert.Equal(t, http.StatusInternalServerError, apperror.MapErrorToStatus(err))
}

func TestList_NewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ann := testutil.CreateUser(t, f.db, "Ann")

	first, err := f.svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "first"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := f.svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "second"})
	require.NoError(t, err)

	posts, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)
}

func TestLikeUnlike(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ann := testutil.CreateUser(t, f.db, "Ann")
	bob := testutil.CreateUser(t, f.db, "Bob")

	p, err := f.svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "hello"})
	require.NoError(t, err)

	likes, err := f.svc.Like(ctx, p.ID, ann.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, ann.ID, likes[0].User)

	_, err = f.svc.Like(ctx, p.ID, ann.ID)
	requireAppError(t, err, http.StatusBadRequest, "Post already liked")

	likes, err = f.svc.Like(ctx, p.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, likes, 2)
	assert.Equal(t, bob.ID, likes[0].User, "newest first")

	_, err = f.svc.Unlike(ctx, p.ID, uuid.New())
	requireAppError(t, err, http.StatusBadRequest, "Post has not yet been liked")

	likes, err = f.svc.Unlike(ctx, p.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, ann.ID, likes[0].User)

	stored, err := f.svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, likes, stored.Likes)

	_, err = f.svc.Like(ctx, uuid.New(), ann.ID)
	requireAppError(t, err, http.StatusNotFound, "Post not found")
}

func TestLikeThenUnlikeRestoresList(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ann := testutil.CreateUser(t, f.db, "Ann")
	bob := testutil.CreateUser(t, f.db, "Bob")

	p, err := f.svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "hello"})
	require.NoError(t, err)
	before, err := f.svc.Like(ctx, p.ID, ann.ID)
	require.NoError(t, err)

	_, err = f.svc.Like(ctx, p.ID, bob.ID)
	require.NoError(t, err)
	after, err := f.svc.Unlike(ctx, p.ID, bob.ID)
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestComments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ann := testutil.CreateUser(t, f.db, "Ann")
	bob := testutil.CreateUser(t, f.db, "Bob")

	p, err := f.svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "hello"})
	require.NoError(t, err)

	_, err = f.svc.AddComment(ctx, uuid.New(), bob.ID, dto.CommentRequest{Text: "hi"})
	requireAppError(t, err, http.StatusNotFound, "Post not found")

	comments, err := f.svc.AddComment(ctx, p.ID, bob.ID, dto.CommentRequest{Text: "first!"})
	require.NoError(t, err)
	comments, err = f.svc.AddComment(ctx, p.ID, ann.ID, dto.CommentRequest{Text: "thanks"})
	require.NoError(t, err)

	require.Len(t, comments, 2)
	assert.Equal(t, "thanks", comments[0].Text)
	assert.Equal(t, "Ann", comments[0].Name)
	assert.Equal(t, "first!", comments[1].Text)
	assert.Equal(t, "Bob", comments[1].Name)
	assert.Equal(t, bob.Avatar, comments[1].Avatar)

	bobComment := comments[1].ID

	_, err = f.svc.RemoveComment(ctx, p.ID, uuid.New(), bob.ID)
	requireAppError(t, err, http.StatusNotFound, "Comment does not exist")

	_, err = f.svc.RemoveComment(ctx, p.ID, bobComment, ann.ID)
	requireAppError(t, err, http.StatusUnauthorized, "User not authorized")

	comments, err = f.svc.RemoveComment(ctx, p.ID, bobComment, bob.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "thanks", comments[0].Text)

	stored, err := f.svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Comments, 1)
}

func TestDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ann := testutil.CreateUser(t, f.db, "Ann")
	bob := testutil.CreateUser(t, f.db, "Bob")

	p, err := f.svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "hello"})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, p.ID, bob.ID)
	requireAppError(t, err, http.StatusUnauthorized, "User not authorized")

	require.NoError(t, f.svc.Delete(ctx, p.ID, ann.ID))
	assert.Equal(t, []uuid.UUID{p.ID}, f.search.deleted)

	_, err = f.svc.GetByID(ctx, p.ID)
	requireAppError(t, err, http.StatusNotFound, "Post not found")

	err = f.svc.Delete(ctx, p.ID, ann.ID)
	requireAppError(t, err, http.StatusNotFound, "Post not found")
}

func TestSearch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ann := testutil.CreateUser(t, f.db, "Ann")

	a, err := f.svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "golang tips"})
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "more golang"})
	require.NoError(t, err)

	f.search.hits = []uuid.UUID{b.ID, uuid.New(), a.ID}
	posts, err := f.svc.Search(ctx, dto.SearchQuery{Q: "golang"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, b.ID, posts[0].ID)
	assert.Equal(t, a.ID, posts[1].ID)

	posts, err = f.svc.Search(ctx, dto.SearchQuery{Q: "   "})
	require.NoError(t, err)
	assert.Empty(t, posts)

	n, err := f.svc.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, f.search.bulk)
}

func TestSearch_NotConfigured(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostService(postRepo.NewPostRepository(db), userRepo.NewUserRepository(db), nil, nil, nil, RateLimits{})

	_, err := svc.Search(context.Background(), dto.SearchQuery{Q: "x"})
	requireAppError(t, err, http.StatusServiceUnavailable, "Search is not available")

	_, err = svc.Reindex(context.Background())
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
}

func TestRateLimits(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db := testutil.NewDB(t)
	svc := NewPostService(postRepo.NewPostRepository(db), userRepo.NewUserRepository(db), rdb, nil, nil,
		RateLimits{Post: 5 * time.Second, Comment: 2 * time.Second})
	ctx := context.Background()
	ann := testutil.CreateUser(t, db, "Ann")

	p, err := svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "one"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "two"})
	var rateErr *ratelimiter.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, http.StatusTooManyRequests, apperror.MapErrorToStatus(err))
	assert.Greater(t, rateErr.RetryAfter, time.Duration(0))

	_, err = svc.AddComment(ctx, p.ID, ann.ID, dto.CommentRequest{Text: "c1"})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, p.ID, ann.ID, dto.CommentRequest{Text: "c2"})
	require.ErrorAs(t, err, &rateErr)

	mr.FastForward(6 * time.Second)
	_, err = svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "three"})
	require.NoError(t, err)

	t.Run("failed create releases the cooldown", func(t *testing.T) {
		ghost := uuid.New()
		_, err := svc.Create(ctx, ghost, dto.CreatePostRequest{Text: "x"})
		require.ErrorIs(t, err, apperror.ErrInternal)
		assert.False(t, mr.Exists("rate_limit:user:"+ghost.String()+":post"))
	})
}

func TestNotifications(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db := testutil.NewDB(t)
	notifier := notification.NewNotificationService(rdb)
	svc := NewPostService(postRepo.NewPostRepository(db), userRepo.NewUserRepository(db), nil, notifier, nil, RateLimits{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ann := testutil.CreateUser(t, db, "Ann")
	bob := testutil.CreateUser(t, db, "Bob")

	pubsub, err := notifier.Subscribe(ctx, ann.ID)
	require.NoError(t, err)
	defer pubsub.Close()

	p, err := svc.Create(ctx, ann.ID, dto.CreatePostRequest{Text: "hello"})
	require.NoError(t, err)

	_, err = svc.Like(ctx, p.ID, ann.ID)
	require.NoError(t, err)
	_, err = svc.Like(ctx, p.ID, bob.ID)
	require.NoError(t, err)

	msg, err := pubsub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg.Payload, `"type":"like"`)
	assert.Contains(t, msg.Payload, `"name":"Bob"`, "self-likes are not announced")
}
