package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"anoa.com/devconnector/internal/entity"
	notification "anoa.com/devconnector/internal/modules/notification/service"
	"anoa.com/devconnector/internal/modules/post/dto"
	postRepo "anoa.com/devconnector/internal/modules/post/repository"
	search "anoa.com/devconnector/internal/modules/search/service"
	userRepo "anoa.com/devconnector/internal/modules/user/repository"
	"anoa.com/devconnector/pkg/apperror"
	"anoa.com/devconnector/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultSearchLimit = 20

var (
	ErrPostNotFound       = apperror.NotFound("Post not found")
	ErrCommentNotFound    = apperror.NotFound("Comment does not exist")
	ErrNotAuthorized      = apperror.Unauthorized("User not authorized")
	ErrAlreadyLiked       = apperror.BadRequest("Post already liked")
	ErrNotLiked           = apperror.BadRequest("Post has not yet been liked")
	ErrSearchNotAvailable = apperror.New(http.StatusServiceUnavailable, "Search is not available", apperror.ErrUnavailable)
)

// RateLimits are the per-user cooldowns between writes. Zero disables one.
type RateLimits struct {
	Post    time.Duration
	Comment time.Duration
}

type PostService interface {
	List(ctx context.Context) ([]*entity.Post, error)
	GetByID(ctx context.Context, postID uuid.UUID) (*entity.Post, error)
	Create(ctx context.Context, userID uuid.UUID, req dto.CreatePostRequest) (*entity.Post, error)
	Delete(ctx context.Context, postID, userID uuid.UUID) error
	Like(ctx context.Context, postID, userID uuid.UUID) (datatypes.JSONSlice[entity.Like], error)
	Unlike(ctx context.Context, postID, userID uuid.UUID) (datatypes.JSONSlice[entity.Like], error)
	AddComment(ctx context.Context, postID, userID uuid.UUID, req dto.CommentRequest) (datatypes.JSONSlice[entity.Comment], error)
	RemoveComment(ctx context.Context, postID, commentID, userID uuid.UUID) (datatypes.JSONSlice[entity.Comment], error)
	Search(ctx context.Context, query dto.SearchQuery) ([]*entity.Post, error)
	// Reindex pushes every post to the search index and returns how many
	// were sent.
	Reindex(ctx context.Context) (int, error)
}

type postService struct {
	postRepo            postRepo.PostRepository
	userRepo            userRepo.UserRepository
	redisClient         *redis.Client
	notificationService notification.NotificationService
	search              search.SearchService
	limits              RateLimits
}

// NewPostService wires the post use cases. redisClient, notificationService
// and searchService may be nil, which switches off rate limiting,
// notifications and search respectively.
func NewPostService(postRepo postRepo.PostRepository, userRepo userRepo.UserRepository, redisClient *redis.Client, notificationService notification.NotificationService, searchService search.SearchService, limits RateLimits) PostService {
	return &postService{
		postRepo:            postRepo,
		userRepo:            userRepo,
		redisClient:         redisClient,
		notificationService: notificationService,
		search:              searchService,
		limits:              limits,
	}
}

func (s *postService) List(ctx context.Context) ([]*entity.Post, error) {
	posts, err := s.postRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (s *postService) GetByID(ctx context.Context, postID uuid.UUID) (*entity.Post, error) {
	return s.find(ctx, postID)
}

func (s *postService) Create(ctx context.Context, userID uuid.UUID, req dto.CreatePostRequest) (*entity.Post, error) {
	if err := ratelimiter.Acquire(ctx, s.redisClient, userID, "post", s.limits.Post); err != nil {
		return nil, err
	}

	creationFailed := true
	defer func() {
		if creationFailed {
			_ = ratelimiter.ClearRateLimit(ctx, s.redisClient, userID, "post")
		}
	}()

	author, err := s.author(ctx, userID)
	if err != nil {
		return nil, err
	}

	post := &entity.Post{
		UserID: userID,
		Text:   req.Text,
		Name:   author.Name,
		Avatar: author.Avatar,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	creationFailed = false

	if s.search != nil {
		if err := s.search.IndexPost(post); err != nil {
			slog.Warn("failed to index post", "post_id", post.ID, "err", err)
		}
	}

	return post, nil
}

func (s *postService) Delete(ctx context.Context, postID, userID uuid.UUID) error {
	post, err := s.find(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return ErrNotAuthorized
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if s.search != nil {
		if err := s.search.DeletePost(postID); err != nil {
			slog.Warn("failed to remove post from index", "post_id", postID, "err", err)
		}
	}
	return nil
}

// Like adds the user's like. The already-liked check and the write are not
// atomic, so two concurrent likes by one user can both land.
func (s *postService) Like(ctx context.Context, postID, userID uuid.UUID) (datatypes.JSONSlice[entity.Like], error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.LikedBy(userID) {
		return nil, ErrAlreadyLiked
	}

	post.Likes = entity.Prepend(post.Likes, entity.Like{ID: uuid.New(), User: userID})
	if err := s.postRepo.UpdateLikes(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to save like: %w", err)
	}

	s.notify(ctx, post, userID, notification.TypeLike, "")
	return post.Likes, nil
}

func (s *postService) Unlike(ctx context.Context, postID, userID uuid.UUID) (datatypes.JSONSlice[entity.Like], error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, l := range post.Likes {
		if l.User == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotLiked
	}

	post.Likes, _ = entity.RemoveByID(post.Likes, post.Likes[idx].ID)
	if err := s.postRepo.UpdateLikes(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to remove like: %w", err)
	}
	return post.Likes, nil
}

func (s *postService) AddComment(ctx context.Context, postID, userID uuid.UUID, req dto.CommentRequest) (datatypes.JSONSlice[entity.Comment], error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := ratelimiter.Acquire(ctx, s.redisClient, userID, "comment", s.limits.Comment); err != nil {
		return nil, err
	}

	author, err := s.author(ctx, userID)
	if err != nil {
		_ = ratelimiter.ClearRateLimit(ctx, s.redisClient, userID, "comment")
		return nil, err
	}

	post.Comments = entity.Prepend(post.Comments, entity.Comment{
		ID:     uuid.New(),
		User:   userID,
		Text:   req.Text,
		Name:   author.Name,
		Avatar: author.Avatar,
		Date:   time.Now().UTC(),
	})
	if err := s.postRepo.UpdateComments(ctx, post); err != nil {
		_ = ratelimiter.ClearRateLimit(ctx, s.redisClient, userID, "comment")
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}

	s.notify(ctx, post, userID, notification.TypeComment, req.Text)
	return post.Comments, nil
}

func (s *postService) RemoveComment(ctx context.Context, postID, commentID, userID uuid.UUID) (datatypes.JSONSlice[entity.Comment], error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment, ok := entity.FindByID(post.Comments, commentID)
	if !ok {
		return nil, ErrCommentNotFound
	}
	if comment.User != userID {
		return nil, ErrNotAuthorized
	}

	post.Comments, _ = entity.RemoveByID(post.Comments, commentID)
	if err := s.postRepo.UpdateComments(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to remove comment: %w", err)
	}
	return post.Comments, nil
}

func (s *postService) Search(ctx context.Context, query dto.SearchQuery) ([]*entity.Post, error) {
	if s.search == nil {
		return nil, ErrSearchNotAvailable
	}

	q := strings.TrimSpace(query.Q)
	if q == "" {
		return []*entity.Post{}, nil
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ids, err := s.search.SearchPostIDs(q, limit)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load search hits: %w", err)
	}

	// Keep relevance order; hits deleted since indexing are skipped.
	byID := make(map[uuid.UUID]*entity.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]*entity.Post, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (s *postService) Reindex(ctx context.Context) (int, error) {
	if s.search == nil {
		return 0, ErrSearchNotAvailable
	}

	posts, err := s.postRepo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load posts: %w", err)
	}
	if err := s.search.IndexPosts(posts); err != nil {
		return 0, err
	}
	return len(posts), nil
}

func (s *postService) find(ctx context.Context, postID uuid.UUID) (*entity.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return post, nil
}

// author loads the acting user. A verified token whose user is gone is an
// internal inconsistency, not a client error.
func (s *postService) author(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("token subject %s has no user: %w", userID, apperror.ErrInternal)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *postService) notify(ctx context.Context, post *entity.Post, actorID uuid.UUID, kind, text string) {
	if s.notificationService == nil || post.UserID == actorID {
		return
	}

	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		slog.Warn("failed to load notification actor", "user_id", actorID, "err", err)
		return
	}

	err = s.notificationService.Notify(ctx, post.UserID, notification.Event{
		Type:   kind,
		PostID: post.ID,
		Actor:  notification.Actor{ID: actor.ID, Name: actor.Name, Avatar: actor.Avatar},
		Text:   text,
	})
	if err != nil {
		slog.Warn("failed to publish notification", "post_id", post.ID, "err", err)
	}
}
