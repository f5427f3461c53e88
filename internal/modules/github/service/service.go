package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"anoa.com/devconnector/pkg/apperror"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

var ErrNoGithubProfile = apperror.NotFound("No Github profile found")

type GithubService interface {
	// ListRepos returns the user's five oldest-created public repositories as
	// the raw GitHub JSON array.
	ListRepos(ctx context.Context, username string) (json.RawMessage, error)
}

type githubService struct {
	client   *http.Client
	baseURL  string
	redis    *redis.Client
	cacheTTL time.Duration
}

// NewGithubService builds the client. With a token, requests are authenticated
// through an oauth2 static token source; a nil redis client disables caching.
func NewGithubService(baseURL, token string, redisClient *redis.Client, cacheTTL time.Duration) GithubService {
	client := &http.Client{}
	if token != "" {
		client = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	client.Timeout = 10 * time.Second

	return &githubService{
		client:   client,
		baseURL:  baseURL,
		redis:    redisClient,
		cacheTTL: cacheTTL,
	}
}

func cacheKey(username string) string {
	return "github:repos:" + username
}

func (s *githubService) ListRepos(ctx context.Context, username string) (json.RawMessage, error) {
	if username == "" {
		return nil, ErrNoGithubProfile
	}

	if cached, ok := s.fromCache(ctx, username); ok {
		return cached, nil
	}

	endpoint := fmt.Sprintf("%s/users/%s/repos?per_page=5&sort=created&direction=asc", s.baseURL, url.PathEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build github request: %w", err)
	}
	req.Header.Set("User-Agent", "devconnector")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrNoGithubProfile
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read github response: %w", err)
	}
	if !json.Valid(body) {
		return nil, errors.New("github returned invalid JSON")
	}

	s.toCache(ctx, username, body)
	return json.RawMessage(body), nil
}

func (s *githubService) fromCache(ctx context.Context, username string) (json.RawMessage, bool) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	val, err := s.redis.Get(ctx, cacheKey(username)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("github cache read failed", "username", username, "err", err)
		}
		return nil, false
	}
	return json.RawMessage(val), true
}

func (s *githubService) toCache(ctx context.Context, username string, body []byte) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.redis.Set(ctx, cacheKey(username), body, s.cacheTTL).Err(); err != nil {
		slog.Warn("github cache write failed", "username", username, "err", err)
	}
}
