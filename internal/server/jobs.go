package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"anoa.com/devconnector/internal/config"
	postService "anoa.com/devconnector/internal/modules/post/service"
	"github.com/robfig/cron/v3"
)

const reindexTimeout = 5 * time.Minute

// newScheduler registers the background jobs. The search reindex job is only
// added when search is configured.
func newScheduler(cfg *config.Config, posts postService.PostService, searchEnabled bool) (*cron.Cron, error) {
	c := cron.New()

	if searchEnabled && cfg.SearchReindexSchedule != "" {
		_, err := c.AddFunc(cfg.SearchReindexSchedule, func() {
			reindexPosts(context.Background(), posts)
		})
		if err != nil {
			return nil, fmt.Errorf("invalid SEARCH_REINDEX_SCHEDULE %q: %w", cfg.SearchReindexSchedule, err)
		}
	}

	return c, nil
}

func reindexPosts(ctx context.Context, posts postService.PostService) {
	ctx, cancel := context.WithTimeout(ctx, reindexTimeout)
	defer cancel()

	start := time.Now()
	n, err := posts.Reindex(ctx)
	if err != nil {
		slog.Error("search reindex failed", "err", err)
		return
	}
	slog.Info("search reindex completed", "posts", n, "took", time.Since(start))
}
