package service

import (
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"anoa.com/devconnector/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const (
	PostsIndex = "posts"

	// ReindexBatchSize bounds the documents sent in one request.
	ReindexBatchSize = 500
)

type SearchService interface {
	IndexPost(post *entity.Post) error
	IndexPosts(posts []*entity.Post) error
	DeletePost(id uuid.UUID) error
	SearchPostIDs(query string, limit int64) ([]uuid.UUID, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) SearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"user"}
	if _, err := s.client.Index(PostsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		slog.Warn("failed to update posts filterable attributes", "err", err)
	}

	sortable := []string{"date"}
	if _, err := s.client.Index(PostsIndex).UpdateSortableAttributes(&sortable); err != nil {
		slog.Warn("failed to update posts sortable attributes", "err", err)
	}
}

type meiliPostDoc struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Name string `json:"name"`
	User string `json:"user"`
	Date int64  `json:"date"`
}

func (s *meiliSearchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	cleanText := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) toDoc(post *entity.Post) meiliPostDoc {
	return meiliPostDoc{
		ID:   post.ID.String(),
		Text: s.cleanContentForIndex(post.Text),
		Name: post.Name,
		User: post.UserID.String(),
		Date: post.Date.Unix(),
	}
}

func (s *meiliSearchService) IndexPost(post *entity.Post) error {
	task, err := s.client.Index(PostsIndex).AddDocuments([]meiliPostDoc{s.toDoc(post)}, strPtr("id"))
	if err != nil {
		return fmt.Errorf("failed to index post %s: %w", post.ID, err)
	}
	slog.Debug("indexed post", "post_id", post.ID, "task_uid", task.TaskUID)
	return nil
}

// IndexPosts pushes posts in batches of ReindexBatchSize.
func (s *meiliSearchService) IndexPosts(posts []*entity.Post) error {
	for start := 0; start < len(posts); start += ReindexBatchSize {
		end := min(start+ReindexBatchSize, len(posts))

		docs := make([]meiliPostDoc, 0, end-start)
		for _, p := range posts[start:end] {
			docs = append(docs, s.toDoc(p))
		}

		if _, err := s.client.Index(PostsIndex).AddDocuments(docs, strPtr("id")); err != nil {
			return fmt.Errorf("failed to index posts batch at %d: %w", start, err)
		}
	}
	return nil
}

func (s *meiliSearchService) DeletePost(id uuid.UUID) error {
	if _, err := s.client.Index(PostsIndex).DeleteDocument(id.String()); err != nil {
		return fmt.Errorf("failed to delete post %s from index: %w", id, err)
	}
	return nil
}

// SearchPostIDs returns the ids of matching posts in relevance order.
func (s *meiliSearchService) SearchPostIDs(query string, limit int64) ([]uuid.UUID, error) {
	raw, err := s.client.Index(PostsIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Limit:                limit,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	var res struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &res); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
