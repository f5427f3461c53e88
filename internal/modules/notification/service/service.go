package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anoa.com/devconnector/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TypeLike    = "like"
	TypeComment = "comment"
)

// ErrDisabled is returned by Subscribe when no redis client is configured.
var ErrDisabled = apperror.New(http.StatusServiceUnavailable, "Notifications are not available", apperror.ErrUnavailable)

type Actor struct {
	ID     uuid.UUID `json:"_id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

// Event is the payload delivered to a post author's channel.
type Event struct {
	Type   string    `json:"type"`
	PostID uuid.UUID `json:"post_id"`
	Actor  Actor     `json:"actor"`
	Text   string    `json:"text,omitempty"`
	Date   time.Time `json:"date"`
}

type NotificationService interface {
	// Notify publishes event to recipient. Events about the recipient's own
	// actions are dropped.
	Notify(ctx context.Context, recipient uuid.UUID, event Event) error
	Subscribe(ctx context.Context, userID uuid.UUID) (*redis.PubSub, error)
}

type notificationService struct {
	redisClient *redis.Client
}

func NewNotificationService(redisClient *redis.Client) NotificationService {
	return &notificationService{redisClient: redisClient}
}

func Channel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

func (s *notificationService) Notify(ctx context.Context, recipient uuid.UUID, event Event) error {
	if s.redisClient == nil || recipient == event.Actor.ID {
		return nil
	}
	if event.Date.IsZero() {
		event.Date = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := s.redisClient.Publish(ctx, Channel(recipient), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Subscribe opens a subscription to the user's channel and waits for redis to
// confirm it.
func (s *notificationService) Subscribe(ctx context.Context, userID uuid.UUID) (*redis.PubSub, error) {
	if s.redisClient == nil {
		return nil, ErrDisabled
	}

	pubsub := s.redisClient.Subscribe(ctx, Channel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to subscribe to %s: %w", Channel(userID), err)
	}
	return pubsub, nil
}
