package handler

import (
	"log/slog"
	"net/http"

	notification "anoa.com/devconnector/internal/modules/notification/service"
	"anoa.com/devconnector/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type NotificationHandler struct {
	service  notification.NotificationService
	upgrader websocket.Upgrader
}

func NewNotificationHandler(service notification.NotificationService, allowedOrigins []string) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker accepts requests without an Origin header and those from an
// allowed origin. An empty list allows everything.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// HandleWebSocket relays the caller's notification channel until either side
// closes.
func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	pubsub, err := h.service.Subscribe(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer pubsub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("failed to upgrade websocket", "user_id", userID, "err", err)
		return
	}
	defer conn.Close()

	ch := pubsub.Channel()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				slog.Debug("failed to write websocket message", "user_id", userID, "err", err)
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}
