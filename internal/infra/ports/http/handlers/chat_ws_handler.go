package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/medlink/teleconsult/internal/application/config"
	"github.com/medlink/teleconsult/internal/application/constant"
	"github.com/medlink/teleconsult/internal/application/metric"
	"github.com/medlink/teleconsult/internal/domain/events"
	"github.com/medlink/teleconsult/internal/infra/adapters/memory"
	"github.com/medlink/teleconsult/internal/infra/appctx"
	"github.com/medlink/teleconsult/internal/usecase"
)

// ChatWebSocketHandler is the text relay socket, a separate namespace of
// rooms keyed by conversation id.
type ChatWebSocketHandler struct {
	upgrader *websocket.Upgrader

	chatUsecase usecase.ChatUsecase
	wsRepo      memory.WebsocketConnectionRepository
}

func NewChatWebSocketHandler(
	cfg *config.Config,
	chatUsecase usecase.ChatUsecase,
	wsRepo memory.WebsocketConnectionRepository,
) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{
		upgrader:    newUpgrader(cfg),
		chatUsecase: chatUsecase,
		wsRepo:      wsRepo,
	}
}

func (h *ChatWebSocketHandler) Handle(c echo.Context) error {
	userID, ok := appctx.UserID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid user"})
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("WebSocket upgrade error", slog.Any(constant.Error, err))
		return err
	}
	defer ws.Close()

	h.wsRepo.Add(userID, ws)
	metric.IncrementWSActiveConnections()

	defer func() {
		h.chatUsecase.HandleDisconnect(c.Request().Context(), userID)
		h.wsRepo.Remove(userID)
		metric.DecrementWSActiveConnections()
	}()

	if err := keepAlive(c, ws); err != nil {
		return err
	}

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		default:
			_, msg, err := ws.ReadMessage()
			if err != nil {
				return nil
			}

			chatMessage := new(events.Message)

			if err = json.Unmarshal(msg, chatMessage); err != nil {
				continue
			}

			if err = h.handleMessage(c.Request().Context(), userID, chatMessage); err != nil {
				slog.Error("handle chat message",
					slog.String("type", chatMessage.Type),
					slog.Any(constant.UserID, userID),
					slog.Any(constant.Error, err),
				)
			}
		}
	}
}

func (h *ChatWebSocketHandler) handleMessage(ctx context.Context, userID uuid.UUID, msg *events.Message) error {
	switch msg.Type {
	case events.TypeJoin:
		var join events.ChatJoinEvent
		if err := json.Unmarshal(msg.Data, &join); err != nil {
			return nil
		}
		return h.chatUsecase.HandleJoin(ctx, userID, join)

	case events.TypeChatMessage:
		var chatMsg events.ChatMessageEvent
		if err := json.Unmarshal(msg.Data, &chatMsg); err != nil {
			return nil
		}
		return h.chatUsecase.HandleMessage(ctx, userID, chatMsg)

	case events.TypeLeave:
		var leave events.ChatJoinEvent
		if err := json.Unmarshal(msg.Data, &leave); err != nil {
			return nil
		}
		return h.chatUsecase.HandleLeave(ctx, userID, leave.ConversationID)

	default:
		return nil
	}
}
