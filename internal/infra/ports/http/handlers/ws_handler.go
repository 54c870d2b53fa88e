package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

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

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// WebSocketHandler is the call relay socket. One connection is one
// participant; identity comes from the JWT middleware, never the frames.
type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	signalingUsecase usecase.SignalingUsecase
	wsRepo           memory.WebsocketConnectionRepository
}

func NewWebSocketHandler(
	cfg *config.Config,
	signalingUsecase usecase.SignalingUsecase,
	wsRepo memory.WebsocketConnectionRepository,
) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader:         newUpgrader(cfg),
		signalingUsecase: signalingUsecase,
		wsRepo:           wsRepo,
	}
}

func newUpgrader(cfg *config.Config) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if cfg.Debug {
				return true
			}

			return r.Header.Get("Origin") == cfg.Domain
		},
	}
}

func (h *WebSocketHandler) Handle(c echo.Context) error {
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

	// Cleanup is unconditional: it runs whether the socket closed cleanly,
	// errored, or the request context was cancelled.
	defer func() {
		h.signalingUsecase.HandleDisconnect(c.Request().Context(), userID)
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

			signalMessage := new(events.Message)

			if err = json.Unmarshal(msg, signalMessage); err != nil {
				h.sendMalformed(userID, "invalid message envelope")
				continue
			}

			if err = h.handleMessage(c.Request().Context(), userID, signalMessage); err != nil {
				slog.Error("handle message",
					slog.String("type", signalMessage.Type),
					slog.Any(constant.UserID, userID),
					slog.Any(constant.Error, err),
				)
			}
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, userID uuid.UUID, msg *events.Message) error {
	switch msg.Type {
	case events.TypeJoin:
		var join events.JoinEvent
		if err := json.Unmarshal(msg.Data, &join); err != nil {
			h.sendMalformed(userID, "invalid join payload")
			return nil
		}
		return h.signalingUsecase.HandleJoin(ctx, userID, join)

	case events.TypeOffer:
		var offer events.SdpEvent
		if err := json.Unmarshal(msg.Data, &offer); err != nil {
			h.sendMalformed(userID, "invalid offer payload")
			return nil
		}
		return h.signalingUsecase.HandleOffer(ctx, userID, offer)

	case events.TypeAnswer:
		var answer events.SdpEvent
		if err := json.Unmarshal(msg.Data, &answer); err != nil {
			h.sendMalformed(userID, "invalid answer payload")
			return nil
		}
		return h.signalingUsecase.HandleAnswer(ctx, userID, answer)

	case events.TypeIceCandidate:
		var candidate events.IceCandidateEvent
		if err := json.Unmarshal(msg.Data, &candidate); err != nil {
			h.sendMalformed(userID, "invalid ice candidate payload")
			return nil
		}
		return h.signalingUsecase.HandleCandidate(ctx, userID, candidate)

	case events.TypeLeave:
		var leave events.LeaveEvent
		if err := json.Unmarshal(msg.Data, &leave); err != nil {
			h.sendMalformed(userID, "invalid leave payload")
			return nil
		}
		return h.signalingUsecase.HandleLeave(ctx, userID, leave)

	default:
		h.sendMalformed(userID, fmt.Sprintf("unknown message type %q", msg.Type))
		return nil
	}
}

func (h *WebSocketHandler) sendMalformed(userID uuid.UUID, message string) {
	data, err := json.Marshal(events.ErrorEvent{Reason: events.ReasonMalformedSignal, Message: message})
	if err != nil {
		return
	}

	h.wsRepo.Write(userID, events.Message{Type: events.TypeError, Data: data})
}

// keepAlive installs the ping/pong deadlines shared by both relay sockets.
func keepAlive(c echo.Context, ws *websocket.Conn) error {
	if err := ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}

	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-c.Request().Context().Done():
				return
			}
		}
	}()

	return nil
}
