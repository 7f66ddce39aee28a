package broadcast

import (
	"context"
	"net/http"
	"taskPlanner/internal/logger"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

const writeTimeout = 10 * time.Second

// TeamAuthorizer решает, может ли пользователь слушать комнату команды
type TeamAuthorizer interface {
	CanJoinTeam(ctx context.Context, userID, teamID string) (bool, error)
}

type CallerFunc func(ctx context.Context) (string, bool)

type clientMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type WSHandler struct {
	hub    *Hub
	auth   TeamAuthorizer
	caller CallerFunc
}

func NewWSHandler(hub *Hub, auth TeamAuthorizer, caller CallerFunc) *WSHandler {
	return &WSHandler{
		hub:    hub,
		auth:   auth,
		caller: caller,
	}
}

// ServeHTTP подписывает соединение на комнату пользователя.
// Клиент может присылать {"type":"join-team","room":"<teamId>"} и "leave-team".
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(r.Context())
	if !ok || userID == "" {
		logger.Warn("Broadcast: Подключение без пользователя", zap.String("client_ip", r.RemoteAddr))
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	server := websocket.Server{
		Handler: func(conn *websocket.Conn) {
			h.serve(r.Context(), conn, userID)
		},
	}
	server.ServeHTTP(w, r)
}

func (h *WSHandler) serve(parent context.Context, conn *websocket.Conn, userID string) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer conn.Close()

	sub := h.hub.Subscribe(UserRoom(userID))
	defer sub.Close()

	logger.Info("Broadcast: Подписчик подключён",
		zap.String("user_id", userID),
		zap.String("subscription_id", sub.ID))

	go func() {
		defer cancel()
		h.readLoop(ctx, conn, sub, userID)
	}()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := websocket.JSON.Send(conn, ev); err != nil {
				logger.Info("Broadcast: Подписчик отключился",
					zap.String("user_id", userID),
					zap.Error(err))
				return
			}
		case <-ctx.Done():
			logger.Info("Broadcast: Соединение закрыто", zap.String("user_id", userID))
			return
		}
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sub *Subscription, userID string) {
	for {
		var msg clientMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			return
		}

		switch msg.Type {
		case "join-team":
			if msg.Room == "" {
				continue
			}
			allowed, err := h.auth.CanJoinTeam(ctx, userID, msg.Room)
			if err != nil {
				logger.Warn("Broadcast: Ошибка проверки команды", zap.String("team_id", msg.Room), zap.Error(err))
				continue
			}
			if !allowed {
				logger.Warn("Broadcast: Отказано в подписке на команду",
					zap.String("user_id", userID),
					zap.String("team_id", msg.Room))
				continue
			}
			sub.Join(TeamRoom(msg.Room))
		case "leave-team":
			sub.Leave(TeamRoom(msg.Room))
		default:
			logger.Debug("Broadcast: Неизвестное сообщение клиента", zap.String("type", msg.Type))
		}
	}
}
