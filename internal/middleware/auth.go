package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"taskPlanner/internal/logger"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const CallerIdKey contextKey = "caller_id"

// ClaimID - claim с id пользователя в токене
const ClaimID = "id"

var ErrNoToken = errors.New("токен не передан")

func GenerateToken(secret []byte, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		ClaimID: userID,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func ParseToken(secret []byte, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("разбор токена: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("невалидный токен")
	}
	id, ok := claims[ClaimID].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("в токене нет claim %q", ClaimID)
	}
	return id, nil
}

// Auth проверяет Bearer-токен. Для websocket токен можно передать в ?token=,
// браузер не умеет ставить заголовки при апгрейде.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := extractToken(r)
			if err == nil {
				var callerID string
				callerID, err = ParseToken(secret, tokenString)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithCallerID(r.Context(), callerID)))
					return
				}
			}

			logger.Warn("HTTP: Ошибка аутентификации",
				zap.String("request_id", GetRequestID(r.Context())),
				zap.String("client_ip", r.RemoteAddr),
				zap.Error(err))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error":   "UNAUTHORIZED",
				"message": "Требуется авторизация",
			})
		})
	}
}

func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return "", errors.New("неверный заголовок Authorization")
		}
		return token, nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrNoToken
}

func WithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, CallerIdKey, callerID)
}

func CallerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CallerIdKey).(string)
	return id, ok && id != ""
}
