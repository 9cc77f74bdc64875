package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/Dosada05/tournament-lifecycle/repositories"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const userContextKey contextKey = "user"

// Authenticate проверяет Bearer-токен провайдера идентификации (HS256), кладёт claims
// в контекст и синхронизирует зеркало пользователя в хранилище.
func Authenticate(secret string, users repositories.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	key := []byte(secret)
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found || tokenString == "" {
				writeError(w, http.StatusUnauthorized, "missing or malformed bearer token")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc)
			if err != nil || !token.Valid {
				logger.Debug("token rejected", slog.Any("error", err))
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, claims)

			userID, err := GetUserIDFromContext(ctx)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			user := &models.User{ID: userID, Username: usernameFromClaims(claims, userID)}
			if err := users.Upsert(ctx, user); err != nil {
				logger.Error("failed to sync user from token",
					slog.Int("user_id", userID),
					slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
