package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/tournament-lifecycle/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	store := repositories.NewMemoryStore()
	var seenUserID int
	handler := Authenticate(testSecret, store.Users(), slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		seenUserID = id
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid token syncs user", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"user_id":  7,
			"username": "alice",
			"exp":      time.Now().Add(time.Hour).Unix(),
		})
		rec := do("Bearer " + token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, 7, seenUserID)

		user, err := store.Users().GetByID(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("").Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other", jwt.MapClaims{"user_id": 7})
		assert.Equal(t, http.StatusUnauthorized, do("Bearer "+token).Code)
	})

	t.Run("expired", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"user_id": 7, "exp": time.Now().Add(-time.Minute).Unix()})
		assert.Equal(t, http.StatusUnauthorized, do("Bearer "+token).Code)
	})

	t.Run("no user id", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"username": "ghost"})
		assert.Equal(t, http.StatusUnauthorized, do("Bearer "+token).Code)
	})
}

func TestGetUserIDFromContext(t *testing.T) {
	id, err := GetUserIDFromContext(WithUserID(context.Background(), 12))
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	_, err = GetUserIDFromContext(context.Background())
	assert.Error(t, err)

	ctx := context.WithValue(context.Background(), userContextKey, jwt.MapClaims{"user_id": "15"})
	id, err = GetUserIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, id)

	ctx = context.WithValue(context.Background(), userContextKey, jwt.MapClaims{"user_id": 1.5})
	_, err = GetUserIDFromContext(ctx)
	assert.Error(t, err)
}

func TestUsernameFallback(t *testing.T) {
	assert.Equal(t, "bob", usernameFromClaims(jwt.MapClaims{"name": "bob"}, 2))
	assert.Equal(t, "user2", usernameFromClaims(jwt.MapClaims{}, 2))
}
