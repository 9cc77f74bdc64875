package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-lifecycle/brackets"
	"github.com/Dosada05/tournament-lifecycle/handlers"
	"github.com/Dosada05/tournament-lifecycle/middleware"
	"github.com/Dosada05/tournament-lifecycle/repositories"
	"github.com/Dosada05/tournament-lifecycle/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "routes-secret"

type apiClient struct {
	t      *testing.T
	server *httptest.Server
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryStore()
	hub := brackets.NewHub(logger)

	matchService := services.NewMatchService(store, brackets.NewRoundRobinGenerator(), hub, logger)
	tournamentService := services.NewTournamentService(store, matchService, hub, logger)
	archiveService := services.NewArchiveService(store, nil, logger)

	router := chi.NewRouter()
	SetupRoutes(router,
		Options{
			AllowedOrigins: []string{"*"},
			Authenticate:   middleware.Authenticate(testSecret, store.Users(), logger),
		},
		handlers.NewTournamentHandler(tournamentService, archiveService),
		handlers.NewMatchHandler(matchService, tournamentService),
		handlers.NewUserHandler(services.NewUserService(store)),
		handlers.NewWebSocketHandler(hub, tournamentService, []string{"*"}, logger),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &apiClient{t: t, server: server}
}

func (c *apiClient) token(userID int, username string) string {
	c.t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(c.t, err)
	return signed
}

func (c *apiClient) do(method, path, token, body string) (int, map[string]interface{}) {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(c.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestTournamentLifecycleOverHTTP(t *testing.T) {
	api := newAPI(t)
	alice := api.token(1, "alice")
	bob := api.token(2, "bob")

	status, body := api.do(http.MethodPost, "/tournaments", alice, `{"name":"Cup"}`)
	require.Equal(t, http.StatusCreated, status, body)
	tournamentID := int(body["tournament"].(map[string]interface{})["id"].(float64))
	base := fmt.Sprintf("/tournaments/%d", tournamentID)

	status, _ = api.do(http.MethodPost, base+"/join", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(http.MethodPost, base+"/join", bob, "")
	require.Equal(t, http.StatusCreated, status)

	status, _ = api.do(http.MethodPost, base+"/join", bob, "")
	assert.Equal(t, http.StatusConflict, status)

	status, _ = api.do(http.MethodPost, base+"/start", bob, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, body = api.do(http.MethodPost, base+"/start", alice, "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["matches"], 1)

	status, body = api.do(http.MethodPost, base+"/matches/next", alice, "")
	require.Equal(t, http.StatusOK, status)
	match := body["match"].(map[string]interface{})
	matchID := int(match["id"].(float64))
	assert.Equal(t, "IN_PROGRESS", match["status"])

	status, _ = api.do(http.MethodPost, base+"/matches/next", alice, "")
	assert.Equal(t, http.StatusConflict, status)

	status, _ = api.do(http.MethodPost, fmt.Sprintf("/matches/%d/complete", matchID), bob, `{"winner_id":99,"player1_score":3,"player2_score":1}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = api.do(http.MethodPost, fmt.Sprintf("/matches/%d/complete", matchID), bob, `{"winner_id":1,"player1_score":3,"player2_score":1}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "FINISHED", body["match"].(map[string]interface{})["status"])

	status, body = api.do(http.MethodGet, fmt.Sprintf("/matches/%d", matchID), "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["player1"].(map[string]interface{})["name"])
	assert.Equal(t, float64(3), body["player1_score"])

	status, _ = api.do(http.MethodPost, base+"/finish", bob, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, body = api.do(http.MethodPost, base+"/finish", alice, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "FINISHED", body["tournament"].(map[string]interface{})["status"])

	status, body = api.do(http.MethodGet, base, "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["participants"], 2)
	assert.Len(t, body["matches"], 1)

	status, _ = api.do(http.MethodGet, base+"/archive", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestStartRequiresTwoParticipants(t *testing.T) {
	api := newAPI(t)
	alice := api.token(1, "alice")

	status, body := api.do(http.MethodPost, "/tournaments", alice, `{"name":"Lonely","display_name":"A"}`)
	require.Equal(t, http.StatusCreated, status)
	id := int(body["tournament"].(map[string]interface{})["id"].(float64))

	status, _ = api.do(http.MethodPost, fmt.Sprintf("/tournaments/%d/start", id), alice, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = api.do(http.MethodGet, fmt.Sprintf("/tournaments/%d/participants", id), "", "")
	require.Equal(t, http.StatusOK, status)
	participants := body["participants"].([]interface{})
	require.Len(t, participants, 1)
	assert.Equal(t, "A", participants[0].(map[string]interface{})["name"])
}

func TestListAndValidation(t *testing.T) {
	api := newAPI(t)
	alice := api.token(1, "alice")

	status, _ := api.do(http.MethodPost, "/tournaments", alice, `{"name":"ab"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodPost, "/tournaments", alice, `{"name":"Spring Open"}`)
	require.Equal(t, http.StatusCreated, status)

	status, body := api.do(http.MethodGet, "/tournaments?status=PENDING", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["tournaments"], 1)

	status, _ = api.do(http.MethodGet, "/tournaments?status=BOGUS", "", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodGet, "/tournaments/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodGet, "/tournaments/999", "", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUserProfile(t *testing.T) {
	api := newAPI(t)
	alice := api.token(1, "alice")

	status, _ := api.do(http.MethodGet, "/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := api.do(http.MethodGet, "/users/me", alice, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["user"].(map[string]interface{})["username"])
	assert.Empty(t, body["tournaments"])

	status, _ = api.do(http.MethodPost, "/tournaments", alice, `{"name":"Autumn Cup"}`)
	require.Equal(t, http.StatusCreated, status)

	status, body = api.do(http.MethodGet, "/users/1", "", "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["tournaments"], 1)

	status, _ = api.do(http.MethodGet, "/users/42", "", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMatchActionsRequireMembership(t *testing.T) {
	api := newAPI(t)
	alice := api.token(1, "alice")
	bob := api.token(2, "bob")
	carol := api.token(3, "carol")
	mallory := api.token(4, "mallory")

	status, body := api.do(http.MethodPost, "/tournaments", alice, `{"name":"Trio"}`)
	require.Equal(t, http.StatusCreated, status)
	base := fmt.Sprintf("/tournaments/%d", int(body["tournament"].(map[string]interface{})["id"].(float64)))
	for _, token := range []string{bob, carol} {
		status, _ = api.do(http.MethodPost, base+"/join", token, "")
		require.Equal(t, http.StatusCreated, status)
	}
	status, _ = api.do(http.MethodPost, base+"/start", alice, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodPost, base+"/matches/next", mallory, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, body = api.do(http.MethodPost, base+"/matches/next", carol, "")
	require.Equal(t, http.StatusOK, status)
	matchPath := fmt.Sprintf("/matches/%d", int(body["match"].(map[string]interface{})["id"].(float64)))

	// первый матч: alice против bob
	status, _ = api.do(http.MethodPost, matchPath+"/score", carol, `{"player1_score":1,"player2_score":0}`)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = api.do(http.MethodPost, matchPath+"/complete", carol, `{"winner_id":1,"player1_score":1,"player2_score":0}`)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = api.do(http.MethodPost, matchPath+"/ready", carol, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, body = api.do(http.MethodPost, matchPath+"/score", bob, `{"player1_score":1,"player2_score":2}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["match"].(map[string]interface{})["player2_score"])

	status, _ = api.do(http.MethodPost, matchPath+"/ready", alice, "")
	require.Equal(t, http.StatusOK, status)
	status, body = api.do(http.MethodPost, matchPath+"/ready", bob, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["both_ready"])

	status, body = api.do(http.MethodGet, matchPath+"/ready", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["player1_ready"])

	status, _ = api.do(http.MethodPost, matchPath+"/complete", alice, `{"winner_id":2,"player1_score":1,"player2_score":3}`)
	assert.Equal(t, http.StatusOK, status)
}
