package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-lifecycle/middleware"
	"github.com/Dosada05/tournament-lifecycle/services"
)

type MatchHandler struct {
	matchService      services.MatchService
	tournamentService services.TournamentService
}

func NewMatchHandler(ms services.MatchService, ts services.TournamentService) *MatchHandler {
	return &MatchHandler{
		matchService:      ms,
		tournamentService: ts,
	}
}

type updateScoresRequest struct {
	Player1Score int `json:"player1_score"`
	Player2Score int `json:"player2_score"`
}

type completeMatchRequest struct {
	WinnerID     int `json:"winner_id"`
	Player1Score int `json:"player1_score"`
	Player2Score int `json:"player2_score"`
}

// ListByTournamentHandler godoc
// @Summary Матчи турнира
// @Tags matches
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Router /tournaments/{tournamentID}/matches [get]
func (h *MatchHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListMatches(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// NextHandler godoc
// @Summary Начать следующий матч
// @Tags matches
// @Description Переводит первый PENDING матч турнира в IN_PROGRESS.
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Не участник турнира"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 409 {object} map[string]string "Нет ожидающих матчей"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/next [post]
func (h *MatchHandler) NextHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	if err := h.tournamentService.AuthorizeMember(r.Context(), tournamentID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	match, err := h.matchService.NextMatch(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler godoc
// @Summary Матч
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} services.MatchView
// @Failure 404 {object} map[string]string "Матч не найден"
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, match, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CompleteHandler godoc
// @Summary Записать результат матча
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param input body completeMatchRequest true "Победитель и счёт"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Победитель не из матча / отрицательный счёт"
// @Failure 403 {object} map[string]string "Не игрок матча и не создатель турнира"
// @Failure 404 {object} map[string]string "Матч или победитель не найден"
// @Failure 409 {object} map[string]string "Матч не в процессе"
// @Security BearerAuth
// @Router /matches/{matchID}/complete [post]
func (h *MatchHandler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	matchID, ok := h.authorizedMatchID(w, r)
	if !ok {
		return
	}

	var input completeMatchRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WinnerID <= 0 {
		badRequestResponse(w, r, errors.New("winner_id is required"))
		return
	}

	match, err := h.matchService.CompleteMatch(r.Context(), matchID, input.WinnerID, input.Player1Score, input.Player2Score)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ScoreHandler godoc
// @Summary Обновить текущий счёт матча
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param input body updateScoresRequest true "Счёт"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Отрицательный счёт"
// @Failure 403 {object} map[string]string "Не игрок матча и не создатель турнира"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Failure 409 {object} map[string]string "Матч не в процессе"
// @Security BearerAuth
// @Router /matches/{matchID}/score [post]
func (h *MatchHandler) ScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, ok := h.authorizedMatchID(w, r)
	if !ok {
		return
	}

	var input updateScoresRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpdateScores(r.Context(), matchID, input.Player1Score, input.Player2Score)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReadyHandler godoc
// @Summary Отметить готовность игрока
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} services.ReadyState
// @Failure 403 {object} map[string]string "Не игрок матча"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Failure 409 {object} map[string]string "Матч не в процессе"
// @Security BearerAuth
// @Router /matches/{matchID}/ready [post]
func (h *MatchHandler) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	state, err := h.matchService.SetPlayerReady(r.Context(), matchID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, state, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetReadyHandler godoc
// @Summary Готовность игроков матча
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} services.ReadyState
// @Failure 404 {object} map[string]string "Матч не найден"
// @Router /matches/{matchID}/ready [get]
func (h *MatchHandler) GetReadyHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.matchService.GetReadyState(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, state, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// authorizedMatchID читает matchID и проверяет, что вызывающий - игрок матча или
// создатель турнира. При отказе ответ уже записан.
func (h *MatchHandler) authorizedMatchID(w http.ResponseWriter, r *http.Request) (int, bool) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, false
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return 0, false
	}
	if err := h.matchService.AuthorizeMatchAction(r.Context(), matchID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return 0, false
	}
	return matchID, true
}
