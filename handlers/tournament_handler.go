package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-lifecycle/middleware"
	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/Dosada05/tournament-lifecycle/repositories"
	"github.com/Dosada05/tournament-lifecycle/services"
)

const defaultListLimit = 20

type TournamentHandler struct {
	tournamentService services.TournamentService
	archiveService    services.ArchiveService
}

func NewTournamentHandler(ts services.TournamentService, as services.ArchiveService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		archiveService:    as,
	}
}

type joinTournamentRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
}

// CreateHandler godoc
// @Summary Создать турнир
// @Tags tournaments
// @Description Создатель автоматически становится первым участником.
// @Accept json
// @Produce json
// @Param input body services.CreateTournamentInput true "Параметры турнира"
// @Success 201 {object} map[string]interface{} "Турнир создан"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create tournament")
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler godoc
// @Summary Турнир с участниками и матчами
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} services.TournamentDetails
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	details, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, details, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler godoc
// @Summary Список турниров
// @Tags tournaments
// @Produce json
// @Param status query string false "PENDING | READY | IN_PROGRESS | FINISHED"
// @Param creator_id query int false "ID создателя"
// @Param limit query int false "Размер страницы (по умолчанию 20)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Неверные параметры"
// @Router /tournaments [get]
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListTournamentsFilter{Limit: defaultListLimit}
	query := r.URL.Query()

	if statusStr := query.Get("status"); statusStr != "" {
		status := models.TournamentStatus(statusStr)
		if !status.IsValid() {
			badRequestResponse(w, r, errors.New("invalid status query parameter"))
			return
		}
		filter.Status = &status
	}

	creatorID, err := queryInt(r, "creator_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	filter.CreatorID = creatorID

	if limit, err := queryInt(r, "limit"); err != nil {
		badRequestResponse(w, r, err)
		return
	} else if limit != nil && *limit > 0 {
		filter.Limit = *limit
	}

	if offset, err := queryInt(r, "offset"); err != nil {
		badRequestResponse(w, r, err)
		return
	} else if offset != nil {
		filter.Offset = *offset
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler godoc
// @Summary Удалить турнир
// @Tags tournaments
// @Param tournamentID path int true "Tournament ID"
// @Success 204 "Удалён"
// @Failure 403 {object} map[string]string "Только создатель"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Security BearerAuth
// @Router /tournaments/{tournamentID} [delete]
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.tournamentService.DeleteTournament(r.Context(), id, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JoinHandler godoc
// @Summary Присоединиться к турниру
// @Tags participants
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body joinTournamentRequest false "Отображаемое имя"
// @Success 201 {object} map[string]interface{} "Участник добавлен"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 409 {object} map[string]string "Уже участвует / турнир заполнен / регистрация закрыта"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/join [post]
func (h *TournamentHandler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input joinTournamentRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	participant, err := h.tournamentService.JoinTournament(r.Context(), id, currentUserID, input.DisplayName)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartHandler godoc
// @Summary Запустить турнир
// @Tags tournaments
// @Description Генерирует круговую сетку матчей. Только создатель, не меньше двух участников.
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Сгенерированные матчи"
// @Failure 403 {object} map[string]string "Только создатель"
// @Failure 409 {object} map[string]string "Турнир уже запущен"
// @Failure 422 {object} map[string]string "Недостаточно участников"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/start [post]
func (h *TournamentHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matches, err := h.tournamentService.StartTournament(r.Context(), id, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FinishHandler godoc
// @Summary Завершить турнир
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Только создатель"
// @Failure 409 {object} map[string]string "Турнир не в процессе"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/finish [post]
func (h *TournamentHandler) FinishHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	// Сервис не проверяет права на завершение, это делает транспорт.
	existing, err := h.tournamentService.GetTournamentByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if existing.CreatorID != currentUserID {
		forbiddenResponse(w, r, services.ErrNotTournamentCreator.Error())
		return
	}

	tournament, err := h.tournamentService.FinishTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListParticipantsHandler godoc
// @Summary Участники турнира
// @Tags participants
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Router /tournaments/{tournamentID}/participants [get]
func (h *TournamentHandler) ListParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.tournamentService.ListParticipants(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ArchiveHandler godoc
// @Summary Ссылка на архив результатов
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Турнир не найден или ещё не заархивирован"
// @Failure 503 {object} map[string]string "Архив не настроен"
// @Router /tournaments/{tournamentID}/archive [get]
func (h *TournamentHandler) ArchiveHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	url, err := h.archiveService.ArchiveURL(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
