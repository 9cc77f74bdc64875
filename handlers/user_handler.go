package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-lifecycle/middleware"
	"github.com/Dosada05/tournament-lifecycle/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(us services.UserService) *UserHandler {
	return &UserHandler{
		userService: us,
	}
}

// GetMeHandler godoc
// @Summary Текущий пользователь
// @Tags users
// @Produce json
// @Success 200 {object} services.UserProfile
// @Failure 401 {object} map[string]string "Неавторизован"
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	h.writeProfile(w, r, currentUserID)
}

// GetByIDHandler godoc
// @Summary Профиль пользователя
// @Tags users
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} services.UserProfile
// @Failure 404 {object} map[string]string "Пользователь не найден"
// @Router /users/{userID} [get]
func (h *UserHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.writeProfile(w, r, userID)
}

func (h *UserHandler) writeProfile(w http.ResponseWriter, r *http.Request, userID int) {
	profile, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, profile, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
