// File: tournament-lifecycle/services/helpers.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/Dosada05/tournament-lifecycle/repositories"
)

const (
	tournamentNameMinLen = 3
	tournamentNameMaxLen = 30
	displayNameMaxLen    = 100
	minParticipants      = 2
)

// --- Хелперы для представлений ---

type ParticipantView struct {
	ParticipantID int       `json:"participant_id"`
	UserID        int       `json:"user_id"`
	Name          string    `json:"name"`
	JoinedAt      time.Time `json:"joined_at"`
}

type MatchView struct {
	MatchID      int                `json:"match_id"`
	TournamentID int                `json:"tournament_id"`
	Status       models.MatchStatus `json:"status"`
	Player1      ParticipantView    `json:"player1"`
	Player2      ParticipantView    `json:"player2"`
	WinnerID     *int               `json:"winner_id,omitempty"`
	Player1Score int                `json:"player1_score"`
	Player2Score int                `json:"player2_score"`
	CreatedAt    time.Time          `json:"created_at"`
}

type TournamentDetails struct {
	Tournament   *models.Tournament `json:"tournament"`
	Participants []ParticipantView  `json:"participants"`
	Matches      []MatchView        `json:"matches"`
	// AllMatchesCompleted: матчи сгенерированы и все FINISHED.
	AllMatchesCompleted bool `json:"all_matches_completed"`
}

// ReadyState - готовность игроков матча к началу игры.
type ReadyState struct {
	MatchID      int  `json:"match_id"`
	Player1Ready bool `json:"player1_ready"`
	Player2Ready bool `json:"player2_ready"`
	BothReady    bool `json:"both_ready"`
}

// participantDisplayName: собственное имя участника, иначе username пользователя.
func participantDisplayName(p *models.Participant) string {
	if p == nil {
		return "Unknown"
	}
	if p.DisplayName != nil && *p.DisplayName != "" {
		return *p.DisplayName
	}
	if p.User != nil && p.User.Username != "" {
		return p.User.Username
	}
	return fmt.Sprintf("Player %d", p.UserID)
}

func toParticipantView(p *models.Participant) ParticipantView {
	return ParticipantView{
		ParticipantID: p.ID,
		UserID:        p.UserID,
		Name:          participantDisplayName(p),
		JoinedAt:      p.CreatedAt,
	}
}

func toParticipantViews(participants []*models.Participant) []ParticipantView {
	views := make([]ParticipantView, 0, len(participants))
	for _, p := range participants {
		if p != nil {
			views = append(views, toParticipantView(p))
		}
	}
	return views
}

// toMatchView подставляет имена игроков из карты userID -> участник.
func toMatchView(m *models.Match, byUser map[int]ParticipantView) MatchView {
	mv := MatchView{
		MatchID:      m.ID,
		TournamentID: m.TournamentID,
		Status:       m.Status,
		WinnerID:     m.WinnerID,
		Player1Score: m.Player1Score,
		Player2Score: m.Player2Score,
		CreatedAt:    m.CreatedAt,
	}
	mv.Player1 = playerView(m.Player1ID, byUser)
	mv.Player2 = playerView(m.Player2ID, byUser)
	return mv
}

func playerView(userID int, byUser map[int]ParticipantView) ParticipantView {
	if pv, ok := byUser[userID]; ok {
		return pv
	}
	return ParticipantView{UserID: userID, Name: "Unknown"}
}

func participantsByUser(views []ParticipantView) map[int]ParticipantView {
	byUser := make(map[int]ParticipantView, len(views))
	for _, v := range views {
		byUser[v.UserID] = v
	}
	return byUser
}

func allMatchesCompleted(matches []*models.Match) bool {
	if len(matches) == 0 {
		return false
	}
	for _, m := range matches {
		if m.Status != models.MatchStatusFinished {
			return false
		}
	}
	return true
}

func dereferenceMatches(slice []*models.Match) []models.Match {
	if slice == nil {
		return []models.Match{}
	}
	result := make([]models.Match, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}

// --- Валидация ---

func normalizeTournamentName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < tournamentNameMinLen || n > tournamentNameMaxLen {
		return "", ErrTournamentNameInvalid
	}
	return name, nil
}

func normalizeDisplayName(displayName *string) (*string, error) {
	if displayName == nil {
		return nil, nil
	}
	name := strings.TrimSpace(*displayName)
	if name == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(name) > displayNameMaxLen {
		return nil, ErrDisplayNameInvalid
	}
	return &name, nil
}

// --- Маппинг ошибок репозиториев ---

func mapTournamentRepoError(err error, tournamentID int) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
	}
	return fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
}

func mapMatchRepoError(err error, matchID int) error {
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return fmt.Errorf("%w: id %d", ErrMatchNotFound, matchID)
	}
	return fmt.Errorf("failed to load match %d: %w", matchID, err)
}

// mapMatchUpdateError переводит ошибки условного обновления матча, ожидавшего IN_PROGRESS.
func mapMatchUpdateError(err error, matchID int) error {
	switch {
	case errors.Is(err, repositories.ErrMatchStatusConflict):
		return fmt.Errorf("%w: match %d: %w", ErrMatchNotInProgress, matchID, err)
	case errors.Is(err, repositories.ErrMatchNotFound):
		return fmt.Errorf("%w: id %d", ErrMatchNotFound, matchID)
	case errors.Is(err, repositories.ErrMatchResultInvalid):
		return fmt.Errorf("%w: match %d: %w", ErrValidationFailed, matchID, err)
	default:
		return fmt.Errorf("failed to update match %d: %w", matchID, err)
	}
}
