package models

import "time"

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "PENDING"
	MatchStatusInProgress MatchStatus = "IN_PROGRESS"
	MatchStatusFinished   MatchStatus = "FINISHED"
)

var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusPending:    {MatchStatusInProgress},
	MatchStatusInProgress: {MatchStatusFinished},
	MatchStatusFinished:   {},
}

func (s MatchStatus) IsValid() bool {
	_, ok := matchTransitions[s]
	return ok
}

func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Match - одна встреча двух пользователей внутри турнира.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Player1ID    int         `json:"player1_id" db:"player1_id"`
	Player2ID    int         `json:"player2_id" db:"player2_id"`
	WinnerID     *int        `json:"winner_id,omitempty" db:"winner_id"`
	Player1Score int         `json:"player1_score" db:"player1_score"`
	Player2Score int         `json:"player2_score" db:"player2_score"`
	Status       MatchStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// HasPlayer сообщает, играет ли userID в этом матче.
func (m *Match) HasPlayer(userID int) bool {
	return m.Player1ID == userID || m.Player2ID == userID
}
