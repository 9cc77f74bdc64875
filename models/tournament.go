package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие значениям в БД.
type TournamentStatus string

const (
	TournamentStatusPending    TournamentStatus = "PENDING"
	TournamentStatusReady      TournamentStatus = "READY" // зарезервирован, ни один переход в него не ведёт
	TournamentStatusInProgress TournamentStatus = "IN_PROGRESS"
	TournamentStatusFinished   TournamentStatus = "FINISHED"
)

var tournamentTransitions = map[TournamentStatus][]TournamentStatus{
	TournamentStatusPending:    {TournamentStatusInProgress},
	TournamentStatusReady:      {},
	TournamentStatusInProgress: {TournamentStatusFinished},
	TournamentStatusFinished:   {},
}

// IsValid сообщает, является ли статус одним из объявленных.
func (s TournamentStatus) IsValid() bool {
	_, ok := tournamentTransitions[s]
	return ok
}

// CanTransitionTo проверяет, разрешён ли переход current -> next.
func (s TournamentStatus) CanTransitionTo(next TournamentStatus) bool {
	for _, allowed := range tournamentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Tournament представляет турнир.
type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	CreatorID       int              `json:"creator_id" db:"creator_id"`
	WinnerID        *int             `json:"winner_id,omitempty" db:"winner_id"`
	Status          TournamentStatus `json:"status" db:"status"`
	MaxParticipants *int             `json:"max_participants,omitempty" db:"max_participants"`
	ArchiveKey      *string          `json:"-" db:"archive_key"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
}

// IsFull сообщает, достигнут ли лимит участников.
func (t *Tournament) IsFull(participantCount int) bool {
	return t.MaxParticipants != nil && participantCount >= *t.MaxParticipants
}
