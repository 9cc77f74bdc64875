package events

import (
	"context"
	"strconv"
	"time"
)

type Type string

const (
	TournamentCreated  Type = "TOURNAMENT_CREATED"
	ParticipantJoined  Type = "PARTICIPANT_JOINED"
	TournamentStarted  Type = "TOURNAMENT_STARTED"
	TournamentFinished Type = "TOURNAMENT_FINISHED"
	TournamentDeleted  Type = "TOURNAMENT_DELETED"
	MatchStarted       Type = "MATCH_STARTED"
	MatchFinished      Type = "MATCH_FINISHED"
	MatchScoreUpdated  Type = "MATCH_SCORE_UPDATED"
	MatchPlayersReady  Type = "MATCH_PLAYERS_READY"
)

// Event - сообщение об изменении состояния турнира или матча.
type Event struct {
	Type         Type        `json:"type"`
	TournamentID int         `json:"tournament_id"`
	Payload      interface{} `json:"payload"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

func New(t Type, tournamentID int, payload interface{}) Event {
	return Event{
		Type:         t,
		TournamentID: tournamentID,
		Payload:      payload,
		OccurredAt:   time.Now().UTC(),
	}
}

// Room возвращает имя комнаты websocket-хаба для турнира события.
func (e Event) Room() string {
	return RoomForTournament(e.TournamentID)
}

func RoomForTournament(tournamentID int) string {
	return "tournament_" + strconv.Itoa(tournamentID)
}

// Publisher доставляет события подписчикам. Доставка best-effort:
// ошибки логируются реализацией и не влияют на вызывающую операцию.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type multiPublisher []Publisher

// Multi рассылает событие во все переданные publisher'ы по порядку. nil пропускаются.
func Multi(publishers ...Publisher) Publisher {
	out := make(multiPublisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (m multiPublisher) Publish(ctx context.Context, event Event) {
	for _, p := range m {
		p.Publish(ctx, event)
	}
}

type noopPublisher struct{}

func Noop() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, Event) {}
