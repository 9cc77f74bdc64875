package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Dosada05/tournament-lifecycle/brackets"
	"github.com/Dosada05/tournament-lifecycle/events"
	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/Dosada05/tournament-lifecycle/repositories"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	store       *repositories.MemoryStore
	publisher   *recordingPublisher
	matches     MatchService
	tournaments TournamentService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repositories.NewMemoryStore()
	publisher := &recordingPublisher{}
	logger := discardLogger()
	matches := NewMatchService(store, brackets.NewRoundRobinGenerator(), publisher, logger)
	return &testEnv{
		store:       store,
		publisher:   publisher,
		matches:     matches,
		tournaments: NewTournamentService(store, matches, publisher, logger),
	}
}

func (e *testEnv) addUsers(t *testing.T, users map[int]string) {
	t.Helper()
	for id, name := range users {
		require.NoError(t, e.store.Users().Upsert(context.Background(), &models.User{ID: id, Username: name}))
	}
}

// createWithPlayers создаёт турнир от имени creatorID и добавляет остальных игроков.
func (e *testEnv) createWithPlayers(t *testing.T, name string, creatorID int, others ...int) *models.Tournament {
	t.Helper()
	ctx := context.Background()
	tournament, err := e.tournaments.CreateTournament(ctx, creatorID, CreateTournamentInput{Name: name})
	require.NoError(t, err)
	for _, uid := range others {
		_, err := e.tournaments.JoinTournament(ctx, tournament.ID, uid, nil)
		require.NoError(t, err)
	}
	return tournament
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
