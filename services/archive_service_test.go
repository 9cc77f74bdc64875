package services

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-lifecycle/brackets"
	"github.com/Dosada05/tournament-lifecycle/events"
	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/Dosada05/tournament-lifecycle/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}}
}

func (m *memoryObjects) Put(ctx context.Context, key, contentType string, body io.Reader) (*storage.PutResult, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return &storage.PutResult{Key: key, Location: m.PublicURL(key)}, nil
}

func (m *memoryObjects) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memoryObjects) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *memoryObjects) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func finishedTournament(t *testing.T, env *testEnv, name string) *models.Tournament {
	t.Helper()
	ctx := context.Background()
	tournament, err := env.tournaments.CreateTournament(ctx, userA, CreateTournamentInput{Name: name})
	require.NoError(t, err)
	_, err = env.tournaments.JoinTournament(ctx, tournament.ID, userB, nil)
	require.NoError(t, err)
	_, err = env.tournaments.StartTournament(ctx, tournament.ID, userA)
	require.NoError(t, err)
	_, err = env.tournaments.FinishTournament(ctx, tournament.ID)
	require.NoError(t, err)
	return tournament
}

func TestArchiveTournament(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	objects := newMemoryObjects()
	archive := NewArchiveService(env.store, objects, discardLogger())

	tournament := finishedTournament(t, env, "Summer Cup")

	_, err := archive.ArchiveURL(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotArchived)

	key, err := archive.ArchiveTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "tournaments/1-summer-cup/"), key)
	assert.True(t, strings.HasSuffix(key, ".json"), key)

	var snapshot TournamentArchive
	require.NoError(t, json.Unmarshal(objects.objects[key], &snapshot))
	assert.Equal(t, tournament.ID, snapshot.Tournament.ID)
	assert.Equal(t, models.TournamentStatusFinished, snapshot.Tournament.Status)
	assert.Len(t, snapshot.Participants, 2)
	assert.Len(t, snapshot.Matches, 1)
	assert.False(t, snapshot.ArchivedAt.IsZero())

	again, err := archive.ArchiveTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, key, again)
	assert.Len(t, objects.objects, 1)

	url, err := archive.ArchiveURL(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+key, url)
}

func TestArchiveRejectsUnfinishedTournament(t *testing.T) {
	env := newTestEnv(t)
	archive := NewArchiveService(env.store, newMemoryObjects(), discardLogger())
	tournament := env.createWithPlayers(t, "Running", userA, userB)

	_, err := archive.ArchiveTournament(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestArchiveDisabledWithoutStorage(t *testing.T) {
	env := newTestEnv(t)
	archive := NewArchiveService(env.store, nil, discardLogger())

	_, err := archive.ArchiveTournament(context.Background(), 1)
	assert.ErrorIs(t, err, ErrArchiveDisabled)
	_, err = archive.ArchivePending(context.Background())
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestArchivePendingSkipsArchivedAndUnfinished(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	objects := newMemoryObjects()
	archive := NewArchiveService(env.store, objects, discardLogger())

	finishedTournament(t, env, "One")
	finishedTournament(t, env, "Two")
	env.createWithPlayers(t, "Open", userA)

	count, err := archive.ArchivePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = archive.ArchivePending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Len(t, objects.objects, 2)
}

func TestArchiveRemovedWithTournament(t *testing.T) {
	ctx := context.Background()
	store := newTestEnv(t).store
	objects := newMemoryObjects()
	logger := discardLogger()
	archive := NewArchiveService(store, objects, logger)

	recorder := &recordingPublisher{}
	matches := NewMatchService(store, brackets.NewRoundRobinGenerator(), recorder, logger)
	env := &testEnv{
		store:       store,
		publisher:   recorder,
		matches:     matches,
		tournaments: NewTournamentService(store, matches, events.Multi(recorder, archive), logger),
	}

	tournament := finishedTournament(t, env, "Doomed")
	key, err := archive.ArchiveTournament(ctx, tournament.ID)
	require.NoError(t, err)

	require.NoError(t, env.tournaments.DeleteTournament(ctx, tournament.ID, userA))
	assert.Equal(t, []string{key}, objects.deleted)
	assert.Empty(t, objects.objects)
}

func TestArchiveSchedulerSweepsFinishedTournaments(t *testing.T) {
	env := newTestEnv(t)
	objects := newMemoryObjects()
	archive := NewArchiveService(env.store, objects, discardLogger())
	finishedTournament(t, env, "Night Cup")

	sched, err := StartArchiveScheduler(archive, 20*time.Millisecond, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Shutdown() })

	assert.Eventually(t, func() bool { return objects.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}
