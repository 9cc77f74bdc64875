package repositories

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTournament(t *testing.T, s *MemoryStore) *models.Tournament {
	t.Helper()
	tr := &models.Tournament{Name: "Cup", CreatorID: 1, Status: models.TournamentStatusPending}
	require.NoError(t, s.Tournaments().Create(context.Background(), tr))
	return tr
}

func TestMemoryParticipantUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tr := seedTournament(t, s)

	name := "ace"
	require.NoError(t, s.Participants().Create(ctx, &models.Participant{TournamentID: tr.ID, UserID: 1, DisplayName: &name}))

	err := s.Participants().Create(ctx, &models.Participant{TournamentID: tr.ID, UserID: 1})
	assert.ErrorIs(t, err, ErrParticipantConflict)

	err = s.Participants().Create(ctx, &models.Participant{TournamentID: tr.ID, UserID: 2, DisplayName: &name})
	assert.ErrorIs(t, err, ErrParticipantNameConflict)

	err = s.Participants().Create(ctx, &models.Participant{TournamentID: 999, UserID: 2})
	assert.ErrorIs(t, err, ErrParticipantTournamentInvalid)

	count, err := s.Participants().CountByTournament(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryParticipantsKeepJoinOrderAndUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tr := seedTournament(t, s)
	require.NoError(t, s.Users().Upsert(ctx, &models.User{ID: 30, Username: "carol"}))

	for _, uid := range []int{10, 30, 20} {
		require.NoError(t, s.Participants().Create(ctx, &models.Participant{TournamentID: tr.ID, UserID: uid}))
	}

	list, err := s.Participants().ListByTournament(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{10, 30, 20}, []int{list[0].UserID, list[1].UserID, list[2].UserID})
	assert.Nil(t, list[0].User)
	require.NotNil(t, list[1].User)
	assert.Equal(t, "carol", list[1].User.Username)
}

func TestMemoryMatchConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tr := seedTournament(t, s)

	m := &models.Match{TournamentID: tr.ID, Player1ID: 1, Player2ID: 2, Status: models.MatchStatusPending}
	require.NoError(t, s.Matches().Create(ctx, m))

	m.Status = models.MatchStatusInProgress
	require.NoError(t, s.Matches().Update(ctx, m, models.MatchStatusPending))

	err := s.Matches().Update(ctx, m, models.MatchStatusPending)
	assert.ErrorIs(t, err, ErrMatchStatusConflict, "second claim of the same PENDING match must fail")

	err = s.Matches().Update(ctx, &models.Match{ID: 404}, models.MatchStatusPending)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	stranger := 3
	bad := *m
	bad.Status = models.MatchStatusFinished
	bad.WinnerID = &stranger
	assert.ErrorIs(t, s.Matches().Update(ctx, &bad, models.MatchStatusInProgress), ErrMatchResultInvalid)

	assert.ErrorIs(t, s.Matches().Create(ctx, &models.Match{TournamentID: tr.ID, Player1ID: 5, Player2ID: 5}), ErrMatchPlayerInvalid)
}

func TestMemoryConcurrentClaimOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tr := seedTournament(t, s)
	m := &models.Match{TournamentID: tr.ID, Player1ID: 1, Player2ID: 2, Status: models.MatchStatusPending}
	require.NoError(t, s.Matches().Create(ctx, m))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claim := *m
			claim.Status = models.MatchStatusInProgress
			if err := s.Matches().Update(ctx, &claim, models.MatchStatusPending); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestMemoryWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tr := seedTournament(t, s)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx Store) error {
		started := *tr
		started.Status = models.TournamentStatusInProgress
		require.NoError(t, tx.Tournaments().Update(ctx, &started, models.TournamentStatusPending))
		require.NoError(t, tx.Matches().Create(ctx, &models.Match{TournamentID: tr.ID, Player1ID: 1, Player2ID: 2, Status: models.MatchStatusPending}))
		// вложенная транзакция не должна блокироваться
		return tx.WithinTx(ctx, func(Store) error { return boom })
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Tournaments().GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusPending, got.Status)

	matches, err := s.Matches().ListByTournament(ctx, tr.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tr := seedTournament(t, s)
	require.NoError(t, s.Participants().Create(ctx, &models.Participant{TournamentID: tr.ID, UserID: 1}))
	require.NoError(t, s.Matches().Create(ctx, &models.Match{TournamentID: tr.ID, Player1ID: 1, Player2ID: 2, Status: models.MatchStatusPending}))

	require.NoError(t, s.Tournaments().Delete(ctx, tr.ID))

	count, _ := s.Participants().CountByTournament(ctx, tr.ID)
	assert.Zero(t, count)
	matches, _ := s.Matches().ListByTournament(ctx, tr.ID, nil)
	assert.Empty(t, matches)
	assert.ErrorIs(t, s.Tournaments().Delete(ctx, tr.ID), ErrTournamentNotFound)
}

func TestMemoryTournamentListFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	first := seedTournament(t, s)
	second := seedTournament(t, s)
	key := "tournaments/1/results.json"
	require.NoError(t, s.Tournaments().UpdateArchiveKey(ctx, first.ID, &key))

	all, err := s.Tournaments().List(ctx, ListTournamentsFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	archived := false
	pending, err := s.Tournaments().List(ctx, ListTournamentsFilter{Archived: &archived})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	paged, err := s.Tournaments().List(ctx, ListTournamentsFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, first.ID, paged[0].ID)
}

func TestMemoryRollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tr := seedTournament(t, s)
	other := seedTournament(t, s)

	m := &models.Match{TournamentID: other.ID, Player1ID: 1, Player2ID: 2, Status: models.MatchStatusInProgress}
	require.NoError(t, s.Matches().Create(ctx, m))

	writeDone := make(chan error, 1)
	errRollback := errors.New("rollback")

	err := s.WithinTx(ctx, func(tx Store) error {
		started := *tr
		started.Status = models.TournamentStatusInProgress
		require.NoError(t, tx.Tournaments().Update(ctx, &started, models.TournamentStatusPending))

		go func() {
			finished := *m
			winner := 1
			finished.WinnerID = &winner
			finished.Status = models.MatchStatusFinished
			writeDone <- s.Matches().Update(ctx, &finished, models.MatchStatusInProgress)
		}()
		// запись из другой горутины должна дождаться конца транзакции
		time.Sleep(20 * time.Millisecond)
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)
	require.NoError(t, <-writeDone)

	stored, err := s.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusFinished, stored.Status)
	require.NotNil(t, stored.WinnerID)
	assert.Equal(t, 1, *stored.WinnerID)

	rolledBack, err := s.Tournaments().GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusPending, rolledBack.Status)
}
