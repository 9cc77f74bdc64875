package repositories

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	updateMatchSQL      = regexp.QuoteMeta(`UPDATE matches`)
	updateTournamentSQL = regexp.QuoteMeta(`UPDATE tournaments SET`)
	matchExistsSQL      = regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`)
	tournamentExistsSQL = regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM tournaments WHERE id = $1)`)
)

func TestPostgresMatchConditionalUpdate(t *testing.T) {
	claimed := &models.Match{ID: 7, Player1ID: 1, Player2ID: 2, Status: models.MatchStatusInProgress}

	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		want   error
	}{
		{
			name: "row updated",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateMatchSQL).WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "status already changed",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateMatchSQL).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(matchExistsSQL).WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
			want: ErrMatchStatusConflict,
		},
		{
			name: "row missing",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateMatchSQL).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(matchExistsSQL).WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			want: ErrMatchNotFound,
		},
		{
			name: "check constraint",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateMatchSQL).WillReturnError(&pq.Error{Code: "23514", Constraint: "chk_match_scores"})
			},
			want: ErrMatchResultInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.expect(mock)

			repo := &postgresMatchRepository{exec: db}
			err = repo.Update(context.Background(), claimed, models.MatchStatusPending)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresTournamentConditionalUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(updateTournamentSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(tournamentExistsSQL).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(updateTournamentSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(tournamentExistsSQL).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	repo := &postgresTournamentRepository{exec: db}
	tournament := &models.Tournament{ID: 3, Name: "Cup", Status: models.TournamentStatusInProgress}

	err = repo.Update(context.Background(), tournament, models.TournamentStatusPending)
	assert.ErrorIs(t, err, ErrTournamentStatusConflict)

	err = repo.Update(context.Background(), tournament, models.TournamentStatusPending)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
