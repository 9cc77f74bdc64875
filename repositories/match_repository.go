package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchStatusConflict    = errors.New("match status changed concurrently")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchPlayerInvalid     = errors.New("match player conflict or invalid")
	ErrMatchResultInvalid     = errors.New("match result violates constraints")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// ListByTournament возвращает матчи в порядке создания; statusFilter nil - все статусы.
	ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error)
	// Update сохраняет матч целиком, только если его статус в хранилище равен expected.
	// Иначе возвращает ErrMatchStatusConflict.
	Update(ctx context.Context, match *models.Match, expected models.MatchStatus) error
}

type postgresMatchRepository struct {
	exec SQLExecutor
}

const matchColumns = `id, tournament_id, player1_id, player2_id, winner_id, player1_score, player2_score, status, created_at`

func scanMatch(row rowScanner, m *models.Match) error {
	return row.Scan(
		&m.ID,
		&m.TournamentID,
		&m.Player1ID,
		&m.Player2ID,
		&m.WinnerID,
		&m.Player1Score,
		&m.Player2Score,
		&m.Status,
		&m.CreatedAt,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, player1_id, player2_id, winner_id, player1_score, player2_score, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.exec.QueryRowContext(ctx, query,
		match.TournamentID,
		match.Player1ID,
		match.Player2ID,
		match.WinnerID,
		match.Player1Score,
		match.Player2Score,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	if err := scanMatch(r.exec.QueryRowContext(ctx, query, id), match); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $2")
		args = append(args, *statusFilter)
	}
	queryBuilder.WriteString(" ORDER BY id ASC")

	rows, err := r.exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := scanMatch(rows, &match); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &match)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match, expected models.MatchStatus) error {
	query := `
		UPDATE matches
		SET winner_id = $1, player1_score = $2, player2_score = $3, status = $4
		WHERE id = $5 AND status = $6`

	result, err := r.exec.ExecContext(ctx, query,
		match.WinnerID, match.Player1Score, match.Player2Score, match.Status, match.ID, expected)
	if err != nil {
		return r.handleMatchError(err)
	}
	return resolveConditionalUpdate(ctx, r.exec, result, "matches", match.ID, ErrMatchNotFound, ErrMatchStatusConflict)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_player1_id_fkey", "matches_player2_id_fkey", "matches_winner_id_fkey", "chk_match_players":
			return ErrMatchPlayerInvalid
		case "chk_match_winner", "chk_match_scores":
			return ErrMatchResultInvalid
		}
	}
	return err
}
