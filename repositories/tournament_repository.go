package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-lifecycle/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentStatusConflict = errors.New("tournament status changed concurrently")
	ErrTournamentInvalidCreator = errors.New("invalid creator reference")
	ErrTournamentInvalidWinner  = errors.New("tournament winner violates constraints")
)

type ListTournamentsFilter struct {
	CreatorID *int
	Status    *models.TournamentStatus
	Archived  *bool
	Limit     int
	Offset    int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error)
	// Update сохраняет турнир целиком, только если его статус в хранилище равен expected.
	// Иначе возвращает ErrTournamentStatusConflict.
	Update(ctx context.Context, tournament *models.Tournament, expected models.TournamentStatus) error
	UpdateArchiveKey(ctx context.Context, id int, archiveKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresTournamentRepository struct {
	exec SQLExecutor
}

const tournamentColumns = `id, name, creator_id, winner_id, status, max_participants, archive_key, created_at`

func scanTournament(row rowScanner, t *models.Tournament) error {
	return row.Scan(&t.ID, &t.Name, &t.CreatorID, &t.WinnerID, &t.Status, &t.MaxParticipants, &t.ArchiveKey, &t.CreatedAt)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, creator_id, status, max_participants)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.exec.QueryRowContext(ctx, query, t.Name, t.CreatorID, t.Status, t.MaxParticipants).Scan(&t.ID, &t.CreatedAt)
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	if err := scanTournament(r.exec.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.CreatorID != nil {
		query += fmt.Sprintf(" AND creator_id = $%d", argID)
		args = append(args, *filter.CreatorID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Archived != nil {
		if *filter.Archived {
			query += " AND archive_key IS NOT NULL"
		} else {
			query += " AND archive_key IS NULL"
		}
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament, expected models.TournamentStatus) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			winner_id = $2,
			status = $3,
			max_participants = $4
		WHERE id = $5 AND status = $6`

	result, err := r.exec.ExecContext(ctx, query, t.Name, t.WinnerID, t.Status, t.MaxParticipants, t.ID, expected)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return resolveConditionalUpdate(ctx, r.exec, result, "tournaments", t.ID, ErrTournamentNotFound, ErrTournamentStatusConflict)
}

func (r *postgresTournamentRepository) UpdateArchiveKey(ctx context.Context, id int, archiveKey *string) error {
	query := `UPDATE tournaments SET archive_key = $1 WHERE id = $2`
	result, err := r.exec.ExecContext(ctx, query, archiveKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament archive key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// Delete удаляет турнир; участники и матчи удаляются каскадно (ON DELETE CASCADE).
func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503":
			if pqErr.Constraint == "tournaments_creator_id_fkey" {
				return ErrTournamentInvalidCreator
			}
		case "23514":
			if pqErr.Constraint == "chk_tournament_winner" {
				return ErrTournamentInvalidWinner
			}
		}
	}
	return err
}
