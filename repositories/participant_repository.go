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
	ErrParticipantNotFound          = errors.New("participant not found")
	ErrParticipantConflict          = errors.New("participant conflict: user already registered for this tournament")
	ErrParticipantNameConflict      = errors.New("participant conflict: display name already used in this tournament")
	ErrParticipantUserInvalid       = errors.New("participant user conflict or invalid")
	ErrParticipantTournamentInvalid = errors.New("participant tournament conflict or invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	// ListByTournament возвращает участников в порядке записи (создатель первый).
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error)
	FindByDisplayName(ctx context.Context, tournamentID int, displayName string) (*models.Participant, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
}

type postgresParticipantRepository struct {
	exec SQLExecutor
}

const participantColumns = `p.id, p.tournament_id, p.user_id, p.display_name, p.created_at`

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, user_id, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.exec.QueryRowContext(ctx, query, p.TournamentID, p.UserID, p.DisplayName).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				switch pqErr.Constraint {
				case "participants_tournament_id_user_id_key":
					return ErrParticipantConflict
				case "participants_tournament_id_display_name_key":
					return ErrParticipantNameConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "participants_user_id_fkey":
					return ErrParticipantUserInvalid
				case "participants_tournament_id_fkey":
					return ErrParticipantTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Participant, error) {
	p := &models.Participant{}
	err := r.exec.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.TournamentID, &p.UserID, &p.DisplayName, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants p WHERE p.user_id = $1 AND p.tournament_id = $2`
	return r.findOne(ctx, query, userID, tournamentID)
}

func (r *postgresParticipantRepository) FindByDisplayName(ctx context.Context, tournamentID int, displayName string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants p WHERE p.tournament_id = $1 AND p.display_name = $2`
	return r.findOne(ctx, query, tournamentID, displayName)
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	query := `
		SELECT ` + participantColumns + `,
			u.id, u.username
		FROM participants p
		LEFT JOIN users u ON p.user_id = u.id
		WHERE p.tournament_id = $1
		ORDER BY p.id ASC`

	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by tournament: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		var userID sql.NullInt64
		var username sql.NullString
		if err := rows.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.DisplayName, &p.CreatedAt, &userID, &username); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		if userID.Valid {
			p.User = &models.User{ID: int(userID.Int64), Username: username.String}
		}
		participants = append(participants, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}
