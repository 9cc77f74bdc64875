package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Store объединяет репозитории и даёт транзакционную область для многошаговых операций.
type Store interface {
	Tournaments() TournamentRepository
	Participants() ParticipantRepository
	Matches() MatchRepository
	Users() UserRepository

	// WithinTx выполняет fn атомарно. Store, переданный в fn, работает внутри транзакции.
	// Если fn вернула ошибку, все изменения откатываются.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type postgresStore struct {
	db     *sql.DB
	exec   SQLExecutor
	logger *slog.Logger
}

func NewPostgresStore(db *sql.DB, logger *slog.Logger) Store {
	return &postgresStore{db: db, exec: db, logger: logger}
}

func (s *postgresStore) Tournaments() TournamentRepository {
	return &postgresTournamentRepository{exec: s.exec}
}

func (s *postgresStore) Participants() ParticipantRepository {
	return &postgresParticipantRepository{exec: s.exec}
}

func (s *postgresStore) Matches() MatchRepository {
	return &postgresMatchRepository{exec: s.exec}
}

func (s *postgresStore) Users() UserRepository {
	return &postgresUserRepository{exec: s.exec}
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) (txErr error) {
	if _, inTx := s.exec.(*sql.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.ErrorContext(ctx, "rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	return fn(&postgresStore{db: s.db, exec: tx, logger: s.logger})
}
