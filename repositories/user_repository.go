package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-lifecycle/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository - зеркало пользователей внешнего провайдера идентификации.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Upsert создаёт пользователя или обновляет его username.
	Upsert(ctx context.Context, user *models.User) error
}

type postgresUserRepository struct {
	exec SQLExecutor
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, username, created_at, updated_at FROM users WHERE id = $1`

	user := &models.User{}
	err := r.exec.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Username, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

func (r *postgresUserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, updated_at = NOW()
		RETURNING created_at, updated_at`

	if err := r.exec.QueryRowContext(ctx, query, user.ID, user.Username).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", user.ID, err)
	}
	return nil
}
