package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLExecutor - общий интерфейс *sql.DB и *sql.Tx, чтобы репозитории работали внутри транзакции.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError // Возвращаем переданную ошибку "не найдено"
	}
	return nil
}

// resolveConditionalUpdate различает "строки нет" и "статус уже другой",
// когда условный UPDATE не затронул ни одной строки.
func resolveConditionalUpdate(ctx context.Context, exec SQLExecutor, result sql.Result, table string, id int, notFound, conflict error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := exec.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check %s %d existence: %w", table, id, err)
	}
	if !exists {
		return notFound
	}
	return conflict
}
