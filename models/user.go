package models

import "time"

// User - локальная копия пользователя из внешнего провайдера идентификации.
// Заполняется из claims токена, сервисы только читают её.
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
