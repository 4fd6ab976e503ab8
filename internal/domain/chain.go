package domain

import (
	"time"

	"github.com/google/uuid"
)

// Chain — упорядоченная последовательность шагов.
//
// Chain — это "сценарий" работы с API: например, получить OAuth код,
// обменять его на токен, вызвать защищённый endpoint.
// Шаги выполняются по одному, в порядке Position.
type Chain struct {
	// ID — уникальный идентификатор chain.
	ID uuid.UUID `json:"id"`

	// Name — уникальное имя chain (например, "github-auth", "orders-api").
	// Используется для удобной идентификации пользователем.
	Name string `json:"name"`

	// CreatedAt — время создания chain.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения (переименование, шаги).
	UpdatedAt time.Time `json:"updated_at"`
}

// NewChain создаёт новый chain с сгенерированным ID.
func NewChain(name string) *Chain {
	now := time.Now()
	return &Chain{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
