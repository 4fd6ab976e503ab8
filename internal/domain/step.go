package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepType — тип шага.
type StepType string

const (
	// StepTypeHTTP — прямой HTTP запрос.
	StepTypeHTTP StepType = "HTTP"

	// StepTypeOAuth — OAuth действие (authorize через браузер).
	StepTypeOAuth StepType = "OAUTH"
)

// Valid возвращает true, если тип шага известен.
func (t StepType) Valid() bool {
	switch t {
	case StepTypeHTTP, StepTypeOAuth:
		return true
	default:
		return false
	}
}

// Step — одно определение запроса плюс результат последнего выполнения.
//
// Step создаётся и редактируется пользователем (через CLI),
// выполняется Dispatcher'ом. Request — произвольная вложенная структура,
// строки которой могут содержать {{variable}} подстановки из context.
type Step struct {
	// ID — уникальный идентификатор шага.
	ID uuid.UUID `json:"id"`

	// ChainID — ссылка на родительский chain.
	ChainID uuid.UUID `json:"chain_id"`

	// Name — человекочитаемое имя шага (опционально).
	Name string `json:"name,omitempty"`

	// Position — позиция шага внутри chain (начиная с 1).
	// Определяет порядок выполнения при `run chain`.
	Position int `json:"position"`

	// Type — тип шага: HTTP или OAUTH.
	Type StepType `json:"type"`

	// Request — описание запроса до подстановки переменных.
	// Для HTTP: url, method, headers, body/form/data.
	// Для OAUTH: action, url, browser, redirect_uri.
	Request map[string]any `json:"request"`

	// Compiled — результат последней компиляции Request
	// (все {{...}} подставлены). Эфемерное поле: перезаписывается
	// при каждом выполнении и не сохраняется в store.
	Compiled map[string]any `json:"-"`

	// Response — результат последнего выполнения.
	// Полностью перезаписывается при каждом выполнении.
	Response *Response `json:"response,omitempty"`

	// CreatedAt — время создания шага.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStep создаёт новый step с сгенерированным ID.
func NewStep(chainID uuid.UUID, name string, position int, typ StepType, request map[string]any) *Step {
	if request == nil {
		request = make(map[string]any)
	}
	now := time.Now()
	return &Step{
		ID:        uuid.New(),
		ChainID:   chainID,
		Name:      name,
		Position:  position,
		Type:      typ,
		Request:   request,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetResponse перезаписывает результат выполнения целиком.
func (s *Step) SetResponse(resp *Response) {
	s.Response = resp
	s.UpdatedAt = time.Now()
}
