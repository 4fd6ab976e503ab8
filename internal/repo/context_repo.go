package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ContextRepo — репозиторий переменных context.
//
// Значения хранятся как JSON: переменная может быть строкой,
// числом или вложенной структурой. Variables реализует
// executor.ContextProvider — полное отображение читается
// в начале каждого выполнения.
type ContextRepo struct {
	db *sql.DB
}

// NewContextRepo создаёт новый ContextRepo.
func NewContextRepo(db *sql.DB) *ContextRepo {
	return &ContextRepo{db: db}
}

// Set устанавливает переменную (upsert).
func (r *ContextRepo) Set(ctx context.Context, name string, value any) error {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal context value: %w", err)
	}

	query := `
		INSERT INTO context_vars (name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, name, string(valueJSON), time.Now()); err != nil {
		return fmt.Errorf("set context var: %w", err)
	}
	return nil
}

// Get возвращает значение переменной.
func (r *ContextRepo) Get(ctx context.Context, name string) (any, error) {
	var valueJSON string
	query := `SELECT value FROM context_vars WHERE name = ?`
	err := r.db.QueryRowContext(ctx, query, name).Scan(&valueJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: context var %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get context var: %w", err)
	}

	var value any
	if err := json.Unmarshal([]byte(valueJSON), &value); err != nil {
		return nil, fmt.Errorf("unmarshal context value: %w", err)
	}
	return value, nil
}

// Unset удаляет переменную.
func (r *ContextRepo) Unset(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM context_vars WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("unset context var: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: context var %q", ErrNotFound, name)
	}
	return nil
}

// All возвращает полное отображение переменных.
func (r *ContextRepo) All(ctx context.Context) (map[string]any, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM context_vars`)
	if err != nil {
		return nil, fmt.Errorf("list context vars: %w", err)
	}
	defer rows.Close()

	vars := make(map[string]any)
	for rows.Next() {
		var name, valueJSON string
		if err := rows.Scan(&name, &valueJSON); err != nil {
			return nil, fmt.Errorf("scan context var: %w", err)
		}
		var value any
		if err := json.Unmarshal([]byte(valueJSON), &value); err != nil {
			return nil, fmt.Errorf("unmarshal context value %q: %w", name, err)
		}
		vars[name] = value
	}
	return vars, rows.Err()
}

// Variables реализует executor.ContextProvider.
func (r *ContextRepo) Variables(ctx context.Context) (map[string]any, error) {
	return r.All(ctx)
}
