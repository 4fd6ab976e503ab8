package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shklv/reqchain/internal/domain"
)

// StepRepo — репозиторий для работы с шагами.
//
// Request и Response хранятся как JSON колонки. Compiled —
// эфемерное поле и не сохраняется.
type StepRepo struct {
	db *sql.DB
}

// NewStepRepo создаёт новый StepRepo.
func NewStepRepo(db *sql.DB) *StepRepo {
	return &StepRepo{db: db}
}

const stepColumns = `id, chain_id, name, position, type, request, response, created_at, updated_at`

// Create создаёт новый шаг.
func (r *StepRepo) Create(ctx context.Context, step *domain.Step) error {
	requestJSON, err := json.Marshal(step.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	query := `
		INSERT INTO steps (id, chain_id, name, position, type, request, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		step.ID.String(),
		step.ChainID.String(),
		step.Name,
		step.Position,
		string(step.Type),
		string(requestJSON),
		step.CreatedAt,
		step.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

// GetByID возвращает шаг по ID.
func (r *StepRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps WHERE id = ?`
	return r.scanStep(r.db.QueryRowContext(ctx, query, id.String()))
}

// ListByChainID возвращает шаги chain в порядке Position.
func (r *StepRepo) ListByChainID(ctx context.Context, chainID uuid.UUID) ([]domain.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps WHERE chain_id = ? ORDER BY position ASC`
	rows, err := r.db.QueryContext(ctx, query, chainID.String())
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.Step
	for rows.Next() {
		step, err := r.scanStepFromRows(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, *step)
	}
	return steps, rows.Err()
}

// NextPosition возвращает позицию для нового шага chain.
func (r *StepRepo) NextPosition(ctx context.Context, chainID uuid.UUID) (int, error) {
	var max sql.NullInt64
	query := `SELECT MAX(position) FROM steps WHERE chain_id = ?`
	if err := r.db.QueryRowContext(ctx, query, chainID.String()).Scan(&max); err != nil {
		return 0, fmt.Errorf("max position: %w", err)
	}
	return int(max.Int64) + 1, nil
}

// UpdateRequest перезаписывает описание запроса шага.
func (r *StepRepo) UpdateRequest(ctx context.Context, id uuid.UUID, request map[string]any) error {
	requestJSON, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	query := `UPDATE steps SET request = ?, updated_at = ? WHERE id = ?`
	return r.exec(ctx, query, string(requestJSON), time.Now(), id.String())
}

// UpdateResponse перезаписывает результат последнего выполнения шага.
func (r *StepRepo) UpdateResponse(ctx context.Context, id uuid.UUID, response *domain.Response) error {
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	query := `UPDATE steps SET response = ?, updated_at = ? WHERE id = ?`
	return r.exec(ctx, query, string(responseJSON), time.Now(), id.String())
}

// Delete удаляет шаг.
func (r *StepRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM steps WHERE id = ?`, id.String())
}

// exec выполняет запрос, требующий ровно одной затронутой строки.
func (r *StepRepo) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec step query: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: step", ErrNotFound)
	}
	return nil
}

// scanStep сканирует одну строку в domain.Step.
func (r *StepRepo) scanStep(row *sql.Row) (*domain.Step, error) {
	step, err := scanStepFields(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: step", ErrNotFound)
	}
	return step, err
}

func (r *StepRepo) scanStepFromRows(rows *sql.Rows) (*domain.Step, error) {
	return scanStepFields(rows.Scan)
}

// scanStepFields разбирает колонки шага, включая JSON поля.
func scanStepFields(scan func(dest ...any) error) (*domain.Step, error) {
	var (
		step         domain.Step
		id, chainID  string
		typ          string
		requestJSON  string
		responseJSON sql.NullString
	)
	err := scan(&id, &chainID, &step.Name, &step.Position, &typ,
		&requestJSON, &responseJSON, &step.CreatedAt, &step.UpdatedAt)
	if err != nil {
		return nil, err
	}

	step.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse step id: %w", err)
	}
	step.ChainID, err = uuid.Parse(chainID)
	if err != nil {
		return nil, fmt.Errorf("parse chain id: %w", err)
	}
	step.Type = domain.StepType(typ)

	if err := json.Unmarshal([]byte(requestJSON), &step.Request); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	if responseJSON.Valid && responseJSON.String != "" {
		step.Response = &domain.Response{}
		if err := json.Unmarshal([]byte(responseJSON.String), step.Response); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return &step, nil
}
