package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shklv/reqchain/internal/domain"
)

// ChainRepo — репозиторий для работы с chains.
type ChainRepo struct {
	db *sql.DB
}

// NewChainRepo создаёт новый ChainRepo.
func NewChainRepo(db *sql.DB) *ChainRepo {
	return &ChainRepo{db: db}
}

// Create создаёт новый chain.
func (r *ChainRepo) Create(ctx context.Context, chain *domain.Chain) error {
	query := `
		INSERT INTO chains (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		chain.ID.String(),
		chain.Name,
		chain.CreatedAt,
		chain.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateName, chain.Name)
		}
		return fmt.Errorf("insert chain: %w", err)
	}
	return nil
}

// GetByID возвращает chain по ID.
func (r *ChainRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chain, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM chains
		WHERE id = ?
	`
	return r.scanChain(r.db.QueryRowContext(ctx, query, id.String()))
}

// GetByName возвращает chain по имени.
func (r *ChainRepo) GetByName(ctx context.Context, name string) (*domain.Chain, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM chains
		WHERE name = ?
	`
	return r.scanChain(r.db.QueryRowContext(ctx, query, name))
}

// List возвращает все chains в порядке создания.
func (r *ChainRepo) List(ctx context.Context) ([]domain.Chain, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM chains
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}
	defer rows.Close()

	var chains []domain.Chain
	for rows.Next() {
		var (
			chain domain.Chain
			id    string
		)
		if err := rows.Scan(&id, &chain.Name, &chain.CreatedAt, &chain.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chain: %w", err)
		}
		chain.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse chain id: %w", err)
		}
		chains = append(chains, chain)
	}
	return chains, rows.Err()
}

// Delete удаляет chain вместе с его шагами.
func (r *ChainRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM steps WHERE chain_id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete chain steps: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM chains WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete chain: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: chain %s", ErrNotFound, id)
	}

	return tx.Commit()
}

// scanChain сканирует одну строку в domain.Chain.
func (r *ChainRepo) scanChain(row *sql.Row) (*domain.Chain, error) {
	var (
		chain domain.Chain
		id    string
	)
	err := row.Scan(&id, &chain.Name, &chain.CreatedAt, &chain.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: chain", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan chain: %w", err)
	}
	chain.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse chain id: %w", err)
	}
	return &chain, nil
}
