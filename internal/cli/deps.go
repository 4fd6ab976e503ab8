package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/shklv/reqchain/internal/browser"
	"github.com/shklv/reqchain/internal/config"
	"github.com/shklv/reqchain/internal/domain"
	"github.com/shklv/reqchain/internal/executor"
	"github.com/shklv/reqchain/internal/repo"
)

// Deps — зависимости команд: store и dispatcher.
//
// Открываются лениво (первой командой, которой они нужны)
// и закрываются по завершении команды.
type Deps struct {
	db *sql.DB

	Chains     *repo.ChainRepo
	Steps      *repo.StepRepo
	Vars       *repo.ContextRepo
	Dispatcher *executor.Dispatcher
}

// OpenDeps открывает store и собирает dispatcher по конфигу.
func OpenDeps(ctx context.Context, cfg *config.Config) (*Deps, error) {
	db, err := repo.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	vars := repo.NewContextRepo(db)
	driver := &browser.ChromeDriver{
		ProfileDir:     cfg.Browser.ProfileDir,
		DefaultBrowser: cfg.Browser.Default,
		PollInterval:   cfg.Browser.PollInterval(),
	}

	return &Deps{
		db:         db,
		Chains:     repo.NewChainRepo(db),
		Steps:      repo.NewStepRepo(db),
		Vars:       vars,
		Dispatcher: executor.NewDispatcher(vars, driver),
	}, nil
}

// Close освобождает ресурсы.
func (d *Deps) Close() error {
	return d.db.Close()
}

// ResolveChain находит chain по UUID или имени.
func (d *Deps) ResolveChain(ctx context.Context, ref string) (*domain.Chain, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return d.Chains.GetByID(ctx, id)
	}
	return d.Chains.GetByName(ctx, ref)
}

// ResolveStep находит шаг по UUID.
func (d *Deps) ResolveStep(ctx context.Context, ref string) (*domain.Step, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid step id %q: %w", ref, err)
	}
	return d.Steps.GetByID(ctx, id)
}
