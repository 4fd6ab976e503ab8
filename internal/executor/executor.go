package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/shklv/reqchain/internal/browser"
	"github.com/shklv/reqchain/internal/domain"
	"github.com/shklv/reqchain/internal/engine"
)

// ContextProvider отдаёт полное отображение переменных context.
//
// Читается один раз в начале каждого выполнения — выполнения
// тестируются изолированно с подставленным провайдером, а
// отредактированные переменные видны со следующего запуска.
type ContextProvider interface {
	Variables(ctx context.Context) (map[string]any, error)
}

// StaticContext — ContextProvider поверх готового map (для тестов
// и одноразовых выполнений).
type StaticContext map[string]any

// Variables возвращает map как есть.
func (s StaticContext) Variables(ctx context.Context) (map[string]any, error) {
	return s, nil
}

// Runner выполняет шаг одного типа.
//
// Реализации: HTTPRunner, OAuthRunner. Runner читает step.Compiled,
// пишет step.Response и возвращает его. Транспортные неудачи runner
// фиксирует в Response; error возвращается только для структурных
// сбоев выполнения.
type Runner interface {
	Run(ctx context.Context, step *domain.Step) (*domain.Response, error)
}

// Dispatcher компилирует запрос шага и направляет его runner'у по типу.
type Dispatcher struct {
	contexts ContextProvider
	runners  map[domain.StepType]Runner

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

// NewDispatcher создаёт Dispatcher со стандартными runner'ами:
// HTTP → HTTPRunner, OAUTH → OAuthRunner поверх переданного драйвера.
func NewDispatcher(contexts ContextProvider, driver browser.Driver) *Dispatcher {
	d := &Dispatcher{
		contexts: contexts,
		runners:  make(map[domain.StepType]Runner),
		inflight: make(map[uuid.UUID]struct{}),
	}
	d.Register(domain.StepTypeHTTP, NewHTTPRunner())
	d.Register(domain.StepTypeOAuth, NewOAuthRunner(driver))
	return d
}

// Register добавляет runner для типа шага.
// Существующий runner перезаписывается.
func (d *Dispatcher) Register(typ domain.StepType, runner Runner) {
	d.runners[typ] = runner
}

// Execute выполняет один шаг:
//
//  1. читает переменные context;
//  2. компилирует step.Request в step.Compiled;
//  3. направляет шаг runner'у по step.Type.
//
// Порядок строгий: компиляция до диспетчеризации, диспетчеризация до
// любой записи в Response. Ошибка шаблона или неизвестный тип отклоняют
// выполнение до каких-либо мутаций Response.
//
// Повторный Execute для шага с незавершённым выполнением возвращает
// ErrExecutionInFlight.
func (d *Dispatcher) Execute(ctx context.Context, step *domain.Step) (*domain.Response, error) {
	if err := d.acquire(step.ID); err != nil {
		return nil, err
	}
	defer d.release(step.ID)

	vars, err := d.contexts.Variables(ctx)
	if err != nil {
		return nil, fmt.Errorf("read context: %w", err)
	}

	compiled, err := engine.Compile(step.Request, vars)
	if err != nil {
		return nil, err
	}
	step.Compiled = compiled

	runner, ok := d.runners[step.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStepType, step.Type)
	}

	return runner.Run(ctx, step)
}

// acquire помечает шаг как выполняющийся.
func (d *Dispatcher) acquire(stepID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, busy := d.inflight[stepID]; busy {
		return fmt.Errorf("%w: %s", ErrExecutionInFlight, stepID)
	}
	d.inflight[stepID] = struct{}{}
	return nil
}

// release снимает пометку in-flight.
func (d *Dispatcher) release(stepID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, stepID)
}
