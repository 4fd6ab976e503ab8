package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/shklv/reqchain/internal/domain"
	"github.com/shklv/reqchain/internal/engine"
)

// runnerFunc — адаптер функции к интерфейсу Runner.
type runnerFunc func(ctx context.Context, step *domain.Step) (*domain.Response, error)

func (f runnerFunc) Run(ctx context.Context, step *domain.Step) (*domain.Response, error) {
	return f(ctx, step)
}

func newTestStep(typ domain.StepType, request map[string]any) *domain.Step {
	return domain.NewStep(uuid.New(), "test", 1, typ, request)
}

func TestDispatcher_UnknownStepType(t *testing.T) {
	d := NewDispatcher(StaticContext{}, nil)
	step := newTestStep(domain.StepType("FTP"), map[string]any{"url": "ftp://x"})

	_, err := d.Execute(context.Background(), step)
	if !errors.Is(err, ErrUnknownStepType) {
		t.Fatalf("expected ErrUnknownStepType, got %v", err)
	}

	// Response не тронут
	if step.Response != nil {
		t.Error("response must be untouched on unknown step type")
	}
}

func TestDispatcher_CompilesBeforeDispatch(t *testing.T) {
	var seen map[string]any

	d := NewDispatcher(StaticContext{"host": "api.test"}, nil)
	d.Register(domain.StepTypeHTTP, runnerFunc(func(ctx context.Context, step *domain.Step) (*domain.Response, error) {
		seen = step.Compiled
		resp := &domain.Response{Completed: true}
		step.SetResponse(resp)
		return resp, nil
	}))

	step := newTestStep(domain.StepTypeHTTP, map[string]any{"url": "https://{{host}}/v1"})

	resp, err := d.Execute(context.Background(), step)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Completed {
		t.Error("expected completed response")
	}

	if seen == nil {
		t.Fatal("runner did not receive compiled request")
	}
	if seen["url"] != "https://api.test/v1" {
		t.Errorf("request was not compiled before dispatch: %v", seen["url"])
	}
	if step.Compiled["url"] != "https://api.test/v1" {
		t.Errorf("step.Compiled not set: %v", step.Compiled)
	}
	// Исходный request не изменён
	if step.Request["url"] != "https://{{host}}/v1" {
		t.Errorf("step.Request mutated: %v", step.Request)
	}
}

func TestDispatcher_TemplateErrorAbortsBeforeDispatch(t *testing.T) {
	dispatched := false

	d := NewDispatcher(StaticContext{}, nil)
	d.Register(domain.StepTypeHTTP, runnerFunc(func(ctx context.Context, step *domain.Step) (*domain.Response, error) {
		dispatched = true
		return &domain.Response{Completed: true}, nil
	}))

	step := newTestStep(domain.StepTypeHTTP, map[string]any{"url": "https://{{unclosed"})

	_, err := d.Execute(context.Background(), step)
	if !errors.Is(err, engine.ErrTemplateParse) {
		t.Fatalf("expected ErrTemplateParse, got %v", err)
	}
	if dispatched {
		t.Error("runner must not run after template failure")
	}
	if step.Response != nil {
		t.Error("response must be untouched after template failure")
	}
}

func TestDispatcher_InFlightGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var startedOnce sync.Once

	d := NewDispatcher(StaticContext{}, nil)
	d.Register(domain.StepTypeHTTP, runnerFunc(func(ctx context.Context, step *domain.Step) (*domain.Response, error) {
		startedOnce.Do(func() { close(started) })
		<-release
		return &domain.Response{Completed: true}, nil
	}))

	step := newTestStep(domain.StepTypeHTTP, map[string]any{"url": "https://x"})

	done := make(chan error, 1)
	go func() {
		_, err := d.Execute(context.Background(), step)
		done <- err
	}()

	<-started

	// Второе выполнение того же шага — отказ
	_, err := d.Execute(context.Background(), step)
	if !errors.Is(err, ErrExecutionInFlight) {
		t.Errorf("expected ErrExecutionInFlight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first execution failed: %v", err)
	}

	// После завершения шаг снова доступен
	if _, err := d.Execute(context.Background(), step); err != nil {
		t.Errorf("step must be executable again, got %v", err)
	}
}

func TestDispatcher_ContextProviderError(t *testing.T) {
	providerErr := errors.New("store unavailable")
	provider := contextProviderFunc(func(ctx context.Context) (map[string]any, error) {
		return nil, providerErr
	})

	d := NewDispatcher(provider, nil)
	step := newTestStep(domain.StepTypeHTTP, map[string]any{"url": "https://x"})

	_, err := d.Execute(context.Background(), step)
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if step.Response != nil {
		t.Error("response must be untouched when context read fails")
	}
}

// contextProviderFunc — адаптер функции к интерфейсу ContextProvider.
type contextProviderFunc func(ctx context.Context) (map[string]any, error)

func (f contextProviderFunc) Variables(ctx context.Context) (map[string]any, error) {
	return f(ctx)
}
