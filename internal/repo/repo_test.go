package repo

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/shklv/reqchain/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestChainRepo_CRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	chains := NewChainRepo(db)

	chain := domain.NewChain("github-auth")
	if err := chains.Create(ctx, chain); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Дубликат имени
	dup := domain.NewChain("github-auth")
	if err := chains.Create(ctx, dup); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}

	got, err := chains.GetByName(ctx, "github-auth")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got.ID != chain.ID {
		t.Errorf("expected id %s, got %s", chain.ID, got.ID)
	}

	list, err := chains.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 chain, got %d", len(list))
	}

	if err := chains.Delete(ctx, chain.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := chains.GetByID(ctx, chain.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := chains.Delete(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStepRepo_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	chains := NewChainRepo(db)
	steps := NewStepRepo(db)

	chain := domain.NewChain("api")
	if err := chains.Create(ctx, chain); err != nil {
		t.Fatalf("create chain: %v", err)
	}

	request := map[string]any{
		"url":     "https://{{host}}/v1",
		"method":  "POST",
		"headers": map[string]any{"Authorization": "Bearer {{token}}"},
		"data":    map[string]any{"n": float64(1)},
	}
	step := domain.NewStep(chain.ID, "create-order", 1, domain.StepTypeHTTP, request)
	step.Compiled = map[string]any{"url": "ephemeral"}

	if err := steps.Create(ctx, step); err != nil {
		t.Fatalf("create step: %v", err)
	}

	got, err := steps.GetByID(ctx, step.ID)
	if err != nil {
		t.Fatalf("get step: %v", err)
	}

	if got.Type != domain.StepTypeHTTP {
		t.Errorf("expected HTTP, got %s", got.Type)
	}
	if !reflect.DeepEqual(got.Request, request) {
		t.Errorf("request round trip mismatch:\nwant %#v\ngot  %#v", request, got.Request)
	}
	// Compiled эфемерен и не сохраняется
	if got.Compiled != nil {
		t.Error("compiled must not be persisted")
	}
	if got.Response != nil {
		t.Error("new step must have no response")
	}
}

func TestStepRepo_UpdateResponse(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	chains := NewChainRepo(db)
	steps := NewStepRepo(db)

	chain := domain.NewChain("api")
	if err := chains.Create(ctx, chain); err != nil {
		t.Fatalf("create chain: %v", err)
	}
	step := domain.NewStep(chain.ID, "", 1, domain.StepTypeHTTP, map[string]any{"url": "https://x"})
	if err := steps.Create(ctx, step); err != nil {
		t.Fatalf("create step: %v", err)
	}

	response := &domain.Response{
		Status:    200,
		Completed: true,
		Headers:   map[string]string{"Content-Type": "application/json"},
		Body:      map[string]any{"ok": true},
	}
	if err := steps.UpdateResponse(ctx, step.ID, response); err != nil {
		t.Fatalf("update response: %v", err)
	}

	got, err := steps.GetByID(ctx, step.ID)
	if err != nil {
		t.Fatalf("get step: %v", err)
	}
	if got.Response == nil {
		t.Fatal("response not persisted")
	}
	if got.Response.Status != 200 || !got.Response.Completed {
		t.Errorf("response round trip mismatch: %+v", got.Response)
	}

	// Перезапись: новый результат полностью заменяет старый
	failed := &domain.Response{Completed: true, Error: true, ErrorDetail: "connection refused"}
	if err := steps.UpdateResponse(ctx, step.ID, failed); err != nil {
		t.Fatalf("update response: %v", err)
	}
	got, err = steps.GetByID(ctx, step.ID)
	if err != nil {
		t.Fatalf("get step: %v", err)
	}
	if got.Response.Status != 0 || !got.Response.Error {
		t.Errorf("response must be overwritten whole: %+v", got.Response)
	}

	if err := steps.UpdateResponse(ctx, uuid.New(), response); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStepRepo_OrderAndPositions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	chains := NewChainRepo(db)
	steps := NewStepRepo(db)

	chain := domain.NewChain("api")
	if err := chains.Create(ctx, chain); err != nil {
		t.Fatalf("create chain: %v", err)
	}

	pos, err := steps.NextPosition(ctx, chain.ID)
	if err != nil {
		t.Fatalf("next position: %v", err)
	}
	if pos != 1 {
		t.Errorf("first position must be 1, got %d", pos)
	}

	for i := 1; i <= 3; i++ {
		step := domain.NewStep(chain.ID, "", i, domain.StepTypeHTTP, map[string]any{"url": "https://x"})
		if err := steps.Create(ctx, step); err != nil {
			t.Fatalf("create step %d: %v", i, err)
		}
	}

	pos, err = steps.NextPosition(ctx, chain.ID)
	if err != nil {
		t.Fatalf("next position: %v", err)
	}
	if pos != 4 {
		t.Errorf("expected next position 4, got %d", pos)
	}

	list, err := steps.ListByChainID(ctx, chain.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(list))
	}
	for i, step := range list {
		if step.Position != i+1 {
			t.Errorf("steps out of order: position %d at index %d", step.Position, i)
		}
	}
}

func TestContextRepo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	vars := NewContextRepo(db)

	if err := vars.Set(ctx, "host", "api.test"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := vars.Set(ctx, "auth", map[string]any{"token": "xyz"}); err != nil {
		t.Fatalf("set nested: %v", err)
	}
	// Upsert
	if err := vars.Set(ctx, "host", "api.prod"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := vars.Get(ctx, "host")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "api.prod" {
		t.Errorf("expected api.prod, got %v", got)
	}

	all, err := vars.Variables(ctx)
	if err != nil {
		t.Fatalf("variables: %v", err)
	}
	expected := map[string]any{
		"host": "api.prod",
		"auth": map[string]any{"token": "xyz"},
	}
	if !reflect.DeepEqual(all, expected) {
		t.Errorf("expected %#v, got %#v", expected, all)
	}

	if err := vars.Unset(ctx, "host"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if _, err := vars.Get(ctx, "host"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := vars.Unset(ctx, "host"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double unset, got %v", err)
	}
}
