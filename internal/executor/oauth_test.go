package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shklv/reqchain/internal/browser"
	"github.com/shklv/reqchain/internal/domain"
)

// fakeSession — браузерная сессия для тестов flow.
type fakeSession struct {
	mu         sync.Mutex
	title      string
	navigated  []string
	navErr     error
	closeCalls int
}

func (s *fakeSession) setTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigated = append(s.navigated, url)
	return s.navErr
}

func (s *fakeSession) Title(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title, nil
}

func (s *fakeSession) WaitTitle(ctx context.Context, timeout time.Duration, match func(string) bool) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		title, _ := s.Title(ctx)
		if match(title) {
			return title, nil
		}
		if time.Now().After(deadline) {
			return "", browser.ErrWaitTimeout
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	return nil
}

func (s *fakeSession) closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// fakeDriver — драйвер, отдающий заготовленную сессию.
type fakeDriver struct {
	session *fakeSession
	err     error

	lastBrowser string
}

func (d *fakeDriver) NewSession(ctx context.Context, browserName string) (browser.Session, error) {
	d.lastBrowser = browserName
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

func newOAuthStep(compiled map[string]any) *domain.Step {
	step := domain.NewStep(uuid.New(), "auth", 1, domain.StepTypeOAuth, nil)
	step.Compiled = compiled
	return step
}

func authorizeConfig() map[string]any {
	return map[string]any{
		"action":       "authorize",
		"url":          "https://idp.test/authorize?client_id=abc",
		"redirect_uri": "https://cb",
	}
}

func TestOAuthRunner_UnknownAction(t *testing.T) {
	runner := NewOAuthRunner(&fakeDriver{session: &fakeSession{}})
	step := newOAuthStep(map[string]any{"action": "refresh"})

	_, err := runner.Run(context.Background(), step)
	if !errors.Is(err, ErrUnknownOAuthAction) {
		t.Fatalf("expected ErrUnknownOAuthAction, got %v", err)
	}
	if step.Response != nil {
		t.Error("response must be untouched on unknown action")
	}
}

func TestOAuthRunner_CodeExtraction(t *testing.T) {
	session := &fakeSession{}
	session.setTitle("https://cb?code=abc123 Page Title")
	driver := &fakeDriver{session: session}

	runner := NewOAuthRunner(driver)
	step := newOAuthStep(authorizeConfig())

	resp, err := runner.Run(context.Background(), step)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Code != "abc123" {
		t.Errorf("expected code abc123, got %q", resp.Code)
	}
	if !resp.Completed {
		t.Error("expected completed=true")
	}
	if len(session.navigated) != 1 || session.navigated[0] != "https://idp.test/authorize?client_id=abc" {
		t.Errorf("unexpected navigation: %v", session.navigated)
	}
	// Сессия закрыта ровно один раз, до возврата
	if session.closed() != 1 {
		t.Errorf("expected exactly one close, got %d", session.closed())
	}
}

func TestOAuthRunner_MissingCodeIsNotAnError(t *testing.T) {
	session := &fakeSession{}
	session.setTitle("https://cb?state=xyz Page Title")

	runner := NewOAuthRunner(&fakeDriver{session: session})
	step := newOAuthStep(authorizeConfig())

	resp, err := runner.Run(context.Background(), step)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Code != "" {
		t.Errorf("expected empty code, got %q", resp.Code)
	}
	if !resp.Completed {
		t.Error("expected completed=true")
	}
}

func TestOAuthRunner_Timeout(t *testing.T) {
	session := &fakeSession{}
	session.setTitle("Sign in - IdP") // никогда не совпадёт

	runner := NewOAuthRunner(&fakeDriver{session: session})
	runner.waitCeiling = 20 * time.Millisecond

	step := newOAuthStep(authorizeConfig())

	_, err := runner.Run(context.Background(), step)
	if !errors.Is(err, ErrAuthTimeout) {
		t.Fatalf("expected ErrAuthTimeout, got %v", err)
	}

	// Сессия закрыта несмотря на timeout, ровно один раз
	if session.closed() != 1 {
		t.Errorf("expected exactly one close, got %d", session.closed())
	}
	if step.Response != nil {
		t.Error("response must be untouched on timeout")
	}
}

func TestOAuthRunner_SessionStartFailure(t *testing.T) {
	driver := &fakeDriver{err: errors.New("chrome not found")}

	runner := NewOAuthRunner(driver)
	step := newOAuthStep(authorizeConfig())

	_, err := runner.Run(context.Background(), step)
	if !errors.Is(err, ErrSessionStart) {
		t.Fatalf("expected ErrSessionStart, got %v", err)
	}
}

func TestOAuthRunner_NavigateFailureStillCloses(t *testing.T) {
	session := &fakeSession{navErr: errors.New("dns failure")}

	runner := NewOAuthRunner(&fakeDriver{session: session})
	step := newOAuthStep(authorizeConfig())

	_, err := runner.Run(context.Background(), step)
	if err == nil {
		t.Fatal("expected navigation error")
	}
	if session.closed() != 1 {
		t.Errorf("expected exactly one close, got %d", session.closed())
	}
}

func TestOAuthRunner_BrowserNamePassedToDriver(t *testing.T) {
	session := &fakeSession{}
	session.setTitle("https://cb?code=x Page")
	driver := &fakeDriver{session: session}

	runner := NewOAuthRunner(driver)
	config := authorizeConfig()
	config["browser"] = "chrome"
	step := newOAuthStep(config)

	if _, err := runner.Run(context.Background(), step); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if driver.lastBrowser != "chrome" {
		t.Errorf("browser id not passed to driver: %q", driver.lastBrowser)
	}
}

func TestOAuthRunner_MissingConfig(t *testing.T) {
	tests := []struct {
		name     string
		compiled map[string]any
	}{
		{
			name:     "missing url",
			compiled: map[string]any{"action": "authorize", "redirect_uri": "https://cb"},
		},
		{
			name:     "missing redirect_uri",
			compiled: map[string]any{"action": "authorize", "url": "https://idp.test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewOAuthRunner(&fakeDriver{session: &fakeSession{}})
			step := newOAuthStep(tt.compiled)

			_, err := runner.Run(context.Background(), step)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{
			name:     "url with code and suffix",
			title:    "https://cb?code=abc123 Page Title",
			expected: "abc123",
		},
		{
			name:     "url only",
			title:    "https://cb?code=zzz",
			expected: "zzz",
		},
		{
			name:     "code among other params",
			title:    "https://cb?state=s&code=c1&scope=email rest",
			expected: "c1",
		},
		{
			name:     "no code param",
			title:    "https://cb?state=s Page",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractCode(tt.title); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
