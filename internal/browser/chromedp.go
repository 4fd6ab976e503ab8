package browser

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultPollInterval = 500 * time.Millisecond

// ChromeDriver — реализация Driver поверх chromedp.
type ChromeDriver struct {
	// ProfileDir — базовая директория для постоянных профилей
	// именованных браузеров (<ProfileDir>/<browserName>).
	ProfileDir string

	// DefaultBrowser — браузер, когда шаг его не указал.
	// Пусто — headless без профиля.
	DefaultBrowser string

	// PollInterval — интервал опроса заголовка в WaitTitle.
	// 0 — значение по умолчанию (500ms).
	PollInterval time.Duration
}

// NewSession запускает браузер и возвращает сессию.
//
// browserName == "" — headless браузер без профиля.
// Именованный браузер запускается с окном и постоянной
// директорией профиля для сохранённых учётных данных.
func (d *ChromeDriver) NewSession(ctx context.Context, browserName string) (Session, error) {
	if browserName == "" {
		browserName = d.DefaultBrowser
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if browserName != "" {
		opts = append(opts,
			chromedp.Flag("headless", false),
			chromedp.UserDataDir(filepath.Join(d.ProfileDir, browserName)),
		)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Пустой Run стартует процесс браузера
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser %q: %w", browserName, err)
	}

	poll := d.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	return &chromeSession{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		poll:          poll,
	}, nil
}

// chromeSession — одна chromedp сессия.
type chromeSession struct {
	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	closed        bool
	poll          time.Duration
}

// Navigate переходит по URL.
func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	runCtx, err := s.runContext()
	if err != nil {
		return err
	}
	return chromedp.Run(runCtx, chromedp.Navigate(url))
}

// Title возвращает заголовок текущей страницы.
func (s *chromeSession) Title(ctx context.Context) (string, error) {
	runCtx, err := s.runContext()
	if err != nil {
		return "", err
	}
	var title string
	if err := chromedp.Run(runCtx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// WaitTitle опрашивает заголовок до совпадения или timeout.
//
// Ошибки чтения заголовка во время опроса не фатальны: провайдер
// может быть в середине redirect'а, когда страница ещё не готова.
func (s *chromeSession) WaitTitle(ctx context.Context, timeout time.Duration, match func(string) bool) (string, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		title, err := s.Title(ctx)
		if err == nil && match(title) {
			return title, nil
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w after %s", ErrWaitTimeout, timeout)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close завершает браузерную сессию. Идемпотентен.
func (s *chromeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.browserCancel()
	s.allocCancel()
	return nil
}

// runContext возвращает контекст для chromedp операций
// или ErrSessionClosed после Close.
func (s *chromeSession) runContext() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.browserCtx, nil
}
