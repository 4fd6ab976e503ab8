package browser

import (
	"context"
	"errors"
	"time"
)

// Ошибки браузерного драйвера.
var (
	// ErrWaitTimeout — условие ожидания не выполнилось за отведённое время.
	ErrWaitTimeout = errors.New("wait condition timeout")

	// ErrSessionClosed — операция над уже закрытой сессией.
	ErrSessionClosed = errors.New("browser session closed")
)

// Session — одна браузерная сессия.
//
// Сессия эксклюзивно принадлежит одному выполнению authorization flow
// и не переиспользуется между шагами. Close обязателен на каждом пути
// выхода (успех, timeout, ошибка), иначе утекают процессы браузера.
type Session interface {
	// Navigate переходит по URL.
	Navigate(ctx context.Context, url string) error

	// Title возвращает заголовок текущей страницы.
	Title(ctx context.Context) (string, error)

	// WaitTitle опрашивает заголовок страницы до выполнения match
	// или истечения timeout. Возвращает совпавший заголовок.
	// По истечении — ErrWaitTimeout; при отмене ctx — ctx.Err().
	WaitTitle(ctx context.Context, timeout time.Duration, match func(title string) bool) (string, error)

	// Close завершает сессию. Идемпотентен.
	Close() error
}

// Driver создаёт браузерные сессии по идентификатору браузера.
//
// Пустой идентификатор — headless профиль по умолчанию. Именованный
// браузер получает видимое окно и постоянный профиль (cookies,
// сохранённые логины) — это нужно для OAuth провайдеров, где
// пользователь уже залогинен.
//
// Любая реализация с этими операциями подставима; production
// реализация — ChromeDriver (chromedp).
type Driver interface {
	NewSession(ctx context.Context, browserName string) (Session, error)
}
