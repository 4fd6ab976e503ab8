package executor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shklv/reqchain/internal/browser"
	"github.com/shklv/reqchain/internal/domain"
	"github.com/shklv/reqchain/internal/telemetry"
)

// Ключи описания OAuth шага.
const (
	configAction      = "action"
	configBrowser     = "browser"
	configRedirectURI = "redirect_uri"

	// actionAuthorize — единственное поддерживаемое OAuth действие.
	actionAuthorize = "authorize"

	// defaultAuthWait — потолок ожидания redirect'а.
	defaultAuthWait = 60 * time.Second
)

// OAuthRunner выполняет шаги типа OAUTH.
//
// Поддерживает одно действие — authorize: браузерный flow получения
// authorization code. Redirect обнаруживается по заголовку страницы:
// identity provider после логина перенаправляет на неразрешимый
// redirect_uri, и браузер показывает адрес (с параметрами callback'а)
// в качестве заголовка.
//
// Описание запроса (step.Compiled):
//
//	{
//	    "action":       "authorize",
//	    "url":          "https://idp.example.com/authorize?client_id=...",
//	    "redirect_uri": "https://cb",
//	    "browser":      "chrome"   // опционально; пусто — headless
//	}
type OAuthRunner struct {
	driver browser.Driver

	// waitCeiling — потолок ожидания redirect'а (тестами укорачивается).
	waitCeiling time.Duration
}

// NewOAuthRunner создаёт OAuthRunner поверх браузерного драйвера.
func NewOAuthRunner(driver browser.Driver) *OAuthRunner {
	return &OAuthRunner{
		driver:      driver,
		waitCeiling: defaultAuthWait,
	}
}

// Run направляет OAuth шаг по action.
func (r *OAuthRunner) Run(ctx context.Context, step *domain.Step) (*domain.Response, error) {
	action := getConfigString(step.Compiled, configAction)
	switch action {
	case actionAuthorize:
		return r.authorize(ctx, step)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOAuthAction, action)
	}
}

// authorize выполняет браузерный authorization flow:
//
//	Starting → NavigatedToAuthEndpoint → PollingForRedirect →
//	CodeExtracted → SessionClosed
//
// Закрытие сессии гарантировано на каждом пути выхода (успех,
// timeout, ошибка навигации) и строго предшествует возврату.
// Отсутствие параметра code в redirect'е ошибкой не является.
func (r *OAuthRunner) authorize(ctx context.Context, step *domain.Step) (*domain.Response, error) {
	logger := telemetry.WithStepID(telemetry.FromContext(ctx), step.ID.String())

	authURL := getConfigString(step.Compiled, configURL)
	if authURL == "" {
		return nil, fmt.Errorf("%w: oauth authorize: url is required", ErrInvalidConfig)
	}
	redirectURI := getConfigString(step.Compiled, configRedirectURI)
	if redirectURI == "" {
		return nil, fmt.Errorf("%w: oauth authorize: redirect_uri is required", ErrInvalidConfig)
	}
	browserName := getConfigString(step.Compiled, configBrowser)

	// Starting
	session, err := r.driver.NewSession(ctx, browserName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStart, err)
	}
	// SessionClosed: на каждом пути выхода, ровно один раз
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("browser session close failed", "error", cerr)
		}
	}()

	// NavigatedToAuthEndpoint
	if err := session.Navigate(ctx, authURL); err != nil {
		return nil, fmt.Errorf("navigate to auth endpoint: %w", err)
	}
	logger.Debug("navigated to auth endpoint", "url", authURL)

	// PollingForRedirect
	title, err := session.WaitTitle(ctx, r.waitCeiling, func(title string) bool {
		return strings.HasPrefix(title, redirectURI)
	})
	if err != nil {
		if errors.Is(err, browser.ErrWaitTimeout) {
			return nil, fmt.Errorf("%w: no redirect to %q within %s", ErrAuthTimeout, redirectURI, r.waitCeiling)
		}
		return nil, fmt.Errorf("wait for redirect: %w", err)
	}

	// CodeExtracted
	result := &domain.Response{
		Completed: true,
		Code:      extractCode(title),
	}
	step.SetResponse(result)

	logger.Debug("authorization code extracted", "has_code", result.Code != "")
	return result, nil
}

// extractCode достаёт параметр code из заголовка страницы redirect'а.
//
// Заголовок имеет вид "<url-or-query> <anything>": берётся первый
// токен до пробела, интерпретируется как URL, читается query
// параметр code. Отсутствие параметра — пустая строка.
func extractCode(title string) string {
	first, _, _ := strings.Cut(title, " ")
	u, err := url.Parse(first)
	if err != nil {
		return ""
	}
	return u.Query().Get("code")
}
