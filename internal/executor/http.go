package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shklv/reqchain/internal/domain"
	"github.com/shklv/reqchain/internal/telemetry"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
)

// Ключи описания HTTP запроса.
const (
	configMethod  = "method"
	configURL     = "url"
	configHeaders = "headers"
	configBody    = "body"
	configForm    = "form"
	configData    = "data"
)

// HTTPRunner выполняет шаги типа HTTP.
//
// Описание запроса (step.Compiled):
//
//	{
//	    "method":  "POST",
//	    "url":     "https://{{host}}/orders",
//	    "headers": {"Authorization": "Bearer {{token}}"},
//	    "body":    "raw payload",            // или
//	    "form":    {"user": "{{login}}"},    // urlencoded, или
//	    "data":    {"items": [1, 2]}         // JSON
//	}
//
// Транспортные ошибки не пробрасываются: вызывающий код всегда
// получает Response для отображения. Неудачная попытка — такой же
// результат, как удачная.
type HTTPRunner struct {
	client *http.Client
}

// NewHTTPRunner создаёт HTTPRunner с таймаутом по умолчанию.
func NewHTTPRunner() *HTTPRunner {
	return &HTTPRunner{
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Run выполняет один HTTP запрос из step.Compiled.
//
// Всегда Completed=true. Error=true при transport ошибке ИЛИ статусе,
// отличном ровно от 200 (201, 204, 3xx — тоже ошибка; политика
// сохранена сознательно). Headers и Body записываются всегда, когда
// ответ был получен, даже для ошибочных статусов.
func (r *HTTPRunner) Run(ctx context.Context, step *domain.Step) (*domain.Response, error) {
	logger := telemetry.WithStepID(telemetry.FromContext(ctx), step.ID.String())

	rawURL := getConfigString(step.Compiled, configURL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: http step: url is required", ErrInvalidConfig)
	}

	req, err := r.buildRequest(ctx, step.Compiled, rawURL)
	if err != nil {
		// Некорректное значение (кривой URL и т.п.) — неудачная
		// попытка, а не сбой выполнения
		return fail(step, logger, err), nil
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fail(step, logger, err), nil
	}
	defer resp.Body.Close()

	result := &domain.Response{
		Status:    resp.StatusCode,
		Completed: true,
		Error:     resp.StatusCode != http.StatusOK,
		Headers:   flattenHeaders(resp.Header),
		Body:      parseBody(resp),
	}
	step.SetResponse(result)

	logger.Debug("http step finished", "status", resp.StatusCode, "error", result.Error)
	return result, nil
}

// buildRequest собирает http.Request из скомпилированного описания.
func (r *HTTPRunner) buildRequest(ctx context.Context, config map[string]any, rawURL string) (*http.Request, error) {
	method := strings.ToUpper(getConfigString(config, configMethod))
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := buildPayload(config)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}

	for key, value := range getConfigMapString(config, configHeaders) {
		req.Header.Set(key, value)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req, nil
}

// buildPayload выбирает кодировку тела по форме описания:
// body — сырая строка, form — urlencoded, data — JSON.
func buildPayload(config map[string]any) (io.Reader, string, error) {
	if raw, ok := config[configBody]; ok && raw != nil {
		switch v := raw.(type) {
		case string:
			return strings.NewReader(v), "", nil
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, "", fmt.Errorf("marshal body: %w", err)
			}
			return strings.NewReader(string(b)), "application/json", nil
		}
	}

	if form := getConfigMap(config, configForm); form != nil {
		values := url.Values{}
		for key, val := range form {
			values.Set(key, fmt.Sprint(val))
		}
		return strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", nil
	}

	if data, ok := config[configData]; ok && data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, "", fmt.Errorf("marshal data: %w", err)
		}
		return strings.NewReader(string(b)), "application/json", nil
	}

	return nil, "", nil
}

// fail фиксирует transport ошибку в Response шага.
// Статуса нет, headers и body отсутствуют: ответ не был получен.
func fail(step *domain.Step, logger *slog.Logger, err error) *domain.Response {
	result := &domain.Response{
		Completed:   true,
		Error:       true,
		ErrorDetail: err.Error(),
	}
	step.SetResponse(result)

	logger.Debug("http step failed", "error", err)
	return result
}

// flattenHeaders преобразует заголовки в map[string]string.
func flattenHeaders(header http.Header) map[string]string {
	headers := make(map[string]string, len(header))
	for key := range header {
		headers[key] = header.Get(key)
	}
	return headers
}

// parseBody читает тело ответа: JSON парсится в структуру,
// остальное возвращается строкой.
func parseBody(resp *http.Response) any {
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return ""
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var body any
		if err := json.Unmarshal(bodyBytes, &body); err == nil {
			return body
		}
	}
	return string(bodyBytes)
}
