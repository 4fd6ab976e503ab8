package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Маркеры шаблонных выражений.
const (
	markerOpen  = "{{"
	markerClose = "}}"
)

// exprPattern — допустимое содержимое {{...}}: имя переменной,
// опционально с точечным путём внутрь вложенных map.
var exprPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*(\.[A-Za-z0-9_-]+)*$`)

// Render рендерит строковый шаблон с переменными из context.
//
// Синтаксис — double-mustache подстановка:
//
//	"Bearer {{token}}"
//	"{{base_url}}/orders/{{order.id}}"
//
// Подстановка сырая: значение вставляется как есть, без какого-либо
// экранирования. Неопределённая переменная рендерится в пустую строку
// (классическая mustache семантика). Незакрытый маркер или недопустимое
// выражение — ErrTemplateParse.
func Render(tmpl string, vars map[string]any) (string, error) {
	// Быстрый путь: строка без шаблонных выражений
	if !strings.Contains(tmpl, markerOpen) {
		return tmpl, nil
	}

	var b strings.Builder
	rest := tmpl
	for {
		open := strings.Index(rest, markerOpen)
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		rest = rest[open+len(markerOpen):]

		end := strings.Index(rest, markerClose)
		if end < 0 {
			return "", fmt.Errorf("%w: unclosed %q in %q", ErrTemplateParse, markerOpen, tmpl)
		}

		expr := strings.TrimSpace(rest[:end])
		rest = rest[end+len(markerClose):]

		if !exprPattern.MatchString(expr) {
			return "", fmt.Errorf("%w: invalid expression %q", ErrTemplateParse, expr)
		}

		val, ok := lookup(vars, expr)
		if !ok {
			// Неопределённая переменная — пустая строка
			continue
		}
		rendered, err := renderValue(val)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrTemplateRender, expr, err)
		}
		b.WriteString(rendered)
	}
	return b.String(), nil
}

// CompileValue рекурсивно компилирует произвольное значение:
// строки рендерятся как шаблоны, map и slice обходятся вглубь
// с сохранением ключей и порядка, остальные скаляры возвращаются
// без изменений.
//
// Возвращает структурную копию: исходное значение не мутируется.
// Компиляция чистая и выполняется заново при каждом вызове,
// чтобы отредактированные переменные context всегда были видны.
func CompileValue(value any, vars map[string]any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch v := value.(type) {
	case string:
		return Render(v, vars)

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			compiled, err := CompileValue(val, vars)
			if err != nil {
				return nil, err
			}
			result[key] = compiled
		}
		return result, nil

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			compiled, err := CompileValue(val, vars)
			if err != nil {
				return nil, err
			}
			result[i] = compiled
		}
		return result, nil

	default:
		// Числа, bool, nil — как есть
		return value, nil
	}
}

// Compile компилирует описание запроса (top-level map).
func Compile(request map[string]any, vars map[string]any) (map[string]any, error) {
	compiled, err := CompileValue(request, vars)
	if err != nil {
		return nil, err
	}
	result, ok := compiled.(map[string]any)
	if !ok {
		// CompileValue сохраняет тип контейнера
		return nil, fmt.Errorf("%w: request is not a mapping", ErrTemplateRender)
	}
	return result, nil
}

// lookup разрешает точечный путь внутри вложенных map.
func lookup(vars map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")

	var current any = vars
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// renderValue превращает значение переменной в строку для подстановки.
func renderValue(val any) (string, error) {
	switch v := val.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		// JSON числа приходят как float64; целые рендерим без ".0"
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		// Вложенные структуры подставляются как JSON
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
