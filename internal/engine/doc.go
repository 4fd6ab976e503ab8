// Package engine содержит компилятор шаблонов запросов.
//
// Описание запроса (map[string]any) может содержать {{variable}}
// подстановки в любых строковых листьях на любой глубине вложенности.
// CompileValue обходит структуру рекурсивно и возвращает копию,
// в которой каждая строка прошла через Render:
//
//	vars := map[string]any{"host": "api.example.com", "auth": map[string]any{"token": "xyz"}}
//	compiled, err := engine.Compile(map[string]any{
//	    "url":     "https://{{host}}/v1/me",
//	    "headers": map[string]any{"Authorization": "Bearer {{auth.token}}"},
//	}, vars)
//
// Семантика подстановки:
//   - сырая (без экранирования);
//   - точечные пути разрешаются внутрь вложенных map;
//   - неопределённая переменная — пустая строка;
//   - незакрытый {{ или недопустимое выражение — ErrTemplateParse.
//
// Компиляция чистая: без кеширования, без мутации входа.
package engine
