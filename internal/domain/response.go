package domain

// Response — нормализованный результат одного выполнения шага.
//
// Заполняется runner'ами (HTTP или OAuth). Перезаписывается целиком:
// частично заполненный Response с Completed=false никогда не возвращается
// вызывающему коду.
type Response struct {
	// Status — HTTP код ответа. 0, если ответ не был получен
	// (transport failure) или шаг не HTTP.
	Status int `json:"status,omitempty"`

	// Completed — true, если попытка выполнена и нормализована
	// (в том числе неудачная попытка с Error=true).
	Completed bool `json:"completed"`

	// Error — true, если попытка неуспешна: transport ошибка
	// или HTTP статус != 200.
	Error bool `json:"error,omitempty"`

	// ErrorDetail — текст ошибки для отображения (опционально).
	ErrorDetail string `json:"error_detail,omitempty"`

	// Headers — заголовки HTTP ответа (только для HTTP шагов).
	Headers map[string]string `json:"headers,omitempty"`

	// Body — тело HTTP ответа: распарсенный JSON или строка
	// (только для HTTP шагов).
	Body any `json:"body,omitempty"`

	// Code — authorization code из OAuth redirect (только для OAUTH шагов).
	// Пустая строка, если провайдер не вернул параметр code.
	Code string `json:"code,omitempty"`
}

// Failed возвращает true, если попытка завершилась неуспешно.
func (r *Response) Failed() bool {
	return r != nil && r.Error
}
