package executor

import "errors"

// Ошибки выполнения шагов.
//
// Структурные ошибки (unknown type/action, невалидный конфиг, ошибка
// шаблона, ошибка старта сессии, timeout авторизации) возвращаются
// через error и отклоняют выполнение целиком. Transport ошибки и
// не-200 статусы ошибками НЕ являются — они фиксируются в Response
// как полноценный результат неудачной попытки.
var (
	// ErrUnknownStepType — тип шага вне {HTTP, OAUTH}.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrUnknownOAuthAction — OAuth action, отличный от authorize.
	ErrUnknownOAuthAction = errors.New("unknown oauth action")

	// ErrInvalidConfig — невалидное описание запроса
	// (отсутствует url, redirect_uri и т.п.).
	ErrInvalidConfig = errors.New("invalid step config")

	// ErrExecutionInFlight — шаг уже выполняется.
	// Параллельные выполнения одного шага запрещены: Response
	// принадлежит ровно одному in-flight выполнению.
	ErrExecutionInFlight = errors.New("step execution already in flight")

	// ErrSessionStart — браузерная сессия не запустилась.
	ErrSessionStart = errors.New("browser session start failed")

	// ErrAuthTimeout — redirect не обнаружен за отведённое время.
	// Сессия при этом уже закрыта.
	ErrAuthTimeout = errors.New("authorization redirect timeout")
)
