// Package executor выполняет шаги: компиляция запроса, диспетчеризация
// по типу и запуск соответствующего runner'а.
//
// # Поток выполнения
//
//	Dispatcher.Execute
//	    → ContextProvider.Variables      (чтение переменных)
//	    → engine.Compile                 (step.Compiled)
//	    → HTTPRunner | OAuthRunner       (step.Response)
//
// Внутри одного выполнения порядок строгий: компиляция до
// диспетчеризации, диспетчеризация до записи Response.
//
// # Политика ошибок
//
// Два класса исходов:
//
//   - структурные сбои — ErrUnknownStepType, ErrUnknownOAuthAction,
//     ErrInvalidConfig, ошибки шаблона, ErrSessionStart, ErrAuthTimeout —
//     возвращаются как error, Response шага не трогается;
//   - неудачные попытки — transport ошибка, HTTP статус != 200 —
//     фиксируются в Response (Completed=true, Error=true) и error
//     НЕ являются: "запрос не прошёл" — полезный результат для
//     отображения, а не crash.
//
// # Параллельность
//
// Одновременные выполнения одного шага запрещены: Dispatcher держит
// in-flight набор по ID шага и отклоняет второй Execute с
// ErrExecutionInFlight. Отмена — через context.Context: прерывает
// HTTP запрос и опрос заголовка, браузерная сессия закрывается
// детерминированно.
package executor
