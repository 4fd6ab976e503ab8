// Package telemetry — настройка структурированного логирования (slog)
// и передача логгера через context с chain_id/step_id атрибутами.
package telemetry
