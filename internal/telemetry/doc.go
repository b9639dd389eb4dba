// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//
// Сервер и CLI используют единый формат логирования;
// метрики экспортируются на /metrics endpoint сервера.
package telemetry
