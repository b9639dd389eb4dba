// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go           — Handler с DI (launcher, журнал executions, logger)
//   - routes.go            — регистрация маршрутов
//   - middleware.go        — middleware (logging, recovery, metrics)
//   - response.go          — унифицированные JSON-ответы и обработка ошибок
//   - dto.go               — Data Transfer Objects (request/response)
//   - pipeline_handler.go  — обработчики для /pipelines
//   - execution_handler.go — обработчики для /executions
//
// API предоставляет REST endpoints для запуска pipeline'ов
// и чтения журнала исполнений.
package api
