// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с redial-политикой (настраивается через ConnectionConfig)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в конверте Message
//   - consumer.go   — потребление очереди с маршрутизацией по типу сообщения
//
// Типы сообщений:
//   - step.ready — следующий шаг цепочки готов к выполнению
//
// Exchanges:
//   - catena.chains — события цепочек
//   - catena.dlq    — dead letter queue
package mq
