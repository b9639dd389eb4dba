// Package dispatch связывает цепочки с транспортом RabbitMQ.
//
// Dispatcher реализует chain.Scheduler: запрос "выполни следующий шаг"
// превращается в сообщение step.ready, а consumer очереди steps.ready
// доставляет его обратно — возможно сильно позже — и re-enter'ит
// цепочку через RunScheduledUnit.
//
// Dispatcher держит реестр активных цепочек (chainID → handle):
// сообщение для завершённой или неизвестной цепочки подтверждается
// и молча отбрасывается.
package dispatch
