// Package chain реализует последовательную асинхронную цепочку шагов.
//
// Chain отвечает за:
//   - Упорядоченное выполнение шагов (результат шага передаётся следующему)
//   - Контракт resolver'а (ровно один resolve/reject на запуск шага)
//   - Каскад обработки ошибок (пробуется только первый обработчик)
//   - Финализацию (FULFILLED/REJECTED) ровно один раз
//
// Выполнение шагов отдаётся внешнему Scheduler'у: цепочка просит
// "запусти следующий шаг позже", а Scheduler асинхронно вызывает
// RunScheduledUnit обратно — возможно на другом worker'е и много позже.
// Цепочка сама не держит блокирующих ожиданий.
package chain
