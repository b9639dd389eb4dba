// Package scheduler реализует запуск pipeline'ов по расписанию.
//
// Scheduler строит список расписаний из зарегистрированных pipeline'ов
// (поле schedule в спецификации) и периодически проверяет записи
// с истекшим next_due, запуская их через Launcher.
//
// Структура:
//   - scheduler.go — основная логика Scheduler (Reload, Tick, fire)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Launcher: launcher,
//	    Logger:   logger,
//	})
//
//	sched.Start(ctx)
//	defer sched.Stop()
//
// Расписания живут в памяти и перечитываются при старте; после рестарта
// next_due вычисляется заново от текущего времени.
package scheduler
