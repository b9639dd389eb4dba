// Package cli реализует инструмент командной строки Catena.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Catena API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для просмотра pipeline'ов и запуска executions.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Catena API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	pipelines, err := client.ListPipelines()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы и вертикальные карточки (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Списки печатаются через Print, одиночные сущности — через Details.
// Данные выводятся в stdout, сообщения (Success) — в stderr.
// Это позволяет использовать pipe: catena pipeline list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - pipeline: list, show
//   - execution: list, start, show
//
// Каждая группа создаётся через фабричную функцию (NewPipelineCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
