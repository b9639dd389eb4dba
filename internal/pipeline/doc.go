// Package pipeline превращает декларативные описания в цепочки.
//
// Pipeline — именованная линейная последовательность шагов с опциональным
// on_failure обработчиком. Описания загружаются из JSON-файлов (loader.go),
// валидируются (spec.go) и инстанцируются в chain.Chain[Payload]
// (launcher.go). Шаги работают над общим payload-документом
// map[string]any: каждый шаг получает документ предыдущего и отдаёт
// следующему свой.
//
// Встроенные типы шагов: http, delay, transform (registry.go).
// Строковые значения конфигурации поддерживают Go templates
// с payload в качестве контекста (template.go).
package pipeline
