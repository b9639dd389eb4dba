package pipeline

import "fmt"

// Spec — декларативное описание pipeline'а.
//
// Пример (JSON):
//
//	{
//	  "name": "fetch-and-store",
//	  "description": "Fetch a document and post the summary",
//	  "steps": [
//	    {"name": "fetch", "type": "http", "config": {"url": "https://example.com/doc"}},
//	    {"name": "summarize", "type": "transform", "config": {"set": {"summary": "{{ .response.body }}"}}},
//	    {"name": "store", "type": "http", "config": {"method": "POST", "url": "https://example.com/out"}}
//	  ],
//	  "on_failure": {"name": "report", "type": "http", "config": {"method": "POST", "url": "https://example.com/alerts"}}
//	}
type Spec struct {
	// Name — уникальное имя pipeline'а.
	Name string `json:"name"`

	// Description — человекочитаемое описание.
	Description string `json:"description,omitempty"`

	// Steps — упорядоченный список шагов.
	Steps []StepSpec `json:"steps"`

	// OnFailure — шаг восстановления. Вызывается при отказе любого шага;
	// его успешный результат становится итоговым payload.
	OnFailure *StepSpec `json:"on_failure,omitempty"`

	// Schedule — опциональный автозапуск по расписанию.
	Schedule *ScheduleSpec `json:"schedule,omitempty"`
}

// ScheduleSpec — расписание автозапуска pipeline'а.
type ScheduleSpec struct {
	// Cron — cron-выражение (5 полей: minute hour dom month dow).
	Cron string `json:"cron"`

	// Timezone — IANA timezone (default: UTC).
	Timezone string `json:"timezone,omitempty"`

	// Input — начальный payload для запусков по расписанию.
	Input map[string]any `json:"input,omitempty"`
}

// StepSpec — описание одного шага.
type StepSpec struct {
	// Name — имя шага, уникальное внутри pipeline'а.
	Name string `json:"name"`

	// Type — тип шага: "http", "delay", "transform".
	Type string `json:"type"`

	// Config — конфигурация шага. Строковые значения могут содержать
	// Go template выражения с payload в качестве контекста.
	Config map[string]any `json:"config,omitempty"`
}

// Validate выполняет полную валидацию Spec.
//
// Проверяет:
// - Наличие имени и шагов
// - Уникальность имён шагов
// - Корректность типов шагов (по реестру)
// - Валидность on_failure шага
func (s *Spec) Validate(reg *Registry) error {
	if s.Name == "" {
		return ErrEmptyName
	}

	if len(s.Steps) == 0 {
		return ErrEmptySteps
	}

	stepNames := make(map[string]bool)

	for i := range s.Steps {
		if err := validateStep(&s.Steps[i], stepNames, reg); err != nil {
			return err
		}
	}

	if s.OnFailure != nil {
		if err := validateStep(s.OnFailure, stepNames, reg); err != nil {
			return err
		}
	}

	return nil
}

// validateStep валидирует один шаг.
// stepNames — уже встреченные имена шагов (для проверки уникальности).
func validateStep(step *StepSpec, stepNames map[string]bool, reg *Registry) error {
	if step.Name == "" {
		return NewValidationError("", "name", "step has empty name", ErrEmptyStepName)
	}

	if stepNames[step.Name] {
		return NewValidationError(step.Name, "name",
			fmt.Sprintf("duplicate step name: %s", step.Name), ErrDuplicateStepName)
	}
	stepNames[step.Name] = true

	if step.Type == "" {
		return NewValidationError(step.Name, "type",
			"step has empty type", ErrUnknownStepType)
	}

	if !reg.Has(step.Type) {
		return NewValidationError(step.Name, "type",
			fmt.Sprintf("unknown step type: %s", step.Type), ErrUnknownStepType)
	}

	return nil
}
