package pipeline

import "errors"

// Ошибки валидации Spec.
var (
	// ErrEmptyName — pipeline не имеет имени.
	ErrEmptyName = errors.New("pipeline has empty name")

	// ErrEmptySteps — pipeline не содержит шагов.
	ErrEmptySteps = errors.New("pipeline has no steps")

	// ErrEmptyStepName — шаг не имеет имени.
	ErrEmptyStepName = errors.New("step has empty name")

	// ErrDuplicateStepName — несколько шагов с одинаковым именем.
	ErrDuplicateStepName = errors.New("duplicate step name")

	// ErrUnknownStepType — неизвестный тип шага.
	ErrUnknownStepType = errors.New("unknown step type")
)

// Ошибки реестра pipeline'ов.
var (
	// ErrPipelineNotFound — pipeline с таким именем не зарегистрирован.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrDuplicatePipeline — pipeline с таким именем уже зарегистрирован.
	ErrDuplicatePipeline = errors.New("pipeline already registered")
)

// Ошибки выполнения шагов.
var (
	// ErrHTTPRequest — ошибка HTTP-запроса.
	ErrHTTPRequest = errors.New("http request failed")

	// ErrTemplateParse — ошибка парсинга шаблона.
	ErrTemplateParse = errors.New("template parse failed")

	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	Step    string // имя шага, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Step != "" {
		return "step " + e.Step + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(step, field, message string, err error) *ValidationError {
	return &ValidationError{
		Step:    step,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
