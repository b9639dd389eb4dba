package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// templateFuncs — дополнительные функции для шаблонов.
var templateFuncs = template.FuncMap{
	// json — сериализует значение в JSON строку
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},

	// default — возвращает значение по умолчанию, если первый аргумент пустой
	"default": func(def, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && s == "" {
			return def
		}
		return val
	},

	// fromJSON — парсит JSON строку
	"fromJSON": func(s string) any {
		var result any
		if err := json.Unmarshal([]byte(s), &result); err != nil {
			return nil
		}
		return result
	},

	// join — объединяет слайс строк
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},

	// split — разбивает строку на слайс
	"split": func(sep, s string) []string {
		return strings.Split(s, sep)
	},

	// contains — проверяет, содержит ли строка подстроку
	"contains": strings.Contains,

	// lower — приводит к нижнему регистру
	"lower": strings.ToLower,

	// upper — приводит к верхнему регистру
	"upper": strings.ToUpper,

	// trim — удаляет пробелы по краям
	"trim": strings.TrimSpace,

	// replace — заменяет подстроку
	"replace": strings.ReplaceAll,
}

// Render рендерит строковый шаблон с payload в качестве контекста.
//
// Шаблон может содержать Go template выражения:
//
//	{{ .user_id }}
//	{{ .response.body }}
//	{{ if .retry }}...{{ end }}
//
// Строка без шаблонных выражений возвращается как есть.
func Render(tmpl string, payload Payload) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(templateFuncs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	return buf.String(), nil
}

// RenderValue рекурсивно рендерит строковые значения внутри value.
// Карты и слайсы обходятся, прочие типы возвращаются как есть.
func RenderValue(value any, payload Payload) (any, error) {
	switch v := value.(type) {
	case string:
		return Render(v, payload)

	case map[string]any:
		rendered := make(map[string]any, len(v))
		for key, val := range v {
			rv, err := RenderValue(val, payload)
			if err != nil {
				return nil, err
			}
			rendered[key] = rv
		}
		return rendered, nil

	case []any:
		rendered := make([]any, len(v))
		for i, val := range v {
			rv, err := RenderValue(val, payload)
			if err != nil {
				return nil, err
			}
			rendered[i] = rv
		}
		return rendered, nil

	default:
		return value, nil
	}
}

// RenderConfig рендерит все строковые значения конфигурации шага.
func RenderConfig(config map[string]any, payload Payload) (map[string]any, error) {
	if config == nil {
		return map[string]any{}, nil
	}

	rendered, err := RenderValue(config, payload)
	if err != nil {
		return nil, err
	}
	return rendered.(map[string]any), nil
}
