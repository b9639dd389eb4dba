package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"time"

	"github.com/shaiso/Catena/internal/chain"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPStep — шаг типа "http".
//
// Выполняет HTTP-запрос и кладёт ответ в payload.
//
// Config:
//   - method (string): HTTP-метод (GET, POST, PUT, DELETE). Default: GET
//   - url (string): URL для запроса (обязательно), поддерживает шаблоны
//   - headers (map[string]any): HTTP-заголовки
//   - body (any): тело запроса (сериализуется в JSON)
//   - timeout_sec (number): таймаут запроса в секундах. Default: 30
//   - into (string): ключ payload для ответа. Default: "response"
//
// В payload под ключом into попадает:
//   - status_code (int): HTTP-код ответа
//   - headers (map[string]string): заголовки ответа
//   - body (any): тело ответа (JSON или строка)
//
// Ответ с кодом >= 400 — отказ шага.
type HTTPStep struct {
	config map[string]any
	client *http.Client
}

// NewHTTPStep создаёт HTTP-шаг.
func NewHTTPStep(config map[string]any) (chain.Step[Payload], error) {
	if getString(config, "url", "") == "" {
		return nil, fmt.Errorf("%w: url is required", ErrHTTPRequest)
	}
	return &HTTPStep{
		config: config,
		client: &http.Client{},
	}, nil
}

// Run выполняет HTTP-запрос.
func (s *HTTPStep) Run(ctx context.Context, input Payload, res chain.Resolver[Payload]) error {
	config, err := RenderConfig(s.config, input)
	if err != nil {
		return err
	}

	method := getString(config, "method", http.MethodGet)
	url := getString(config, "url", "")
	into := getString(config, "into", "response")
	timeout := getTimeout(config)

	// Таймаут ограничивает только исходящий запрос. Resolver вызывается
	// с исходным ctx: отмена reqCtx после возврата Run не должна
	// доставаться следующему шагу.
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Подготавливаем body
	var bodyReader io.Reader
	if body, ok := config["body"]; ok && body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal body: %v", ErrHTTPRequest, err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrHTTPRequest, err)
	}

	setHeaders(req, config)

	// Content-Type по умолчанию для запросов с body
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHTTPRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrHTTPRequest, err)
	}

	output := maps.Clone(input)
	if output == nil {
		output = make(Payload)
	}
	output[into] = buildResponse(resp, respBody)

	if resp.StatusCode >= 400 {
		return res.Reject(ctx, fmt.Errorf("%w: HTTP %d: %s",
			ErrHTTPRequest, resp.StatusCode, truncate(string(respBody), 200)))
	}

	return res.Resolve(ctx, output)
}

// buildResponse формирует описание HTTP-ответа для payload.
func buildResponse(resp *http.Response, body []byte) map[string]any {
	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	// Парсим body: пробуем JSON, иначе строка
	var parsedBody any
	if err := json.Unmarshal(body, &parsedBody); err != nil {
		parsedBody = string(body)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        parsedBody,
	}
}

// getString извлекает строку из map с default значением.
func getString(m map[string]any, key, defaultVal string) string {
	if val, ok := m[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return defaultVal
}

// getTimeout извлекает таймаут из конфигурации.
func getTimeout(config map[string]any) time.Duration {
	if val, ok := config["timeout_sec"]; ok {
		switch v := val.(type) {
		case float64:
			if v > 0 {
				return time.Duration(v * float64(time.Second))
			}
		case int:
			if v > 0 {
				return time.Duration(v) * time.Second
			}
		}
	}
	return defaultHTTPTimeout
}

// setHeaders устанавливает заголовки из конфигурации.
func setHeaders(req *http.Request, config map[string]any) {
	headers, ok := config["headers"]
	if !ok || headers == nil {
		return
	}

	switch h := headers.(type) {
	case map[string]any:
		for key, val := range h {
			if s, ok := val.(string); ok {
				req.Header.Set(key, s)
			}
		}
	case map[string]string:
		for key, val := range h {
			req.Header.Set(key, val)
		}
	}
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
