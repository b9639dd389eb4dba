package telemetry

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogger инициализирует глобальный логгер процесса.
//
// Уровень берётся из LOG_LEVEL (DEBUG, INFO, WARN, ERROR; default INFO),
// формат — из LOG_FORMAT: "json" (default) для production,
// "text" — человекочитаемый для разработки.
func SetupLogger() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Стандартные атрибуты: одни и те же ключи во всех пакетах, чтобы логи
// одной цепочки склеивались по chain_id / execution_id / pipeline.

// WithChainID возвращает логгер с добавленным chain_id.
func WithChainID(logger *slog.Logger, chainID string) *slog.Logger {
	return logger.With("chain_id", chainID)
}

// WithExecutionID возвращает логгер с добавленным execution_id.
func WithExecutionID(logger *slog.Logger, executionID string) *slog.Logger {
	return logger.With("execution_id", executionID)
}

// WithPipeline возвращает логгер с добавленным именем pipeline'а.
func WithPipeline(logger *slog.Logger, pipeline string) *slog.Logger {
	return logger.With("pipeline", pipeline)
}
