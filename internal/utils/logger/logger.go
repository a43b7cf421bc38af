package logger

import (
	"os"
	"path/filepath"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"

	"logisync/internal/app/client/config"
)

// New создает логгер в зависимости от окружения:
// local — текстовый вывод с уровнем Debug, dev — JSON с уровнем Debug,
// prod — JSON с уровнем Info и ротацией файла.
func New(env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return setupPrettySlog()
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(prodWriter(), &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	default:
		return setupPrettySlog()
	}
}

func setupPrettySlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// prodWriter возвращает writer с ротацией, чтобы журнал клиента
// не рос бесконечно на устройстве.
func prodWriter() *lumberjack.Logger {
	dir, err := os.UserHomeDir()
	if err != nil {
		dir = "."
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, ".logisync", "client.log"),
		MaxSize:    10, // мегабайт
		MaxBackups: 3,
		MaxAge:     28, // дней
	}
}
