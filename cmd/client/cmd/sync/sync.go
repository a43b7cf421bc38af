package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"logisync/cmd/client/cmd/types"
	"logisync/internal/app/client"
	syncdomain "logisync/internal/domain/sync"
)

var syncStatus bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Управление синхронизацией",
	Long: `Принудительный запуск цикла синхронизации и просмотр статуса.

Без сети команда завершается ошибкой немедленно: запуск не ставится
в очередь.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if syncStatus {
			return showSyncStatus(app)
		}

		return runSync(cmd.Context(), app)
	},
}

func runSync(ctx context.Context, app *client.App) error {
	fmt.Println("=== Синхронизация данных ===")

	if !app.IsAuthenticated() {
		return fmt.Errorf("%w. Выполните: logisync auth login", syncdomain.ErrNoSession)
	}

	// Включаем монитор сети: первая проверка синхронная
	app.Start(ctx)

	fmt.Println("Начало синхронизации...")
	result, err := app.ForceSync(ctx)
	if errors.Is(err, syncdomain.ErrNetworkUnavailable) {
		return fmt.Errorf("сервер недоступен, повторите при восстановлении сети")
	}
	if errors.Is(err, syncdomain.ErrSyncInProgress) {
		fmt.Println("⚠️  Синхронизация уже выполняется")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}

	fmt.Println()
	if result.Success {
		color.Green("✅ Синхронизация завершена!")
	} else {
		color.Yellow("⚠️  Синхронизация завершена с ошибками")
	}
	fmt.Printf("Время выполнения: %v\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("Отправлено операций: %d\n", result.Dispatched)
	fmt.Printf("Обновлено справочников: %d\n", result.Refreshed)

	if len(result.Errors) > 0 {
		fmt.Printf("Ошибок при синхронизации: %d\n", len(result.Errors))
		for i, recErr := range result.Errors {
			if i >= 3 { // Показываем только первые 3 ошибки
				fmt.Printf("  ... и еще %d ошибок\n", len(result.Errors)-3)
				break
			}
			fmt.Printf("  • %s [%s]: %s\n", recErr.RecordID, recErr.Domain, recErr.Error)
		}
	}

	return nil
}

func showSyncStatus(app *client.App) error {
	fmt.Println("=== Статус синхронизации ===")

	status := app.SyncStatus()

	fmt.Printf("🌐 Соединение: ")
	if status.IsOnline {
		color.Green("онлайн")
	} else {
		color.Red("офлайн")
	}

	fmt.Printf("🔐 Сессия: ")
	if status.HasUserSession {
		color.Green("активна")
	} else {
		color.Red("требуется вход")
	}

	fmt.Printf("Цикл выполняется: %v\n", status.SyncInProgress)
	fmt.Printf("Операций в очереди: %d\n", status.PendingOperations)
	if !status.LastSync.IsZero() {
		fmt.Printf("Последняя успешная: %s\n", status.LastSync.Format("2006-01-02 15:04:05"))
	}

	records, err := app.SyncBookkeeping()
	if err != nil || len(records) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println("📊 По областям:")
	for _, rec := range records {
		line := fmt.Sprintf("  %-10s %-6s ошибок подряд: %d", rec.Domain, rec.Status, rec.ErrorCount)
		if rec.ErrorCount > 0 {
			color.Yellow(line)
		} else {
			fmt.Println(line)
		}
	}

	return nil
}

func init() {
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
}
