// cmd/client/cmd/auth/logout.go
package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"logisync/cmd/client/cmd/types"
	"logisync/internal/app/client"
)

var forceLogout bool

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти из системы",
	Long: `Выход удаляет сессию и ВСЕ локальные офлайн-данные устройства.

Несинхронизированные операции будут потеряны. Перед выходом
рекомендуется выполнить: logisync sync`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if !app.IsAuthenticated() {
			fmt.Println("Активная сессия не найдена")
			return nil
		}

		pending := app.Snapshot().TotalOperations()
		if pending > 0 && !forceLogout {
			return fmt.Errorf("есть несинхронизированные операции (%d). Выполните 'logisync sync' или повторите с флагом --force", pending)
		}

		if err := app.Logout(); err != nil {
			return fmt.Errorf("ошибка выхода: %w", err)
		}

		fmt.Println("✅ Выход выполнен, локальные данные очищены")
		return nil
	},
}

func init() {
	LogoutCmd.Flags().BoolVarP(&forceLogout, "force", "f", false, "выйти, даже если есть несинхронизированные операции")
}
