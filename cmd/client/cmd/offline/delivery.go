// cmd/client/cmd/offline/delivery.go
package offline

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"logisync/cmd/client/cmd/types"
	"logisync/internal/app/client"
	"logisync/internal/domain/transport"
)

var (
	deliveryRouteID    int
	deliveryCustomerID int
	deliveryAddress    string
	deliveryStatus     string
	deliveryComment    string
)

var DeliveryCmd = &cobra.Command{
	Use:   "delivery",
	Short: "Отметить доставку",
	Long: `Сохраняет отметку о доставке в локальное хранилище.

Статус: delivered, refused или partial.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if !app.IsAuthenticated() {
			return fmt.Errorf("требуется аутентификация. Выполните: logisync auth login")
		}

		switch deliveryStatus {
		case "delivered", "refused", "partial":
		default:
			return fmt.Errorf("неизвестный статус доставки: %s", deliveryStatus)
		}

		id, err := app.SaveOfflineDelivery(transport.DeliveryData{
			RouteID:     deliveryRouteID,
			CustomerID:  deliveryCustomerID,
			Address:     deliveryAddress,
			Status:      deliveryStatus,
			DeliveredAt: time.Now(),
			Comment:     deliveryComment,
		})
		if err != nil {
			return fmt.Errorf("ошибка сохранения доставки: %w", err)
		}

		fmt.Printf("✅ Доставка сохранена локально: %s\n", id)
		fmt.Println("Операция будет отправлена на сервер при ближайшей синхронизации")
		return nil
	},
}

func init() {
	DeliveryCmd.Flags().IntVarP(&deliveryRouteID, "route", "r", 0, "ID маршрута")
	DeliveryCmd.Flags().IntVarP(&deliveryCustomerID, "customer", "c", 0, "ID клиента")
	DeliveryCmd.Flags().StringVarP(&deliveryAddress, "address", "a", "", "адрес доставки")
	DeliveryCmd.Flags().StringVar(&deliveryStatus, "status", "delivered", "статус: delivered|refused|partial")
	DeliveryCmd.Flags().StringVar(&deliveryComment, "comment", "", "комментарий")

	_ = DeliveryCmd.MarkFlagRequired("route")
	_ = DeliveryCmd.MarkFlagRequired("customer")
}
