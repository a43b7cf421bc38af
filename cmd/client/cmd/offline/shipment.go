// cmd/client/cmd/offline/shipment.go
package offline

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"logisync/cmd/client/cmd/types"
	"logisync/internal/app/client"
	"logisync/internal/domain/warehouse"
)

var (
	shipmentWarehouseID int
	shipmentCustomerID  int
	shipmentNumber      string
	shipmentLines       string
)

var ShipmentCmd = &cobra.Command{
	Use:   "shipment",
	Short: "Зарегистрировать отгрузку со склада",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if !app.IsAuthenticated() {
			return fmt.Errorf("требуется аутентификация. Выполните: logisync auth login")
		}

		lines, err := parseLines(shipmentLines)
		if err != nil {
			return err
		}

		id, err := app.SaveOfflineShipment(warehouse.ShipmentData{
			WarehouseID: shipmentWarehouseID,
			CustomerID:  shipmentCustomerID,
			Number:      shipmentNumber,
			Lines:       lines,
			ShippedAt:   time.Now(),
		})
		if err != nil {
			return fmt.Errorf("ошибка сохранения отгрузки: %w", err)
		}

		fmt.Printf("✅ Отгрузка сохранена локально: %s\n", id)
		fmt.Println("Операция будет отправлена на сервер при ближайшей синхронизации")
		return nil
	},
}

func init() {
	ShipmentCmd.Flags().IntVarP(&shipmentWarehouseID, "warehouse", "w", 0, "ID склада")
	ShipmentCmd.Flags().IntVarP(&shipmentCustomerID, "customer", "c", 0, "ID клиента")
	ShipmentCmd.Flags().StringVarP(&shipmentNumber, "number", "n", "", "номер документа")
	ShipmentCmd.Flags().StringVar(&shipmentLines, "lines", "", "строки документа: товар:количество[:ячейка],...")

	_ = ShipmentCmd.MarkFlagRequired("warehouse")
	_ = ShipmentCmd.MarkFlagRequired("number")
	_ = ShipmentCmd.MarkFlagRequired("lines")
}
