// cmd/client/cmd/offline/receipt.go
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
	receiptWarehouseID int
	receiptSupplierID  int
	receiptNumber      string
	receiptLines       string
	receiptComment     string
)

var ReceiptCmd = &cobra.Command{
	Use:   "receipt",
	Short: "Зарегистрировать приёмку товара",
	Long: `Сохраняет приёмку товара в локальное хранилище.

Строки документа передаются флагом --lines в формате
товар:количество[:ячейка] через запятую, например:
  logisync offline receipt -w 1 -s 42 -n "ПР-001" --lines "101:10,102:2.5:A-03"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if !app.IsAuthenticated() {
			return fmt.Errorf("требуется аутентификация. Выполните: logisync auth login")
		}

		lines, err := parseLines(receiptLines)
		if err != nil {
			return err
		}

		id, err := app.SaveOfflineReceipt(warehouse.ReceiptData{
			WarehouseID: receiptWarehouseID,
			SupplierID:  receiptSupplierID,
			Number:      receiptNumber,
			Lines:       lines,
			ReceivedAt:  time.Now(),
			Comment:     receiptComment,
		})
		if err != nil {
			return fmt.Errorf("ошибка сохранения приёмки: %w", err)
		}

		fmt.Printf("✅ Приёмка сохранена локально: %s\n", id)
		fmt.Println("Операция будет отправлена на сервер при ближайшей синхронизации")
		return nil
	},
}

func init() {
	ReceiptCmd.Flags().IntVarP(&receiptWarehouseID, "warehouse", "w", 0, "ID склада")
	ReceiptCmd.Flags().IntVarP(&receiptSupplierID, "supplier", "s", 0, "ID поставщика")
	ReceiptCmd.Flags().StringVarP(&receiptNumber, "number", "n", "", "номер документа")
	ReceiptCmd.Flags().StringVar(&receiptLines, "lines", "", "строки документа: товар:количество[:ячейка],...")
	ReceiptCmd.Flags().StringVar(&receiptComment, "comment", "", "комментарий")

	_ = ReceiptCmd.MarkFlagRequired("warehouse")
	_ = ReceiptCmd.MarkFlagRequired("number")
	_ = ReceiptCmd.MarkFlagRequired("lines")
}
