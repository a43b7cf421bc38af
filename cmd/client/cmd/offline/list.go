// cmd/client/cmd/offline/list.go
package offline

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"logisync/cmd/client/cmd/types"
	"logisync/internal/app/client"
	"logisync/internal/domain/warehouse"
)

var listFormat string

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список несинхронизированных операций",
	Long: `Просмотр офлайн-операций, ожидающих отправки на сервер.

Список строится по локальному снимку и не требует соединения.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		snap := app.Snapshot()

		if listFormat == "json" {
			return printSnapshotJSON(snap)
		}
		return printSnapshotTable(snap)
	},
}

func printSnapshotJSON(snap *client.OfflineSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printSnapshotTable(snap *client.OfflineSnapshot) error {
	bold := color.New(color.Bold)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Println("=== Офлайн-операции ===")
	fmt.Println()

	total := snap.TotalOperations()
	if total == 0 {
		color.Green("Все операции синхронизированы")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ТИП\tID\tСТАТУС\tСОЗДАНА\tОШИБКА")

	printWh := func(ops []*warehouse.Operation) {
		for _, op := range ops {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				op.Type.DisplayName(),
				shortID(op.ID),
				statusMark(op.SyncStatus, yellow, red),
				op.CreatedAt.Format("02.01 15:04"),
				truncate(op.LastError, 40),
			)
		}
	}
	printWh(snap.Receipts)
	printWh(snap.Shipments)
	printWh(snap.Inventory)

	for _, op := range snap.Deliveries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			op.Type.DisplayName(),
			shortID(op.ID),
			statusMark(op.SyncStatus, yellow, red),
			op.CreatedAt.Format("02.01 15:04"),
			truncate(op.LastError, 40),
		)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Всего несинхронизировано: %d (в общей очереди: %d)\n", total, snap.PendingCount)
	if !snap.LastSync.IsZero() {
		fmt.Printf("Последняя синхронизация: %s\n", snap.LastSync.Format(time.DateTime))
	}

	return nil
}

func statusMark(status string, yellow, red *color.Color) string {
	switch status {
	case "failed":
		return red.Sprint("ошибка")
	default:
		return yellow.Sprint("ожидает")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func init() {
	ListCmd.Flags().StringVar(&listFormat, "format", "table", "формат вывода: table|json")
}
