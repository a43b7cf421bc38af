package offline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"logisync/internal/domain/warehouse"
)

// OfflineCmd - родительская команда для офлайн-операций склада и
// транспорта. Все подкоманды пишут только в локальное хранилище и
// никогда не ходят в сеть.
var OfflineCmd = &cobra.Command{
	Use:   "offline",
	Short: "Офлайн-операции склада и транспорта",
	Long: `Регистрация приёмок, отгрузок и доставок без соединения с сервером.

Операции сохраняются локально и отправляются на сервер ближайшим
циклом синхронизации.`,
}

// parseLines разбирает строки документа в формате
// "товар:количество[:ячейка]", разделенные запятыми.
func parseLines(raw string) ([]warehouse.ItemLine, error) {
	if raw == "" {
		return nil, fmt.Errorf("не указаны строки документа")
	}

	var lines []warehouse.ItemLine
	for _, part := range strings.Split(raw, ",") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) < 2 {
			return nil, fmt.Errorf("неверный формат строки %q, ожидается товар:количество[:ячейка]", part)
		}

		productID, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("неверный ID товара %q: %w", fields[0], err)
		}

		qty, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("неверное количество %q: %w", fields[1], err)
		}

		line := warehouse.ItemLine{ProductID: productID, Quantity: qty}
		if len(fields) > 2 {
			line.Location = fields[2]
		}
		lines = append(lines, line)
	}

	return lines, nil
}
