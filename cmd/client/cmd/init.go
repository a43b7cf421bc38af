// cmd/client/cmd/init.go
package cmd

import (
	"logisync/cmd/client/cmd/auth"
	"logisync/cmd/client/cmd/offline"
	"logisync/cmd/client/cmd/sync"
)

func init() {
	// Команды аутентификации
	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)

	// Офлайн-операции склада и транспорта
	rootCmd.AddCommand(offline.OfflineCmd)
	offline.OfflineCmd.AddCommand(offline.ReceiptCmd)
	offline.OfflineCmd.AddCommand(offline.ShipmentCmd)
	offline.OfflineCmd.AddCommand(offline.DeliveryCmd)
	offline.OfflineCmd.AddCommand(offline.ListCmd)

	rootCmd.AddCommand(sync.SyncCmd)
}
