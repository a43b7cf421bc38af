package client

import (
	"time"

	"logisync/internal/domain/transport"
	"logisync/internal/domain/warehouse"
)

// OfflineSnapshot — реактивный снимок офлайн-состояния для UI.
// Обновляется после каждой локальной записи и каждого цикла
// синхронизации.
type OfflineSnapshot struct {
	IsOnline       bool      `json:"is_online"`
	SyncInProgress bool      `json:"sync_in_progress"`
	PendingCount   int       `json:"pending_count"`
	LastSync       time.Time `json:"last_sync"`

	Receipts   []*warehouse.Operation `json:"receipts"`
	Shipments  []*warehouse.Operation `json:"shipments"`
	Inventory  []*warehouse.Operation `json:"inventory"`
	Deliveries []*transport.Operation `json:"deliveries"`
}

// TotalOperations возвращает общее число несинхронизированных
// операций в снимке.
func (s *OfflineSnapshot) TotalOperations() int {
	return s.PendingCount + len(s.Receipts) + len(s.Shipments) + len(s.Inventory) + len(s.Deliveries)
}

// LoginRequest — запрос входа пользователя.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
