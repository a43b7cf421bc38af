package warehouse

import (
	"encoding/json"
	"time"
)

// Operation — складская офлайн-операция. В отличие от общей очереди,
// эти записи группируются по типу для отображения в списках UI.
type Operation struct {
	ID         string          `json:"id"`
	Type       OperationType   `json:"operation_type"`
	Payload    json.RawMessage `json:"payload"`
	UserID     int             `json:"user_id"`
	SyncStatus string          `json:"sync_status"`
	LastError  string          `json:"last_error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ReceiptData — данные приёмки товара.
type ReceiptData struct {
	ID          int        `json:"id,omitempty"`
	WarehouseID int        `json:"warehouse_id"`
	SupplierID  int        `json:"supplier_id"`
	Number      string     `json:"number"`
	Lines       []ItemLine `json:"lines"`
	ReceivedAt  time.Time  `json:"received_at"`
	Comment     string     `json:"comment,omitempty"`
}

// ShipmentData — данные отгрузки со склада.
type ShipmentData struct {
	ID          int        `json:"id,omitempty"`
	WarehouseID int        `json:"warehouse_id"`
	CustomerID  int        `json:"customer_id"`
	Number      string     `json:"number"`
	Lines       []ItemLine `json:"lines"`
	ShippedAt   time.Time  `json:"shipped_at"`
}

// InventoryData — данные инвентаризации.
type InventoryData struct {
	ID          int        `json:"id,omitempty"`
	WarehouseID int        `json:"warehouse_id"`
	Lines       []ItemLine `json:"lines"`
	CountedAt   time.Time  `json:"counted_at"`
}

// PickListData — данные листа отбора.
type PickListData struct {
	ID          int        `json:"id,omitempty"`
	WarehouseID int        `json:"warehouse_id"`
	OrderID     int        `json:"order_id"`
	Lines       []ItemLine `json:"lines"`
	PickedAt    time.Time  `json:"picked_at"`
}

// ItemLine — строка документа: товар и количество.
type ItemLine struct {
	ProductID int     `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	Location  string  `json:"location,omitempty"`
}
