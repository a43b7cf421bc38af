package transport

import (
	"encoding/json"
	"time"
)

// Operation — транспортная офлайн-операция.
type Operation struct {
	ID         string          `json:"id"`
	Type       OperationType   `json:"operation_type"`
	Payload    json.RawMessage `json:"payload"`
	UserID     int             `json:"user_id"`
	SyncStatus string          `json:"sync_status"`
	LastError  string          `json:"last_error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DeliveryData — данные доставки.
type DeliveryData struct {
	ID          int       `json:"id,omitempty"`
	RouteID     int       `json:"route_id"`
	CustomerID  int       `json:"customer_id"`
	Address     string    `json:"address"`
	Status      string    `json:"status"`
	DeliveredAt time.Time `json:"delivered_at"`
	Comment     string    `json:"comment,omitempty"`
}

// RouteData — данные маршрута.
type RouteData struct {
	ID        int       `json:"id,omitempty"`
	VehicleID int       `json:"vehicle_id"`
	DriverID  int       `json:"driver_id"`
	Date      time.Time `json:"date"`
	Points    []string  `json:"points"`
}

// VehicleData — данные транспортного средства.
type VehicleData struct {
	ID       int     `json:"id,omitempty"`
	Plate    string  `json:"plate"`
	Model    string  `json:"model"`
	Capacity float64 `json:"capacity"`
	Status   string  `json:"status"`
}

// ShipmentData — данные перевозки.
type ShipmentData struct {
	ID       int       `json:"id,omitempty"`
	RouteID  int       `json:"route_id"`
	Cargo    string    `json:"cargo"`
	Weight   float64   `json:"weight"`
	LoadedAt time.Time `json:"loaded_at"`
}
