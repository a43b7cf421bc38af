package transport

import (
	"fmt"
)

// OperationType — тип транспортной офлайн-операции. Каждому типу
// соответствует свой эндпоинт TMS-модуля сервера.
type OperationType string

const (
	TypeDelivery OperationType = "delivery"
	TypeRoute    OperationType = "route"
	TypeVehicle  OperationType = "vehicle"
	TypeShipment OperationType = "shipment"
)

// Validate проверяет, что тип операции известен.
func (t OperationType) Validate() error {
	switch t {
	case TypeDelivery, TypeRoute, TypeVehicle, TypeShipment:
		return nil
	}
	return fmt.Errorf("неизвестный тип транспортной операции: %s", t)
}

// String возвращает строковое представление типа.
func (t OperationType) String() string {
	return string(t)
}

// Endpoint возвращает путь серверного эндпоинта для отправки операции.
func (t OperationType) Endpoint() string {
	switch t {
	case TypeDelivery:
		return "/api/tms/deliveries"
	case TypeRoute:
		return "/api/tms/routes"
	case TypeVehicle:
		return "/api/tms/vehicles"
	case TypeShipment:
		return "/api/tms/shipments"
	default:
		return ""
	}
}

// DisplayName возвращает человекочитаемое название типа.
func (t OperationType) DisplayName() string {
	switch t {
	case TypeDelivery:
		return "Доставка"
	case TypeRoute:
		return "Маршрут"
	case TypeVehicle:
		return "Транспортное средство"
	case TypeShipment:
		return "Перевозка"
	default:
		return "Неизвестная операция"
	}
}
