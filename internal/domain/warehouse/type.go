package warehouse

import (
	"fmt"
)

// OperationType — тип складской офлайн-операции. Каждому типу
// соответствует свой эндпоинт WMS-модуля сервера.
type OperationType string

const (
	TypeReceipt   OperationType = "receipt"
	TypeShipment  OperationType = "shipment"
	TypeInventory OperationType = "inventory"
	TypePickList  OperationType = "pick_list"
)

// Validate проверяет, что тип операции известен.
func (t OperationType) Validate() error {
	switch t {
	case TypeReceipt, TypeShipment, TypeInventory, TypePickList:
		return nil
	}
	return fmt.Errorf("неизвестный тип складской операции: %s", t)
}

// String возвращает строковое представление типа.
func (t OperationType) String() string {
	return string(t)
}

// Endpoint возвращает путь серверного эндпоинта для отправки операции.
func (t OperationType) Endpoint() string {
	switch t {
	case TypeReceipt:
		return "/api/wms/receipts"
	case TypeShipment:
		return "/api/wms/shipments"
	case TypeInventory:
		return "/api/wms/inventory"
	case TypePickList:
		return "/api/wms/pick-lists"
	default:
		return ""
	}
}

// DisplayName возвращает человекочитаемое название типа.
func (t OperationType) DisplayName() string {
	switch t {
	case TypeReceipt:
		return "Приёмка"
	case TypeShipment:
		return "Отгрузка"
	case TypeInventory:
		return "Инвентаризация"
	case TypePickList:
		return "Лист отбора"
	default:
		return "Неизвестная операция"
	}
}
