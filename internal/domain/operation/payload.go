package operation

import (
	"encoding/json"
	"fmt"
)

// Данные операции хранятся непрозрачным JSON-блобом. Остальной код
// не трогает сериализованный текст напрямую — только через эти функции.

// EncodePayload сериализует данные операции для хранения в очереди.
func EncodePayload(data any) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации данных операции: %w", err)
	}
	return raw, nil
}

// DecodePayload десериализует данные операции в типизированную структуру.
func DecodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return ErrInvalidPayload
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("ошибка десериализации данных операции: %w", err)
	}
	return nil
}

// EntityID извлекает серверный идентификатор сущности из данных операции.
// Нужен для построения URL при update/delete.
func EntityID(raw json.RawMessage) (string, error) {
	var probe struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", fmt.Errorf("ошибка разбора данных операции: %w", err)
	}
	if probe.ID.String() == "" {
		return "", ErrMissingID
	}
	return probe.ID.String(), nil
}
