package operation

import (
	"errors"
)

var (
	ErrNotFound       = errors.New("операция не найдена")
	ErrInvalidPayload = errors.New("некорректные данные операции")
	ErrMissingID      = errors.New("в данных операции отсутствует идентификатор")
)
