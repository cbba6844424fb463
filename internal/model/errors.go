package model

import "errors"

// Ошибки предметной области. Сравнивать через errors.Is.
var (
	// ErrInvalidAmount - сумма не распознана или не положительна.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrUnknownCategory - ключ категории отсутствует в каталоге.
	ErrUnknownCategory = errors.New("unknown category key")
	// ErrDesyncSession - выбрана категория, но сумма в сессии отсутствует.
	ErrDesyncSession = errors.New("session has no pending amount")
	// ErrStorageUnavailable - хранилище недоступно. Единственная ошибка,
	// которая доходит до транспортного слоя.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
