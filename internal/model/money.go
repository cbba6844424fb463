package model

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountScale - количество знаков после запятой, с которым хранятся суммы.
const AmountScale = 2

var (
	amountPattern = regexp.MustCompile(`^\d+([.,]\d+)?$`)
	maxAmount     = decimal.New(1, 12)
)

// ParseAmount разбирает сумму, введённую пользователем.
//
// Принимаются точка и запятая как десятичный разделитель ("390", "12,5", "0.99").
// Результат округляется до копеек; ноль, отрицательные значения и всё, что не
// похоже на число, дают ErrInvalidAmount.
func ParseAmount(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if !amountPattern.MatchString(s) {
		return decimal.Zero, ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}

	amount = amount.Round(AmountScale)
	if !amount.IsPositive() || amount.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// ToMinorUnits переводит сумму в копейки.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(AmountScale).Round(0).IntPart()
}

// FromMinorUnits восстанавливает сумму из копеек.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -AmountScale)
}
