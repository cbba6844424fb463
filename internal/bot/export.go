package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/dorraborra/finbot/internal/model"
)

// CSVHeader - заголовок выгрузки.
var CSVHeader = []string{"amount", "category", "created_at"}

// EncodeCSV пишет строки выгрузки в CSV с разделителем ';'.
func EncodeCSV(rows []model.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Amount.StringFixed(model.AmountScale),
			r.Category,
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
