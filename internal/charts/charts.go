package charts

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/dorraborra/finbot/internal/report"
)

// ChartGenerator генерирует различные типы графиков
type ChartGenerator struct{}

// NewChartGenerator создает новый генератор графиков
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{}
}

// minPieShare - доля в процентах, ниже которой категория не подписывается
// отдельным сектором.
const minPieShare = 1.0

var background = chart.Style{
	Padding: chart.Box{
		Top:    50,
		Left:   50,
		Right:  50,
		Bottom: 50,
	},
	FillColor: chart.ColorWhite,
}

// GenerateCategoryPieChart создает круговую диаграмму распределения по категориям.
// Для пустого отчёта возвращает nil.
func (g *ChartGenerator) GenerateCategoryPieChart(b report.Breakdown) ([]byte, error) {
	if b.Empty() || !b.Total.IsPositive() {
		return nil, nil
	}

	values := make([]chart.Value, 0, len(b.Rows))
	other := 0.0
	for _, row := range b.Rows {
		amount := row.Amount.InexactFloat64()
		if amount <= 0 {
			continue
		}
		// Мелкие категории собираем в один сектор
		if row.Share < minPieShare {
			other += amount
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %.0f₽ (%.1f%%)", plainLabel(row.Label), amount, row.Share),
			Value: amount,
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		})
	}
	if other > 0 {
		values = append(values, chart.Value{Label: "Прочее", Value: other})
	}

	pie := chart.PieChart{
		Title:      b.Title,
		Width:      800,
		Height:     800,
		Values:     values,
		Background: background,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render category pie chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// GenerateCategoryBarChart строит столбчатую диаграмму сумм по категориям.
// Для пустого отчёта возвращает nil.
func (g *ChartGenerator) GenerateCategoryBarChart(b report.Breakdown) ([]byte, error) {
	if b.Empty() || !b.Total.IsPositive() {
		return nil, nil
	}

	bars := make([]chart.Value, 0, len(b.Rows))
	for _, row := range b.Rows {
		bars = append(bars, chart.Value{
			Label: plainLabel(row.Label),
			Value: row.Amount.InexactFloat64(),
			Style: chart.Style{
				StrokeColor: chart.ColorRed,
				FillColor:   chart.ColorRed.WithAlpha(160),
				FontSize:    12,
				FontColor:   chart.ColorBlack,
			},
		})
	}
	if len(bars) == 1 {
		// go-chart не строит ось по одному значению
		bars = append(bars, chart.Value{Label: " ", Value: 0})
	}

	graph := chart.BarChart{
		Title: b.Title,
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:      1200,
		Height:     600,
		BarWidth:   60,
		Background: background,
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f₽", v.(float64))
			},
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render category bar chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// plainLabel убирает эмодзи: в шрифте графиков их нет.
func plainLabel(label string) string {
	return strings.TrimLeftFunc(label, func(r rune) bool {
		return r > 0x2000 || r == ' '
	})
}
