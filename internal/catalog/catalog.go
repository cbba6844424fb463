// Package catalog содержит упорядоченный список категорий расходов.
//
// Ключ категории - постоянный идентификатор, который пишется в журнал.
// Подписи можно менять; таблица исторических подписей только пополняется,
// поэтому любая старая запись всегда разрешается хоть в какую-то подпись.
package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/dorraborra/finbot/internal/model"
)

// suggestDistance - максимальное расстояние Левенштейна для подсказки.
// Для коротких подписей порог меньше, см. allowedDistance.
const suggestDistance = 3

// Catalog неизменяем после создания и безопасен для конкурентного чтения.
type Catalog struct {
	options []model.CategoryOption
	labels  map[string]string
	byKey   map[string]int
}

// Page - страница каталога для клавиатуры выбора.
type Page struct {
	Options []model.CategoryOption
	Index   int
	Count   int
	HasPrev bool
	HasNext bool
}

// New создаёт каталог. historical дополняет подписи для ключей, которых
// уже нет среди текущих пунктов; текущие подписи имеют приоритет.
func New(options []model.CategoryOption, historical map[string]string) *Catalog {
	c := &Catalog{
		options: make([]model.CategoryOption, len(options)),
		labels:  make(map[string]string, len(options)+len(historical)),
		byKey:   make(map[string]int, len(options)),
	}
	copy(c.options, options)

	for key, label := range historical {
		c.labels[key] = label
	}
	for i, opt := range c.options {
		c.labels[opt.Key] = opt.Label
		c.byKey[opt.Key] = i
	}
	return c
}

// List возвращает копию списка категорий в порядке отображения.
func (c *Catalog) List() []model.CategoryOption {
	out := make([]model.CategoryOption, len(c.options))
	copy(out, c.options)
	return out
}

// LabelFor возвращает подпись для ключа, а если её нет - сам ключ.
func (c *Catalog) LabelFor(key string) string {
	if label, ok := c.labels[key]; ok && label != "" {
		return label
	}
	return key
}

// Contains сообщает, можно ли выбрать категорию с таким ключом.
func (c *Catalog) Contains(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// Resolve находит ключ по тексту: подходит сам ключ или текущая подпись
// без учёта регистра.
func (c *Catalog) Resolve(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if c.Contains(text) {
		return text, true
	}
	for _, opt := range c.options {
		if strings.EqualFold(opt.Label, text) || strings.EqualFold(stripDecor(opt.Label), text) {
			return opt.Key, true
		}
	}
	return "", false
}

// Suggest ищет ближайшую по написанию категорию.
func (c *Catalog) Suggest(text string) (model.CategoryOption, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return model.CategoryOption{}, false
	}

	best := -1
	bestDistance := suggestDistance + 1
	for i, opt := range c.options {
		label := strings.ToLower(stripDecor(opt.Label))
		d := levenshtein.ComputeDistance(text, label)
		if d > allowedDistance(label) {
			continue
		}
		if d < bestDistance {
			best, bestDistance = i, d
		}
	}
	if best < 0 {
		return model.CategoryOption{}, false
	}
	return c.options[best], true
}

// allowedDistance - порог опечатки для подписи: одна правка на каждые
// три символа, но не больше suggestDistance. Подписи короче трёх символов
// подсказываются только при точном совпадении.
func allowedDistance(label string) int {
	n := utf8.RuneCountInString(label) / 3
	if n > suggestDistance {
		return suggestDistance
	}
	return n
}

// Page возвращает страницу n размера size. Номер страницы приводится
// к допустимому диапазону; size <= 0 означает одну страницу со всем списком.
func (c *Catalog) Page(n, size int) Page {
	if size <= 0 {
		size = len(c.options)
	}
	count := 1
	if size > 0 && len(c.options) > 0 {
		count = (len(c.options) + size - 1) / size
	}

	if n < 0 {
		n = 0
	}
	if n > count-1 {
		n = count - 1
	}

	var opts []model.CategoryOption
	if len(c.options) > 0 {
		start := n * size
		end := min(start+size, len(c.options))
		opts = make([]model.CategoryOption, end-start)
		copy(opts, c.options[start:end])
	}

	return Page{
		Options: opts,
		Index:   n,
		Count:   count,
		HasPrev: n > 0,
		HasNext: n < count-1,
	}
}

// stripDecor убирает эмодзи и пробелы в начале подписи.
func stripDecor(label string) string {
	return strings.TrimLeftFunc(label, func(r rune) bool {
		return r > 0x2000 || r == ' '
	})
}
