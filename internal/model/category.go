package model

// CategoryOption - пункт каталога категорий. Key пишется в журнал и никогда
// не меняется; Label можно переименовывать.
type CategoryOption struct {
	Label string
	Key   string
}
