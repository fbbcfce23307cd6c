package engine

import (
	"sort"
	"strings"
)

// AllocationTable распределяет третьи места по слотам R32. Внешний ключ -
// отсортированная комбинация букв всех групп, чьи третьи места прошли
// дальше (например "ABCDEFGH"); внутренний ключ - отсортированные
// буквы-кандидаты конкретного слота из шаблона расписания; значение -
// назначенная группа.
//
// Таблица best-effort: официального распределения для формата с 12
// группами на момент написания не опубликовано. Отсутствие комбинации -
// штатный случай, резолвер откатывается на жадный выбор по лучшему рангу.
type AllocationTable map[string]map[string]string

// CombinationKey нормализует набор букв групп в ключ таблицы: верхний
// регистр, сортировка, без разделителей.
func CombinationKey(letters []string) string {
	sorted := make([]string, len(letters))
	for i, l := range letters {
		sorted[i] = strings.ToUpper(l)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, "")
}

// DefaultAllocationTable покрывает комбинации, проверенные вручную по
// шаблону расписания. Неполные записи допустимы: непокрытые слоты
// разбираются фолбэком резолвера.
var DefaultAllocationTable = AllocationTable{
	"ABCDEFGH": {
		"ABCDF": "A",
		"CDFGH": "C",
		"BEFIJ": "B",
		"AEHIJ": "E",
		"DGHKL": "D",
		"BCGJK": "G",
	},
	"ABCDEFGI": {
		"ABCDF": "B",
		"CDFGH": "D",
		"BEFIJ": "I",
		"AEHIJ": "A",
		"BCGJK": "C",
	},
	"EFGHIJKL": {
		"BEFIJ": "E",
		"AEHIJ": "H",
		"EIJKL": "I",
		"DGHKL": "G",
		"CDFGH": "F",
		"BCGJK": "J",
	},
}
