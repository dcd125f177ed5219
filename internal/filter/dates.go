package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// DateRange: rango inclusivo; Start a las 00:00:00.000 y End a las 23:59:59.999 en hora local.
// Un extremo nil no limita.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// ParseDateRange: "YYYY-MM-DD" para cada extremo; cadena vacía = sin límite
func ParseDateRange(start, end string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.Local
	}
	var r DateRange

	if s := strings.TrimSpace(start); s != "" {
		d, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return DateRange{}, fmt.Errorf("fecha inicial inválida %q: formato YYYY-MM-DD", start)
		}
		r.Start = &d
	}

	if s := strings.TrimSpace(end); s != "" {
		d, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return DateRange{}, fmt.Errorf("fecha final inválida %q: formato YYYY-MM-DD", end)
		}
		endOfDay := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999_000_000, loc)
		r.End = &endOfDay
	}

	return r, nil
}

func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// StockLevelFiveOrMore: el nivel 5 del filtro significa "5 o más"
const StockLevelFiveOrMore = 5

// StockLevels: conjunto de niveles seleccionados; vacío = todos
type StockLevels map[int]struct{}

func NewStockLevels(levels ...int) StockLevels {
	l := make(StockLevels, len(levels))
	for _, v := range levels {
		l[v] = struct{}{}
	}
	return l
}

// ParseStockLevels: lista separada por comas, ej. "0,1,5"
func ParseStockLevels(raw string) (StockLevels, error) {
	l := make(StockLevels)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("nivel de stock inválido %q", part)
		}
		l[n] = struct{}{}
	}
	return l, nil
}

func (l StockLevels) Match(stock int) bool {
	if len(l) == 0 {
		return true
	}
	if _, ok := l[stock]; ok {
		return true
	}
	_, five := l[StockLevelFiveOrMore]
	return five && stock >= StockLevelFiveOrMore
}

// Values: niveles ordenados
func (l StockLevels) Values() []int {
	out := make([]int, 0, len(l))
	for v := range l {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
