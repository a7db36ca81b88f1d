package query

import (
	"fmt"

	"github.com/tidwall/btree"

	"github.com/starford/mosaic/internal/models"
)

// Calendar groups the days that have entries by year and month. Years,
// months and days are ascending; periods without entries are absent.
type Calendar struct {
	Kind  string `json:"kind"`
	Years []Year `json:"years"`
}

// Year lists the months of one year that have entries.
type Year struct {
	Year   string  `json:"year"`
	Months []Month `json:"months"`
}

// Month lists the distinct days of one month that have entries.
type Month struct {
	Month string   `json:"month"`
	Days  []string `json:"days"`
}

// BuildCalendar indexes entries whose Kind equals kind.
func BuildCalendar(entries []models.Entry, kind string) Calendar {
	var years btree.Map[int, *btree.Map[int, *btree.Set[int]]]
	for i := range entries {
		if entries[i].Kind != kind {
			continue
		}
		d := entries[i].Date
		months, ok := years.Get(d.Year)
		if !ok {
			months = new(btree.Map[int, *btree.Set[int]])
			years.Set(d.Year, months)
		}
		days, ok := months.Get(int(d.Month))
		if !ok {
			days = new(btree.Set[int])
			months.Set(int(d.Month), days)
		}
		days.Insert(d.Day)
	}

	cal := Calendar{Kind: kind, Years: make([]Year, 0, years.Len())}
	years.Scan(func(y int, months *btree.Map[int, *btree.Set[int]]) bool {
		year := Year{Year: fmt.Sprintf("%04d", y), Months: make([]Month, 0, months.Len())}
		months.Scan(func(m int, days *btree.Set[int]) bool {
			month := Month{Month: fmt.Sprintf("%02d", m), Days: make([]string, 0, days.Len())}
			days.Scan(func(d int) bool {
				month.Days = append(month.Days, fmt.Sprintf("%02d", d))
				return true
			})
			year.Months = append(year.Months, month)
			return true
		})
		cal.Years = append(cal.Years, year)
		return true
	})
	return cal
}

// Calendar builds the calendar index for kind.
func (e *Engine) Calendar(entries []models.Entry, kind string) Calendar {
	return BuildCalendar(entries, kind)
}

// YearNames returns the years present, ascending.
func (c Calendar) YearNames() []string {
	out := make([]string, len(c.Years))
	for i, y := range c.Years {
		out[i] = y.Year
	}
	return out
}

// MonthNames returns the months present in year. ok is false for an absent year.
func (c Calendar) MonthNames(year string) ([]string, bool) {
	for _, y := range c.Years {
		if y.Year == year {
			out := make([]string, len(y.Months))
			for i, m := range y.Months {
				out[i] = m.Month
			}
			return out, true
		}
	}
	return nil, false
}

// Days returns the days present in year/month. ok is false for an absent period.
func (c Calendar) Days(year, month string) ([]string, bool) {
	for _, y := range c.Years {
		if y.Year != year {
			continue
		}
		for _, m := range y.Months {
			if m.Month == month {
				return m.Days, true
			}
		}
	}
	return nil, false
}

// Empty reports whether no entry matched the kind.
func (c Calendar) Empty() bool {
	return len(c.Years) == 0
}
