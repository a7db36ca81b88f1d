package navcodec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/starford/mosaic/internal/apperr"
	"github.com/starford/mosaic/internal/models"
)

// Precision is how much of a date a fragment carries.
type Precision int

const (
	PrecisionYear Precision = iota + 1
	PrecisionMonth
	PrecisionDay
)

func (p Precision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionMonth:
		return "month"
	case PrecisionDay:
		return "day"
	}
	return "unknown"
}

// Fragment is a partial date: YYYY, YYYY-MM or YYYY-MM-DD.
type Fragment struct {
	Year      int
	Month     time.Month
	Day       int
	Precision Precision
}

// YearFragment returns the fragment for a whole year.
func YearFragment(year int) Fragment {
	return Fragment{Year: year, Precision: PrecisionYear}
}

// MonthFragment returns the fragment for one month.
func MonthFragment(year int, month time.Month) Fragment {
	return Fragment{Year: year, Month: month, Precision: PrecisionMonth}
}

// DayFragment returns the fragment for a full date.
func DayFragment(d models.Date) Fragment {
	return Fragment{Year: d.Year, Month: d.Month, Day: d.Day, Precision: PrecisionDay}
}

// ParseFragment parses a zero-padded date fragment. Each component is
// range-checked; a day fragment must name a real calendar day.
func ParseFragment(s string) (Fragment, error) {
	parts := strings.Split(s, "-")
	if len(parts) > 3 {
		return Fragment{}, malformedFragment(s, "too many components")
	}

	year, err := component(parts[0], 4, 1, 9999)
	if err != nil {
		return Fragment{}, malformedFragment(s, "year "+err.Error())
	}
	f := Fragment{Year: year, Precision: PrecisionYear}
	if len(parts) == 1 {
		return f, nil
	}

	month, err := component(parts[1], 2, 1, 12)
	if err != nil {
		return Fragment{}, malformedFragment(s, "month "+err.Error())
	}
	f.Month, f.Precision = time.Month(month), PrecisionMonth
	if len(parts) == 2 {
		return f, nil
	}

	d, err := models.ParseDate(s)
	if err != nil {
		return Fragment{}, malformedFragment(s, err.Error())
	}
	return DayFragment(d), nil
}

func component(s string, width, lo, hi int) (int, error) {
	if len(s) != width {
		return 0, fmt.Errorf("must have %d digits", width)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("must be numeric")
		}
	}
	n, _ := strconv.Atoi(s)
	if n < lo || n > hi {
		return 0, fmt.Errorf("out of range")
	}
	return n, nil
}

func malformedFragment(s, reason string) error {
	return errors.Wrapf(apperr.ErrMalformedToken, "date fragment %q: %s", s, reason)
}

// Date returns the full date of a day fragment.
func (f Fragment) Date() (models.Date, bool) {
	if f.Precision != PrecisionDay {
		return models.Date{}, false
	}
	return models.Date{Year: f.Year, Month: f.Month, Day: f.Day}, true
}

// YearKey and MonthKey are the zero-padded components as used by the calendar.
func (f Fragment) YearKey() string  { return fmt.Sprintf("%04d", f.Year) }
func (f Fragment) MonthKey() string { return fmt.Sprintf("%02d", int(f.Month)) }

func (f Fragment) String() string {
	switch f.Precision {
	case PrecisionYear:
		return f.YearKey()
	case PrecisionMonth:
		return f.YearKey() + "-" + f.MonthKey()
	default:
		return fmt.Sprintf("%s-%s-%02d", f.YearKey(), f.MonthKey(), f.Day)
	}
}
