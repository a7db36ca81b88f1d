package menu

import (
	"strconv"
	"time"

	"github.com/starford/mosaic/internal/i18n"
	"github.com/starford/mosaic/internal/navcodec"
	"github.com/starford/mosaic/internal/query"
)

// chunk wraps buttons into rows of RowSize.
func chunk(buttons []Button) [][]Button {
	rows := make([][]Button, 0, (len(buttons)+RowSize-1)/RowSize)
	for len(buttons) > RowSize {
		rows = append(rows, buttons[:RowSize:RowSize])
		buttons = buttons[RowSize:]
	}
	if len(buttons) > 0 {
		rows = append(rows, buttons)
	}
	return rows
}

func (d *Dispatcher) topRow(layer navcodec.Layer, lang string) []Button {
	return []Button{d.button(i18n.BtnTop, lang, navcodec.New(navcodec.Command, layer, navcodec.ValueTop))}
}

func (d *Dispatcher) yearMenu(cal query.Calendar, lang string) Menu {
	buttons := make([]Button, 0, len(cal.Years))
	for _, y := range cal.Years {
		buttons = append(buttons, Button{
			Caption: y.Year,
			Token:   navcodec.MustEncode(navcodec.New(navcodec.Menu, navcodec.LayerYear, y.Year)),
		})
	}
	return Menu{
		Title: d.cat().Message(i18n.MsgYearKeyboard, lang),
		Rows:  append(chunk(buttons), d.topRow(navcodec.LayerYear, lang)),
	}
}

func (d *Dispatcher) monthMenu(cal query.Calendar, year navcodec.Fragment, lang string) (Menu, bool) {
	months, ok := cal.MonthNames(year.YearKey())
	if !ok {
		return Menu{}, false
	}
	buttons := make([]Button, 0, len(months))
	for _, m := range months {
		n, _ := strconv.Atoi(m)
		frag := navcodec.MonthFragment(year.Year, time.Month(n))
		buttons = append(buttons, Button{
			Caption: d.cat().MonthName(time.Month(n), lang),
			Token:   navcodec.MustEncode(navcodec.New(navcodec.Menu, navcodec.LayerMonth, frag.String())),
		})
	}
	return Menu{
		Title: d.cat().Message(i18n.MsgMonthKeyboard, lang),
		Rows:  append(chunk(buttons), d.topRow(navcodec.LayerMonth, lang)),
	}, true
}

func (d *Dispatcher) dayMenu(cal query.Calendar, month navcodec.Fragment, lang string) (Menu, bool) {
	days, ok := cal.Days(month.YearKey(), month.MonthKey())
	if !ok {
		return Menu{}, false
	}
	buttons := make([]Button, 0, len(days))
	for _, day := range days {
		value := month.String() + "-" + day
		buttons = append(buttons, Button{
			Caption: day,
			Token:   navcodec.MustEncode(navcodec.New(navcodec.Command, navcodec.LayerDay, value)),
		})
	}
	return Menu{
		Title: d.cat().Message(i18n.MsgDayKeyboard, lang),
		Rows:  append(chunk(buttons), d.topRow(navcodec.LayerDay, lang)),
	}, true
}
