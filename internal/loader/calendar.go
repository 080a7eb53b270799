package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse"
)

var weekdayNames = [...]string{"Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado", "Domingo"}

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// CalendarDay derives the dim_tempo attributes of a date. Weekdays are
// numbered 1 (Monday) to 7 (Sunday).
func CalendarDay(d time.Time) warehouse.CalendarRow {
	y, m, day := d.Date()
	weekday := (int(d.Weekday())+6)%7 + 1
	month := int(m)

	half := 1
	if month > 6 {
		half = 2
	}

	return warehouse.CalendarRow{
		Date:        time.Date(y, m, day, 0, 0, 0, 0, time.UTC),
		Year:        y,
		Month:       month,
		Day:         day,
		Quarter:     (month-1)/3 + 1,
		Half:        half,
		Weekday:     weekday,
		WeekdayName: weekdayNames[weekday-1],
		MonthName:   monthNames[month-1],
		Weekend:     weekday >= 6,
	}
}

// CalendarDays returns one row per day from start to end inclusive.
func CalendarDays(start, end time.Time) []warehouse.CalendarRow {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	var days []warehouse.CalendarRow
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, CalendarDay(d))
	}
	return days
}

// Calendar generates dim_tempo. It reads nothing from the source.
type Calendar struct{ env *Env }

func (c *Calendar) Name() string  { return "calendar" }
func (c *Calendar) Table() string { return warehouse.Calendar.Table }

func (c *Calendar) Load(ctx context.Context) (Result, error) {
	start, end := c.env.CalendarStart, c.env.CalendarEnd
	if start.IsZero() || end.IsZero() {
		start, end = DefaultCalendarRange()
	}

	return c.env.batch(ctx, c.Name(), func(res *Result) error {
		if end.Before(start) {
			return fmt.Errorf("calendar ends %s before it starts %s",
				end.Format(time.DateOnly), start.Format(time.DateOnly))
		}
		days := CalendarDays(start, end)
		res.Extracted = len(days)

		for _, day := range days {
			if err := c.env.insert(ctx, res, day); err != nil {
				return err
			}
		}
		return nil
	})
}
