package measurement

import (
	"fmt"
	"time"
)

// Unit is the time unit of a granularity.
type Unit int

const (
	UnitSecond Unit = iota
	UnitMinute
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitQuarter
	UnitYear
)

var unitMap = map[string]Unit{
	"s":  UnitSecond,
	"m":  UnitMinute,
	"h":  UnitHour,
	"d":  UnitDay,
	"w":  UnitWeek,
	"mo": UnitMonth,
	"q":  UnitQuarter,
	"y":  UnitYear,
}

// Granularity is a parsed bucket width such as "15m" or "1d".
type Granularity struct {
	Name   string
	Offset int
	Unit   Unit
}

// ParseGranularity parses strings like "1m", "15m", "1h", "1mo".
func ParseGranularity(s string) (Granularity, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i == len(s) {
		return Granularity{}, fmt.Errorf("invalid granularity: %q", s)
	}
	offset := 0
	for _, ch := range s[:i] {
		offset = offset*10 + int(ch-'0')
	}
	unit, ok := unitMap[s[i:]]
	if !ok || offset <= 0 {
		return Granularity{}, fmt.Errorf("invalid granularity: %q", s)
	}
	return Granularity{Name: s, Offset: offset, Unit: unit}, nil
}

// Nocturnal floors and steps times in a configured location.
type Nocturnal struct {
	Location  *time.Location
	WeekStart time.Weekday
}

// NewNocturnal builds a Nocturnal from the stats configuration.
func NewNocturnal(cfg *StatsConfig) Nocturnal {
	if cfg == nil {
		return Nocturnal{Location: time.UTC, WeekStart: time.Monday}
	}
	return Nocturnal{Location: cfg.Location(), WeekStart: cfg.BeginningOfWeek}
}

func (n Nocturnal) in(t time.Time) time.Time {
	if n.Location == nil {
		return t.UTC()
	}
	return t.In(n.Location)
}

// Floor returns the start of the bucket containing t.
func (n Nocturnal) Floor(t time.Time, g Granularity) time.Time {
	t = n.in(t)
	loc := t.Location()
	offset := g.Offset

	switch g.Unit {
	case UnitSecond:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), (t.Second()/offset)*offset, 0, loc)
	case UnitMinute:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), (t.Minute()/offset)*offset, 0, 0, loc)
	case UnitHour:
		return time.Date(t.Year(), t.Month(), t.Day(), (t.Hour()/offset)*offset, 0, 0, 0, loc)
	case UnitDay:
		yearStart := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, loc)
		return yearStart.AddDate(0, 0, ((t.YearDay()-1)/offset)*offset)
	case UnitWeek:
		yearStart := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, loc)
		firstWeekStart := yearStart.AddDate(0, 0, mod(int(n.WeekStart)-int(yearStart.Weekday()), 7))
		if t.Before(firstWeekStart) {
			return yearStart
		}
		weeks := int(t.Sub(firstWeekStart).Hours() / (24 * 7))
		return firstWeekStart.AddDate(0, 0, (weeks/offset)*offset*7)
	case UnitMonth:
		floored := ((int(t.Month()) - 1) / offset) * offset
		return time.Date(t.Year(), time.Month(floored+1), 1, 0, 0, 0, 0, loc)
	case UnitQuarter:
		floored := (((int(t.Month()) - 1) / 3) / offset) * offset
		return time.Date(t.Year(), time.Month(floored*3+1), 1, 0, 0, 0, 0, loc)
	case UnitYear:
		return time.Date((t.Year()/offset)*offset, 1, 1, 0, 0, 0, 0, loc)
	default:
		panic(fmt.Sprintf("invalid unit: %v", g.Unit))
	}
}

// Add steps t forward by one granularity width.
func (n Nocturnal) Add(t time.Time, g Granularity) time.Time {
	t = n.in(t)
	switch g.Unit {
	case UnitSecond:
		return t.Add(time.Duration(g.Offset) * time.Second)
	case UnitMinute:
		return t.Add(time.Duration(g.Offset) * time.Minute)
	case UnitHour:
		return t.Add(time.Duration(g.Offset) * time.Hour)
	case UnitDay:
		return t.AddDate(0, 0, g.Offset)
	case UnitWeek:
		return t.AddDate(0, 0, g.Offset*7)
	case UnitMonth:
		return addMonths(t, g.Offset)
	case UnitQuarter:
		return addMonths(t, g.Offset*3)
	case UnitYear:
		return addMonths(t, g.Offset*12)
	default:
		panic(fmt.Sprintf("invalid unit: %v", g.Unit))
	}
}

// Timeline lists bucket starts between from and to, both inclusive.
func (n Nocturnal) Timeline(from, to time.Time, g Granularity) []time.Time {
	list := []time.Time{}
	end := n.Floor(to, g)
	for t := n.Floor(from, g); !t.After(end); t = n.Add(t, g) {
		list = append(list, t)
	}
	return list
}

func mod(a, b int) int {
	r := a % b
	if r < 0 {
		return r + b
	}
	return r
}

func addMonths(t time.Time, months int) time.Time {
	total := t.Year()*12 + int(t.Month()) - 1 + months
	year, month := total/12, time.Month(total%12+1)
	day := t.Day()
	// day zero of the next month is the last day of this one
	if last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day(); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
