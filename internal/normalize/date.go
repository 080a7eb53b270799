package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateFormat is an accepted textual date format.
type DateFormat int

const (
	// ISO is YYYY-MM-DD.
	ISO DateFormat = iota
	// DayMonthYear is DD/MM/YYYY.
	DayMonthYear
)

var dateLayouts = map[DateFormat]string{
	ISO:          "2006-01-02",
	DayMonthYear: "02/01/2006",
}

var dateFormatNames = map[string]DateFormat{
	"iso": ISO,
	"dmy": DayMonthYear,
}

// String returns the configuration name of the format.
func (f DateFormat) String() string {
	for name, v := range dateFormatNames {
		if v == f {
			return name
		}
	}
	return "unknown"
}

// Layout returns the time layout for the format.
func (f DateFormat) Layout() string {
	return dateLayouts[f]
}

// DefaultDateFormats is the format set used when none is configured.
var DefaultDateFormats = []DateFormat{ISO, DayMonthYear}

// ParseDateFormats converts configuration names ("iso", "dmy") to formats.
func ParseDateFormats(names []string) ([]DateFormat, error) {
	if len(names) == 0 {
		return DefaultDateFormats, nil
	}
	formats := make([]DateFormat, 0, len(names))
	for _, name := range names {
		f, ok := dateFormatNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown date format %q", name)
		}
		formats = append(formats, f)
	}
	return formats, nil
}

var (
	// ErrSentinelDate marks a value the source uses to say "no valid date".
	ErrSentinelDate = errors.New("sentinel date")
	// ErrUnparseableDate marks a value that matches none of the accepted formats.
	ErrUnparseableDate = errors.New("unparseable date")
)

// DateError describes a date value that could not be used.
type DateError struct {
	Raw string
	Err error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Raw)
}

func (e *DateError) Unwrap() error {
	return e.Err
}

// dateSentinels are the literal values the source writes instead of a date.
var dateSentinels = map[string]bool{
	"":              true,
	"Data Inválida": true,
	"N/A":           true,
	"NULL":          true,
}

// IsSentinelDate reports whether raw is one of the source's "invalid date"
// markers.
func IsSentinelDate(raw string) bool {
	return dateSentinels[strings.TrimSpace(raw)]
}

// ParseDate parses raw with the first accepted format that matches it
// exactly. Sentinel values fail with ErrSentinelDate and anything else that
// does not parse fails with ErrUnparseableDate; both are wrapped in a
// *DateError.
func ParseDate(raw string, formats []DateFormat) (time.Time, error) {
	if IsSentinelDate(raw) {
		return time.Time{}, &DateError{Raw: raw, Err: ErrSentinelDate}
	}
	value := strings.TrimSpace(raw)
	for _, f := range formats {
		layout, ok := dateLayouts[f]
		if !ok || len(value) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateError{Raw: raw, Err: ErrUnparseableDate}
}
