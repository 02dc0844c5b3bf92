package report

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the accepted input format for date ranges.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned for dates not in DateLayout.
var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses YYYY-MM-DD as midnight in loc and returns unix seconds.
func ParseDate(value string, loc *time.Location) (int64, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return 0, fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrInvalidDate, value)
	}
	return t.Unix(), nil
}
