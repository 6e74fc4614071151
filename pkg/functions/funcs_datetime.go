package functions

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/ncruces/go-strftime"
)

const (
	isoLayout      = "2006-01-02T15:04:05-07:00"
	isoMicroLayout = "2006-01-02T15:04:05.000000-07:00"
)

var durationUnits = map[byte]time.Duration{
	'w': 7 * 24 * time.Hour,
	'd': 24 * time.Hour,
	'h': time.Hour,
	'm': time.Minute,
	's': time.Second,
}

// Unix seconds accepted by from_timestamp: years 0001 through 9999.
var (
	minUnixSeconds = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxUnixSeconds = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC).Unix()
)

var deltaUnits = map[string]time.Duration{
	"seconds": time.Second,
	"minutes": time.Minute,
	"hours":   time.Hour,
	"days":    24 * time.Hour,
	"weeks":   7 * 24 * time.Hour,
}

// isoFormat renders t with a numeric offset and microseconds only when present.
func isoFormat(t time.Time) string {
	if t.Nanosecond()/1000 != 0 {
		return t.Format(isoMicroLayout)
	}
	return t.Format(isoLayout)
}

// parseTime accepts RFC 3339 and the looser date formats alert payloads carry.
// Strings without an offset are taken as UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, newError(ParseError, "", "empty datetime string")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, wrapError(ParseError, "", err, "cannot parse datetime %q", s)
	}
	return t, nil
}

// parseDuration reads expressions such as "1w 2d 3.5h". An empty expression is
// a zero duration.
func parseDuration(expr string) (time.Duration, error) {
	var total time.Duration
	for _, part := range strings.Fields(expr) {
		if len(part) < 2 {
			return 0, newError(ParseError, "", "malformed duration %q", part)
		}
		unit, ok := durationUnits[part[len(part)-1]]
		if !ok {
			return 0, newError(ParseError, "", "unknown duration unit in %q", part)
		}
		n, err := strconv.ParseFloat(part[:len(part)-1], 64)
		if err != nil {
			return 0, newError(ParseError, "", "malformed duration %q", part)
		}
		d, ok := scaleDuration(n, unit)
		if !ok {
			return 0, newError(ParseError, "", "duration %q out of range", part)
		}
		if total, ok = addDuration(total, d); !ok {
			return 0, newError(ParseError, "", "duration %q out of range", expr)
		}
	}
	return total, nil
}

// scaleDuration returns n units, or ok=false when the result does not fit in
// a time.Duration.
func scaleDuration(n float64, unit time.Duration) (time.Duration, bool) {
	f := n * float64(unit)
	if math.IsNaN(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return time.Duration(f), true
}

func addDuration(a, b time.Duration) (time.Duration, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

func loadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, wrapError(ParseError, "", err, "invalid timezone %q", name)
	}
	return loc, nil
}

func fnUtcnow(c *Call) (Value, error) {
	return Time(c.Now()), nil
}

func fnUtcnowISO(c *Call) (Value, error) {
	return String(isoFormat(c.Now())), nil
}

func fnToUTC(c *Call) (Value, error) {
	t, err := c.TimeArg(0)
	if err != nil {
		return Null, err
	}
	return Time(t.UTC()), nil
}

func fnToTimestamp(c *Call) (Value, error) {
	t, err := c.TimeArg(0)
	if err != nil {
		return Null, err
	}
	return Int(t.Unix()), nil
}

// fnFromTimestamp converts Unix seconds to a datetime in the given timezone
// (UTC by default).
func fnFromTimestamp(c *Call) (Value, error) {
	secs, err := c.NumberArg(0)
	if err != nil {
		return Null, err
	}
	if math.IsNaN(secs) || secs < float64(minUnixSeconds) || secs > float64(maxUnixSeconds) {
		return Null, newError(ArgumentError, c.Name, "timestamp %v out of range", secs)
	}
	loc := time.UTC
	if name, ok, err := c.ParamString(1, "timezone"); err != nil {
		return Null, err
	} else if ok {
		if loc, err = loadLocation(name); err != nil {
			return Null, err
		}
	}
	whole, frac := math.Modf(secs)
	return Time(time.Unix(int64(whole), int64(frac*1e9)).In(loc)), nil
}

// fnDatetimeCompare returns t1 - t2 in hours.
func fnDatetimeCompare(c *Call) (Value, error) {
	t1, err := c.TimeArg(0)
	if err != nil {
		return Null, err
	}
	t2, err := c.TimeArg(1)
	if err != nil {
		return Null, err
	}
	return Float(t1.Sub(t2).Hours()), nil
}

// fnIsBusinessHours reports whether a moment (now by default) falls on a
// business day between the configured start and end hours in a timezone.
func fnIsBusinessHours(c *Call) (Value, error) {
	cfg := c.Config()

	tz := cfg.Timezone
	if name, ok, err := c.ParamString(0, "timezone"); err != nil {
		return Null, err
	} else if ok {
		tz = name
	}
	loc, err := loadLocation(tz)
	if err != nil {
		return Null, err
	}

	t := c.Now()
	if v, ok := c.Kwargs.Get("time_to_check"); ok {
		if t, err = c.kwargTime("time_to_check", v); err != nil {
			return Null, err
		}
	}

	start, end := int64(cfg.BusinessStartHour), int64(cfg.BusinessEndHour)
	if v, ok := c.Kwargs.Get("start_hour"); ok {
		if start, err = c.kwargInt("start_hour", v); err != nil {
			return Null, err
		}
	}
	if v, ok := c.Kwargs.Get("end_hour"); ok {
		if end, err = c.kwargInt("end_hour", v); err != nil {
			return Null, err
		}
	}

	days := cfg.BusinessDays
	if v, ok := c.Kwargs.Get("business_days"); ok {
		if v.Kind() != KindList {
			return Null, c.kwargError("business_days", "a list", v)
		}
		days = days[:0:0]
		for _, d := range v.Items() {
			n, err := c.kwargInt("business_days", d)
			if err != nil {
				return Null, err
			}
			days = append(days, int(n))
		}
	}

	local := t.In(loc)
	weekday := (int(local.Weekday()) + 6) % 7
	hour := int64(local.Hour())

	onBusinessDay := false
	for _, d := range days {
		if d == weekday {
			onBusinessDay = true
			break
		}
	}
	return Bool(onBusinessDay && start <= hour && hour < end), nil
}

// fnAddTimeToDate parses a date with a strftime format, adds a duration
// expression and formats the result with the same format.
func fnAddTimeToDate(c *Call) (Value, error) {
	format, err := c.StringArg(1)
	if err != nil {
		return Null, err
	}
	expr, err := c.StringArg(2)
	if err != nil {
		return Null, err
	}

	var t time.Time
	switch arg := c.Args[0]; arg.Kind() {
	case KindTime:
		t = arg.Time()
	case KindString:
		layout, err := strftime.Layout(format)
		if err != nil {
			return Null, wrapError(ParseError, c.Name, err, "unsupported date format %q", format)
		}
		if t, err = time.Parse(layout, arg.Str()); err != nil {
			return Null, wrapError(ParseError, c.Name, err, "date %q does not match format %q", arg.Str(), format)
		}
	default:
		return Null, c.argError(0, "a date string or datetime", arg)
	}

	d, err := parseDuration(expr)
	if err != nil {
		return Null, err
	}
	return String(strftime.Format(format, t.Add(d))), nil
}

func fnSubstractMinutes(c *Call) (Value, error) {
	t, err := c.TimeArg(0)
	if err != nil {
		return Null, err
	}
	minutes, err := c.NumberArg(1)
	if err != nil {
		return Null, err
	}
	d, ok := scaleDuration(-minutes, time.Minute)
	if !ok {
		return Null, newError(ArgumentError, c.Name, "%v minutes out of range", minutes)
	}
	return Time(t.Add(d)), nil
}

// fnTimestampDelta shifts a datetime by a signed amount of seconds, minutes,
// hours, days or weeks.
func fnTimestampDelta(c *Call) (Value, error) {
	t, err := c.TimeArg(0)
	if err != nil {
		return Null, err
	}
	amount, err := c.NumberArg(1)
	if err != nil {
		return Null, err
	}
	unitName, err := c.StringArg(2)
	if err != nil {
		return Null, err
	}
	unit, ok := deltaUnits[unitName]
	if !ok {
		return Null, newError(ArgumentError, c.Name, "unknown unit %q", unitName)
	}
	d, ok := scaleDuration(amount, unit)
	if !ok {
		return Null, newError(ArgumentError, c.Name, "%v %s out of range", amount, unitName)
	}
	return Time(t.Add(d)), nil
}
