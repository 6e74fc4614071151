package functions

import (
	"fmt"
)

// Alert payload keys read by get_firing_time, in order of preference.
var firingTimeKeys = []string{"firingStartTime", "lastReceived"}

// fnGetFiringTime reports how long an alert has been firing, measured from its
// firingStartTime (or lastReceived when that is missing) to now, formatted
// with two decimals. The tenant_id keyword is accepted for compatibility and
// ignored: the alert payload already carries its firing time.
func fnGetFiringTime(c *Call) (Value, error) {
	alert, err := c.MapArg(0)
	if err != nil {
		return Null, err
	}
	unit, err := c.StringArg(1)
	if err != nil {
		return Null, err
	}

	var divisor float64
	switch unit {
	case "s", "seconds":
		divisor = 1
	case "m", "minutes":
		divisor = 60
	case "h", "hours":
		divisor = 3600
	default:
		return Null, newError(ArgumentError, c.Name, "unknown time unit %q", unit)
	}

	var raw Value
	found := false
	for _, key := range firingTimeKeys {
		if v, ok := alert.Get(key); ok && !v.IsNull() {
			raw, found = v, true
			break
		}
	}
	if !found {
		return Null, newError(ArgumentError, c.Name, "alert has no firingStartTime")
	}
	start, err := c.expectTime(0, raw)
	if err != nil {
		return Null, err
	}

	elapsed := c.Now().Sub(start).Seconds() / divisor
	return String(fmt.Sprintf("%.2f", elapsed)), nil
}
