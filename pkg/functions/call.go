package functions

import (
	"time"
)

// Call is a single invocation handed to a Func. Accessors return an
// ArgumentError when an argument has the wrong kind.
type Call struct {
	Name   string
	Args   []Value
	Kwargs *Map

	lib *Library
}

// Config returns the configuration of the library serving the call.
func (c *Call) Config() *Config {
	return &c.lib.config
}

// Now reads the library clock, in UTC.
func (c *Call) Now() time.Time {
	return c.lib.clock.Now().UTC()
}

// Arg returns the i-th positional argument, or ok=false if it was not passed.
func (c *Call) Arg(i int) (Value, bool) {
	if i < 0 || i >= len(c.Args) {
		return Null, false
	}
	return c.Args[i], true
}

// Param resolves a parameter that may be passed positionally at index i or by
// keyword. Passing both is an ArgumentError.
func (c *Call) Param(i int, key string) (Value, bool, error) {
	pos, hasPos := c.Arg(i)
	kw, hasKw := c.Kwargs.Get(key)
	if hasPos && hasKw {
		return Null, false, newError(ArgumentError, c.Name, "got multiple values for argument %q", key)
	}
	if hasKw {
		return kw, true, nil
	}
	return pos, hasPos, nil
}

// ParamString resolves Param(i, key) and requires a string.
func (c *Call) ParamString(i int, key string) (string, bool, error) {
	v, ok, err := c.Param(i, key)
	if err != nil || !ok {
		return "", false, err
	}
	if v.Kind() != KindString {
		if _, byKeyword := c.Kwargs.Get(key); byKeyword {
			return "", false, c.kwargError(key, "a string", v)
		}
		return "", false, c.argError(i, "a string", v)
	}
	return v.Str(), true, nil
}

func (c *Call) kwargError(key, want string, got Value) error {
	return newError(ArgumentError, c.Name, "keyword argument %q must be %s, got %s", key, want, got.Kind())
}

func (c *Call) kwargInt(key string, v Value) (int64, error) {
	n, ok := v.AsInt()
	if !ok {
		return 0, c.kwargError(key, "an integer", v)
	}
	return n, nil
}

func (c *Call) kwargTime(key string, v Value) (time.Time, error) {
	if v.Kind() != KindTime && v.Kind() != KindString {
		return time.Time{}, c.kwargError(key, "a datetime or ISO string", v)
	}
	return c.expectTime(0, v)
}

func (c *Call) argError(i int, want string, got Value) error {
	return newError(ArgumentError, c.Name, "argument %d must be %s, got %s", i+1, want, got.Kind())
}

// StringArg returns positional argument i, which must be a string.
func (c *Call) StringArg(i int) (string, error) {
	return c.expectString(i, c.Args[i])
}

func (c *Call) expectString(i int, v Value) (string, error) {
	if v.Kind() != KindString {
		return "", c.argError(i, "a string", v)
	}
	return v.Str(), nil
}

// ListArg returns positional argument i, which must be a list.
func (c *Call) ListArg(i int) ([]Value, error) {
	v := c.Args[i]
	if v.Kind() != KindList {
		return nil, c.argError(i, "a list", v)
	}
	return v.Items(), nil
}

// MapArg returns positional argument i, which must be a mapping.
func (c *Call) MapArg(i int) (*Map, error) {
	v := c.Args[i]
	if v.Kind() != KindMap {
		return nil, c.argError(i, "a mapping", v)
	}
	return v.Map(), nil
}

// IntArg returns positional argument i, which must be an integral number.
func (c *Call) IntArg(i int) (int64, error) {
	return c.expectInt(i, c.Args[i])
}

func (c *Call) expectInt(i int, v Value) (int64, error) {
	n, ok := v.AsInt()
	if !ok {
		return 0, c.argError(i, "an integer", v)
	}
	return n, nil
}

// NumberArg returns positional argument i as a float64.
func (c *Call) NumberArg(i int) (float64, error) {
	v := c.Args[i]
	if !v.IsNumber() {
		return 0, c.argError(i, "a number", v)
	}
	return v.Number(), nil
}

// TimeArg returns positional argument i as a datetime. ISO strings are parsed;
// parse failures are ParseErrors.
func (c *Call) TimeArg(i int) (time.Time, error) {
	return c.expectTime(i, c.Args[i])
}

func (c *Call) expectTime(i int, v Value) (time.Time, error) {
	switch v.Kind() {
	case KindTime:
		return v.Time(), nil
	case KindString:
		t, err := parseTime(v.Str())
		if err != nil {
			return time.Time{}, withFunc(err, c.Name)
		}
		return t, nil
	}
	return time.Time{}, c.argError(i, "a datetime or ISO string", v)
}
