package functions

import (
	"io"
	"log/slog"
	"sort"
	"time"
)

// Func is the implementation of a registered function.
type Func func(c *Call) (Value, error)

// Def describes a registered function.
type Def struct {
	Name     string
	Category string
	MinArgs  int
	MaxArgs  int // -1 for unlimited
	Kwargs   []string
	Impl     Func
}

// Kwarg marks a keyword argument in an argument list passed to CallAny.
type Kwarg struct {
	Key   string
	Value any
}

// Clock is the only source of wall-clock time the library reads.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the real time.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// Option configures a Library.
type Option func(*Library)

// WithClock replaces the system clock, typically with FixedClock in tests.
func WithClock(c Clock) Option {
	return func(l *Library) {
		l.clock = c
	}
}

// WithDefs registers additional functions. A def with the name of a built-in
// replaces it.
func WithDefs(defs ...Def) Option {
	return func(l *Library) {
		for i := range defs {
			def := defs[i]
			l.defs[def.Name] = &def
		}
	}
}

// Library is the registry of named functions. It is built once by NewLibrary
// and never modified afterwards, so it is safe for concurrent use.
type Library struct {
	logger *slog.Logger
	config Config
	clock  Clock
	defs   map[string]*Def
	names  []string
}

// NewLibrary builds the function registry. A nil logger discards logs and a nil
// config means DefaultConfig. The config is copied.
func NewLibrary(logger *slog.Logger, config *Config, opts ...Option) (*Library, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	l := &Library{
		logger: logger,
		config: *config,
		clock:  SystemClock,
		defs:   map[string]*Def{},
	}
	l.config.BusinessDays = append([]int(nil), config.BusinessDays...)

	for _, def := range builtinDefs() {
		d := def
		l.defs[d.Name] = &d
	}
	for _, opt := range opts {
		opt(l)
	}

	l.names = make([]string, 0, len(l.defs))
	for name := range l.defs {
		l.names = append(l.names, name)
	}
	sort.Strings(l.names)

	logger.Debug("Function library initialized", "functions", len(l.names))
	return l, nil
}

func builtinDefs() []Def {
	return []Def{
		// Strings (from funcs_string.go)
		{Name: "uppercase", Category: "string", MinArgs: 1, MaxArgs: 1, Impl: fnUppercase},
		{Name: "lowercase", Category: "string", MinArgs: 1, MaxArgs: 1, Impl: fnLowercase},
		{Name: "split", Category: "string", MinArgs: 2, MaxArgs: 2, Impl: fnSplit},
		{Name: "strip", Category: "string", MinArgs: 1, MaxArgs: 1, Impl: fnStrip},
		{Name: "replace", Category: "string", MinArgs: 3, MaxArgs: 3, Impl: fnReplace},
		{Name: "remove_newlines", Category: "string", MinArgs: 1, MaxArgs: 1, Impl: fnRemoveNewlines},
		{Name: "encode", Category: "string", MinArgs: 1, MaxArgs: 1, Impl: fnEncode},
		{Name: "slice", Category: "string", MinArgs: 1, MaxArgs: 3, Kwargs: []string{"start", "end"}, Impl: fnSlice},
		{Name: "string", Category: "string", MinArgs: 1, MaxArgs: 1, Impl: fnString},

		// Lists & mappings (from funcs_list.go)
		{Name: "first", Category: "list", MinArgs: 1, MaxArgs: 1, Impl: fnFirst},
		{Name: "last", Category: "list", MinArgs: 1, MaxArgs: 1, Impl: fnLast},
		{Name: "index", Category: "list", MinArgs: 2, MaxArgs: 2, Impl: fnIndex},
		{Name: "join", Category: "list", MinArgs: 1, MaxArgs: 2, Kwargs: []string{"delimiter", "prefix"}, Impl: fnJoin},
		{Name: "len", Category: "list", MinArgs: 0, MaxArgs: 1, Impl: fnLen},
		{Name: "all", Category: "list", MinArgs: 1, MaxArgs: 1, Impl: fnAll},
		{Name: "diff", Category: "list", MinArgs: 1, MaxArgs: 1, Impl: fnDiff},
		{Name: "dict_to_key_value_list", Category: "list", MinArgs: 1, MaxArgs: 1, Impl: fnDictToKeyValueList},
		{Name: "dict_pop", Category: "list", MinArgs: 1, MaxArgs: -1, Impl: fnDictPop},
		{Name: "dict_filter_by_prefix", Category: "list", MinArgs: 2, MaxArgs: 2, Impl: fnDictFilterByPrefix},
		{Name: "dict_pop_prefix", Category: "list", MinArgs: 2, MaxArgs: 2, Impl: fnDictPopPrefix},

		// Datetimes (from funcs_datetime.go)
		{Name: "utcnow", Category: "datetime", Impl: fnUtcnow},
		{Name: "utcnowiso", Category: "datetime", Impl: fnUtcnowISO},
		{Name: "to_utc", Category: "datetime", MinArgs: 1, MaxArgs: 1, Impl: fnToUTC},
		{Name: "to_timestamp", Category: "datetime", MinArgs: 1, MaxArgs: 1, Impl: fnToTimestamp},
		{Name: "from_timestamp", Category: "datetime", MinArgs: 1, MaxArgs: 2, Kwargs: []string{"timezone"}, Impl: fnFromTimestamp},
		{Name: "datetime_compare", Category: "datetime", MinArgs: 2, MaxArgs: 2, Impl: fnDatetimeCompare},
		{Name: "is_business_hours", Category: "datetime", MinArgs: 0, MaxArgs: 1,
			Kwargs: []string{"time_to_check", "start_hour", "end_hour", "business_days", "timezone"}, Impl: fnIsBusinessHours},
		{Name: "add_time_to_date", Category: "datetime", MinArgs: 3, MaxArgs: 3, Impl: fnAddTimeToDate},
		{Name: "substract_minutes", Category: "datetime", MinArgs: 2, MaxArgs: 2, Impl: fnSubstractMinutes},
		{Name: "timestamp_delta", Category: "datetime", MinArgs: 3, MaxArgs: 3, Impl: fnTimestampDelta},

		// JSON (from funcs_json.go)
		{Name: "json_dumps", Category: "json", MinArgs: 1, MaxArgs: 1, Impl: fnJSONDumps},
		{Name: "json_loads", Category: "json", MinArgs: 1, MaxArgs: 1, Impl: fnJSONLoads},

		// Alerts (from funcs_alert.go)
		{Name: "get_firing_time", Category: "alert", MinArgs: 2, MaxArgs: 2, Kwargs: []string{"tenant_id"}, Impl: fnGetFiringTime},
	}
}

// Lookup returns the definition registered under name.
func (l *Library) Lookup(name string) (*Def, bool) {
	def, ok := l.defs[name]
	return def, ok
}

// Names returns the registered function names, sorted.
func (l *Library) Names() []string {
	return append([]string(nil), l.names...)
}

// Config returns a copy of the configuration the library was built with.
func (l *Library) Config() Config {
	c := l.config
	c.BusinessDays = append([]int(nil), l.config.BusinessDays...)
	return c
}

// Call invokes the function registered under name. kwargs may be nil.
func (l *Library) Call(name string, args []Value, kwargs *Map) (Value, error) {
	def, ok := l.defs[name]
	if !ok {
		l.logger.Debug("Unknown function requested", "function", name)
		return Null, newError(LookupError, name, "no function named %q", name)
	}
	if err := def.check(args, kwargs); err != nil {
		return Null, err
	}
	c := &Call{Name: name, Args: args, Kwargs: kwargs, lib: l}
	v, err := def.Impl(c)
	if err != nil {
		l.logger.Debug("Function call failed", "function", name, "error", err)
		return Null, withFunc(err, name)
	}
	return v, nil
}

// CallAny converts plain Go arguments with FromAny and calls name. Arguments of
// type Kwarg become keyword arguments.
func (l *Library) CallAny(name string, args ...any) (Value, error) {
	var (
		positional []Value
		kwargs     *Map
	)
	for _, arg := range args {
		if kw, ok := arg.(Kwarg); ok {
			v, err := FromAny(kw.Value)
			if err != nil {
				return Null, withFunc(err, name)
			}
			if kwargs == nil {
				kwargs = NewMap()
			}
			kwargs.Set(kw.Key, v)
			continue
		}
		v, err := FromAny(arg)
		if err != nil {
			return Null, withFunc(err, name)
		}
		positional = append(positional, v)
	}
	return l.Call(name, positional, kwargs)
}

func (d *Def) check(args []Value, kwargs *Map) error {
	if len(args) < d.MinArgs || (d.MaxArgs >= 0 && len(args) > d.MaxArgs) {
		switch {
		case d.MaxArgs < 0:
			return newError(ArgumentError, d.Name, "expected at least %d arguments, got %d", d.MinArgs, len(args))
		case d.MinArgs == d.MaxArgs:
			return newError(ArgumentError, d.Name, "expected %d arguments, got %d", d.MinArgs, len(args))
		default:
			return newError(ArgumentError, d.Name, "expected %d to %d arguments, got %d", d.MinArgs, d.MaxArgs, len(args))
		}
	}
	for _, key := range kwargs.Keys() {
		if !d.acceptsKwarg(key) {
			return newError(ArgumentError, d.Name, "unexpected keyword argument %q", key)
		}
	}
	return nil
}

func (d *Def) acceptsKwarg(key string) bool {
	for _, k := range d.Kwargs {
		if k == key {
			return true
		}
	}
	return false
}
