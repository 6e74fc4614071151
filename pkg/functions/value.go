package functions

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
	KindTime
)

var kindNames = [...]string{
	KindNull:   "null",
	KindString: "string",
	KindInt:    "int",
	KindFloat:  "float",
	KindBool:   "bool",
	KindList:   "list",
	KindMap:    "mapping",
	KindTime:   "datetime",
}

// String returns the kind's name as used in error messages.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a dynamically typed argument or result. The zero Value is null.
// Values are immutable once built; functions never modify their arguments.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	l    []Value
	m    *Map
	t    time.Time
}

// Null is the null Value.
var Null = Value{}

// String returns a string Value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Int returns an integer Value.
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Float returns a float Value.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// List returns a list Value holding items.
func List(items ...Value) Value {
	return Value{kind: KindList, l: items}
}

// Mapping returns a mapping Value backed by m.
func Mapping(m *Map) Value {
	return Value{kind: KindMap, m: m}
}

// Time returns a datetime Value.
func Time(t time.Time) Value {
	return Value{kind: KindTime, t: t}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumber reports whether v is an int or a float.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// The accessors below return the zero value when v holds another kind.

// Str returns the string payload.
func (v Value) Str() string { return v.s }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Items returns the list payload. Callers must not modify it.
func (v Value) Items() []Value { return v.l }

// Map returns the mapping payload.
func (v Value) Map() *Map { return v.m }

// Time returns the datetime payload.
func (v Value) Time() time.Time { return v.t }

// Int returns the integer payload.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload.
func (v Value) Float() float64 { return v.f }

// Number returns the numeric value as a float64, whichever number kind it is.
func (v Value) Number() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// AsInt returns the value as an integer. Floats are accepted when they have no
// fractional part.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < math.MaxInt64 {
			return int64(v.f), true
		}
	}
	return 0, false
}

// Equal reports deep equality. An int and a float holding the same number are equal.
func (v Value) Equal(o Value) bool {
	if v.IsNumber() && o.IsNumber() {
		if v.kind == KindInt && o.kind == KindInt {
			return v.i == o.i
		}
		return v.Number() == o.Number()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	case KindList:
		if len(v.l) != len(o.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].Equal(o.l[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.Equal(o.m)
	}
	return false
}

// String renders the value the way templates print it. Strings are returned
// as-is; lists and mappings render as compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return isoFormat(v.t)
	case KindList, KindMap:
		b, err := encodeJSON(v, "")
		if err != nil {
			return fmt.Sprintf("<%s>", v.kind)
		}
		return string(b)
	}
	return ""
}

// formatFloat always keeps a decimal point so that floats survive a JSON round
// trip as floats.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Interface converts the value to plain Go data for use inside text/template.
// Mappings become map[string]any, so their ordering is lost.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	case KindList:
		out := make([]any, len(v.l))
		for i, item := range v.l {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, v.m.Len())
		v.m.Range(func(k string, val Value) bool {
			out[k] = val.Interface()
			return true
		})
		return out
	}
	return nil
}

// FromAny converts Go data into a Value. Go maps carry no insertion order, so
// their keys are sorted. Unsupported types yield an ArgumentError.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null, nil
	case Value:
		return t, nil
	case *Value:
		if t == nil {
			return Null, nil
		}
		return *t, nil
	case *Map:
		if t == nil {
			return Null, nil
		}
		return Mapping(t), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Int(int64(t)), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return Float(float64(t)), nil
		}
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case time.Time:
		return Time(t), nil
	case fmt.Stringer:
		if rv := reflect.ValueOf(x); rv.Kind() != reflect.Map && rv.Kind() != reflect.Slice {
			return String(t.String()), nil
		}
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return List(), nil
		}
		items := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return Null, err
			}
			items[i] = item
		}
		return List(items...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Null, newError(ArgumentError, "", "mapping keys must be strings, got %s", rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			val, err := FromAny(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return Null, err
			}
			m.Set(k, val)
		}
		return Mapping(m), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return Null, nil
		}
		return FromAny(rv.Elem().Interface())
	}
	return Null, newError(ArgumentError, "", "unsupported value of type %T", x)
}

// MustFromAny is FromAny for literals known to convert, mainly in tests.
func MustFromAny(x any) Value {
	v, err := FromAny(x)
	if err != nil {
		panic(err)
	}
	return v
}
