package functions

import (
	"strings"
)

// fnFirst returns element 0 of a non-empty list.
func fnFirst(c *Call) (Value, error) {
	items, err := c.ListArg(0)
	if err != nil {
		return Null, err
	}
	if len(items) == 0 {
		return Null, newError(RangeError, c.Name, "empty list")
	}
	return items[0], nil
}

// fnLast returns the final element of a non-empty list.
func fnLast(c *Call) (Value, error) {
	items, err := c.ListArg(0)
	if err != nil {
		return Null, err
	}
	if len(items) == 0 {
		return Null, newError(RangeError, c.Name, "empty list")
	}
	return items[len(items)-1], nil
}

// fnIndex returns the element at an index. Negative indexes count from the end.
func fnIndex(c *Call) (Value, error) {
	items, err := c.ListArg(0)
	if err != nil {
		return Null, err
	}
	i, err := c.IntArg(1)
	if err != nil {
		return Null, err
	}
	n := int64(len(items))
	pos := i
	if pos < 0 {
		pos += n
	}
	if pos < 0 || pos >= n {
		return Null, newError(RangeError, c.Name, "index %d out of range for list of length %d", i, n)
	}
	return items[pos], nil
}

// fnJoin concatenates list elements. Mappings are joined as "key=value" pairs.
// Non-string elements follow Config.JoinMode.
func fnJoin(c *Call) (Value, error) {
	arg := c.Args[0]
	var items []Value
	switch arg.Kind() {
	case KindList:
		items = arg.Items()
	case KindMap:
		arg.Map().Range(func(k string, v Value) bool {
			items = append(items, String(k+"="+v.String()))
			return true
		})
	default:
		return Null, c.argError(0, "a list or mapping", arg)
	}

	delim := ","
	if d, ok, err := c.ParamString(1, "delimiter"); err != nil {
		return Null, err
	} else if ok {
		delim = d
	}
	var prefix string
	if v, ok := c.Kwargs.Get("prefix"); ok {
		if v.Kind() != KindString {
			return Null, c.kwargError("prefix", "a string", v)
		}
		prefix = v.Str()
	}

	strict := c.Config().JoinMode == JoinStrict
	parts := make([]string, len(items))
	for i, item := range items {
		if item.Kind() != KindString && strict {
			return Null, newError(ArgumentError, c.Name, "element %d is %s, not a string", i, item.Kind())
		}
		parts[i] = prefix + item.String()
	}
	return String(strings.Join(parts, delim)), nil
}

// fnLen counts list elements, mapping entries or string characters. Called
// without arguments it returns 0.
func fnLen(c *Call) (Value, error) {
	v, ok := c.Arg(0)
	if !ok {
		return Int(0), nil
	}
	switch v.Kind() {
	case KindList:
		return Int(int64(len(v.Items()))), nil
	case KindMap:
		return Int(int64(v.Map().Len())), nil
	case KindString:
		return Int(int64(runeLen(v.Str()))), nil
	}
	return Null, c.argError(0, "a list, mapping or string", v)
}

// fnAll reports whether every element of a list is equal to the first.
func fnAll(c *Call) (Value, error) {
	items, err := c.ListArg(0)
	if err != nil {
		return Null, err
	}
	return Bool(allEqual(items)), nil
}

func fnDiff(c *Call) (Value, error) {
	items, err := c.ListArg(0)
	if err != nil {
		return Null, err
	}
	return Bool(!allEqual(items)), nil
}

func allEqual(items []Value) bool {
	for _, item := range items[min(1, len(items)):] {
		if !item.Equal(items[0]) {
			return false
		}
	}
	return true
}

// fnDictToKeyValueList renders each entry as "key:value", in insertion order.
func fnDictToKeyValueList(c *Call) (Value, error) {
	m, err := c.MapArg(0)
	if err != nil {
		return Null, err
	}
	items := make([]Value, 0, m.Len())
	m.Range(func(k string, v Value) bool {
		items = append(items, String(k+":"+v.String()))
		return true
	})
	return List(items...), nil
}

// fnDictPop returns a copy of the mapping without the named keys.
func fnDictPop(c *Call) (Value, error) {
	m, err := c.MapArg(0)
	if err != nil {
		return Null, err
	}
	drop := map[string]struct{}{}
	for i := 1; i < len(c.Args); i++ {
		key, err := c.StringArg(i)
		if err != nil {
			return Null, err
		}
		drop[key] = struct{}{}
	}
	return Mapping(m.Filter(func(k string, _ Value) bool {
		_, found := drop[k]
		return !found
	})), nil
}

func fnDictFilterByPrefix(c *Call) (Value, error) {
	return filterPrefix(c, true)
}

func fnDictPopPrefix(c *Call) (Value, error) {
	return filterPrefix(c, false)
}

func filterPrefix(c *Call, keep bool) (Value, error) {
	m, err := c.MapArg(0)
	if err != nil {
		return Null, err
	}
	prefix, err := c.StringArg(1)
	if err != nil {
		return Null, err
	}
	return Mapping(m.Filter(func(k string, _ Value) bool {
		return strings.HasPrefix(k, prefix) == keep
	})), nil
}
