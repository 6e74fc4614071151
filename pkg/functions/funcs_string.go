package functions

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const upperHexChars = "0123456789ABCDEF"

// fnUppercase applies full Unicode case mapping, so "ß" becomes "SS".
func fnUppercase(c *Call) (Value, error) {
	s, err := c.StringArg(0)
	if err != nil {
		return Null, err
	}
	return String(cases.Upper(language.Und).String(s)), nil
}

func fnLowercase(c *Call) (Value, error) {
	s, err := c.StringArg(0)
	if err != nil {
		return Null, err
	}
	return String(cases.Lower(language.Und).String(s)), nil
}

// fnSplit returns the pieces of a string around every occurrence of the delimiter.
func fnSplit(c *Call) (Value, error) {
	s, err := c.StringArg(0)
	if err != nil {
		return Null, err
	}
	sep, err := c.StringArg(1)
	if err != nil {
		return Null, err
	}
	if sep == "" {
		return Null, newError(ArgumentError, c.Name, "empty delimiter")
	}
	parts := strings.Split(s, sep)
	items := make([]Value, len(parts))
	for i, p := range parts {
		items[i] = String(p)
	}
	return List(items...), nil
}

func fnStrip(c *Call) (Value, error) {
	s, err := c.StringArg(0)
	if err != nil {
		return Null, err
	}
	return String(strings.TrimSpace(s)), nil
}

func fnReplace(c *Call) (Value, error) {
	s, err := c.StringArg(0)
	if err != nil {
		return Null, err
	}
	old, err := c.StringArg(1)
	if err != nil {
		return Null, err
	}
	repl, err := c.StringArg(2)
	if err != nil {
		return Null, err
	}
	if old == "" {
		return String(s), nil
	}
	return String(strings.ReplaceAll(s, old, repl)), nil
}

var newlineReplacer = strings.NewReplacer("\r\n", "", "\n", "", "\r", "", "\t", "")

func fnRemoveNewlines(c *Call) (Value, error) {
	s, err := c.StringArg(0)
	if err != nil {
		return Null, err
	}
	return String(newlineReplacer.Replace(s)), nil
}

// fnEncode percent-encodes everything except unreserved characters and "/".
func fnEncode(c *Call) (Value, error) {
	s, err := c.StringArg(0)
	if err != nil {
		return Null, err
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isUnreserved(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHexChars[ch>>4])
		b.WriteByte(upperHexChars[ch&0x0f])
	}
	return String(b.String()), nil
}

func isUnreserved(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	switch ch {
	case '-', '_', '.', '~', '/':
		return true
	}
	return false
}

// fnSlice cuts a string by rune offsets. An end of 0 means the end of the
// string; negative offsets count from the end.
func fnSlice(c *Call) (Value, error) {
	s, err := c.StringArg(0)
	if err != nil {
		return Null, err
	}
	runes := []rune(s)
	n := int64(len(runes))

	bound := func(pos int, key string, def int64) (int64, error) {
		v, ok, err := c.Param(pos, key)
		if err != nil || !ok {
			return def, err
		}
		return c.expectInt(pos, v)
	}
	start, err := bound(1, "start", 0)
	if err != nil {
		return Null, err
	}
	end, err := bound(2, "end", 0)
	if err != nil {
		return Null, err
	}
	if end == 0 {
		end = n
	}
	start, end = clampIndex(start, n), clampIndex(end, n)
	if start >= end {
		return String(""), nil
	}
	return String(string(runes[start:end])), nil
}

func clampIndex(i, n int64) int64 {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func fnString(c *Call) (Value, error) {
	return String(c.Args[0].String()), nil
}

// runeLen is used by len for strings.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
