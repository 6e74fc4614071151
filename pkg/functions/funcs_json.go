package functions

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// fnJSONDumps renders a value as indented JSON. A string argument is parsed as
// JSON first, so already-serialized payloads get pretty-printed.
func fnJSONDumps(c *Call) (Value, error) {
	v := c.Args[0]
	if v.Kind() == KindString {
		parsed, err := decodeJSON(v.Str())
		if err != nil {
			return Null, err
		}
		v = parsed
	}
	indent := strings.Repeat(" ", c.Config().JSONIndent)
	b, err := encodeJSON(v, indent)
	if err != nil {
		return Null, err
	}
	return String(string(b)), nil
}

func fnJSONLoads(c *Call) (Value, error) {
	s, err := c.StringArg(0)
	if err != nil {
		return Null, err
	}
	return decodeJSON(s)
}

// DecodeJSON parses JSON into a Value, keeping object keys in document order.
func DecodeJSON(s string) (Value, error) {
	return decodeJSON(s)
}

func decodeJSON(s string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Null, wrapError(ParseError, "", err, "malformed JSON")
	}
	if _, err = dec.Token(); !errors.Is(err, io.EOF) {
		return Null, newError(ParseError, "", "malformed JSON: trailing data")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Null, io.ErrUnexpectedEOF
		}
		return Null, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null, err
				}
				key, _ := keyTok.(string)
				val, err := decodeValue(dec)
				if err != nil {
					return Null, err
				}
				m.Set(key, val)
			}
			if _, err = dec.Token(); err != nil {
				return Null, err
			}
			return Mapping(m), nil
		case '[':
			items := []Value{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return Null, err
				}
				items = append(items, val)
			}
			if _, err = dec.Token(); err != nil {
				return Null, err
			}
			return List(items...), nil
		}
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null, nil
	case json.Number:
		return numberValue(string(t))
	}
	return Null, errors.New("unexpected token")
}

func numberValue(s string) (Value, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null, err
	}
	return Float(f), nil
}

// EncodeJSON renders v as JSON with the given indent ("" for compact output).
// Datetimes are written as ISO strings.
func EncodeJSON(v Value, indent string) ([]byte, error) {
	return encodeJSON(v, indent)
}

func encodeJSON(v Value, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, v); err != nil {
		return nil, err
	}
	if indent == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func appendJSON(buf *bytes.Buffer, v Value) error {
	switch v.Kind() {
	case KindNull:
		buf.WriteString("null")
	case KindString:
		return appendJSONString(buf, v.Str())
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.Int(), 10))
	case KindFloat:
		if math.IsNaN(v.Float()) || math.IsInf(v.Float(), 0) {
			return newError(ArgumentError, "", "%v is not JSON serializable", v.Float())
		}
		buf.WriteString(formatFloat(v.Float()))
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case KindTime:
		return appendJSONString(buf, isoFormat(v.Time()))
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		first := true
		var err error
		v.Map().Range(func(k string, val Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err = appendJSONString(buf, k); err != nil {
				return false
			}
			buf.WriteByte(':')
			err = appendJSON(buf, val)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		return newError(ArgumentError, "", "%s is not JSON serializable", v.Kind())
	}
	return nil
}

func appendJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
