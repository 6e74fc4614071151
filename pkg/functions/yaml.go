package functions

import (
	"errors"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// DecodeYAML reads a single YAML (or JSON) document into a Value. Mapping keys
// keep their document order. An empty document decodes to Null.
func DecodeYAML(r io.Reader) (Value, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Null, nil
		}
		return Null, wrapError(ParseError, "", err, "malformed YAML")
	}
	return fromNode(&doc)
}

func fromNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if key.Tag == "!!merge" {
				if err := mergeInto(m, val); err != nil {
					return Null, err
				}
				continue
			}
			v, err := fromNode(val)
			if err != nil {
				return Null, err
			}
			m.Set(key.Value, v)
		}
		return Mapping(m), nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := fromNode(child)
			if err != nil {
				return Null, err
			}
			items = append(items, v)
		}
		return List(items...), nil
	case yaml.ScalarNode:
		return fromScalar(n)
	}
	return Null, newError(ParseError, "", "unsupported YAML node at line %d", n.Line)
}

// mergeInto applies a "<<" merge key. The value is a mapping or a sequence of
// mappings; keys already present win, and earlier mappings in a sequence win
// over later ones.
func mergeInto(m *Map, val *yaml.Node) error {
	sources := []*yaml.Node{val}
	if val.Kind == yaml.SequenceNode {
		sources = val.Content
	}
	for _, src := range sources {
		merged, err := fromNode(src)
		if err != nil {
			return err
		}
		if merged.Kind() != KindMap {
			return newError(ParseError, "", "merge value at line %d is %s, not a mapping", src.Line, merged.Kind())
		}
		merged.Map().Range(func(k string, v Value) bool {
			if _, exists := m.Get(k); !exists {
				m.Set(k, v)
			}
			return true
		})
	}
	return nil
}

func fromScalar(n *yaml.Node) (Value, error) {
	var err error
	switch n.ShortTag() {
	case "!!null":
		return Null, nil
	case "!!bool":
		var b bool
		if err = n.Decode(&b); err == nil {
			return Bool(b), nil
		}
	case "!!int":
		var i int64
		if err = n.Decode(&i); err == nil {
			return Int(i), nil
		}
	case "!!float":
		var f float64
		if err = n.Decode(&f); err == nil {
			return Float(f), nil
		}
	case "!!timestamp":
		var t time.Time
		if err = n.Decode(&t); err == nil {
			return Time(t), nil
		}
	default:
		return String(n.Value), nil
	}
	return Null, wrapError(ParseError, "", err, "bad scalar at line %d", n.Line)
}
