package route

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Route is one scripted traversal loaded from map_<id>.json.
type Route struct {
	Base   string  `json:"-"` // File base name, e.g. map_1-1_1
	Name   string  `json:"name"`
	Author string  `json:"author"`
	Start  []Entry `json:"start"`
	Map    []Entry `json:"map"`
}

// Prefix is the part of the display name before the first '-', which is what
// the allow and forbid lists refer to.
func (r *Route) Prefix() string {
	prefix, _, _ := strings.Cut(r.Name, "-")
	return prefix
}

// Entry is one {key: value, ...attrs} object. The first key names the step;
// any further keys are per-entry attributes.
type Entry struct {
	Key   string
	Value Value
	Attrs map[string]Value
}

// Attr returns the attribute value and whether it is present.
func (e Entry) Attr(name string) (Value, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

func (e Entry) String() string {
	return fmt.Sprintf("{%s: %s}", e.Key, string(e.Value))
}

// UnmarshalJSON keeps the key order of the object, which a map would lose.
func (e *Entry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("route entry must be an object")
	}

	first := true
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in route entry", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("entry %q: %w", key, err)
		}

		key = NormalizeKey(key)
		if first {
			e.Key, e.Value = key, Value(raw)
			first = false
			continue
		}
		if e.Attrs == nil {
			e.Attrs = make(map[string]Value)
		}
		e.Attrs[key] = Value(raw)
	}
	if first {
		return errors.New("route entry is empty")
	}
	_, err = dec.Token()
	return err
}

// NormalizeKey turns Windows style asset paths into slash paths.
func NormalizeKey(key string) string {
	return strings.ReplaceAll(key, `\`, "/")
}

// Value is the raw JSON value of an entry.
type Value json.RawMessage

// IsNumber reports whether the value is a JSON number.
func (v Value) IsNumber() bool {
	var n json.Number
	return json.Unmarshal(v, &n) == nil
}

// Float returns the value as a number, or def when it is not one.
func (v Value) Float(def float64) float64 {
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return def
	}
	f, err := n.Float64()
	if err != nil {
		return def
	}
	return f
}

// Int returns the value truncated to an int, or def when it is not a number.
func (v Value) Int(def int) int {
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return def
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return int(f)
	}
	return def
}

// Bool treats true, non-zero numbers and non-empty strings as set.
func (v Value) Bool() bool {
	var x any
	if err := json.Unmarshal(v, &x); err != nil {
		return false
	}
	switch t := x.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	default:
		return false
	}
}

// Ints returns a number as a one element list, or a list of numbers.
func (v Value) Ints() ([]int, error) {
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("not an integer: %s", n)
		}
		return []int{int(i)}, nil
	}
	var list []int
	if err := json.Unmarshal(v, &list); err != nil {
		return nil, fmt.Errorf("expected integer or integer list, got %s", string(v))
	}
	return list, nil
}

// Text returns a JSON string value, or the raw text otherwise.
func (v Value) Text() string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}
