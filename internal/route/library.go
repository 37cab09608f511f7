package route

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

var (
	// ErrRouteNotFound is returned when a requested route is not in the library.
	ErrRouteNotFound = errors.New("route does not exist")
	// ErrInvalidRoute wraps schema and decoding failures of a single route file.
	ErrInvalidRoute = errors.New("invalid route file")
)

const routeSchemaURL = "https://route-idle.local/schemas/route.json"

// routeSchemaJSON describes a route file. Only name, author and map are
// mandatory; start may be omitted.
const routeSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "author", "map"],
  "properties": {
    "name": { "type": "string", "minLength": 1 },
    "author": { "type": "string" },
    "start": { "type": "array", "items": { "$ref": "#/$defs/entry" } },
    "map": { "type": "array", "items": { "$ref": "#/$defs/entry" } }
  },
  "$defs": {
    "entry": { "type": "object", "minProperties": 1 }
  }
}`

// Validator checks route documents against the route schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the route schema.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(routeSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal route schema: %w", err)
	}
	if err := c.AddResource(routeSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add route schema resource: %w", err)
	}
	sch, err := c.Compile(routeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile route schema: %w", err)
	}
	return &Validator{schema: sch}, nil
}

// Parse validates data and decodes it into a Route named base.
func (v *Validator) Parse(base string, data []byte) (*Route, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidRoute, base, err)
	}
	if err := v.schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidRoute, base, err)
	}

	r := &Route{Base: base}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidRoute, base, err)
	}
	return r, nil
}

// Library lists and loads the route files of one route version directory.
type Library struct {
	dir       string
	validator *Validator
	names     []string // File names (map_<id>.json) in natural order
}

// OpenLibrary scans dir/version for map_*.json files.
func OpenLibrary(dir, version string) (*Library, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	root := filepath.Join(dir, version)
	files, err := filepath.Glob(filepath.Join(root, "map_*.json"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	SortNatural(names)
	return &Library{dir: root, validator: v, names: names}, nil
}

// Names returns the route file names in run order.
func (l *Library) Names() []string {
	return append([]string(nil), l.names...)
}

// Load reads a route fresh from disk, so live edits are picked up.
func (l *Library) Load(base string) (*Route, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("read route %s: %w", base, err)
	}
	return l.validator.Parse(base, data)
}

// FileName maps a start ID such as "1-1_1" to its file name.
func FileName(id string) string {
	return "map_" + id + ".json"
}

// BaseName strips the extension from a route file name.
func BaseName(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file))
}

// BuildList returns the routes to run starting at id. With startInMid the
// routes before the start are wrapped to the end instead of being dropped.
func BuildList(names []string, id string, startInMid bool) ([]string, error) {
	want := FileName(id)
	start := -1
	for i, n := range names {
		if n == want {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
	}

	list := append([]string(nil), names[start:]...)
	if startInMid {
		list = append(list, names[:start]...)
	}
	return list, nil
}

// SortNatural sorts names comparing digit runs numerically, so map_2 sorts
// before map_10.
func SortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return naturalLess(names[i], names[j])
	})
}

func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		ca, cb := a[0], b[0]
		if isDigit(ca) && isDigit(cb) {
			na, ra := splitDigits(a)
			nb, rb := splitDigits(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			a, b = ra, rb
			continue
		}
		if ca != cb {
			return ca < cb
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func splitDigits(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
