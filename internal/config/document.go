package config

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Required keys of the data document.
const (
	KeyVersion       = "version"
	KeyConsoleMode   = "consoleMode"
	KeyRefuseStartup = "refuseStartup"
)

// Document is the in-memory projection of data.json: three required fields
// plus whatever the host application stores next to them.
type Document struct {
	Version       int
	ConsoleMode   bool
	RefuseStartup bool
	Extra         map[string]any
}

// DefaultDocument returns the document written on first run.
func DefaultDocument() *Document {
	return &Document{Version: 1, Extra: map[string]any{}}
}

// DocumentFromFields validates fields against the required schema and builds
// a Document. Unknown keys go to Extra unchanged.
func DocumentFromFields(fields map[string]any) (*Document, error) {
	doc := &Document{Extra: map[string]any{}}
	var problems []string

	if v, ok := fields[KeyVersion]; !ok {
		problems = append(problems, "version: missing")
	} else if n, ok := asInt(v); !ok {
		problems = append(problems, fmt.Sprintf("version: want integer, got %T", v))
	} else if n < 1 {
		problems = append(problems, fmt.Sprintf("version: must be positive, got %d", n))
	} else {
		doc.Version = n
	}

	for _, key := range []string{KeyConsoleMode, KeyRefuseStartup} {
		v, ok := fields[key]
		if !ok {
			problems = append(problems, key+": missing")
			continue
		}
		b, ok := v.(bool)
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: want bool, got %T", key, v))
			continue
		}
		if key == KeyConsoleMode {
			doc.ConsoleMode = b
		} else {
			doc.RefuseStartup = b
		}
	}

	if len(problems) > 0 {
		return nil, &SchemaError{Problems: problems}
	}
	for k, v := range fields {
		if isRequired(k) {
			continue
		}
		doc.Extra[k] = v
	}
	return doc, nil
}

// Fields flattens the document into a single map.
func (d *Document) Fields() map[string]any {
	out := make(map[string]any, len(d.Extra)+3)
	for k, v := range d.Extra {
		out[k] = v
	}
	out[KeyVersion] = d.Version
	out[KeyConsoleMode] = d.ConsoleMode
	out[KeyRefuseStartup] = d.RefuseStartup
	return out
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	switch key {
	case KeyVersion:
		return d.Version, true
	case KeyConsoleMode:
		return d.ConsoleMode, true
	case KeyRefuseStartup:
		return d.RefuseStartup, true
	}
	v, ok := d.Extra[key]
	return v, ok
}

// Set writes key. Required keys keep their types.
func (d *Document) Set(key string, value any) error {
	switch key {
	case KeyVersion:
		n, ok := asInt(value)
		if !ok || n < 1 {
			return &SchemaError{Problems: []string{fmt.Sprintf("version: want positive integer, got %v", value)}}
		}
		d.Version = n
		return nil
	case KeyConsoleMode, KeyRefuseStartup:
		b, ok := value.(bool)
		if !ok {
			return &SchemaError{Problems: []string{fmt.Sprintf("%s: want bool, got %T", key, value)}}
		}
		if key == KeyConsoleMode {
			d.ConsoleMode = b
		} else {
			d.RefuseStartup = b
		}
		return nil
	}
	if d.Extra == nil {
		d.Extra = map[string]any{}
	}
	d.Extra[key] = value
	return nil
}

// Keys lists the required keys followed by the extra keys in sorted order.
func (d *Document) Keys() []string {
	extra := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append([]string{KeyVersion, KeyConsoleMode, KeyRefuseStartup}, extra...)
}

// Clone returns a shallow copy with its own Extra map.
func (d *Document) Clone() *Document {
	c := *d
	c.Extra = make(map[string]any, len(d.Extra))
	for k, v := range d.Extra {
		c.Extra[k] = v
	}
	return &c
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Fields())
}

func (d *Document) UnmarshalJSON(data []byte) error {
	fields, err := decodeFields(data)
	if err != nil {
		return err
	}
	doc, err := DocumentFromFields(fields)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

// String renders the document as indented JSON.
func (d *Document) String() string {
	out, err := json.MarshalIndent(d.Fields(), "", "    ")
	if err != nil {
		return fmt.Sprintf("<invalid document: %v>", err)
	}
	return string(out)
}

func isRequired(key string) bool {
	return key == KeyVersion || key == KeyConsoleMode || key == KeyRefuseStartup
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
