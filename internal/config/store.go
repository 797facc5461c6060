package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store persists a Document as a JSON file.
type Store struct {
	path string
}

// NewStore returns a store for the JSON document at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Exists reports whether the document file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// LoadRaw reads the document without schema validation.
func (s *Store) LoadRaw() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: s.path}
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	fields, err := decodeFields(data)
	if err != nil {
		return nil, &SchemaError{Path: s.path, Err: err}
	}
	return fields, nil
}

// Load reads and validates the document.
func (s *Store) Load() (*Document, error) {
	fields, err := s.LoadRaw()
	if err != nil {
		return nil, err
	}
	doc, err := DocumentFromFields(fields)
	if err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.Path = s.path
		}
		return nil, err
	}
	return doc, nil
}

// IsCorrupted reports whether Load would fail validation. A missing file is
// not corruption.
func (s *Store) IsCorrupted() bool {
	_, err := s.Load()
	var se *SchemaError
	return errors.As(err, &se)
}

// Save replaces the file with doc.
func (s *Store) Save(doc *Document) error {
	return s.SaveRaw(doc.Fields())
}

// SaveRaw replaces the file with fields as they are.
func (s *Store) SaveRaw(fields map[string]any) error {
	out, err := json.MarshalIndent(fields, "", "    ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return writeAtomic(s.path, append(out, '\n'))
}

// GetField returns a single value without validating the rest of the file.
func (s *Store) GetField(key string) (any, error) {
	fields, err := s.LoadRaw()
	if err != nil {
		return nil, err
	}
	v, ok := fields[key]
	if !ok {
		return nil, &MissingKeyError{Key: key, Path: s.path}
	}
	return v, nil
}

// UpdateField sets key to value and writes the file back. Other keys are
// left untouched.
func (s *Store) UpdateField(key string, value any) error {
	fields, err := s.LoadRaw()
	if err != nil {
		return err
	}
	fields[key] = value
	return s.SaveRaw(fields)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".data-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// decodeFields parses a JSON object. Integral numbers become int64, other
// numbers float64.
func decodeFields(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON object")
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("want JSON object, got %T", raw)
	}
	return normalize(obj).(map[string]any), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case map[string]any:
		for k, item := range t {
			t[k] = normalize(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalize(item)
		}
		return t
	default:
		return v
	}
}
