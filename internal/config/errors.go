package config

import (
	"fmt"
	"io/fs"
	"strings"
)

// NotFoundError reports that no data document exists at Path.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("config not found: %s", e.Path)
}

// Unwrap lets callers match the error with fs.ErrNotExist.
func (e *NotFoundError) Unwrap() error { return fs.ErrNotExist }

// SchemaError reports a document that cannot be parsed or that fails
// validation of the required fields.
type SchemaError struct {
	Path     string
	Problems []string
	Err      error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("invalid config")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Problems) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Problems, "; "))
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Err }

// MissingKeyError reports a lookup of a key the document does not have.
type MissingKeyError struct {
	Key  string
	Path string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("key %q not found in %s", e.Key, e.Path)
}
