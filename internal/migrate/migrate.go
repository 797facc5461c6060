// Package migrate brings data.json in line with the document the running
// build expects.
package migrate

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"

	"hotconsole/internal/config"
	"hotconsole/internal/logging"

	"github.com/sirupsen/logrus"
)

// Migration rewrites old fields of a stored document. Migrations run in
// order, once, before excess fields are pruned.
type Migration func(*config.Store) error

// Outcome reports what Apply did to the stored document.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeCreated
	OutcomeRewritten
	OutcomeMerged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeRewritten:
		return "rewritten"
	case OutcomeMerged:
		return "merged"
	default:
		return "unchanged"
	}
}

// NeedsRestart reports whether the file was written and the process should
// relaunch to pick it up.
func (o Outcome) NeedsRestart() bool {
	return o != OutcomeUnchanged
}

// Options tunes Apply.
type Options struct {
	Logger logrus.FieldLogger
}

// Apply creates, migrates, rewrites or merges the stored document so that it
// validates and carries the expected version.
func Apply(store *config.Store, expected *config.Document, migrations []Migration) (Outcome, error) {
	return ApplyWithOptions(store, expected, migrations, Options{})
}

// ApplyWithOptions is Apply with a logger for merge warnings.
func ApplyWithOptions(store *config.Store, expected *config.Document, migrations []Migration, opts Options) (Outcome, error) {
	if expected == nil {
		return OutcomeUnchanged, errors.New("migrate: expected document is nil")
	}
	log := opts.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	log = logging.Component(log, "migrate")

	if !store.Exists() {
		if err := store.Save(expected); err != nil {
			return OutcomeUnchanged, fmt.Errorf("create %s: %w", store.Path(), err)
		}
		log.Infof("created %s", store.Path())
		return OutcomeCreated, nil
	}

	if len(migrations) > 0 {
		stale, err := isStale(store, expected)
		if err != nil {
			return OutcomeUnchanged, err
		}
		if stale {
			for i, m := range migrations {
				if err := m(store); err != nil {
					return OutcomeUnchanged, fmt.Errorf("migration %d: %w", i+1, err)
				}
			}
			if err := CleanExcessFields(store, expected); err != nil {
				return OutcomeUnchanged, err
			}
			log.Infof("applied %d migrations", len(migrations))
		}
	}

	current, err := store.Load()
	if err != nil {
		var se *config.SchemaError
		if !errors.As(err, &se) {
			return OutcomeUnchanged, err
		}
		log.Warnf("rewriting corrupted document: %v", err)
		if err := store.Save(expected); err != nil {
			return OutcomeUnchanged, fmt.Errorf("rewrite %s: %w", store.Path(), err)
		}
		return OutcomeRewritten, nil
	}

	if current.Version == expected.Version {
		return OutcomeUnchanged, nil
	}

	merged, err := AddNewFields(store, expected)
	if err != nil {
		return OutcomeUnchanged, err
	}
	for _, key := range mistypedExtras(merged, expected) {
		log.Warnf("field %q keeps a value of type %T, default is %T", key, merged.Extra[key], expected.Extra[key])
	}
	if err := store.Save(merged); err != nil {
		return OutcomeUnchanged, fmt.Errorf("merge %s: %w", store.Path(), err)
	}
	log.Infof("merged document version %d -> %d", current.Version, expected.Version)
	return OutcomeMerged, nil
}

// AddNewFields returns the stored fields with every expected key that is
// absent copied in. The version always comes from expected. The result is
// revalidated.
func AddNewFields(store *config.Store, expected *config.Document) (*config.Document, error) {
	fields, err := store.LoadRaw()
	if err != nil {
		return nil, err
	}
	for key, value := range expected.Fields() {
		if _, ok := fields[key]; !ok || key == config.KeyVersion {
			fields[key] = value
		}
	}
	doc, err := config.DocumentFromFields(fields)
	if err != nil {
		return nil, fmt.Errorf("merged document: %w", err)
	}
	return doc, nil
}

// CleanExcessFields drops stored keys that expected does not declare. A
// document that does not parse is left for the corruption rewrite.
func CleanExcessFields(store *config.Store, expected *config.Document) error {
	fields, err := store.LoadRaw()
	if err != nil {
		var se *config.SchemaError
		if errors.As(err, &se) {
			return nil
		}
		return err
	}
	keep := expected.Fields()
	for key := range fields {
		if _, ok := keep[key]; !ok {
			delete(fields, key)
		}
	}
	return store.SaveRaw(fields)
}

func isStale(store *config.Store, expected *config.Document) (bool, error) {
	current, err := store.Load()
	if err != nil {
		var se *config.SchemaError
		if errors.As(err, &se) {
			return true, nil
		}
		return false, err
	}
	return current.Version != expected.Version, nil
}

func mistypedExtras(doc, expected *config.Document) []string {
	var keys []string
	for key, want := range expected.Extra {
		got, ok := doc.Extra[key]
		if !ok || got == nil || want == nil {
			continue
		}
		if reflect.TypeOf(got) != reflect.TypeOf(want) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
