package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"hotconsole/internal/config"
	"hotconsole/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, body string) *config.Store {
	t.Helper()
	st := config.NewStore(filepath.Join(t.TempDir(), "data.json"))
	if body != "" {
		require.NoError(t, os.WriteFile(st.Path(), []byte(body), 0o600))
	}
	return st
}

func expectedDoc(t *testing.T, version int, extra map[string]any) *config.Document {
	t.Helper()
	doc := config.DefaultDocument()
	doc.Version = version
	for k, v := range extra {
		require.NoError(t, doc.Set(k, v))
	}
	return doc
}

func TestApplyCreatesWhenMissing(t *testing.T) {
	st := setup(t, "")
	out, err := Apply(st, config.DefaultDocument(), nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, out)
	assert.True(t, out.NeedsRestart())

	doc, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultDocument().Fields(), doc.Fields())
}

func TestApplyUnchangedLeavesFileAlone(t *testing.T) {
	body := `{"version": 1, "consoleMode": true, "refuseStartup": true, "custom": "x"}`
	st := setup(t, body)

	out, err := Apply(st, config.DefaultDocument(), nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, out)
	assert.False(t, out.NeedsRestart())

	data, err := os.ReadFile(st.Path())
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestApplyMergesOnVersionChange(t *testing.T) {
	st := setup(t, `{"version": 1, "consoleMode": true, "refuseStartup": false, "url": "http://old"}`)
	expected := expectedDoc(t, 2, map[string]any{"url": "http://new", "token": ""})

	out, err := Apply(st, expected, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMerged, out)

	doc, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)
	assert.True(t, doc.ConsoleMode, "existing values win")
	assert.Equal(t, "http://old", doc.Extra["url"])
	assert.Equal(t, "", doc.Extra["token"])
}

func TestApplyMergeFromVersionOneWithoutMigrations(t *testing.T) {
	st := setup(t, `{"version": 1, "consoleMode": false, "refuseStartup": true, "legacy": 5}`)
	expected := expectedDoc(t, 2, map[string]any{"inn2UL": "6699000000"})

	out, err := Apply(st, expected, []Migration{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeMerged, out)

	doc, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)
	assert.True(t, doc.RefuseStartup)
	assert.Equal(t, int64(5), doc.Extra["legacy"], "no migrations means no pruning")
	assert.Equal(t, "6699000000", doc.Extra["inn2UL"])
}

func TestApplyRewritesCorrupted(t *testing.T) {
	st := setup(t, `{"version": "one", "consoleMode": true}`)
	out, err := Apply(st, config.DefaultDocument(), nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRewritten, out)

	doc, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultDocument().Fields(), doc.Fields())
}

func TestApplyRunsMigrationsThenPrunes(t *testing.T) {
	st := setup(t, `{"version": 1, "consoleMode": false, "refuseStartup": false, "oldName": "kept value", "junk": 1}`)
	expected := expectedDoc(t, 2, map[string]any{"newName": ""})

	var order []string
	rename := func(s *config.Store) error {
		order = append(order, "rename")
		v, err := s.GetField("oldName")
		if err != nil {
			return err
		}
		return s.UpdateField("newName", v)
	}
	second := func(s *config.Store) error {
		order = append(order, "second")
		return nil
	}

	out, err := Apply(st, expected, []Migration{rename, second})
	require.NoError(t, err)
	assert.Equal(t, OutcomeMerged, out)
	assert.Equal(t, []string{"rename", "second"}, order)

	fields, err := st.LoadRaw()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"version":       int64(2),
		"consoleMode":   false,
		"refuseStartup": false,
		"newName":       "kept value",
	}, fields)
}

func TestApplySkipsMigrationsWhenCurrent(t *testing.T) {
	st := setup(t, `{"version": 3, "consoleMode": false, "refuseStartup": false, "extra": true}`)
	called := false
	m := func(*config.Store) error { called = true; return nil }

	out, err := Apply(st, expectedDoc(t, 3, nil), []Migration{m})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, out)
	assert.False(t, called)

	fields, err := st.LoadRaw()
	require.NoError(t, err)
	assert.Equal(t, true, fields["extra"])
}

func TestApplyMigrationsRepairCorruption(t *testing.T) {
	st := setup(t, `{"version": 1, "consoleMode": "no", "refuseStartup": false}`)
	fix := func(s *config.Store) error { return s.UpdateField("consoleMode", false) }

	out, err := Apply(st, expectedDoc(t, 1, nil), []Migration{fix})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, out)
	assert.False(t, st.IsCorrupted())
}

func TestApplyRewritesUnparsableWithMigrations(t *testing.T) {
	st := setup(t, `{not json`)
	ran := 0
	noop := func(*config.Store) error { ran++; return nil }

	out, err := Apply(st, expectedDoc(t, 2, nil), []Migration{noop})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRewritten, out)
	assert.Equal(t, 1, ran)

	doc, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)
	assert.False(t, st.IsCorrupted())
}

func TestCleanExcessFieldsSkipsUnparsable(t *testing.T) {
	st := setup(t, `[1, 2`)
	require.NoError(t, CleanExcessFields(st, config.DefaultDocument()))
	raw, err := os.ReadFile(st.Path())
	require.NoError(t, err)
	assert.Equal(t, `[1, 2`, string(raw))
}

func TestApplyPropagatesMigrationError(t *testing.T) {
	st := setup(t, `{"version": 1, "consoleMode": false, "refuseStartup": false}`)
	boom := func(*config.Store) error { return os.ErrPermission }

	_, err := Apply(st, expectedDoc(t, 2, nil), []Migration{boom})
	require.ErrorIs(t, err, os.ErrPermission)
}

func TestApplyTwiceIsNoop(t *testing.T) {
	st := setup(t, `{"version": 1, "consoleMode": false, "refuseStartup": false}`)
	expected := expectedDoc(t, 2, map[string]any{"a": int64(1)})
	opts := Options{Logger: logging.NewTestLogger()}

	_, err := ApplyWithOptions(st, expected, nil, opts)
	require.NoError(t, err)
	out, err := ApplyWithOptions(st, expected, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, out)
}

func TestMistypedExtrasPreserved(t *testing.T) {
	st := setup(t, `{"version": 1, "consoleMode": false, "refuseStartup": false, "port": "8080"}`)
	expected := expectedDoc(t, 2, map[string]any{"port": int64(80)})

	_, err := ApplyWithOptions(st, expected, nil, Options{Logger: logging.NewTestLogger()})
	require.NoError(t, err)

	doc, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", doc.Extra["port"])
}
