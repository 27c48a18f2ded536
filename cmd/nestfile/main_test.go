package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/andreyvit/nestfile"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, stdin, args...)
	require.NoError(t, err, "nestfile %s", strings.Join(args, " "))
	return out
}

func requireIs(t *testing.T, err, target error) {
	t.Helper()
	require.True(t, errors.Is(err, target), "got %v, wanted %v", err, target)
}

const sampleDoc = `
a:
  a1: [1, 2, 3]
  a2: 4.5
  a3:
    a31: Test
b: string
c: null
3: [[1, 2], [3]]
`

func setupSample(t *testing.T) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "data.h5")
	mustRun(t, sampleDoc, "put", fn, "--from", "-")
	return fn
}

func TestPutStoresDocument(t *testing.T) {
	fn := setupSample(t)
	m, err := nestfile.LoadMapping(fn, nestfile.LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, 4, m.Len())

	v, ok := m.Get(nestfile.IntKey(3))
	require.True(t, ok)
	require.Equal(t, nestfile.KindJagged, v.Kind())

	v, ok = m.GetText("c")
	require.True(t, ok)
	require.True(t, nestfile.IsNone(v))
}

func TestPutFromFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"x": {"y": [1.5, 2.5]}}`), 0o644))
	fn := filepath.Join(dir, "data.h5")
	mustRun(t, "", "put", fn, "sub", "--from", src, "--compression", "gzip:9")
	require.True(t, nestfile.Exists(fn, "sub/x/y"))
}

func TestGet(t *testing.T) {
	fn := setupSample(t)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, "", "get", fn)), &doc))
	require.Equal(t, "string", doc["b"])
	require.Contains(t, doc, "c")
	require.Nil(t, doc["c"])
	require.Equal(t, map[string]any{"a1": []any{1, 2, 3}, "a2": 4.5, "a3": map[string]any{"a31": "Test"}}, doc["a"])
	require.Equal(t, []any{[]any{1, 2}, []any{3}}, doc["3"])

	var arr []float64
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "", "get", fn, "a/a1", "--format", "json")), &arr))
	require.Equal(t, []float64{1, 2, 3}, arr)

	doc = nil
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, "", "get", fn, "a", "--lazy")), &doc))
	require.Equal(t, map[string]any{"a1": nil, "a2": nil, "a3": map[string]any{"a31": nil}}, doc)

	_, err := run(t, "", "get", fn, "zzz")
	requireIs(t, err, nestfile.ErrNotFound)

	_, err = run(t, "", "get", fn, "--format", "xml")
	require.ErrorContains(t, err, "unknown format")
}

func TestPutModes(t *testing.T) {
	fn := setupSample(t)

	_, err := run(t, "b: other\n", "put", fn, "--from", "-")
	requireIs(t, err, nestfile.ErrDuplicate)

	mustRun(t, "b: other\n", "put", fn, "--from", "-", "--overwrite", "--repack")
	m, err := nestfile.LoadMapping(fn, nestfile.LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, 4, m.Len())

	mustRun(t, "only: 1\n", "put", fn, "--from", "-", "--mode", "write")
	m, err = nestfile.LoadMapping(fn, nestfile.LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
}

func TestPutRejectsBadInput(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "data.h5")

	_, err := run(t, "- 1\n- 2\n", "put", fn, "--from", "-")
	requireIs(t, err, nestfile.ErrInvalidArgument)

	_, err = run(t, "a: 1\n", "put", fn, "--from", "-", "--compression", "szip")
	requireIs(t, err, nestfile.ErrUnsupportedCompression)

	_, err = run(t, "a: 1\n", "put", fn, "--from", "-", "--mode", "sideways")
	require.Error(t, err)

	_, err = run(t, "a: [1, [2]]\n", "put", fn, "--from", "-")
	requireIs(t, err, nestfile.ErrUnsupportedFormat)

	_, err = run(t, "", "put", fn)
	require.Error(t, err)
}

func TestLs(t *testing.T) {
	fn := setupSample(t)
	out := mustRun(t, "", "ls", fn)
	for _, sub := range []string{"a/", "group", "3 items", "jagged", "int", "none", "scalar"} {
		require.Contains(t, out, sub)
	}

	out = mustRun(t, "", "ls", fn, "a")
	require.Contains(t, out, "a1")
	require.Contains(t, out, "array")
	require.NotContains(t, out, "jagged")
}

func TestDumpAndStat(t *testing.T) {
	fn := setupSample(t)

	out := mustRun(t, "", "dump", fn)
	require.Contains(t, out, "a3/ (1)")
	require.NotContains(t, out, "@oldshape")

	out = mustRun(t, "", "dump", fn, "--attrs", "--values")
	require.Contains(t, out, "@oldshape = [2 1]")
	require.Contains(t, out, "'Test'")

	out = mustRun(t, "", "stat", fn)
	require.Contains(t, out, "groups:       2")
	require.Contains(t, out, "datasets:     6 (1 None)")
}

func TestExists(t *testing.T) {
	fn := setupSample(t)
	mustRun(t, "", "exists", fn, "a/a3/a31")
	_, err := run(t, "", "exists", fn, "a/zzz")
	requireIs(t, err, errMissing)
	_, err = run(t, "", "exists", fn+".missing", "a")
	requireIs(t, err, errMissing)
}

func TestRepack(t *testing.T) {
	fn1, fn2 := setupSample(t), setupSample(t)
	out := mustRun(t, "", "repack", "--jobs", "2", fn1, fn2)
	require.Contains(t, out, fn1+": ")
	require.Contains(t, out, fn2+": ")
	require.True(t, nestfile.Exists(fn1, "a/a1"))

	_, err := run(t, "", "repack", fn1, fn1+".missing")
	requireIs(t, err, nestfile.ErrOpen)
}

func TestDocFromValue(t *testing.T) {
	m := nestfile.NewMapping()
	m.SetText("c", nestfile.Complex(1+2i))
	m.SetText("u", nestfile.Vector[uint8](1, 2))
	m.SetText("q", nestfile.Quantity{Magnitude: nestfile.Vector(1.0), Unit: "mV"})
	m.Set(nestfile.TupleKey(nestfile.IntKey(1), nestfile.TextKey("a")), nestfile.Bool(true))

	require.Equal(t, map[string]any{
		"c":        "(1+2i)",
		"u":        []any{uint8(1), uint8(2)},
		"q":        map[string]any{"magnitude": []any{1.0}, "unit": "mV"},
		"(1, 'a')": true,
	}, docFromValue(m))
}
