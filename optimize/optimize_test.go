package optimize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	tt "github.com/gnolang/gflow/internal/types"
)

type mockOptimizeEngine struct {
	mock.Mock
}

func (m *mockOptimizeEngine) Run(filePath string) (tt.FileResult, error) {
	args := m.Called(filePath)
	return args.Get(0).(tt.FileResult), args.Error(1)
}

func (m *mockOptimizeEngine) RunSource(source []byte) (tt.FileResult, error) {
	args := m.Called(source)
	return args.Get(0).(tt.FileResult), args.Error(1)
}

const foldable = `package main

func compute() int {
	x := 4
	y := x * 2
	if x > 10 {
		println("big", y)
	}
	y = x + 1
	return x + y
}
`

const optimized = `package main

func compute() int {
	x := 4
	y := 8
	if false {

	}
	y = 5
	return x + y
}
`

func TestProcessFile(t *testing.T) {
	t.Parallel()
	expected := tt.FileResult{Filename: "test.go", Funcs: []tt.FuncResult{{Func: "main", Rounds: 1}}}
	engine := new(mockOptimizeEngine)
	engine.On("Run", "test.go").Return(expected, nil)

	res, err := ProcessFile(engine, "test.go")

	assert.NoError(t, err)
	assert.Equal(t, expected, res)
	engine.AssertExpectations(t)
}

func TestProcessSource(t *testing.T) {
	t.Parallel()
	expected := tt.FileResult{Funcs: []tt.FuncResult{{Func: "main", Rounds: 1}}}
	engine := new(mockOptimizeEngine)
	engine.On("RunSource", []byte("package main")).Return(expected, nil)

	res, err := ProcessSource(engine, []byte("package main"))

	assert.NoError(t, err)
	assert.Equal(t, expected, res)
	engine.AssertExpectations(t)
}

func TestProcessSources(t *testing.T) {
	t.Parallel()
	engine := new(mockOptimizeEngine)
	engine.On("RunSource", []byte("a")).Return(tt.FileResult{Filename: "a"}, nil)
	engine.On("RunSource", []byte("b")).Return(tt.FileResult{}, errors.New("boom"))

	results, err := ProcessSources(context.Background(), nil, engine, [][]byte{[]byte("a")}, ProcessSource)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	_, err = ProcessSources(context.Background(), nil, engine, [][]byte{[]byte("a"), []byte("b")}, ProcessSource)
	assert.EqualError(t, err, "boom")
}

func TestEngineRunSource(t *testing.T) {
	t.Parallel()
	engine, err := New("", nil)
	require.NoError(t, err)

	res, err := engine.RunSource([]byte(foldable))
	require.NoError(t, err)

	assert.True(t, res.Changed())
	assert.Equal(t, foldable, string(res.Source))
	assert.Equal(t, optimized, string(res.Output))
	require.Len(t, res.Funcs, 1)
	assert.Len(t, res.Changes(), 4)
}

func TestEngineRunSourceUnchanged(t *testing.T) {
	t.Parallel()
	engine, err := New("", nil)
	require.NoError(t, err)

	res, err := engine.RunSource([]byte("package main\n\nfunc main() {}\n"))
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Nil(t, res.Output)
}

func TestEngineRunSourceParseError(t *testing.T) {
	t.Parallel()
	engine, err := New("", nil)
	require.NoError(t, err)

	_, err = engine.RunSource([]byte("this is not valid go code"))
	assert.ErrorContains(t, err, "error parsing source")
}

func TestEngineDisabledPass(t *testing.T) {
	t.Parallel()
	engine, err := NewWithConfig(Config{Passes: map[string]bool{"constprop": false}}, nil)
	require.NoError(t, err)

	res, err := engine.RunSource([]byte(foldable))
	require.NoError(t, err)
	assert.False(t, res.Changed())
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestProcessPathDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.go":       foldable,
		"sub/b.go":   "package sub\n\nfunc b() {}\n",
		"notes.txt":  "not go",
		"sub/c.go":   foldable,
		"sub/d.yaml": "name: x\n",
	})
	engine, err := New("", nil)
	require.NoError(t, err)

	results, err := ProcessPath(context.Background(), nil, engine, dir, ProcessFile)
	require.NoError(t, err)
	require.Len(t, results, 3)

	var names []string
	for _, r := range results {
		rel, err := filepath.Rel(dir, r.Filename)
		require.NoError(t, err)
		names = append(names, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{"a.go", "sub/b.go", "sub/c.go"}, names)
	assert.True(t, results[0].Changed())
	assert.False(t, results[1].Changed())

	// the files themselves are untouched
	data, err := os.ReadFile(filepath.Join(dir, "a.go"))
	require.NoError(t, err)
	assert.Equal(t, foldable, string(data))
}

func TestProcessPathErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"valid.go":   foldable,
		"invalid.go": "this is not valid go code",
	})
	engine, err := New("", nil)
	require.NoError(t, err)

	results, err := ProcessPath(context.Background(), nil, engine, dir, ProcessFile)
	assert.ErrorContains(t, err, "invalid.go")
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(dir, "valid.go"), results[0].Filename)

	results, err = ProcessPath(context.Background(), nil, engine, filepath.Join(dir, "invalid.go"), ProcessFile)
	assert.Error(t, err)
	assert.Equal(t, []tt.FileResult{}, results)

	_, err = ProcessPath(context.Background(), nil, engine, filepath.Join(dir, "missing.go"), ProcessFile)
	assert.ErrorContains(t, err, "error accessing")
}

func TestProcessPathNonGoFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"README.md": "# hi"})
	engine := new(mockOptimizeEngine)

	results, err := ProcessPath(context.Background(), nil, engine, filepath.Join(dir, "README.md"), ProcessFile)
	require.NoError(t, err)
	assert.Empty(t, results)
	engine.AssertNotCalled(t, "Run", mock.Anything)
}

func TestProcessPathContextCancellation(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	files := make(map[string]string)
	for i := 0; i < 10; i++ {
		files[fmt.Sprintf("test%d.go", i)] = foldable
	}
	writeFiles(t, dir, files)
	engine, err := New("", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := ProcessPath(ctx, nil, engine, dir, ProcessFile)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, results)
	assert.Less(t, len(results), 10)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"one.go": foldable,
		"two.go": "package main\n",
	})
	engine, err := New("", nil)
	require.NoError(t, err)

	paths := []string{filepath.Join(dir, "one.go"), filepath.Join(dir, "two.go"), filepath.Join(dir, "nope.go")}
	results, err := ProcessFiles(context.Background(), nil, engine, paths, ProcessFile)
	assert.ErrorContains(t, err, "nope.go")
	assert.Len(t, results, 2)
}

func TestWriteResult(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	writeFiles(t, dir, map[string]string{"main.go": foldable})

	engine, err := New("", nil)
	require.NoError(t, err)
	res, err := engine.Run(path)
	require.NoError(t, err)
	require.NoError(t, WriteResult(res))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, optimized, string(data))

	// a second run finds nothing left to do
	res, err = engine.Run(path)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	require.NoError(t, WriteResult(res))
}

func TestConfigurationFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)

	require.NoError(t, WriteConfigurationFile(path, DefaultConfig()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "name: gflow\n"))

	config, err := ParseConfigurationFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)

	writeFiles(t, dir, map[string]string{
		"custom.yaml": "name: custom\npasses:\n  liveness: false\nmax_rounds: 2\nmax_steps: 500\n",
		"bad.yaml":    "passes:\n  inline: true\n",
		"broken.yaml": "passes: [",
		"empty.yaml":  "",
	})

	config, err = ParseConfigurationFile(filepath.Join(dir, "custom.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Name:      "custom",
		Passes:    map[string]bool{"liveness": false},
		MaxRounds: 2,
		MaxSteps:  500,
	}, config)

	_, err = New(filepath.Join(dir, "bad.yaml"), nil)
	assert.EqualError(t, err, `unknown pass "inline"`)

	_, err = New(filepath.Join(dir, "broken.yaml"), nil)
	assert.ErrorContains(t, err, "error parsing")

	config, err = ParseConfigurationFile(filepath.Join(dir, "empty.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{}, config)

	_, err = New(filepath.Join(dir, "missing.yaml"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.Error(t, Config{MaxRounds: -1}.Validate())
}
