package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	tt "github.com/gnolang/gflow/internal/types"
	"github.com/gnolang/gflow/optimize"
)

const sample = `package main

func compute() int {
	x := 4
	y := x * 2
	if x > 10 {
		println("big", y)
	}
	y = x + 1
	return x + y
}

func jumpy() int {
	i := 0
loop:
	i++
	if i < 3 {
		goto loop
	}
	return i
}
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	return path
}

func newEngine(t *testing.T) *optimize.Engine {
	t.Helper()
	engine, err := optimize.New("", nil)
	require.NoError(t, err)
	return engine
}

func TestRunOptimizeText(t *testing.T) {
	t.Parallel()
	path := writeSample(t)

	var buf bytes.Buffer
	err := runOptimize(context.Background(), zap.NewNop(), newEngine(t), []string{path}, outputOptions{}, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "replace: constprop (compute)")
	assert.Contains(t, out, "= replaced with 8")
	assert.Contains(t, out, "delete: unreachable (compute)")
	assert.Contains(t, out, "skip: "+path+" jumpy (unsupported goto)")
	assert.NotContains(t, out, "rewrote")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sample, string(data))
}

func TestRunOptimizeWrite(t *testing.T) {
	t.Parallel()
	path := writeSample(t)

	var buf bytes.Buffer
	err := runOptimize(context.Background(), zap.NewNop(), newEngine(t), trimPatterns([]string{filepath.Dir(path) + "/..."}), outputOptions{write: true}, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "rewrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "y := 8")
	assert.NotContains(t, string(data), "println")
}

func TestRunOptimizeJSON(t *testing.T) {
	t.Parallel()
	path := writeSample(t)
	jsonPath := filepath.Join(t.TempDir(), "out.json")

	var buf bytes.Buffer
	err := runOptimize(context.Background(), zap.NewNop(), newEngine(t), []string{path}, outputOptions{json: true, path: jsonPath}, &buf)
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var results []tt.FileResult
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results, 1)
	assert.Equal(t, path, results[0].Filename)
	require.Len(t, results[0].Funcs, 2)
	assert.Len(t, results[0].Funcs[0].Changes, 4)
	assert.Equal(t, "unsupported goto", results[0].Funcs[1].Skipped)
	assert.Nil(t, results[0].Source, "sources stay out of the JSON output")
}

func TestRunOptimizeMissingPath(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := runOptimize(context.Background(), zap.NewNop(), newEngine(t), []string{"does/not/exist.go"}, outputOptions{}, &buf)
	assert.ErrorContains(t, err, "error accessing")
}

func TestTrimPatterns(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{".", "pkg", "main.go"}, trimPatterns([]string{"./...", "pkg/...", "main.go"}))
}

func TestRunFacts(t *testing.T) {
	t.Parallel()
	path := writeSample(t)
	engine := newEngine(t)

	var buf bytes.Buffer
	require.NoError(t, runFacts(&buf, engine, []string{path}, "compute", "constprop"))
	out := buf.String()
	assert.Contains(t, out, "constprop compute ("+path+")")
	assert.Contains(t, out, "y = x + 1")
	assert.Contains(t, out, "{x=4, y=5}")
	assert.Contains(t, out, "then: ⊥")

	buf.Reset()
	require.NoError(t, runFacts(&buf, engine, []string{path}, "compute", "liveness"))
	assert.Contains(t, buf.String(), "[x y]")

	err := runFacts(&buf, engine, []string{path}, "missing", "constprop")
	assert.ErrorIs(t, err, optimize.ErrFuncNotFound)

	err = runFacts(&buf, engine, []string{path}, "compute", "inline")
	assert.ErrorContains(t, err, `unknown pass "inline"`)
}

func TestRunCFGAnalysis(t *testing.T) {
	t.Parallel()
	path := writeSample(t)
	engine := newEngine(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, runCFGAnalysis(ctx, &buf, engine, []string{path}, "compute", "", ""))
	out := buf.String()
	assert.Contains(t, out, "CFG for function compute in file "+path)
	assert.Contains(t, out, "digraph cfg {")
	assert.Contains(t, out, `label="cond x > 10"`)

	buf.Reset()
	require.NoError(t, runCFGAnalysis(ctx, &buf, engine, []string{path}, "compute", "liveness", ""))
	assert.Contains(t, buf.String(), `[label="[x y]"]`)

	dotPath := filepath.Join(t.TempDir(), "compute.dot")
	buf.Reset()
	require.NoError(t, runCFGAnalysis(ctx, &buf, engine, []string{path}, "compute", "", dotPath))
	assert.Equal(t, "GraphViz file created: "+dotPath+"\n", buf.String())
	data, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph cfg {")

	err = runCFGAnalysis(ctx, &buf, engine, []string{path}, "missing", "", "")
	assert.ErrorIs(t, err, optimize.ErrFuncNotFound)
}

func TestInitConfigurationFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "custom.yaml")

	written, err := initConfigurationFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	config, err := optimize.ParseConfigurationFile(path)
	require.NoError(t, err)
	assert.Equal(t, optimize.DefaultConfig(), config)
}
