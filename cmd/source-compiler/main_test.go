package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-seismic-sources/internal/catalog/catalogtest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestCompile_WritesReportAndGMT(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.txt")
	text := catalogtest.New().
		Label("D", 1).
		Vertex("43.5", "45.0").
		Vertex("44.0", "46.0").
		Vertex("43.0", "46.5").
		Rate("5.5", "0.01").
		Rate("6.0", "0.003").
		Label("L", 2).
		Vertex("40.0", "44.0").
		Vertex("41.0", "45.0").
		Rate("5.5", "0.01").
		Rate("6.5", "0.001").
		String()
	require.NoError(t, os.WriteFile(catalogPath, []byte(text), 0o644))

	areas := filepath.Join(dir, "areas.gmt")
	faults := filepath.Join(dir, "faults.gmt")

	out, err := execute(t, "compile", catalogPath, "--outcomes", "--workers", "2",
		"--gmt-areas", areas, "--gmt-faults", faults)
	require.NoError(t, err)

	assert.Contains(t, out, "2 compiled, 0 dropped, 0 failed")
	assert.Contains(t, out, "areas 1, faults 1")
	assert.Contains(t, out, "7.RU.L.2")

	data, err := os.ReadFile(areas)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "> -Z "))
	assert.Contains(t, string(data), "idx 0")

	data, err = os.ReadFile(faults)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "> -Z "))
}

func TestCompile_RequiresInput(t *testing.T) {
	_, err := execute(t, "compile")
	assert.Error(t, err)
}

func TestCompile_UnknownStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.txt")
	require.NoError(t, os.WriteFile(path, []byte(catalogtest.New().Label("D", 1).String()), 0o644))

	_, err := execute(t, "compile", path, "--strategy", "kernel")
	assert.Error(t, err)
}
