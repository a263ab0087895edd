package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ticket", c.Outcome)
	assert.Equal(t, DefaultColumns, c.Columns)
	assert.Contains(t, c.Models, "ticket ~ 1")
	assert.Equal(t, 25, c.MaxIter)
	assert.Equal(t, 1e-8, c.Tolerance)
	assert.Nil(t, c.NAValues)
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	in := &Global{
		Outcome:   "ticket",
		Columns:   []string{"ticket", "mph"},
		Models:    []string{"ticket ~ mph"},
		MaxIter:   40,
		Tolerance: 1e-10,
		TopN:      3,
		NAValues:  []string{"?"},
		LogLevel:  "debug",
		LogFormat: "json",
	}
	require.NoError(t, Save(in, path))
	_, err := os.Stat(path)
	require.NoError(t, err)

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in.Columns, out.Columns)
	assert.Equal(t, in.Models, out.Models)
	assert.Equal(t, 40, out.MaxIter)
	assert.Equal(t, []string{"?"}, out.NAValues)
	assert.Equal(t, "json", out.LogFormat)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("REGRESS_OUTCOME", "warning")
	t.Setenv("REGRESS_TOP_N", "4")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warning", c.Outcome)
	assert.Equal(t, 4, c.TopN)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
