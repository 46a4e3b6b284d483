package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuote_Text(t *testing.T) {
	out, err := run(t, "quote", "15")
	require.NoError(t, err)
	assert.Contains(t, out, "Customer class: residential")
	assert.Contains(t, out, "  First 10 cu.m: ₱180.00\n")
	assert.Contains(t, out, "  Next 5.0 cu.m: ₱112.50\n")
	assert.Contains(t, out, "Total:          ₱292.50")
}

func TestQuote_JSON(t *testing.T) {
	out, err := run(t, "quote", "50", "--class", "commercial", "--json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "commercial", got["customer_class"])
	assert.Equal(t, 1700.0, got["total_bill"])
	assert.Len(t, got["breakdown"], 3)
}

func TestQuote_Errors(t *testing.T) {
	_, err := run(t, "quote", "0")
	assert.ErrorContains(t, err, "consumption must be greater than 0")

	_, err = run(t, "quote", "10", "--class", "industrial")
	assert.ErrorContains(t, err, "unknown customer class")

	_, err = run(t, "quote")
	assert.Error(t, err)
}

func TestQuote_CustomScheduleFile(t *testing.T) {
	dir := t.TempDir()
	schedule := filepath.Join(dir, "rates.yaml")
	require.NoError(t, os.WriteFile(schedule, []byte(`version: "2027-01"
schedules:
  residential:
    - {ceiling: 10, flat: 200}
    - {rate: 30}
`), 0o644))
	cfgFile := filepath.Join(dir, "waterportal.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("rates:\n  schedule_file: "+schedule+"\n"), 0o644))

	out, err := run(t, "--config", cfgFile, "quote", "12", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_bill": 260.00`)
	assert.Contains(t, out, `"schedule_version": "2027-01"`)
}

func TestRates_Table(t *testing.T) {
	out, err := run(t, "rates")
	require.NoError(t, err)
	assert.Contains(t, out, "Rate table 2026-01")
	assert.Contains(t, out, "₱180.00 flat")
	assert.Contains(t, out, "over 30")
	assert.Contains(t, out, "₱45.00 / cu.m")
}

func TestMigrate_RequiresSQLDriver(t *testing.T) {
	_, err := run(t, "migrate", "status")
	assert.ErrorContains(t, err, "sqlite and postgres")
}

func TestMigrate_UpSQLite(t *testing.T) {
	t.Setenv("WATERPORTAL_STORAGE_DRIVER", "sqlite")
	t.Setenv("WATERPORTAL_STORAGE_DSN", filepath.Join(t.TempDir(), "cli.db"))

	_, err := run(t, "migrate", "up")
	require.NoError(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "waterportal version dev\n", out)
}
