package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-legend/internal/legend"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--base", "testdata/legends.json"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestVerifyText(t *testing.T) {
	out, err := execute(t, "verify",
		"--patch", "met_eireann=testdata/me-legends.yaml",
		"--manifest", "testdata/icons.txt")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	golden(t).Assert(t, "verify_text", []byte(out))
}

func TestVerifyCleanWithoutManifest(t *testing.T) {
	out, err := execute(t, "verify", "--patch", "met_eireann=testdata/me-legends.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ base: 5 records, no findings")
	assert.Contains(t, out, "✓ met_eireann: 6 records, no findings")
}

func TestVerifyJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "verify", "base",
		"--manifest", "testdata/icons.txt")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string        `json:"status"`
		Data   []StoreResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "findings", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "base", resp.Data[0].Provider)
	assert.Len(t, resp.Data[0].Findings, 2)
}

func TestVerifyUnknownProvider(t *testing.T) {
	_, err := execute(t, "verify", "met_eireann")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorContains(t, err, `unknown provider "met_eireann"`)
}

func TestResolveText(t *testing.T) {
	out, err := execute(t, "resolve",
		"--patch", "met_eireann=testdata/me-legends.yaml",
		"--provider", "met_eireann", "Dark_Sun")
	require.NoError(t, err)

	assert.Contains(t, out, "legend_code:       clearsky_night\n")
	assert.Contains(t, out, "old_id:            101\n")
	assert.Contains(t, out, "night_variant:     true\n")
	assert.Contains(t, out, "legacy_icon_path:  img/weather_icons/01n.svg\n")
}

func TestResolveVariantCode(t *testing.T) {
	out, err := execute(t, "resolve", "--provider", "met_norway", "--kind", "legend_code", "fair_night")
	require.NoError(t, err)

	assert.Contains(t, out, "legend_code:       fair_day\n")
	assert.Contains(t, out, "variant:           night\n")
	assert.Contains(t, out, "icon_path:         weather_icons/fair_night.svg\n")
}

func TestResolveJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "resolve", "--provider", "met_norway", "--kind", "old_id", "4")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   legend.Resolution `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "cloudy", resp.Data.LegendCode)
	assert.Equal(t, "weather_icons/cloudy.svg", resp.Data.Icon)
}

func TestResolveFailures(t *testing.T) {
	_, err := execute(t, "resolve", "--provider", "met_norway", "Dark_Sun")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execute(t, "resolve", "--provider", "met_norway", "--kind", "name", "x")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "resolve", "x")
	assert.Error(t, err, "--provider is required")
}

func TestDriftText(t *testing.T) {
	out, err := execute(t, "drift", "--reference", "testdata/reference.json")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	golden(t).Assert(t, "drift_text", []byte(out))
}

func TestDriftMatchingReference(t *testing.T) {
	out, err := execute(t, "drift", "--reference", "testdata/legends.json")
	require.NoError(t, err)
	assert.Equal(t, "✓ base legend matches testdata/legends.json\n", out)
}

func TestBadInputs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"format", []string{"--format", "xml", "verify"}},
		{"patch pair", []string{"verify", "--patch", "met_eireann"}},
		{"patch file", []string{"verify", "--patch", "p=testdata/missing.yaml"}},
		{"manifest", []string{"verify", "--manifest", "testdata/missing.txt"}},
		{"reference", []string{"drift", "--reference", "testdata/missing.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestBadBase(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--base", "testdata/icons.txt", "verify"})
	assert.Equal(t, ExitCommandError, GetExitCode(cmd.Execute()))
}
