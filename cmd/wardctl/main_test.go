package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ward-resolver/internal/engine"
)

func TestPrintResult(t *testing.T) {
	byMohalla := engine.Result{
		Basis: engine.BasisMohalla,
		Ward:  &engine.ResolvedWard{Number: 12, Name: "Ramganj Ward", Mohalla: "Ramganj", Confidence: 0.62},
	}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, "462/236 ramganj", "lucknow", byMohalla, false))
	assert.Contains(t, buf.String(), `ward 12 Ramganj Ward (mohalla "Ramganj", confidence 0.62)`)

	buf.Reset()
	require.NoError(t, printResult(&buf, "near 12", "lucknow", engine.Result{Reason: engine.ReasonInsufficientConfidence}, false))
	assert.Contains(t, buf.String(), "near 12: Insufficient confidence")

	buf.Reset()
	require.NoError(t, printResult(&buf, "462/236 ramganj", "lucknow", byMohalla, true))
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "lucknow", out["city"])
	result := out["result"].(map[string]any)
	assert.Equal(t, "mohalla", result["basis"])
}

func TestIngestDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wards.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"Ward No,Ward Name,Mohallas\n"+
			"12,Ramganj Ward,\"1 Ramganj\n2 Hussainabad\"\n"+
			"13,Chowk,1 Chowk Bazar\n"), 0o600))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"ingest", path, "--dry-run"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "parsed 2 rows: 2 wards, 3 mohallas")
	assert.Contains(t, out.String(), "dry run, nothing written")
}

func TestIngestRejectsEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("Ward No,Ward Name,Mohallas\n"), 0o600))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"ingest", path, "--dry-run"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no wards found")
}

func TestClearRequiresConfirmation(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"clear", "--city", "Kanpur"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to clear kanpur without --yes")
}
