package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemove_DeletesSlip(t *testing.T) {
	dataDir := t.TempDir()
	slip := logSlip(t, dataDir)

	out, _, err := runCLI(t, dataDir, "remove", slip.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed slip "+slip.ID)
	assert.Contains(t, out, "Restore: slipline restore "+slip.ID)
	assert.Contains(t, out, "Today: 0 of 3 (3 remaining)")
}

func TestRemove_UnknownID(t *testing.T) {
	dataDir := t.TempDir()

	out, _, err := runCLI(t, dataDir, "remove", "no-such-id")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_UNKNOWN_SLIP]")
	assert.Contains(t, out, `no slip with id "no-such-id"`)
}

func TestRemove_JSON(t *testing.T) {
	dataDir := t.TempDir()
	slip := logSlip(t, dataDir)

	out, _, err := runCLI(t, dataDir, "--format", "json", "remove", slip.ID)
	require.NoError(t, err)

	var result struct {
		Removed slipPayload  `json:"removed"`
		Today   todayPayload `json:"today"`
	}
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, slip.ID, result.Removed.ID)
	assert.Equal(t, 0, result.Today.Count)
}

func TestRemove_PersistsAcrossProcesses(t *testing.T) {
	dataDir := t.TempDir()
	slip := logSlip(t, dataDir)

	_, _, err := runCLI(t, dataDir, "remove", slip.ID)
	require.NoError(t, err)

	out, _, err := runCLI(t, dataDir, "today")
	require.NoError(t, err)
	assert.Contains(t, out, "Count:     0 of 3")
}
