package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// clearConfigEnv points the default config location at an empty temp
// directory and blanks every SLIPLINE_* override, so tests see pure
// built-in defaults. Returns the temp config home for tests that want
// to plant a config file there.
func clearConfigEnv(t *testing.T) string {
	t.Helper()
	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	for _, key := range []string{
		"SLIPLINE_DATA_DIR", "SLIPLINE_STORAGE", "SLIPLINE_LISTEN",
		"SLIPLINE_TZ", "SLIPLINE_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	return cfgHome
}

func writeTestConfig(t *testing.T, cfgHome, content string) {
	t.Helper()
	dir := filepath.Join(cfgHome, "slipline")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
}

// runCLI executes a fresh root command against the given data directory
// on the json backend. Calling it twice with the same dataDir simulates
// two separate slipline processes sharing state through the store.
func runCLI(t *testing.T, dataDir string, args ...string) (string, string, error) {
	t.Helper()
	clearConfigEnv(t)
	full := append([]string{"--data-dir", dataDir, "--storage", "json"}, args...)
	return execCLI(t, "", full)
}

// runCLIIn is runCLI with the given string wired to stdin.
func runCLIIn(t *testing.T, dataDir, stdin string, args ...string) (string, string, error) {
	t.Helper()
	clearConfigEnv(t)
	full := append([]string{"--data-dir", dataDir, "--storage", "json"}, args...)
	return execCLI(t, stdin, full)
}

// runCLIRaw executes the root command with the args as given, no
// data-dir or storage injection. The caller is responsible for env
// isolation.
func runCLIRaw(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return execCLI(t, "", args)
}

func execCLI(t *testing.T, stdin string, args []string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// cliEnvelope mirrors CLIResponse with the payload left raw so each
// test can decode it into the shape it expects.
type cliEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func decodeResponse(t *testing.T, out string) cliEnvelope {
	t.Helper()
	var resp cliEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output should be a JSON envelope: %s", out)
	return resp
}

// decodeData unmarshals the envelope payload into the given struct and
// returns the envelope for status assertions.
func decodeData(t *testing.T, out string, into any) cliEnvelope {
	t.Helper()
	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Data)
	require.NoError(t, json.Unmarshal(resp.Data, into))
	return resp
}

// slipPayload is the wire shape of one slip in JSON output.
type slipPayload struct {
	ID     string `json:"id"`
	At     string `json:"at"`
	Source string `json:"source"`
}

// todayPayload is the wire shape of the today block in JSON output.
type todayPayload struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	Limit      int    `json:"limit"`
	UnderLimit bool   `json:"under_limit"`
	Remaining  int    `json:"remaining"`
}

// logSlip records one slip in dataDir and returns it as decoded from
// the JSON output, id and timestamp included.
func logSlip(t *testing.T, dataDir string) slipPayload {
	t.Helper()
	out, _, err := runCLI(t, dataDir, "--format", "json", "log")
	require.NoError(t, err)

	var result struct {
		Slip slipPayload `json:"slip"`
	}
	decodeData(t, out, &result)
	require.NotEmpty(t, result.Slip.ID)
	return result.Slip
}
