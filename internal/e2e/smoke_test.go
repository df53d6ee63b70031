package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner = "0x000000000000000000000000000000000000dEaD"
	donor = "0x1111111111111111111111111111111111111111"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	_, stderr, err := runDP(t, binaryPath, home, "init", "--owner", owner, "--cooldown", "1m")
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runDP(t, binaryPath, home, "donate", "--from", donor, "--amount", "2500", "--message", "keep going")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, "0\n", stdout)

	_, _, err = runDP(t, binaryPath, home, "donate", "--from", donor, "--amount", "1")
	require.Error(t, err)

	stdout, stderr, err = runDP(t, binaryPath, home, "status")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Donation Ledger")
	assert.Contains(t, stdout, "2,500")

	_, err = os.Stat(filepath.Join(home, ".donation-portal", "ledger.toml"))
	require.NoError(t, err)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "dp-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/dp")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build dp binary: %s", string(output))
	return binaryPath
}

func runDP(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(), "HOME="+home, "DP_STORE=toml", "DP_CONFIG=", "DP_LOG_LEVEL=disabled")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
