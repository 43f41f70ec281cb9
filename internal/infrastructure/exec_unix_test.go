//go:build !windows

package infrastructure

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_Output(t *testing.T) {
	requireShell(t)

	var stdout, stderr bytes.Buffer
	err := ExecRunner(context.Background(), &stdout, &stderr, "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestExecRunner_TimeoutKillsChildren(t *testing.T) {
	requireShell(t)
	marker := filepath.Join(t.TempDir(), "written-by-child")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// the background child holds the output pipe open and writes after a delay
	var output bytes.Buffer
	start := time.Now()
	err := ExecRunner(ctx, &output, &output, "sh", "-c", "(sleep 1; touch '"+marker+"') & sleep 3")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, time.Second)

	time.Sleep(1500 * time.Millisecond)
	assert.NoFileExists(t, marker)
}
