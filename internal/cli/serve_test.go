package cli

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/api"
	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/testutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestServe_MissingConfigFlag(t *testing.T) {
	_, err := execute(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "config")
}

func TestServe_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "chain: chainA\n")

	_, err := execute(t, "serve", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestServe_NonExistentConfig(t *testing.T) {
	_, err := execute(t, "serve", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestServe_RunsUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")
	path := writeConfig(t, fmt.Sprintf(`chain: chainB
database: %q
listen: "127.0.0.1:0"
custodians: [admin]
`, filepath.Join(dir, "ignored.db")))

	ready := make(chan net.Addr, 1)
	opts := &ServeOptions{
		RootOptions: &RootOptions{Format: "text"},
		Invoker:     testutil.NewRecordingInvoker(),
		Ready:       func(addr net.Addr) { ready <- addr },
	}
	cmd := newServeCommand(opts)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--config", path, "--db", dbPath})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	var addr net.Addr
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not become ready")
	}

	c := api.NewClient("http://"+addr.String(), "admin", 5*time.Second)
	info, err := c.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chainB", info.Chain)

	custodians, err := c.Roles(ctx, ir.RoleCustodian)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, custodians)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop")
	}

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "--db overrides the configured database")
	_, err = os.Stat(filepath.Join(dir, "ignored.db"))
	assert.True(t, os.IsNotExist(err))
}
