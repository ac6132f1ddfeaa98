package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoutesCmd(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"routes", "--root", dir, "--prefix", "/assets", "--queue", "files"})

	require.NoError(t, cmd.Execute())
	require.Regexp(t, `GET\s+/assets/\*\s+immediate\s+files`, out.String())
}

func TestRoutesCmdMissingRoot(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"routes", "--root", filepath.Join(t.TempDir(), "nope")})

	require.ErrorContains(t, cmd.Execute(), "mount static files")
}

func TestServeCmd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("home"), 0o600))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"serve", "--root", dir, "--addr", addr, "--log-level", "error"})
	go func() { done <- cmd.ExecuteContext(ctx) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "brest", resp.Header.Get("Server"))

	cancel()
	require.NoError(t, <-done)
}
