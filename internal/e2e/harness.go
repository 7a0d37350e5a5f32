// Package e2e provides testing infrastructure for end-to-end CLI tests.
// Commands run in process against an isolated home directory and a
// registry server started for the test.
package e2e

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/klauern/skillhub/internal/cli"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/server"
	"github.com/klauern/skillhub/internal/store"
)

// TestToken is the API token accepted by registries started with StartRegistry.
const TestToken = "e2e-token"

// TestHandle is the handle of the TestToken account.
const TestHandle = "e2e"

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness provides a test harness for running E2E CLI tests.
// It manages environment isolation, temp directories, and output capture.
type Harness struct {
	t       *testing.T
	homeDir string
}

// NewHarness creates a new E2E test harness with an isolated HOME, so the
// CLI reads and writes ~/.skillhub/config.yaml inside the test directory.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	h := &Harness{
		t:       t,
		homeDir: t.TempDir(),
	}
	h.SetEnv("HOME", h.homeDir)
	for _, key := range []string{"SKILLHUB_SITE", "SKILLHUB_REGISTRY", "SKILLHUB_TOKEN", "SKILLHUB_SYNC_ROOTS"} {
		h.SetEnv(key, "")
	}
	return h
}

// SetEnv sets an environment variable for CLI commands run through this harness.
// The environment will be restored after the test completes.
func (h *Harness) SetEnv(key, value string) {
	h.t.Helper()
	h.t.Setenv(key, value)
}

// HomeDir returns the isolated home directory for this test harness.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// StartRegistry serves a registry for the rest of the test and returns its
// URL. An empty dataDir keeps the registry in memory.
func (h *Harness) StartRegistry(dataDir string) string {
	h.t.Helper()

	st, err := store.Open(store.Options{
		DataDir:     dataDir,
		AutoApprove: true,
		Accounts: []store.Account{{
			Token: TestToken,
			User:  model.User{Handle: TestHandle, DisplayName: "E2E Tester"},
		}},
	})
	if err != nil {
		h.t.Fatalf("failed to open store: %v", err)
	}

	ts := httptest.NewUnstartedServer(nil)
	url := "http://" + ts.Listener.Addr().String()
	srv := server.New(server.Deps{Queries: st, Mutations: st, Actions: st, Authenticator: st}, server.Options{
		PublicURL: url,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts.Config.Handler = srv.Handler()
	ts.Start()
	h.t.Cleanup(ts.Close)
	return url
}

// Run executes a CLI command with the given arguments and captures the output.
// Colors are always disabled so output can be compared as plain text.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()

	if len(args) == 0 || args[0] != "skillhub" {
		args = append([]string{"skillhub"}, args...)
	}
	args = append([]string{args[0], "--no-color"}, args[1:]...)

	oldStdout := os.Stdout
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = stdoutW

	// Drain concurrently so output larger than the pipe buffer cannot block.
	var stdoutBuf bytes.Buffer
	var copyErr error
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, copyErr = io.Copy(&stdoutBuf, stdoutR)
	}()

	cmdErr := cli.Run(context.Background(), args)

	if err := stdoutW.Close(); err != nil {
		h.t.Fatalf("failed to close stdout pipe writer: %v", err)
	}
	os.Stdout = oldStdout

	<-copyDone
	if copyErr != nil {
		h.t.Fatalf("failed to read captured stdout: %v", copyErr)
	}

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}
