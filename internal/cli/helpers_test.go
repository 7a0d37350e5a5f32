package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/server"
	"github.com/klauern/skillhub/internal/store"
	"github.com/klauern/skillhub/internal/sync"
	"github.com/klauern/skillhub/internal/ui/tui"
)

const testToken = "good-token"

// runCLI runs the app with colors off and returns what it wrote to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	runErr := Run(context.Background(), append([]string{"skillhub", "--no-color"}, args...))

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close pipe writer: %v", err)
	}
	os.Stdout = old
	return <-done, runErr
}

// startRegistry serves an in-memory registry with one account and returns
// its URL.
func startRegistry(t *testing.T) string {
	t.Helper()
	st, err := store.Open(store.Options{
		AutoApprove: true,
		Accounts:    []store.Account{{Token: testToken, User: model.User{Handle: "tester", DisplayName: "Test User"}}},
	})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}

	ts := httptest.NewUnstartedServer(nil)
	publicURL := "http://" + ts.Listener.Addr().String()
	srv := server.New(server.Deps{Queries: st, Mutations: st, Actions: st, Authenticator: st}, server.Options{
		PublicURL: publicURL,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts.Config.Handler = srv.Handler()
	ts.Start()
	t.Cleanup(ts.Close)
	return publicURL
}

// nonInteractive makes prompts behave as if no terminal is attached.
func nonInteractive(t *testing.T) {
	t.Helper()
	old := isInteractive
	isInteractive = func() bool { return false }
	t.Cleanup(func() { isInteractive = old })
}

// interactive makes prompts read answers from input and fails the test if
// the picker opens when pick is nil.
func interactive(t *testing.T, input string, pick func([]sync.Candidate) (tui.PublishPickerResult, error)) {
	t.Helper()
	oldInteractive, oldStdin, oldPicker := isInteractive, stdin, runPicker
	isInteractive = func() bool { return true }
	stdin = strings.NewReader(input)
	if pick == nil {
		pick = func([]sync.Candidate) (tui.PublishPickerResult, error) {
			t.Error("picker should not open")
			return tui.PublishPickerResult{}, nil
		}
	}
	runPicker = pick
	t.Cleanup(func() {
		isInteractive, stdin, runPicker = oldInteractive, oldStdin, oldPicker
	})
}
