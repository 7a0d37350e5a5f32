package cli

import (
	"fmt"
	"os"
	"testing"
)

// TestMain points HOME at a scratch directory so login and install never
// touch the real ~/.skillhub, and clears SKILLHUB_* overrides.
func TestMain(m *testing.M) {
	home, err := os.MkdirTemp("", "skillhub-cli-test-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp HOME: %v\n", err)
		os.Exit(1)
	}

	for _, key := range []string{
		"SKILLHUB_SITE", "SKILLHUB_REGISTRY", "SKILLHUB_TOKEN",
		"SKILLHUB_SYNC_ROOTS", "SKILLHUB_SYNC_BUMP", "SKILLHUB_SYNC_CONCURRENCY",
		"SKILLHUB_OUTPUT_COLOR",
	} {
		_ = os.Unsetenv(key)
	}
	if err := os.Setenv("HOME", home); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set HOME: %v\n", err)
		_ = os.RemoveAll(home)
		os.Exit(1)
	}

	code := m.Run()
	_ = os.RemoveAll(home)
	os.Exit(code)
}
