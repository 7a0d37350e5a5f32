package cli

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	Version, Commit = "1.2.3", "abc1234"
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	tests := map[string]struct {
		args []string
		want []string
	}{
		"full output": {
			args: []string{"version"},
			want: []string{
				"skillhub version 1.2.3",
				"  commit: abc1234",
				"  built: ",
				"  go: " + runtime.GOOS + "/" + runtime.GOARCH + " " + runtime.Version(),
				"  registry: ",
			},
		},
		"registry flag wins": {
			args: []string{"--registry", "http://registry.test", "version"},
			want: []string{"  registry: http://registry.test"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestVersionCommand_Short(t *testing.T) {
	old := Version
	Version = "1.2.3"
	t.Cleanup(func() { Version = old })

	out, err := runCLI(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", strings.TrimSpace(out))
}

func TestVersionCommand_Format(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "skillhub version "))
	for _, line := range lines[1:] {
		assert.True(t, strings.HasPrefix(line, "  "), "line %q should be indented", line)
	}
}
