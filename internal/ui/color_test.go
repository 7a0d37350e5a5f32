package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFunctions(t *testing.T) {
	DisableColors()
	defer EnableColors()

	tests := map[string]struct {
		fn    func(string) string
		input string
		want  string
	}{
		"success empty":    {StatusSuccess, "", SymbolSuccess},
		"success with msg": {StatusSuccess, "Published demo@1.0.0", "✓ Published demo@1.0.0"},
		"error with msg":   {StatusError, "demo: upload failed", "✗ demo: upload failed"},
		"warning with msg": {StatusWarning, "possible secret", "⚠ possible secret"},
		"skipped with msg": {StatusSkipped, "demo@1.0.0", "- demo@1.0.0"},
		"pending with msg": {StatusPending, "demo  NEW 1.0.0", "○ demo  NEW 1.0.0"},
		"pending empty":    {StatusPending, "", SymbolPending},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.input))
		})
	}
}

func TestStatusFunctions_Colored(t *testing.T) {
	EnableColors()
	defer DisableColors()

	got := StatusSuccess("done")
	assert.Contains(t, got, "\x1b[")
	assert.Contains(t, got, "done")
}

func TestParseColorMode(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    ColorMode
		wantErr bool
	}{
		"empty is auto": {"", ColorAuto, false},
		"auto":          {"auto", ColorAuto, false},
		"always upper":  {"ALWAYS", ColorAlways, false},
		"never":         {" never ", ColorNever, false},
		"unknown":       {"sometimes", "", true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseColorMode(tt.input)
			if tt.wantErr {
				assert.ErrorContains(t, err, "invalid color mode")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetColorMode(t *testing.T) {
	t.Cleanup(func() { SetColorMode(ColorAuto) })

	SetColorMode(ColorNever)
	assert.False(t, IsColorEnabled())
	assert.Equal(t, "test", Success("test"))

	SetColorMode(ColorAlways)
	assert.True(t, IsColorEnabled())

	SetColorMode(ColorAuto)
	assert.Equal(t, !detectedNoColor, IsColorEnabled())
}
