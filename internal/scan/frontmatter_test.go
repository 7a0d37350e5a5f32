package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFrontmatter(t *testing.T) {
	tests := map[string]struct {
		input   string
		wantFM  string
		wantHas bool
		body    string
	}{
		"yaml": {
			input:   "---\nname: demo\n---\n# Body\n",
			wantFM:  "name: demo",
			wantHas: true,
			body:    "# Body\n",
		},
		"toml": {
			input:   "+++\nname = \"demo\"\n+++\nbody",
			wantFM:  "name = \"demo\"",
			wantHas: true,
			body:    "body",
		},
		"windows line endings": {
			input:   "---\r\nname: demo\r\n---\r\nbody",
			wantFM:  "name: demo",
			wantHas: true,
			body:    "body",
		},
		"empty frontmatter": {
			input:   "---\n---\nbody",
			wantFM:  "",
			wantHas: true,
			body:    "body",
		},
		"no frontmatter": {
			input: "# Title\n",
			body:  "# Title\n",
		},
		"unterminated": {
			input: "---\nname: demo\n",
			body:  "---\nname: demo\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := SplitFrontmatter([]byte(tt.input))
			assert.Equal(t, tt.wantHas, got.HasFrontmatter)
			assert.Equal(t, tt.wantFM, string(got.Frontmatter))
			assert.Equal(t, tt.body, got.Content)
		})
	}
}

func TestParseMetadata(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    Metadata
		wantErr bool
	}{
		"yaml": {
			input: "---\nname: PDF Tools\ndescription: Work with PDFs\ntags: [pdf, docs]\n---\n",
			want:  Metadata{Name: "PDF Tools", Description: "Work with PDFs", Tags: []string{"pdf", "docs"}},
		},
		"toml": {
			input: "+++\nname = \"PDF Tools\"\ndescription = \"Work with PDFs\"\n+++\n",
			want:  Metadata{Name: "PDF Tools", Description: "Work with PDFs"},
		},
		"none": {
			input: "# Just markdown",
		},
		"bad yaml": {
			input:   "---\nname: [unclosed\n---\n",
			wantErr: true,
		},
		"bad toml": {
			input:   "+++\nname = \n+++\n",
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseMetadata([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
