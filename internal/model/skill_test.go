package model

import (
	"strings"
	"testing"
	"time"
)

func TestSkillRecordVersions(t *testing.T) {
	rec := SkillRecord{
		Slug: "demo",
		Versions: []SkillVersion{
			{Version: "1.0.0", CreatedAt: time.Unix(1, 0)},
			{Version: "1.1.0", CreatedAt: time.Unix(2, 0)},
		},
	}

	tests := map[string]struct {
		version string
		want    bool
	}{
		"first version":   {version: "1.0.0", want: true},
		"second version":  {version: "1.1.0", want: true},
		"unknown version": {version: "2.0.0", want: false},
		"empty version":   {version: "", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := rec.HasVersion(tt.version); got != tt.want {
				t.Errorf("HasVersion(%q) = %v, want %v", tt.version, got, tt.want)
			}
			v, ok := rec.FindVersion(tt.version)
			if ok != tt.want {
				t.Errorf("FindVersion(%q) ok = %v, want %v", tt.version, ok, tt.want)
			}
			if ok && v.Version != tt.version {
				t.Errorf("FindVersion(%q) returned %q", tt.version, v.Version)
			}
		})
	}
}

func TestUserOwner(t *testing.T) {
	u := User{ID: "u1", Handle: "p", DisplayName: "Peter", Image: "x"}
	got := u.Owner()
	if got.Handle != "p" || got.DisplayName != "Peter" || got.Image != "x" {
		t.Errorf("Owner() = %+v", got)
	}
}

func TestManifestHelpers(t *testing.T) {
	m := Manifest{
		{Path: "SKILL.md", SHA256: "a", Size: 10},
		{Path: "docs/usage.md", SHA256: "b", Size: 5},
	}
	if got := m.TotalSize(); got != 15 {
		t.Errorf("TotalSize() = %d, want 15", got)
	}
	if _, ok := m.Lookup("docs/usage.md"); !ok {
		t.Error("Lookup should find docs/usage.md")
	}
	if _, ok := m.Lookup("missing.md"); ok {
		t.Error("Lookup should not find missing.md")
	}
}

func TestContentHashShort(t *testing.T) {
	h := ContentHash("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	if got := h.Short(); got != "0123456789ab" {
		t.Errorf("Short() = %q", got)
	}
	if got := ContentHash("abc").Short(); got != "abc" {
		t.Errorf("Short() on short hash = %q", got)
	}
}

func TestClassification(t *testing.T) {
	tests := map[string]struct {
		class     Classification
		label     string
		publish   bool
		changelog bool
	}{
		"new":          {class: ClassificationNew, label: "new", publish: true, changelog: true},
		"synced":       {class: ClassificationSynced, label: "synced", publish: false, changelog: false},
		"needs update": {class: ClassificationNeedsUpdate, label: "update", publish: true, changelog: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.class.String(); got != tt.label {
				t.Errorf("String() = %q, want %q", got, tt.label)
			}
			if got := tt.class.NeedsPublish(); got != tt.publish {
				t.Errorf("NeedsPublish() = %v, want %v", got, tt.publish)
			}
			if got := tt.class.RequiresChangelog(); got != tt.changelog {
				t.Errorf("RequiresChangelog() = %v, want %v", got, tt.changelog)
			}
		})
	}
}

func TestClassificationInvalidPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero classification")
		}
	}()
	_ = Classification(0).String()
}

func TestIsValidSlug(t *testing.T) {
	tests := map[string]struct {
		slug string
		want bool
	}{
		"simple":         {slug: "demo", want: true},
		"dashed":         {slug: "my-skill-2", want: true},
		"empty":          {slug: "", want: false},
		"uppercase":      {slug: "Demo", want: false},
		"leading dash":   {slug: "-demo", want: false},
		"trailing dash":  {slug: "demo-", want: false},
		"double dash":    {slug: "my--skill", want: false},
		"underscore":     {slug: "my_skill", want: false},
		"too long":       {slug: strings.Repeat("a", MaxSlugLength+1), want: false},
		"max length":     {slug: strings.Repeat("a", MaxSlugLength), want: true},
		"path separator": {slug: "a/b", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := IsValidSlug(tt.slug); got != tt.want {
				t.Errorf("IsValidSlug(%q) = %v, want %v", tt.slug, got, tt.want)
			}
		})
	}
}
