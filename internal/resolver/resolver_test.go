package resolver

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauern/skillhub/internal/apierr"
	"github.com/klauern/skillhub/internal/hashing"
	"github.com/klauern/skillhub/internal/model"
)

func manifest(content string) model.Manifest {
	return model.Manifest{{Path: "SKILL.md", SHA256: hashing.Bytes([]byte(content))}}
}

func hashOf(t *testing.T, m model.Manifest) string {
	t.Helper()
	h, err := hashing.HashManifest(m)
	require.NoError(t, err)
	return string(h)
}

func at(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func TestResolve_MatchAndLatestAreIndependent(t *testing.T) {
	history := []model.SkillVersion{
		{Version: "1.0.0", Files: manifest("v1"), CreatedAt: at(1)},
		{Version: "2.0.0", Files: manifest("v2"), CreatedAt: at(3)},
	}

	res, err := Resolve(history, hashOf(t, manifest("v1")))
	require.NoError(t, err)
	require.NotNil(t, res.Match)
	require.NotNil(t, res.Latest)
	assert.Equal(t, "1.0.0", res.Match.Version)
	assert.Equal(t, "2.0.0", res.Latest.Version)
	assert.True(t, res.Found())
	assert.False(t, res.MatchesLatest())
}

func TestResolve_MissStillReportsLatest(t *testing.T) {
	history := []model.SkillVersion{
		{Version: "1.0.0", Files: manifest("v1"), CreatedAt: at(1)},
		{Version: "1.1.0", Files: manifest("v2"), CreatedAt: at(2)},
	}

	res, err := Resolve(history, hashOf(t, manifest("never published")))
	require.NoError(t, err)
	assert.Nil(t, res.Match)
	require.NotNil(t, res.Latest)
	assert.Equal(t, "1.1.0", res.Latest.Version)
	assert.False(t, res.Found())
}

func TestResolve_MalformedHashFailsBeforeScan(t *testing.T) {
	// A manifest with duplicate paths would be skipped during a scan; the
	// validation error must come first regardless.
	history := []model.SkillVersion{{
		Version: "1.0.0",
		Files:   model.Manifest{{Path: "a"}, {Path: "a"}},
	}}

	for _, target := range []string{"bad", "", "ABCDEF", hashOf(t, manifest("x")) + "0"} {
		_, err := Resolve(history, target)
		assert.ErrorIs(t, err, ErrMalformedHash, "target %q", target)
		assert.ErrorIs(t, err, apierr.ErrValidation)
		assert.False(t, errors.Is(err, apierr.ErrNotFound))
	}
}

func TestResolve_MultipleMatchesPreferMostRecent(t *testing.T) {
	same := manifest("same content")
	history := []model.SkillVersion{
		{Version: "1.0.0", Files: same, CreatedAt: at(1)},
		{Version: "1.0.1", Files: same, CreatedAt: at(5)},
		{Version: "1.0.2", Files: manifest("other"), CreatedAt: at(9)},
		{Version: "0.9.0", Files: same, CreatedAt: at(3)},
	}

	for i := 0; i < 3; i++ {
		res, err := Resolve(history, hashOf(t, same))
		require.NoError(t, err)
		require.NotNil(t, res.Match)
		assert.Equal(t, "1.0.1", res.Match.Version)
		assert.Equal(t, "1.0.2", res.Latest.Version)
	}
}

func TestResolve_TieBreakOnVersionString(t *testing.T) {
	same := manifest("same")
	history := []model.SkillVersion{
		{Version: "1.0.0", Files: same, CreatedAt: at(7)},
		{Version: "1.2.0", Files: same, CreatedAt: at(7)},
		{Version: "1.1.0", Files: same, CreatedAt: at(7)},
	}

	res, err := Resolve(history, hashOf(t, same))
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", res.Match.Version)
	assert.Equal(t, "1.2.0", res.Latest.Version)
	assert.True(t, res.MatchesLatest())
}

func TestResolve_UsesStoredHash(t *testing.T) {
	stored := model.ContentHash(hashOf(t, manifest("stored")))
	history := []model.SkillVersion{
		{Version: "1.0.0", ContentHash: stored, CreatedAt: at(1)},
	}

	res, err := Resolve(history, string(stored))
	require.NoError(t, err)
	require.NotNil(t, res.Match)
	assert.Equal(t, "1.0.0", res.Match.Version)
}

func TestResolve_EmptyHistory(t *testing.T) {
	res, err := Resolve(nil, hashOf(t, manifest("x")))
	require.NoError(t, err)
	assert.Nil(t, res.Match)
	assert.Nil(t, res.Latest)
}

func TestLatest(t *testing.T) {
	assert.Nil(t, Latest(nil))

	history := []model.SkillVersion{
		{Version: "2.0.0", CreatedAt: at(1)},
		{Version: "1.0.0", CreatedAt: at(2)},
	}
	assert.Equal(t, "1.0.0", Latest(history).Version, "latest is by creation time, not version order")
}

func TestContentHash(t *testing.T) {
	v := model.SkillVersion{Files: manifest("x")}
	h, ok := ContentHash(v)
	assert.True(t, ok)
	assert.Equal(t, hashOf(t, manifest("x")), string(h))

	_, ok = ContentHash(model.SkillVersion{Files: model.Manifest{{Path: "a"}, {Path: "a"}}})
	assert.False(t, ok)
}
