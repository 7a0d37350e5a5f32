package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauern/skillhub/internal/apierr"
	"github.com/klauern/skillhub/internal/hashing"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/registry/mock"
	"github.com/klauern/skillhub/internal/scan"
	"github.com/klauern/skillhub/internal/util"
)

func authed() *mock.Client {
	return mock.New().WithUser(model.User{ID: "u1", Handle: "alice"})
}

func TestPublish(t *testing.T) {
	folder := util.WriteSkill(t, t.TempDir(), "demo", map[string]string{
		"SKILL.md":       "# Demo\n",
		"scripts/run.sh": "echo hi\n",
		"image.png":      "skipped",
	})
	client := authed()
	var progress []int

	res, err := New(client).Publish(context.Background(), folder, Options{
		Slug:     "demo",
		Version:  "1.0.0",
		OnUpload: func(done, _ int) { progress = append(progress, done) },
	})
	require.NoError(t, err)

	assert.Equal(t, "skill-demo", res.SkillID)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, []int{1, 2}, progress)

	_, wantHash, err := scan.HashFolder(folder)
	require.NoError(t, err)
	assert.Equal(t, wantHash, res.Hash)

	published := client.Published()
	require.Len(t, published, 1)
	req := published[0]
	assert.Equal(t, "Demo", req.DisplayName)
	assert.Equal(t, []string{DefaultTag}, req.Tags)
	require.Len(t, req.Files, 2)
	for _, f := range req.Files {
		blob, ok := client.Blob(f.StorageID)
		require.True(t, ok, "file %s was uploaded", f.Path)
		assert.Equal(t, hashing.Bytes(blob), f.SHA256)
		assert.Equal(t, int64(len(blob)), f.Size)
	}

	_, _, uploadURLCalls, uploads := client.Calls()
	assert.Equal(t, 1, uploadURLCalls, "one upload URL per bundle")
	assert.Equal(t, 2, uploads)
}

func TestPublish_EmptyChangelogPassesThrough(t *testing.T) {
	folder := util.WriteSkill(t, t.TempDir(), "demo", nil)
	client := authed()

	_, err := New(client).Publish(context.Background(), folder, Options{Slug: "demo", Version: "1.0.1", Changelog: ""})
	require.NoError(t, err)
	assert.Equal(t, "", client.Published()[0].Changelog)
}

func TestPublish_ValidationBeforeNetwork(t *testing.T) {
	root := t.TempDir()
	good := util.WriteSkill(t, root, "demo", nil)
	empty := root + "/empty"
	util.WriteFile(t, empty+"/image.png", "not text")

	tests := map[string]struct {
		folder string
		opts   Options
	}{
		"bad slug":      {folder: good, opts: Options{Slug: "Bad Slug", Version: "1.0.0"}},
		"bad version":   {folder: good, opts: Options{Slug: "demo", Version: "1.0"}},
		"v prefix":      {folder: good, opts: Options{Slug: "demo", Version: "v1.0.0"}},
		"no text files": {folder: empty, opts: Options{Slug: "demo", Version: "1.0.0"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			client := authed()
			_, err := New(client).Publish(context.Background(), tt.folder, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apierr.ErrValidation), "got %v", err)

			_, _, uploadURLCalls, _ := client.Calls()
			assert.Zero(t, uploadURLCalls)
			assert.Empty(t, client.Published())
		})
	}
}

func TestPublish_UnauthorizedAbortsAtUploadURL(t *testing.T) {
	folder := util.WriteSkill(t, t.TempDir(), "demo", nil)
	client := mock.New()

	_, err := New(client).Publish(context.Background(), folder, Options{Slug: "demo", Version: "1.0.0"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrAuth))

	_, _, uploadURLCalls, uploads := client.Calls()
	assert.Equal(t, 1, uploadURLCalls)
	assert.Zero(t, uploads)
	assert.Empty(t, client.Published())
}

func TestPublish_RegistryRejection(t *testing.T) {
	folder := util.WriteSkill(t, t.TempDir(), "demo", nil)
	client := authed().WithPublishError("demo", apierr.Publish("Slug is reserved"))

	_, err := New(client).Publish(context.Background(), folder, Options{Slug: "demo", Version: "1.0.0"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrPublish))
	assert.Equal(t, "Slug is reserved", apierr.Message(err))
}

func TestPublish_IdenticalContentNewVersion(t *testing.T) {
	folder := util.WriteSkill(t, t.TempDir(), "demo", nil)
	client := authed()
	p := New(client)

	first, err := p.Publish(context.Background(), folder, Options{Slug: "demo", Version: "1.0.0"})
	require.NoError(t, err)
	second, err := p.Publish(context.Background(), folder, Options{Slug: "demo", Version: "1.0.1"})
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.Hash)
	assert.NotEqual(t, first.VersionID, second.VersionID)
}

func TestPublish_CanceledContext(t *testing.T) {
	folder := util.WriteSkill(t, t.TempDir(), "demo", nil)
	client := authed()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(client).Publish(ctx, folder, Options{Slug: "demo", Version: "1.0.0"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.Published())
}

func TestIsSemver(t *testing.T) {
	tests := map[string]bool{
		"1.0.0":         true,
		"0.0.1":         true,
		"1.2.3-beta.1":  true,
		"1.2.3+build.5": true,
		"1.2":           false,
		"1":             false,
		"v1.2.3":        false,
		"":              false,
		"01.2.3":        false,
		"1.2.3.4":       false,
		"latest":        false,
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, IsSemver(input))
		})
	}
}
