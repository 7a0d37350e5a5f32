package server_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauern/skillhub/internal/apierr"
	"github.com/klauern/skillhub/internal/archive"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/publish"
	"github.com/klauern/skillhub/internal/registry"
	"github.com/klauern/skillhub/internal/scan"
	"github.com/klauern/skillhub/internal/server"
	"github.com/klauern/skillhub/internal/store"
	"github.com/klauern/skillhub/internal/sync"
	"github.com/klauern/skillhub/internal/util"
)

// startRegistry runs a store-backed server and returns a client for it.
func startRegistry(t *testing.T, token string) *registry.HTTPClient {
	t.Helper()
	st, err := store.Open(store.Options{
		DataDir:     t.TempDir(),
		AutoApprove: true,
		Accounts:    []store.Account{{Token: "good-token", User: model.User{Handle: "tester"}}},
	})
	require.NoError(t, err)

	ts := httptest.NewUnstartedServer(nil)
	publicURL := "http://" + ts.Listener.Addr().String()
	srv := server.New(server.Deps{Queries: st, Mutations: st, Actions: st, Authenticator: st}, server.Options{
		PublicURL: publicURL,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts.Config.Handler = srv.Handler()
	ts.Start()
	t.Cleanup(ts.Close)

	client, err := registry.NewHTTPClient(registry.Options{
		BaseURL:    publicURL,
		Token:      token,
		MaxRetries: 1,
		Backoff:    func(int) time.Duration { return time.Millisecond },
	})
	require.NoError(t, err)
	return client
}

func TestSyncAgainstRegistry(t *testing.T) {
	client := startRegistry(t, "good-token")
	ctx := context.Background()

	root := t.TempDir()
	util.WriteSkill(t, root, "alpha", map[string]string{
		"SKILL.md": "---\nname: Alpha\ndescription: First skill\n---\n# Alpha\n",
	})
	beta := util.WriteSkill(t, root, "beta", map[string]string{"notes/usage.md": "use it"})

	reconciler := sync.New(client, publish.New(client))
	opts := sync.DefaultOptions()
	opts.Roots = []string{root}

	dry := opts
	dry.DryRun = true
	result, err := reconciler.Run(ctx, dry)
	require.NoError(t, err)
	assert.Equal(t, "Dry run: would upload 2 skill(s)", result.Headline())

	result, err = reconciler.Run(ctx, opts)
	require.NoError(t, err)
	require.NoError(t, result.Err(), result.Summary())
	assert.Len(t, result.Published(), 2)

	lookup, err := client.GetSkill(ctx, "alpha")
	require.NoError(t, err)
	require.True(t, lookup.Exists())
	assert.Equal(t, "Alpha", lookup.Skill.DisplayName)
	assert.Equal(t, "First skill", lookup.Skill.Summary)
	assert.Equal(t, "tester", lookup.Owner.Handle)

	// Unchanged content is synced; edited content gets a patch bump.
	util.WriteFile(t, filepath.Join(beta, "notes", "usage.md"), "use it well")
	result, err = reconciler.Run(ctx, opts)
	require.NoError(t, err)
	require.Len(t, result.Published(), 1)
	assert.Equal(t, "beta", result.Published()[0].Slug())
	assert.Equal(t, "1.0.1", result.Published()[0].Version)
	assert.Len(t, result.Synced(), 1)

	// Older content still resolves to the version that holds it.
	util.WriteFile(t, filepath.Join(beta, "notes", "usage.md"), "use it")
	_, hash, err := scan.HashFolder(beta)
	require.NoError(t, err)
	res, err := client.Resolve(ctx, "beta", string(hash))
	require.NoError(t, err)
	require.True(t, res.Found())
	assert.Equal(t, "1.0.0", res.Match.Version)
	assert.Equal(t, "1.0.1", res.Latest.Version)

	results, err := client.Search(ctx, "alpha", registry.SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "alpha", results[0].Slug)
}

func TestDownloadRoundTrip(t *testing.T) {
	client := startRegistry(t, "good-token")
	ctx := context.Background()

	folder := util.WriteSkill(t, t.TempDir(), "gamma", map[string]string{"ref/a.md": "a"})
	_, err := publish.New(client).Publish(ctx, folder, publish.Options{Slug: "gamma", Version: "1.0.0", Changelog: "init"})
	require.NoError(t, err)

	data, err := client.Download(ctx, "gamma", "")
	require.NoError(t, err)

	target := t.TempDir()
	files, manifest, err := archive.Extract(bytes.NewReader(data), archive.ExtractOptions{TargetDir: target})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", manifest.Version)
	assert.Len(t, files, 2)

	got, err := os.ReadFile(filepath.Join(target, "ref", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
}

func TestPublishMultiFileBundle(t *testing.T) {
	client := startRegistry(t, "good-token")
	ctx := context.Background()

	folder := util.WriteSkill(t, t.TempDir(), "multi", map[string]string{
		"extra.md":        "extra",
		"ref/usage.md":    "usage",
		"scripts/run.sh":  "echo run\n",
		"templates/a.txt": "template",
	})
	res, err := publish.New(client).Publish(ctx, folder, publish.Options{Slug: "multi", Version: "1.0.0", Changelog: "init"})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Files)

	_, hash, err := scan.HashFolder(folder)
	require.NoError(t, err)
	resolved, err := client.Resolve(ctx, "multi", string(hash))
	require.NoError(t, err)
	require.True(t, resolved.Found())
	assert.Equal(t, "1.0.0", resolved.Match.Version)
}

func TestDeleteHidesSkill(t *testing.T) {
	client := startRegistry(t, "good-token")
	ctx := context.Background()

	folder := util.WriteSkill(t, t.TempDir(), "delta", nil)
	_, err := publish.New(client).Publish(ctx, folder, publish.Options{Slug: "delta", Version: "1.0.0", Changelog: "init"})
	require.NoError(t, err)

	require.NoError(t, client.SetDeleted(ctx, "delta", true))
	lookup, err := client.GetSkill(ctx, "delta")
	require.NoError(t, err)
	assert.False(t, lookup.Exists())

	require.NoError(t, client.SetDeleted(ctx, "delta", false))
	lookup, err = client.GetSkill(ctx, "delta")
	require.NoError(t, err)
	assert.True(t, lookup.Exists())
}

func TestBadTokenIsRejected(t *testing.T) {
	client := startRegistry(t, "wrong-token")
	ctx := context.Background()

	_, err := client.Whoami(ctx)
	assert.ErrorIs(t, err, apierr.ErrAuth)

	folder := util.WriteSkill(t, t.TempDir(), "eps", nil)
	_, err = publish.New(client).Publish(ctx, folder, publish.Options{Slug: "eps", Version: "1.0.0", Changelog: "x"})
	assert.ErrorIs(t, err, apierr.ErrAuth)
}
