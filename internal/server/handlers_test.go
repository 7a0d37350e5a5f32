package server_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/klauern/skillhub/internal/apierr"
	"github.com/klauern/skillhub/internal/archive"
	"github.com/klauern/skillhub/internal/hashing"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/registry"
	"github.com/klauern/skillhub/internal/resolver"
	"github.com/klauern/skillhub/internal/server"
	"github.com/klauern/skillhub/internal/server/mocks"
)

const testToken = "secret"

var testUser = model.User{ID: "user1", Handle: "p", DisplayName: "Peter", Image: "x"}

type fixture struct {
	queries   *mocks.MockQueries
	mutations *mocks.MockMutations
	actions   *mocks.MockActions
	auth      *mocks.MockAuthenticator
	handler   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		queries:   mocks.NewMockQueries(ctrl),
		mutations: mocks.NewMockMutations(ctrl),
		actions:   mocks.NewMockActions(ctrl),
		auth:      mocks.NewMockAuthenticator(ctrl),
	}
	srv := server.New(server.Deps{
		Queries:       f.queries,
		Mutations:     f.mutations,
		Actions:       f.actions,
		Authenticator: f.auth,
	}, server.Options{
		PublicURL: "https://x/",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	f.handler = srv.Handler()
	return f
}

func (f *fixture) authorized() {
	f.auth.EXPECT().Authenticate(gomock.Any(), testToken).Return(testUser, nil)
}

func (f *fixture) unauthorized() {
	f.auth.EXPECT().Authenticate(gomock.Any(), testToken).Return(model.User{}, errors.New("Unauthorized"))
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSearch_BlankQueryReturnsEmptyResults(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/search?q=%20%20", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
}

func TestSearch_ForwardsArguments(t *testing.T) {
	f := newFixture(t)
	f.queries.EXPECT().
		Search(gomock.Any(), "test", registry.SearchOptions{Limit: 5, ApprovedOnly: true}).
		Return([]registry.SearchResult{{Score: 1, Slug: "a", DisplayName: "A", UpdatedAt: time.Unix(1, 0)}}, nil)

	rec := f.do(http.MethodGet, "/api/search?q=test&approvedOnly=true&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode(t, rec)["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].(map[string]any)["slug"])
}

func TestSearch_InvalidLimit(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/search?q=test&limit=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSkill(t *testing.T) {
	t.Run("missing slug", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/api/skill", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown skill", func(t *testing.T) {
		f := newFixture(t)
		f.queries.EXPECT().GetSkill(gomock.Any(), "missing").Return(nil, apierr.NotFound("Skill not found"))
		rec := f.do(http.MethodGet, "/api/skill?slug=missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Skill not found", decode(t, rec)["error"])
	})

	t.Run("empty lookup", func(t *testing.T) {
		f := newFixture(t)
		f.queries.EXPECT().GetSkill(gomock.Any(), "missing").Return(&registry.SkillLookup{}, nil)
		rec := f.do(http.MethodGet, "/api/skill?slug=missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("payload with owner and latest version", func(t *testing.T) {
		f := newFixture(t)
		f.queries.EXPECT().GetSkill(gomock.Any(), "demo").Return(&registry.SkillLookup{
			Skill:         &model.SkillRecord{Slug: "demo", DisplayName: "Demo", Summary: "x"},
			LatestVersion: &model.SkillVersion{Version: "1.0.0", Changelog: "c"},
			Owner:         &model.Owner{Handle: "p", DisplayName: "Peter"},
		}, nil)

		rec := f.do(http.MethodGet, "/api/skill?slug=demo", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "demo", body["skill"].(map[string]any)["slug"])
		assert.Equal(t, "1.0.0", body["latestVersion"].(map[string]any)["version"])
		assert.Equal(t, "p", body["owner"].(map[string]any)["handle"])
	})
}

func TestResolve(t *testing.T) {
	hash := strings.Repeat("a", hashing.HashLength)

	t.Run("invalid hash", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodGet, "/api/skill/resolve?slug=demo&hash=bad", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown skill", func(t *testing.T) {
		f := newFixture(t)
		f.queries.EXPECT().ResolveVersion(gomock.Any(), "missing", hash).Return(resolver.Resolution{}, apierr.NotFound("Skill not found"))
		rec := f.do(http.MethodGet, "/api/skill/resolve?slug=missing&hash="+hash, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("match and latest", func(t *testing.T) {
		f := newFixture(t)
		f.queries.EXPECT().ResolveVersion(gomock.Any(), "demo", hash).Return(resolver.Resolution{
			Match:  &model.SkillVersion{Version: "1.0.0"},
			Latest: &model.SkillVersion{Version: "2.0.0"},
		}, nil)
		rec := f.do(http.MethodGet, "/api/skill/resolve?slug=demo&hash="+hash, "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "1.0.0", body["match"].(map[string]any)["version"])
		assert.Equal(t, "2.0.0", body["latestVersion"].(map[string]any)["version"])
	})
}

func TestDownload(t *testing.T) {
	f := newFixture(t)
	f.queries.EXPECT().Bundle(gomock.Any(), "demo", "").Return(
		model.SkillVersion{Version: "1.0.0"},
		[]archive.File{{Path: "SKILL.md", Data: []byte("# Demo\n")}},
		nil,
	)

	rec := f.do(http.MethodGet, "/api/download?slug=demo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gzip", rec.Header().Get("Content-Type"))

	files, manifest, err := archive.Extract(rec.Body, archive.ExtractOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", manifest.Version)
	require.Len(t, files, 1)
	assert.Equal(t, "SKILL.md", files[0].Path)
}

func TestWhoami(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		f := newFixture(t)
		f.unauthorized()
		rec := f.do(http.MethodGet, "/api/cli/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing bearer token", func(t *testing.T) {
		f := newFixture(t)
		req := httptest.NewRequest(http.MethodGet, "/api/cli/whoami", nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("user payload", func(t *testing.T) {
		f := newFixture(t)
		f.authorized()
		rec := f.do(http.MethodGet, "/api/cli/whoami", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "p", decode(t, rec)["user"].(map[string]any)["handle"])
	})
}

func TestUploadURL(t *testing.T) {
	t.Run("issues url", func(t *testing.T) {
		f := newFixture(t)
		f.authorized()
		f.actions.EXPECT().IssueUploadToken(gomock.Any(), testUser).Return("tok", nil)
		rec := f.do(http.MethodPost, "/api/cli/upload-url", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"uploadUrl":"https://x/api/cli/upload/tok"}`, rec.Body.String())
	})

	t.Run("unauthorized", func(t *testing.T) {
		f := newFixture(t)
		f.unauthorized()
		rec := f.do(http.MethodPost, "/api/cli/upload-url", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUpload(t *testing.T) {
	f := newFixture(t)
	f.actions.EXPECT().StoreUpload(gomock.Any(), "tok", []byte("bytes")).Return("storage-1", nil)
	f.actions.EXPECT().StoreUpload(gomock.Any(), "stale", gomock.Any()).Return("", apierr.Validation("Upload token is invalid or expired"))

	rec := f.do(http.MethodPost, "/api/cli/upload/tok", "bytes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"storageId":"storage-1"}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/cli/upload/stale", "bytes")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

const publishBody = `{"slug":"cool-skill","displayName":"Cool Skill","version":"1.2.3","changelog":"c",` +
	`"files":[{"path":"SKILL.md","size":1,"storageId":"id","sha256":"a"}]}`

func TestPublish(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/cli/publish", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unauthorized", func(t *testing.T) {
		f := newFixture(t)
		f.unauthorized()
		rec := f.do(http.MethodPost, "/api/cli/publish", "{}")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("publish error", func(t *testing.T) {
		f := newFixture(t)
		f.authorized()
		f.mutations.EXPECT().Publish(gomock.Any(), testUser, gomock.Any()).Return(registry.PublishResponse{}, errors.New("Nope"))
		rec := f.do(http.MethodPost, "/api/cli/publish", publishBody)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Nope", decode(t, rec)["error"])
	})

	t.Run("internal failure is not leaked", func(t *testing.T) {
		f := newFixture(t)
		f.authorized()
		f.mutations.EXPECT().Publish(gomock.Any(), testUser, gomock.Any()).
			Return(registry.PublishResponse{}, apierr.Wrap(apierr.KindInternal, "disk full at /var/data", errors.New("ENOSPC")))
		rec := f.do(http.MethodPost, "/api/cli/publish", publishBody)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal error", decode(t, rec)["error"])
	})

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		f.authorized()
		want := registry.PublishRequest{
			Slug:        "cool-skill",
			DisplayName: "Cool Skill",
			Version:     "1.2.3",
			Changelog:   "c",
			Files:       []registry.PublishFile{{Path: "SKILL.md", Size: 1, StorageID: "id", SHA256: "a"}},
		}
		f.mutations.EXPECT().Publish(gomock.Any(), testUser, want).
			Return(registry.PublishResponse{OK: true, SkillID: "s", VersionID: "v"}, nil)

		rec := f.do(http.MethodPost, "/api/cli/publish", publishBody)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, "s", body["skillId"])
	})
}

func TestDeleteAndUndelete(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		f := newFixture(t)
		f.unauthorized()
		rec := f.do(http.MethodPost, "/api/cli/skill/delete", `{"slug":"demo"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	for name, tc := range map[string]struct {
		path    string
		deleted bool
	}{
		"delete":   {path: "/api/cli/skill/delete", deleted: true},
		"undelete": {path: "/api/cli/skill/undelete", deleted: false},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.authorized()
			f.mutations.EXPECT().SetDeleted(gomock.Any(), testUser, "demo", tc.deleted).Return(nil)

			rec := f.do(http.MethodPost, tc.path, `{"slug":"demo"}`)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/api/cli/skill/delete", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid payload", func(t *testing.T) {
		f := newFixture(t)
		f.authorized()
		rec := f.do(http.MethodPost, "/api/cli/skill/delete", "{}")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWellKnown(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{registry.WellKnownPath, registry.LegacyWellKnownPath} {
		rec := f.do(http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"registry":"https://x","authBase":"https://x"}`, rec.Body.String())
	}
}
