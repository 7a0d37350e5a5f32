package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/klauern/skillhub/internal/apierr"
	"github.com/klauern/skillhub/internal/archive"
	"github.com/klauern/skillhub/internal/hashing"
	"github.com/klauern/skillhub/internal/logging"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/registry"
)

func searchHandler(q Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeJSON(w, http.StatusOK, map[string]any{"results": []registry.SearchResult{}})
			return
		}

		opts := registry.SearchOptions{ApprovedOnly: r.URL.Query().Get("approvedOnly") == "true"}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, apierr.Validation("Invalid limit"))
				return
			}
			opts.Limit = n
		}

		results, err := q.Search(r.Context(), query, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		if results == nil {
			results = []registry.SearchResult{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

func getSkillHandler(q Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(r.URL.Query().Get("slug"))
		if slug == "" {
			writeError(w, apierr.Validation("Missing slug"))
			return
		}
		lookup, err := q.GetSkill(r.Context(), slug)
		if err != nil {
			writeError(w, err)
			return
		}
		if !lookup.Exists() {
			writeError(w, apierr.NotFound("Skill not found"))
			return
		}
		writeJSON(w, http.StatusOK, lookup)
	}
}

func resolveHandler(q Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(r.URL.Query().Get("slug"))
		hash := strings.TrimSpace(r.URL.Query().Get("hash"))
		if slug == "" {
			writeError(w, apierr.Validation("Missing slug"))
			return
		}
		if !hashing.IsContentHash(hash) {
			writeError(w, apierr.Validation("Invalid hash"))
			return
		}
		res, err := q.ResolveVersion(r.Context(), slug, hash)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func downloadHandler(q Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(r.URL.Query().Get("slug"))
		if slug == "" {
			writeError(w, apierr.Validation("Missing slug"))
			return
		}
		version := strings.TrimSpace(r.URL.Query().Get("version"))

		v, files, err := q.Bundle(r.Context(), slug, version)
		if err != nil {
			writeError(w, err)
			return
		}

		var buf bytes.Buffer
		if _, err := archive.Create(&buf, slug, v.Version, files); err != nil {
			writeError(w, apierr.Wrap(apierr.KindInternal, "", err))
			return
		}
		w.Header().Set("Content-Type", "application/gzip")
		w.Header().Set("Content-Disposition", `attachment; filename="`+slug+"-"+v.Version+`.tar.gz"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func whoamiHandler(auth Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := authenticate(r, auth)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user.Owner()})
	}
}

func uploadURLHandler(auth Authenticator, a Actions, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := authenticate(r, auth)
		if err != nil {
			writeError(w, err)
			return
		}
		token, err := a.IssueUploadToken(r.Context(), user)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"uploadUrl": publicURL + "/api/cli/upload/" + token})
	}
}

func uploadHandler(a Actions, limit int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.PathValue("token")
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
		if err != nil {
			writeError(w, apierr.Validation("Upload too large or unreadable"))
			return
		}
		id, err := a.StoreUpload(r.Context(), token, data)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"storageId": id})
	}
}

// publishHandler decodes the body before authenticating, so malformed JSON is
// a 400 even without a token.
func publishHandler(auth Authenticator, m Mutations, limit int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registry.PublishRequest
		if err := decodeJSON(w, r, limit, &req); err != nil {
			writeError(w, err)
			return
		}
		user, err := authenticate(r, auth)
		if err != nil {
			writeError(w, err)
			return
		}

		resp, err := m.Publish(r.Context(), user, req)
		if err != nil {
			writeError(w, publishError(err))
			return
		}
		logging.WithContext(r.Context()).Info("publish accepted",
			logging.Slug(req.Slug),
			logging.Version(req.Version),
		)
		writeJSON(w, http.StatusOK, registry.PublishResponse{OK: true, SkillID: resp.SkillID, VersionID: resp.VersionID})
	}
}

// publishError classifies mutation failures: anything that is not an
// authorization or lookup failure is a publish rejection.
func publishError(err error) error {
	switch apierr.KindOf(err) {
	case apierr.KindAuth, apierr.KindNotFound, apierr.KindPublish:
		return err
	case apierr.KindValidation:
		return apierr.Wrap(apierr.KindPublish, apierr.Message(err), err)
	default:
		var e *apierr.Error
		if errors.As(err, &e) {
			return err
		}
		return apierr.Wrap(apierr.KindPublish, err.Error(), err)
	}
}

func deleteHandler(auth Authenticator, m Mutations, deleted bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Slug string `json:"slug"`
		}
		if err := decodeJSON(w, r, 1<<16, &body); err != nil {
			writeError(w, err)
			return
		}
		user, err := authenticate(r, auth)
		if err != nil {
			writeError(w, err)
			return
		}
		slug := strings.TrimSpace(body.Slug)
		if slug == "" {
			writeError(w, apierr.Validation("Missing slug"))
			return
		}
		if err := m.SetDeleted(r.Context(), user, slug, deleted); err != nil {
			writeError(w, publishError(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func wellKnownHandler(doc registry.WellKnown) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, doc)
	}
}

// authenticate resolves the request's bearer token to a user. Any failure
// is reported as Unauthorized.
func authenticate(r *http.Request, auth Authenticator) (model.User, error) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return model.User{}, apierr.Auth("Unauthorized")
	}
	user, err := auth.Authenticate(r.Context(), strings.TrimSpace(token))
	if err != nil {
		return model.User{}, apierr.Wrap(apierr.KindAuth, "Unauthorized", err)
	}
	return user, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(out); err != nil {
		return apierr.Validation("Invalid JSON")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", logging.Err(err))
	}
}

// writeError renders err as {"error": message} with the status of its kind.
// Internal errors are logged and reported generically.
func writeError(w http.ResponseWriter, err error) {
	status := apierr.Status(err)
	if status >= http.StatusInternalServerError {
		logging.Error("internal error", logging.Err(err))
	}
	writeJSON(w, status, registry.ErrorBody{Error: apierr.Message(err)})
}
