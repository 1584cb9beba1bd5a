package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-metabox/pkg/assets"
	"github.com/goliatone/go-metabox/pkg/formdata"
	"github.com/goliatone/go-metabox/pkg/metabox"
	"github.com/goliatone/go-metabox/pkg/restschema"
	"github.com/goliatone/go-metabox/pkg/security"
	"github.com/goliatone/go-metabox/pkg/storage"
)

// EditPage is the admin page the scripts are enqueued for.
const EditPage = "post.php"

type scriptView struct {
	Handle string `json:"handle"`
	Src    string `json:"src"`
}

type listView struct {
	User  string         `json:"user"`
	Posts []storage.Post `json:"posts"`
}

type editView struct {
	User    string       `json:"user"`
	Post    storage.Post `json:"post"`
	Screen  string       `json:"screen"`
	Head    []scriptView `json:"head"`
	Footer  []scriptView `json:"footer"`
	Updated bool         `json:"updated"`
}

type metaEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	s.page(w, r, "posts", listView{User: s.user.Login, Posts: posts})
}

func (s *Server) editPost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.post(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var screen bytes.Buffer
	if err := s.host.RenderScreen(ctx, &screen, post); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	scripts, err := s.host.Scripts(ctx, EditPage)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	head, footer := assets.Footer(scripts)

	s.page(w, r, "edit", editView{
		User:    s.user.Login,
		Post:    post,
		Screen:  screen.String(),
		Head:    scriptViews(head),
		Footer:  scriptViews(footer),
		Updated: r.URL.Query().Get("updated") == "1",
	})
}

// savePost runs save_post with the raw body so repeated and bracketed names
// keep their submission order.
func (s *Server) savePost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.post(w, r)
	if !ok {
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/x-www-form-urlencoded" {
			s.fail(w, r, http.StatusUnsupportedMediaType, fmt.Errorf("unsupported content type %q", ct))
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		s.fail(w, r, http.StatusRequestEntityTooLarge, err)
		return
	}
	form, err := formdata.Parse(string(body))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	if err := s.host.Save(r.Context(), post, form); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, metabox.ErrForbidden) || errors.Is(err, security.ErrInvalidNonce) {
			status = http.StatusForbidden
		}
		s.fail(w, r, status, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/posts/%d/edit?updated=1", post.ID), http.StatusSeeOther)
}

func (s *Server) openAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.openapi)
}

func (s *Server) postMeta(w http.ResponseWriter, r *http.Request) {
	post, ok := s.post(w, r)
	if !ok {
		return
	}
	values, err := restschema.Collect(r.Context(), s.host.Registry(), s.store, post.ID)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (s *Server) postMetaKey(w http.ResponseWriter, r *http.Request) {
	post, ok := s.post(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	value, found, err := restschema.Value(r.Context(), s.host.Registry(), s.store, post.ID, key)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("meta key %q not found", key))
		return
	}
	writeJSON(w, http.StatusOK, metaEntry{Key: key, Value: value})
}

// post loads the {id} post, writing 400 or 404 when it cannot.
func (s *Server) post(w http.ResponseWriter, r *http.Request) (storage.Post, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return storage.Post{}, false
	}
	post, err := s.store.GetPost(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "post not found")
		return storage.Post{}, false
	}
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return storage.Post{}, false
	}
	return post, true
}

func (s *Server) page(w http.ResponseWriter, r *http.Request, name string, view any) {
	var buf bytes.Buffer
	if _, err := s.pages.RenderTemplate(name, view, &buf); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	level := s.logger.Warn
	if status >= http.StatusInternalServerError {
		level = s.logger.Error
	}
	level("request failed",
		zap.String("request_id", RequestID(r.Context())),
		zap.Int("status", status),
		zap.Error(err))
	writeError(w, status, http.StatusText(status))
}

func scriptViews(scripts []assets.Script) []scriptView {
	out := make([]scriptView, 0, len(scripts))
	for _, script := range scripts {
		out = append(out, scriptView{Handle: script.Handle, Src: script.Src})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
