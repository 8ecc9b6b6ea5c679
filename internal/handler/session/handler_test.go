package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	model "github.com/zhouzirui/moodflow/backend/internal/model/session"
	sessionservice "github.com/zhouzirui/moodflow/backend/internal/service/session"
)

func setupRouter() (*chi.Mux, sessionservice.Store) {
	store := sessionservice.NewMemoryStore()
	handler := New(store, nil)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, store
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeSession(t *testing.T, resp *httptest.ResponseRecorder) model.Session {
	t.Helper()
	var s model.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode session: %v (%s)", err, resp.Body.String())
	}
	return s
}

func decodeList(t *testing.T, resp *httptest.ResponseRecorder) []model.Session {
	t.Helper()
	var list []model.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v (%s)", err, resp.Body.String())
	}
	return list
}

func TestSessionLifecycleEndToEnd(t *testing.T) {
	r, _ := setupRouter()

	resp := do(t, r, http.MethodPost, "/sessions", `{"mood":"okay"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	created := decodeSession(t, resp)
	if created.StepValue() != 1 || created.Completed || created.Mood != model.MoodOkay {
		t.Fatalf("unexpected created session: %+v", created)
	}

	path := "/sessions/" + jsonID(created.ID)
	resp = do(t, r, http.MethodPatch, path, `{"step":2}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	updated := decodeSession(t, resp)
	if updated.StepValue() != 2 || updated.Mood != model.MoodOkay || updated.Completed {
		t.Fatalf("unexpected updated session: %+v", updated)
	}

	resp = do(t, r, http.MethodGet, "/sessions/completed", "")
	if got := decodeList(t, resp); len(got) != 0 {
		t.Fatalf("expected no completed sessions yet, got %d", len(got))
	}

	resp = do(t, r, http.MethodPatch, path, `{"completed":true}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = do(t, r, http.MethodGet, "/sessions/completed", "")
	got := decodeList(t, resp)
	if len(got) != 1 || got[0].ID != created.ID || got[0].StepValue() != 2 {
		t.Fatalf("unexpected completed list: %+v", got)
	}

	resp = do(t, r, http.MethodGet, path, "")
	if resp.Code != http.StatusOK || !decodeSession(t, resp).Completed {
		t.Fatalf("expected completed session on GET, got %d", resp.Code)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	r, _ := setupRouter()

	cases := map[string]string{
		"missing mood":    `{}`,
		"unknown mood":    `{"mood":"sad"}`,
		"mood not string": `{"mood":3}`,
		"step range":      `{"mood":"happy","step":4}`,
		"step type":       `{"mood":"happy","step":"2"}`,
		"completed type":  `{"mood":"happy","completed":"yes"}`,
		"malformed":       `{"mood":`,
		"empty body":      ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := do(t, r, http.MethodPost, "/sessions", body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
			}
		})
	}

	resp := do(t, r, http.MethodGet, "/sessions", "")
	if got := decodeList(t, resp); len(got) != 0 {
		t.Fatalf("invalid payloads must not create records, got %d", len(got))
	}
}

func TestCreateSessionExplicitFields(t *testing.T) {
	r, _ := setupRouter()

	resp := do(t, r, http.MethodPost, "/sessions", `{"mood":"stressed","step":1,"completed":false,"extra":"ignored"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	resp = do(t, r, http.MethodPost, "/sessions", `{"mood":"happy","step":null}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if s := decodeSession(t, resp); s.Step != nil {
		t.Fatalf("expected null step to be kept, got %d", *s.Step)
	}
	if !strings.Contains(resp.Body.String(), `"step":null`) {
		t.Fatalf("expected step:null in body, got %s", resp.Body.String())
	}
}

func TestUpdateSessionErrors(t *testing.T) {
	r, _ := setupRouter()
	do(t, r, http.MethodPost, "/sessions", `{"mood":"happy"}`)

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"non numeric id", "/sessions/abc", `{"step":2}`, http.StatusBadRequest},
		{"negative id", "/sessions/-1", `{"step":2}`, http.StatusBadRequest},
		{"unknown id", "/sessions/99", `{"step":2}`, http.StatusNotFound},
		{"bad step", "/sessions/1", `{"step":0}`, http.StatusBadRequest},
		{"null step", "/sessions/1", `{"step":null}`, http.StatusBadRequest},
		{"bad completed", "/sessions/1", `{"completed":1}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, r, http.MethodPatch, tc.path, tc.body)
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, resp.Code, resp.Body.String())
			}
		})
	}

	resp := do(t, r, http.MethodGet, "/sessions", "")
	if got := decodeList(t, resp); len(got) != 1 {
		t.Fatalf("update on unknown id must not create, got %d records", len(got))
	}
}

func TestGetSessionErrors(t *testing.T) {
	r, _ := setupRouter()

	if resp := do(t, r, http.MethodGet, "/sessions/x1", ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if resp := do(t, r, http.MethodGet, "/sessions/0", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestListFilters(t *testing.T) {
	r, _ := setupRouter()

	for _, body := range []string{`{"mood":"happy"}`, `{"mood":"okay"}`, `{"mood":"happy","step":3}`} {
		if resp := do(t, r, http.MethodPost, "/sessions", body); resp.Code != http.StatusCreated {
			t.Fatalf("create failed: %d", resp.Code)
		}
	}

	resp := do(t, r, http.MethodGet, "/sessions/mood/happy", "")
	if got := decodeList(t, resp); len(got) != 2 {
		t.Fatalf("expected 2 happy sessions, got %d", len(got))
	}

	resp = do(t, r, http.MethodGet, "/sessions/mood/stressed", "")
	if strings.TrimSpace(resp.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %s", resp.Body.String())
	}

	if resp := do(t, r, http.MethodGet, "/sessions/mood/angry", ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid mood, got %d", resp.Code)
	}

	resp = do(t, r, http.MethodGet, "/sessions/step/3", "")
	if got := decodeList(t, resp); len(got) != 1 {
		t.Fatalf("expected 1 session at step 3, got %d", len(got))
	}
	if resp := do(t, r, http.MethodGet, "/sessions/step/9", ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid step, got %d", resp.Code)
	}

	resp = do(t, r, http.MethodGet, "/sessions", "")
	if got := decodeList(t, resp); len(got) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(got))
	}
}

type failingStore struct {
	sessionservice.Store
}

func (failingStore) List(context.Context) ([]model.Session, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Create(context.Context, model.New) (model.Session, error) {
	return model.Session{}, errors.New("disk on fire")
}

func TestInternalErrorsDoNotLeakDetails(t *testing.T) {
	handler := New(failingStore{Store: sessionservice.NewMemoryStore()}, nil)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	for _, tc := range []struct{ method, body string }{
		{http.MethodGet, ""},
		{http.MethodPost, `{"mood":"okay"}`},
	} {
		resp := do(t, r, tc.method, "/sessions", tc.body)
		if resp.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", resp.Code)
		}
		if strings.Contains(resp.Body.String(), "disk on fire") {
			t.Fatalf("internal error leaked: %s", resp.Body.String())
		}
	}
}

func jsonID(id int64) string {
	return strconv.FormatInt(id, 10)
}
