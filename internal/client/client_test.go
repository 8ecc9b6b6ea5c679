package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zhouzirui/moodflow/backend/internal/client"
	"github.com/zhouzirui/moodflow/backend/internal/config"
	"github.com/zhouzirui/moodflow/backend/internal/handler"
	"github.com/zhouzirui/moodflow/backend/internal/model/content"
	"github.com/zhouzirui/moodflow/backend/internal/model/session"
	sessionService "github.com/zhouzirui/moodflow/backend/internal/service/session"
)

func newServer(t *testing.T) *client.Client {
	t.Helper()
	router := handler.NewRouter(
		sessionService.NewMemoryStore(),
		content.NewMemoryStore(content.Seed()),
		nil,
		config.ServerConfig{AllowedOrigins: []string{"*"}},
		nil,
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return client.New(srv.URL+"/", client.WithTimeout(5*time.Second))
}

func TestClientSessionLifecycle(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	created, err := c.CreateSession(ctx, session.MoodOkay)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.StepValue() != session.StepFirst || created.Completed {
		t.Fatalf("unexpected created session %+v", created)
	}

	updated, err := c.UpdateSession(ctx, created.ID, session.Patch{Step: session.StepPtr(2)})
	if err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	if updated.StepValue() != 2 || updated.Mood != session.MoodOkay {
		t.Fatalf("unexpected updated session %+v", updated)
	}

	completed, err := c.ListCompleted(ctx)
	if err != nil {
		t.Fatalf("ListCompleted: %v", err)
	}
	if len(completed) != 0 {
		t.Fatalf("expected no completed sessions, got %d", len(completed))
	}

	if _, err := c.UpdateSession(ctx, created.ID, session.Patch{Completed: session.BoolPtr(true)}); err != nil {
		t.Fatalf("UpdateSession completed: %v", err)
	}

	completed, err = c.ListCompleted(ctx)
	if err != nil {
		t.Fatalf("ListCompleted: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != created.ID {
		t.Fatalf("unexpected completed list %+v", completed)
	}

	got, err := c.GetSession(ctx, created.ID)
	if err != nil || !got.Completed || got.StepValue() != 2 {
		t.Fatalf("GetSession returned %+v, %v", got, err)
	}
}

func TestClientFilters(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	for _, mood := range []session.Mood{session.MoodHappy, session.MoodHappy, session.MoodStressed} {
		if _, err := c.CreateSession(ctx, mood); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	happy, err := c.ListByMood(ctx, session.MoodHappy)
	if err != nil || len(happy) != 2 {
		t.Fatalf("ListByMood returned %d, %v", len(happy), err)
	}

	okay, err := c.ListByMood(ctx, session.MoodOkay)
	if err != nil || okay == nil || len(okay) != 0 {
		t.Fatalf("expected empty non-nil list, got %v, %v", okay, err)
	}

	atFirst, err := c.ListByStep(ctx, session.StepFirst)
	if err != nil || len(atFirst) != 3 {
		t.Fatalf("ListByStep returned %d, %v", len(atFirst), err)
	}

	all, err := c.ListSessions(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListSessions returned %d, %v", len(all), err)
	}
}

func TestClientContent(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	moods, err := c.Moods(ctx)
	if err != nil || len(moods) != 3 {
		t.Fatalf("Moods returned %v, %v", moods, err)
	}

	msgs, err := c.Content(ctx, session.MoodStressed, 1)
	if err != nil || len(msgs) == 0 {
		t.Fatalf("Content returned %v, %v", msgs, err)
	}
}

func TestClientErrors(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	_, err := c.GetSession(ctx, 42)
	if !client.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = c.CreateSession(ctx, session.Mood("sad"))
	apiErr, ok := err.(*client.APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusBadRequest || len(apiErr.Details) == 0 {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestClientSendsRequestID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	list, err := client.New(srv.URL).ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
	if got == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestClientPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).ListCompleted(context.Background())
	apiErr, ok := err.(*client.APIError)
	if !ok || apiErr.Status != http.StatusBadGateway || apiErr.Message != "upstream unavailable" {
		t.Fatalf("unexpected error %#v", err)
	}
}

func TestClientTimeoutLeavesSuppliedHTTPClientAlone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	hc := &http.Client{}
	c := client.New(srv.URL, client.WithTimeout(50*time.Millisecond), client.WithHTTPClient(hc))

	start := time.Now()
	if _, err := c.GetSession(context.Background(), 1); err == nil {
		t.Fatal("expected the request to time out")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout was not applied, request took %s", elapsed)
	}
	if hc.Timeout != 0 {
		t.Fatalf("supplied HTTP client was modified, timeout=%s", hc.Timeout)
	}
}
