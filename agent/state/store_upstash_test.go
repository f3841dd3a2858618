package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestUpstashRedisStoreRedisKey(t *testing.T) {
	t.Parallel()

	store := &UpstashRedisStore{}
	got, err := store.redisKey("abc")
	if err != nil {
		t.Fatalf("redisKey() error = %v", err)
	}
	if got != "advisor:session:abc" {
		t.Fatalf("redisKey() = %q, want %q", got, "advisor:session:abc")
	}
}

func TestUpstashRedisStoreRedisKeyEmptySession(t *testing.T) {
	t.Parallel()

	store := &UpstashRedisStore{}
	_, err := store.redisKey("   ")
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("redisKey() error = %v, want ErrInvalidSession", err)
	}
}

func TestUpstashRedisStoreSaveUsesSessionKey(t *testing.T) {
	t.Parallel()

	const wantKey = "advisor:session:session-1"
	var gotCommand []any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Fatalf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":"OK"}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{
			URL:   server.URL,
			Token: "token",
		},
		WithHTTPClient(server.Client()),
		WithTTL(0),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	state := NewSessionState("session-1", time.Now().UTC())
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if len(gotCommand) < 2 {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
	if gotCommand[0] != "SET" {
		t.Fatalf("command[0] = %v, want SET", gotCommand[0])
	}
	if gotCommand[1] != wantKey {
		t.Fatalf("command[1] = %v, want %s", gotCommand[1], wantKey)
	}
}

func TestUpstashRedisStoreSaveAppendsTTL(t *testing.T) {
	t.Parallel()

	var gotCommand []any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Fatalf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":"OK"}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{
			URL:   server.URL,
			Token: "token",
		},
		WithHTTPClient(server.Client()),
		WithTTL(90*time.Second),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	if err := store.Save(context.Background(), NewSessionState("s", time.Now().UTC())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if len(gotCommand) != 5 {
		t.Fatalf("command length = %d, want 5 (SET key payload EX seconds): %#v", len(gotCommand), gotCommand)
	}
	if gotCommand[3] != "EX" {
		t.Fatalf("command[3] = %v, want EX", gotCommand[3])
	}
	if seconds, ok := gotCommand[4].(float64); !ok || int64(seconds) != 90 {
		t.Fatalf("command[4] = %v, want 90", gotCommand[4])
	}
}

func TestUpstashRedisStoreLoadRoundTrip(t *testing.T) {
	t.Parallel()

	const wantKey = "advisor:session:session-2"
	var gotCommand []any

	seed := NewSessionState("session-2", time.Now().UTC())
	seed.Profile.SetIncome(60000)
	seed.Phase = PhaseRecommending
	payload, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	encoded, err := json.Marshal(string(payload))
	if err != nil {
		t.Fatalf("marshal encoded seed: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Fatalf("decode command: %v", err)
		}
		fmt.Fprintf(w, `{"result":%s}`, encoded)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{
			URL:   server.URL,
			Token: "token",
		},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	st, err := store.Load(context.Background(), "session-2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st.SessionID != "session-2" {
		t.Fatalf("Load().SessionID = %q, want %q", st.SessionID, "session-2")
	}
	if st.Phase != PhaseRecommending {
		t.Fatalf("Load().Phase = %q, want %q", st.Phase, PhaseRecommending)
	}
	if st.Profile == nil || st.Profile.Income == nil || *st.Profile.Income != 60000 {
		t.Fatalf("Load().Profile.Income = %v, want 60000", st.Profile)
	}

	if len(gotCommand) < 2 {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
	if gotCommand[0] != "GET" {
		t.Fatalf("command[0] = %v, want GET", gotCommand[0])
	}
	if gotCommand[1] != wantKey {
		t.Fatalf("command[1] = %v, want %s", gotCommand[1], wantKey)
	}
}

func TestUpstashRedisStoreLoadMissingSession(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":null}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{
			URL:   server.URL,
			Token: "token",
		},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	_, err = store.Load(context.Background(), "missing")
	if !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load() error = %v, want ErrStateNotFound", err)
	}
}

func TestUpstashRedisStoreDeleteUsesSessionKey(t *testing.T) {
	t.Parallel()

	const wantKey = "advisor:session:session-3"
	var gotCommand []any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Fatalf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":1}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{
			URL:   server.URL,
			Token: "token",
		},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	if err := store.Delete(context.Background(), "session-3"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if len(gotCommand) < 2 {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
	if gotCommand[0] != "DEL" {
		t.Fatalf("command[0] = %v, want DEL", gotCommand[0])
	}
	if gotCommand[1] != wantKey {
		t.Fatalf("command[1] = %v, want %s", gotCommand[1], wantKey)
	}
}
