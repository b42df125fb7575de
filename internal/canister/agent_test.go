package canister

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/config"
	"github.com/stemsi/surveychain/internal/model"
)

func newTestAgent(t *testing.T, handler http.HandlerFunc) *Agent {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{
		CanisterGatewayURL: srv.URL,
		CallTimeout:        2 * time.Second,
		CallMaxRetries:     2,
		CallBackoff:        time.Millisecond,
	}
	return NewAgent(cfg, zerolog.Nop())
}

func TestBackendForwardsArgsAndIdentity(t *testing.T) {
	var gotPath, gotAuth string
	var gotArgs []json.RawMessage

	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Args []json.RawMessage `json:"args"`
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		gotArgs = body.Args
		_, _ = w.Write([]byte(`{"ok":null}`))
	})

	b := agent.Backend("bkyz2-fmaaa-aaaaa-qaaaq-cai", "token-1")
	err := b.AddFormResponse(context.Background(), "form-1", 42, model.Answers{model.TextAnswer("hi")})
	if err != nil {
		t.Fatalf("add response: %v", err)
	}

	if gotPath != "/canisters/bkyz2-fmaaa-aaaaa-qaaaq-cai/call/addFormResponse" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer token-1" {
		t.Fatalf("identity not forwarded: %q", gotAuth)
	}
	if len(gotArgs) != 3 || string(gotArgs[0]) != `"form-1"` || string(gotArgs[1]) != "42" ||
		string(gotArgs[2]) != `[{"Essay":"hi"}]` {
		t.Fatalf("unexpected args: %s", gotArgs)
	}
}

func TestBackendErrVariant(t *testing.T) {
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"err":"Form not found"}`))
	})

	_, err := agent.Backend("backend", "").GetForm(context.Background(), "missing")
	var re *ResultError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResultError, got %v", err)
	}
	if re.Method != MethodGetForm || re.Message != "Form not found" {
		t.Fatalf("unexpected result error: %+v", re)
	}
	if IsTransportError(err) {
		t.Fatal("result error must not be classified as transport failure")
	}
}

func TestResultRejectsAmbiguousReply(t *testing.T) {
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":"x","err":"y"}`))
	})

	_, err := agent.Backend("backend", "").CreateForm(context.Background())
	if !IsTransportError(err) {
		t.Fatalf("expected transport error for ambiguous reply, got %v", err)
	}
}

func TestAgentRetriesOnlyRateLimits(t *testing.T) {
	var calls atomic.Int32
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":"form-9"}`))
	})

	id, err := agent.Backend("backend", "").CreateForm(context.Background())
	if err != nil {
		t.Fatalf("create form: %v", err)
	}
	if id != "form-9" || calls.Load() != 3 {
		t.Fatalf("expected form-9 after 3 calls, got %q after %d", id, calls.Load())
	}
}

func TestAgentDoesNotRetryServerErrors(t *testing.T) {
	var calls atomic.Int32
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "replica unavailable", http.StatusBadGateway)
	})

	err := agent.Backend("backend", "").ChangeFormPublish(context.Background(), "form-1")
	var te *TransportError
	if !errors.As(err, &te) || te.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 transport error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestAgentGivesUpAfterRetries(t *testing.T) {
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := agent.Backend("backend", "").ChangeFormPublish(context.Background(), "form-1")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}
