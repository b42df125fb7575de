package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/answer"
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/browse"
	"github.com/stemsi/surveychain/internal/canister"
	"github.com/stemsi/surveychain/internal/config"
	"github.com/stemsi/surveychain/internal/editor"
	"github.com/stemsi/surveychain/internal/ledger"
	"github.com/stemsi/surveychain/internal/model"
	"github.com/stemsi/surveychain/internal/verify"
	"github.com/stemsi/surveychain/internal/websocket"
)

const (
	alice    = "be2us-64aaa-aaaaa-qaabq-cai"
	bob      = "bkyz2-fmaaa-aaaaa-qaaaq-cai"
	treasury = "ryjl3-tyaaa-aaaaa-aaaba-cai"
)

// fakeGateway is an in-memory canister gateway. Tokens are the caller principals.
type fakeGateway struct {
	mu      sync.Mutex
	forms   map[string]model.Form
	order   []string
	calls   []string
	fail    map[string]string
	balance uint64
	summary model.ResponseSummary
	images  int
	answers []model.Answers
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{forms: make(map[string]model.Form), fail: make(map[string]string)}
}

func (g *fakeGateway) put(f model.Form) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.forms[f.ID]; !ok {
		g.order = append(g.order, f.ID)
	}
	g.forms[f.ID] = f
}

func (g *fakeGateway) methods() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.calls)
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	method := parts[len(parts)-1]
	caller := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	var body struct {
		Args []json.RawMessage `json:"args"`
	}
	raw, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(raw, &body)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, method)

	if msg, ok := g.fail[method]; ok {
		writeJSON(w, map[string]string{"err": msg})
		return
	}

	arg := func(i int, dst any) {
		if err := json.Unmarshal(body.Args[i], dst); err != nil {
			panic(fmt.Sprintf("%s arg %d: %v", method, i, err))
		}
	}
	var formID string
	if len(body.Args) > 0 {
		_ = json.Unmarshal(body.Args[0], &formID)
	}

	switch method {
	case canister.MethodCreateForm:
		id := fmt.Sprintf("form-%d", len(g.order)+1)
		g.order = append(g.order, id)
		g.forms[id] = model.Form{ID: id, Creator: caller}
		writeJSON(w, map[string]any{"ok": id})
	case canister.MethodGetForm:
		f, ok := g.forms[formID]
		if !ok {
			writeJSON(w, map[string]string{"err": "Form not found"})
			return
		}
		writeJSON(w, map[string]any{"ok": f})
	case canister.MethodGetAllForms, canister.MethodGetOwnedForms:
		out := []model.Form{}
		for _, id := range g.order {
			if f := g.forms[id]; method == canister.MethodGetAllForms || f.Creator == caller {
				out = append(out, f)
			}
		}
		writeJSON(w, map[string]any{"ok": out})
	case canister.MethodUpdateFormMetadata:
		f := g.forms[formID]
		arg(1, &f.Metadata)
		g.forms[formID] = f
		writeJSON(w, map[string]any{"ok": nil})
	case canister.MethodSetFormQuestions:
		f := g.forms[formID]
		arg(1, &f.Questions)
		g.forms[formID] = f
		writeJSON(w, map[string]any{"ok": nil})
	case canister.MethodChangeFormPublish:
		f := g.forms[formID]
		f.Metadata.Published = !f.Metadata.Published
		g.forms[formID] = f
		writeJSON(w, map[string]any{"ok": nil})
	case canister.MethodAddFormResponse:
		var answers model.Answers
		arg(2, &answers)
		g.answers = append(g.answers, answers)
		writeJSON(w, map[string]any{"ok": nil})
	case canister.MethodGetFormResponseSummary:
		writeJSON(w, map[string]any{"ok": g.summary})
	case canister.MethodGetUser:
		writeJSON(w, map[string]any{"ok": model.User{ID: caller}})
	case canister.MethodUpdateUser:
		var name string
		arg(0, &name)
		writeJSON(w, map[string]any{"ok": model.User{ID: caller, Name: &name}})
	case canister.MethodVerify:
		g.images++
		writeJSON(w, map[string]any{"ok": nil})
	case ledger.MethodBalanceOf:
		writeJSON(w, g.balance)
	case ledger.MethodTransferFrom:
		writeJSON(w, map[string]any{"Ok": 7})
	default:
		http.Error(w, "unknown method", http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type recordingJournal struct {
	mu      sync.Mutex
	entries []model.JournalEntry
}

func (j *recordingJournal) Record(_ context.Context, e model.JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
}

func (j *recordingJournal) kinds() []model.JournalKind {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]model.JournalKind, len(j.entries))
	for i, e := range j.entries {
		out[i] = e.Kind
	}
	return out
}

type fixture struct {
	gw        *fakeGateway
	canisters *Canisters
	forms     *FormService
	journal   *recordingJournal
	notifier  *NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gw := newFakeGateway()
	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		CanisterGatewayURL: srv.URL,
		BackendCanisterID:  config.DefaultBackendCanisterID,
		LedgerCanisterID:   config.DefaultLedgerCanisterID,
		CallTimeout:        2 * time.Second,
	}
	canisters := NewCanisters(canister.NewAgent(cfg, zerolog.Nop()), cfg)
	return &fixture{
		gw:        gw,
		canisters: canisters,
		forms:     NewFormService(canisters, nil, 0, zerolog.Nop()),
		journal:   &recordingJournal{},
		notifier:  NewNotificationService(nil, zerolog.Nop()),
	}
}

func (f *fixture) editors() *EditorService {
	return NewEditorService(f.canisters, f.forms, f.notifier, f.journal,
		ledger.MustParsePrincipal(treasury), time.Hour, zerolog.Nop())
}

func sessionFor(principal string) *auth.Session {
	return &auth.Session{ID: "jti-" + principal, Principal: ledger.MustParsePrincipal(principal), Token: principal}
}

func questionnaire(id, creator string, published bool) model.Form {
	return model.Form{
		ID:      id,
		Creator: creator,
		Questions: []model.Question{
			{FormID: id, QuestionTitle: "Name", IsRequired: true, QuestionType: model.Essay{}},
			{FormID: id, QuestionTitle: "Color", QuestionType: model.MultipleChoice{Options: []string{"Red", "Blue"}}},
		},
		Metadata: model.Metadata{Title: "Survey " + id, Published: published, Categories: []string{"general"}},
	}
}

func TestFormServiceCreateSetsTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	form, err := f.forms.Create(ctx, sessionFor(alice), "Coffee habits")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if form.Creator != alice || form.Metadata.Title != "Coffee habits" {
		t.Fatalf("unexpected form %+v", form)
	}

	stored, err := f.forms.Get(ctx, sessionFor(alice), form.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Metadata.Title != "Coffee habits" {
		t.Fatalf("title not persisted: %q", stored.Metadata.Title)
	}
	want := []string{canister.MethodCreateForm, canister.MethodGetForm, canister.MethodUpdateFormMetadata, canister.MethodGetForm}
	if got := f.gw.methods(); !slices.Equal(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestFormServiceBrowseListsPublishedOnly(t *testing.T) {
	f := newFixture(t)
	f.gw.put(questionnaire("a", alice, true))
	f.gw.put(questionnaire("b", alice, false))
	f.gw.put(questionnaire("c", bob, true))

	forms, err := f.forms.Browse(context.Background(), sessionFor(bob), browse.Query{})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	var ids []string
	for _, form := range forms {
		ids = append(ids, form.ID)
	}
	if !slices.Equal(ids, []string{"a", "c"}) {
		t.Fatalf("ids = %v", ids)
	}

	owned, err := f.forms.Owned(context.Background(), sessionFor(alice))
	if err != nil {
		t.Fatal(err)
	}
	if len(owned) != 2 {
		t.Fatalf("owned = %d forms, want 2", len(owned))
	}
}

func TestFormServiceSummaryRequiresCreator(t *testing.T) {
	f := newFixture(t)
	form := questionnaire("a", alice, true)
	f.gw.put(form)
	f.gw.summary = model.ResponseSummary{
		ResponseCount: 3,
		Summaries: []model.QuestionSummary{
			{Question: form.Questions[0], Summary: model.EssaySummary{"x", "y", "z"}},
			{Question: form.Questions[1], Summary: model.FrequencyArray{2, 1}},
		},
	}

	if _, err := f.forms.Summary(context.Background(), sessionFor(bob), "a"); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}

	report, err := f.forms.Summary(context.Background(), sessionFor(alice), "a")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if report.ResponseCount != 3 || len(report.Series) != 2 || report.Series[1].Points[0].Label != "Red" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestEditorServiceOpenRejectsOthers(t *testing.T) {
	f := newFixture(t)
	f.gw.put(questionnaire("a", alice, false))
	editors := f.editors()
	ctx := context.Background()

	if _, err := editors.Open(ctx, sessionFor(bob), "a"); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
	if _, err := editors.Get(sessionFor(alice), "a"); !errors.Is(err, ErrEditorNotOpen) {
		t.Fatalf("expected ErrEditorNotOpen, got %v", err)
	}

	first, err := editors.Open(ctx, sessionFor(alice), "a")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	again, err := editors.Open(ctx, sessionFor(alice), "a")
	if err != nil || again != first {
		t.Fatalf("reopen returned a different session: %v", err)
	}
	if _, err := editors.Get(sessionFor(bob), "a"); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
	if editors.Len() != 1 {
		t.Fatalf("Len = %d", editors.Len())
	}
}

func TestEditorServicePublish(t *testing.T) {
	f := newFixture(t)
	f.gw.put(questionnaire("a", alice, false))
	editors := f.editors()
	ctx := context.Background()

	es, err := editors.Open(ctx, sessionFor(alice), "a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := es.AddQuestion(); err != nil {
		t.Fatal(err)
	}

	md := model.Metadata{Title: "Survey", RewardAmount: 1_000_000, MaxRewardPool: 10_000_000}
	block, err := editors.Publish(ctx, sessionFor(alice), "a", md)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if block != 7 {
		t.Fatalf("block = %d", block)
	}

	calls := f.gw.methods()
	want := []string{
		canister.MethodUpdateFormMetadata,
		canister.MethodSetFormQuestions,
		ledger.MethodTransferFrom,
		canister.MethodChangeFormPublish,
	}
	if got := calls[len(calls)-len(want):]; !slices.Equal(got, want) {
		t.Fatalf("calls = %v, want suffix %v", calls, want)
	}

	stored := f.gw.forms["a"]
	if !stored.Metadata.Published || len(stored.Questions) != 3 || stored.Metadata.MaxRespondent != 10 {
		t.Fatalf("unexpected stored form %+v", stored.Metadata)
	}
	if !slices.Equal(f.journal.kinds(), []model.JournalKind{
		model.JournalPublishMetadata, model.JournalPublishTransfer, model.JournalPublishFlag,
	}) {
		t.Fatalf("journal = %v", f.journal.kinds())
	}
	if _, err := es.AddQuestion(); !errors.Is(err, editor.ErrPublished) {
		t.Fatalf("expected ErrPublished, got %v", err)
	}
}

func TestEditorServiceCloseIdle(t *testing.T) {
	f := newFixture(t)
	f.gw.put(questionnaire("a", alice, false))
	f.gw.put(questionnaire("b", alice, false))
	editors := f.editors()
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if _, err := editors.Open(ctx, sessionFor(alice), id); err != nil {
			t.Fatal(err)
		}
	}

	if n := editors.CloseIdle(ctx, time.Now().Add(-time.Hour)); n != 0 {
		t.Fatalf("closed %d fresh sessions", n)
	}
	if n := editors.CloseIdle(ctx, time.Now().Add(time.Minute)); n != 2 {
		t.Fatalf("closed %d, want 2", n)
	}
	if editors.Len() != 0 {
		t.Fatalf("Len = %d after reaping", editors.Len())
	}
}

func TestResponseServiceSubmit(t *testing.T) {
	f := newFixture(t)
	f.gw.put(questionnaire("a", alice, true))
	responses := NewResponseService(f.canisters, f.forms, f.journal, zerolog.Nop())
	ctx := context.Background()

	t.Run("missing required", func(t *testing.T) {
		err := responses.Submit(ctx, sessionFor(bob), "a", nil)
		var verr *answer.ValidationError
		if !errors.As(err, &verr) || !slices.Equal(verr.Indices, []int{0}) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(f.gw.answers) != 0 || len(f.journal.kinds()) != 0 {
			t.Fatal("refused submission reached the backend")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		raws := []json.RawMessage{json.RawMessage(`{"Range":3}`)}
		if err := responses.Submit(ctx, sessionFor(bob), "a", raws); !errors.Is(err, answer.ErrMalformed) {
			t.Fatalf("expected ErrMalformed, got %v", err)
		}
	})

	t.Run("accepted", func(t *testing.T) {
		raws := []json.RawMessage{json.RawMessage(`{"Essay":"Bob"}`), json.RawMessage(`null`)}
		if err := responses.Submit(ctx, sessionFor(bob), "a", raws); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if len(f.gw.answers) != 1 {
			t.Fatalf("answers sent %d times", len(f.gw.answers))
		}
		got, _ := json.Marshal(f.gw.answers[0])
		if string(got) != `[{"Essay":"Bob"},{"MultipleChoice":null}]` {
			t.Fatalf("wire answers = %s", got)
		}
		if !slices.Equal(f.journal.kinds(), []model.JournalKind{model.JournalResponseSubmit}) {
			t.Fatalf("journal = %v", f.journal.kinds())
		}
	})
}

func TestProfileServiceUpdateAppliesDefaults(t *testing.T) {
	f := newFixture(t)
	sess := sessionFor(alice)
	profiles := NewProfileService(f.canisters, zerolog.Nop())

	user, err := profiles.Update(context.Background(), sess, model.UpdateUserRequest{
		Name: "Alice", Country: "ID", City: "Bandung", Occupation: "Student",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if user.Name == nil || *user.Name != "Alice" || !sess.HasProfile() {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestWalletServiceBalance(t *testing.T) {
	f := newFixture(t)
	f.gw.balance = 150_000_000

	bal, err := NewWalletService(f.canisters).Balance(context.Background(), sessionFor(alice))
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.E8s != 150_000_000 || bal.ICP != "1.50000000" || bal.Principal != alice {
		t.Fatalf("unexpected balance %+v", bal)
	}
}

func TestVerificationService(t *testing.T) {
	f := newFixture(t)
	svc := NewVerificationService(f.canisters, f.journal, 0, zerolog.Nop())

	if _, err := svc.Verify(context.Background(), sessionFor(alice), []byte("not an image")); !errors.Is(err, verify.ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Verify(context.Background(), sessionFor(alice), buf.Bytes())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.State != verify.StateVerified || res.MIME != "image/png" || f.gw.images != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !slices.Equal(f.journal.kinds(), []model.JournalKind{model.JournalVerify}) {
		t.Fatalf("journal = %v", f.journal.kinds())
	}
}

func TestEventFromNotification(t *testing.T) {
	evt := EventFromNotification(editor.Notification{
		Kind:    editor.NotifyPublishFailed,
		FormID:  "a",
		Version: 4,
		Step:    editor.StepTransfer,
		Message: "insufficient allowance",
	})
	want := websocket.FormEvent{
		Event:   websocket.EventPublishFailed,
		FormID:  "a",
		Version: 4,
		Step:    "transfer",
		Message: "insufficient allowance",
	}
	if evt != want {
		t.Fatalf("got %+v", evt)
	}
}
