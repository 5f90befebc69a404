package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/khansari2403/Auto-Application-sub000/internal/activity"
	"github.com/khansari2403/Auto-Application-sub000/internal/attach"
	"github.com/khansari2403/Auto-Application-sub000/internal/auth"
	"github.com/khansari2403/Auto-Application-sub000/internal/docs"
	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
	"github.com/khansari2403/Auto-Application-sub000/internal/knowledge"
	"github.com/khansari2403/Auto-Application-sub000/internal/resolver"
	"github.com/khansari2403/Auto-Application-sub000/internal/store"
	"github.com/khansari2403/Auto-Application-sub000/internal/verify"
)

type fakeTyper struct {
	mu    sync.Mutex
	typed map[string]string
}

func (f *fakeTyper) Type(_ context.Context, field domain.DiscoveredField, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.typed == nil {
		f.typed = map[string]string{}
	}
	f.typed[field.Ref] = value
	return nil
}

type fakeSetter struct{ attached []string }

func (f *fakeSetter) SetFiles(_ context.Context, _ domain.DiscoveredField, path string) error {
	f.attached = append(f.attached, path)
	return nil
}

type fakeSubmitter struct {
	clicked bool
	text    string
}

func (f *fakeSubmitter) Click(context.Context, domain.DiscoveredField) error {
	f.clicked = true
	return nil
}

func (f *fakeSubmitter) Text(context.Context) (string, error) { return f.text, nil }

type fakePage struct {
	url       string
	text      string
	fields    []domain.DiscoveredField
	typer     *fakeTyper
	setter    *fakeSetter
	submitter *fakeSubmitter
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Text(context.Context) (string, error) { return p.text, nil }

func (p *fakePage) Discover(context.Context) ([]domain.DiscoveredField, error) {
	return p.fields, nil
}

func (p *fakePage) Typer() resolver.Typer { return p.typer }

func (p *fakePage) FileSetter() attach.FileSetter { return p.setter }

func (p *fakePage) Submitter() verify.Submitter { return p.submitter }
func (p *fakePage) ClearAuth(context.Context, auth.Roadblock, *domain.Profile) error {
	return auth.ErrManualRequired
}

type fakeDriver struct {
	mu       sync.Mutex
	page     *fakePage
	openErr  error
	released []string
}

func (d *fakeDriver) Open(_ context.Context, jobID, url string) (PageHandle, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.page, nil
}

func (d *fakeDriver) Release(jobID string) {
	d.mu.Lock()
	d.released = append(d.released, jobID)
	d.mu.Unlock()
}

func newPage(fields ...domain.DiscoveredField) *fakePage {
	return &fakePage{
		url:       "https://example.com/careers/apply/123",
		text:      "Apply for this position",
		fields:    fields,
		typer:     &fakeTyper{},
		setter:    &fakeSetter{},
		submitter: &fakeSubmitter{text: "Thank you! Application received."},
	}
}

func testEngine(t *testing.T, driver Driver) (*Engine, *store.Store, *knowledge.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	kb, err := knowledge.New(st.DB)
	if err != nil {
		t.Fatal(err)
	}

	sink := &activity.MemorySink{}
	res := resolver.New(kb, sink, 0, 0)
	up := &attach.Uploader{Docs: docs.NewStore(t.TempDir()), Activity: sink}
	ver := verify.New(time.Millisecond)
	ver.Sleeper = func(context.Context, time.Duration) error { return nil }

	e := New(st, kb, res, up, ver, driver, 30*time.Second)
	e.Activity = sink
	// Fire the keep-alive release inline so tests observe it.
	e.afterFunc = func(_ time.Duration, f func()) *time.Timer {
		f()
		return time.NewTimer(time.Hour)
	}

	seedJob(t, st)
	return e, st, kb
}

func seedJob(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	if err := st.SaveProfile(ctx, &domain.Profile{
		UserID:   "user-1",
		FullName: "Dana Fischer",
		Email:    "dana@example.com",
	}); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveJob(ctx, &domain.Job{
		ID:       "job-1",
		UserID:   "user-1",
		Title:    "Backend Engineer",
		Company:  "Acme",
		ApplyURL: "https://example.com/careers/apply/123",
	}); err != nil {
		t.Fatal(err)
	}
}

func TestStartSubmissionHappyPath(t *testing.T) {
	page := newPage(
		domain.DiscoveredField{Kind: domain.KindText, Ref: "#name", Label: "Full name", Required: true},
		domain.DiscoveredField{Kind: domain.KindEmail, Ref: "#email", Label: "Email address", Required: true},
		domain.DiscoveredField{Kind: domain.KindSubmit, Ref: "#apply", Label: "Submit application"},
	)
	driver := &fakeDriver{page: page}
	e, st, _ := testEngine(t, driver)

	result, err := e.StartSubmission(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("StartSubmission: %v", err)
	}
	if result.Status != domain.StatusSubmitted {
		t.Fatalf("status = %q (%s), want submitted", result.Status, result.Reason)
	}
	if page.typer.typed["#name"] != "Dana Fischer" || page.typer.typed["#email"] != "dana@example.com" {
		t.Errorf("typed = %v, want profile values", page.typer.typed)
	}
	if !page.submitter.clicked {
		t.Error("submit control was never clicked")
	}

	job, err := st.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if job.AppliedAt == nil {
		t.Error("job not marked applied")
	}

	// Inline keep-alive fired, so the slot is free again.
	if _, live := e.Registry.Get("job-1"); live {
		t.Error("session still registered after keep-alive release")
	}
	if len(driver.released) == 0 {
		t.Error("page never released")
	}
}

func TestStartSubmissionRejectsConcurrent(t *testing.T) {
	page := newPage(
		domain.DiscoveredField{Kind: domain.KindText, Ref: "#q1", Label: "Describe a challenging project", Required: true},
		domain.DiscoveredField{Kind: domain.KindSubmit, Ref: "#apply", Label: "Submit"},
	)
	e, _, _ := testEngine(t, &fakeDriver{page: page})

	first, err := e.StartSubmission(context.Background(), "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != domain.StatusQuestionsPending {
		t.Fatalf("status = %q, want questions_pending", first.Status)
	}

	if _, err := e.StartSubmission(context.Background(), "job-1"); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("second start err = %v, want ErrSessionExists", err)
	}
}

func TestContinueSubmissionPartialAnswers(t *testing.T) {
	page := newPage(
		domain.DiscoveredField{Kind: domain.KindText, Ref: "#q1", Label: "Describe a challenging project", Required: true},
		domain.DiscoveredField{Kind: domain.KindText, Ref: "#q2", Label: "Why do you want to work here", Required: true},
		domain.DiscoveredField{Kind: domain.KindSubmit, Ref: "#apply", Label: "Submit"},
	)
	e, _, kb := testEngine(t, &fakeDriver{page: page})
	ctx := context.Background()

	result, err := e.StartSubmission(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.PendingQuestions) != 2 {
		t.Fatalf("pending = %d, want 2", len(result.PendingQuestions))
	}

	// Answer only the first question and flag it for reuse.
	answers := []domain.AnswerSubmission{{
		FieldRef:     "#q1",
		Answer:       "Rebuilt the billing pipeline under load",
		SaveForLater: true,
	}}
	result, err = e.ContinueSubmission(ctx, "job-1", answers)
	if err != nil {
		t.Fatalf("ContinueSubmission: %v", err)
	}
	if result.Status != domain.StatusSubmitted {
		t.Fatalf("status = %q (%s), want submitted", result.Status, result.Reason)
	}

	if got := page.typer.typed["#q1"]; got != "Rebuilt the billing pipeline under load" {
		t.Errorf("answer typed = %q", got)
	}
	if _, typed := page.typer.typed["#q2"]; typed {
		t.Error("unanswered question should have been discarded, not typed")
	}

	entry, err := kb.Find(ctx, "Describe a challenging project?", domain.CategoryOther)
	if err != nil {
		t.Fatalf("saved answer not found in knowledge base: %v", err)
	}
	if entry.Answer != "Rebuilt the billing pipeline under load" {
		t.Errorf("stored answer = %q", entry.Answer)
	}
}

func TestSalaryAnswerLearnedForLaterRuns(t *testing.T) {
	page := newPage(
		domain.DiscoveredField{Kind: domain.KindText, Ref: "#salary", Label: "What are your salary expectations", Required: true},
		domain.DiscoveredField{Kind: domain.KindSubmit, Ref: "#apply", Label: "Submit"},
	)
	e, _, kb := testEngine(t, &fakeDriver{page: page})
	ctx := context.Background()

	result, err := e.StartSubmission(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != domain.StatusQuestionsPending {
		t.Fatalf("status = %q, want questions_pending", result.Status)
	}
	if len(result.PendingQuestions) != 1 || result.PendingQuestions[0].Category != domain.CategorySalary {
		t.Fatalf("pending = %+v, want one salary question", result.PendingQuestions)
	}

	result, err = e.ContinueSubmission(ctx, "job-1", []domain.AnswerSubmission{{
		FieldRef:     "#salary",
		Answer:       "€70,000",
		SaveForLater: true,
	}})
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != domain.StatusSubmitted {
		t.Fatalf("status = %q (%s), want submitted", result.Status, result.Reason)
	}

	// A rephrased salary question now resolves without a human.
	entry, err := kb.Find(ctx, "What salary do you expect?", domain.CategorySalary)
	if err != nil {
		t.Fatalf("rephrased lookup: %v", err)
	}
	if entry.Answer != "€70,000" {
		t.Errorf("stored answer = %q", entry.Answer)
	}
}

func TestContinueSubmissionErrors(t *testing.T) {
	page := newPage(
		domain.DiscoveredField{Kind: domain.KindText, Ref: "#name", Label: "Full name"},
		domain.DiscoveredField{Kind: domain.KindSubmit, Ref: "#apply", Label: "Submit"},
	)
	e, _, _ := testEngine(t, &fakeDriver{page: page})
	ctx := context.Background()

	if _, err := e.ContinueSubmission(ctx, "nope", nil); !errors.Is(err, ErrNoSession) {
		t.Errorf("unknown job err = %v, want ErrNoSession", err)
	}

	if _, err := e.StartSubmission(ctx, "job-1"); err != nil {
		t.Fatal(err)
	}
	// Session already finished; it is not waiting for answers.
	if _, err := e.ContinueSubmission(ctx, "job-1", nil); err == nil {
		t.Error("continue on a finished session should fail")
	}
}

func TestCancelSubmission(t *testing.T) {
	page := newPage(
		domain.DiscoveredField{Kind: domain.KindText, Ref: "#q1", Label: "Describe a challenging project", Required: true},
	)
	driver := &fakeDriver{page: page}
	e, _, _ := testEngine(t, driver)
	ctx := context.Background()

	if _, err := e.StartSubmission(ctx, "job-1"); err != nil {
		t.Fatal(err)
	}
	if err := e.CancelSubmission("job-1"); err != nil {
		t.Fatalf("CancelSubmission: %v", err)
	}
	if _, live := e.Registry.Get("job-1"); live {
		t.Error("session still registered after cancel")
	}
	if len(driver.released) != 1 {
		t.Errorf("released = %v, want one release", driver.released)
	}
	if err := e.CancelSubmission("job-1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("second cancel err = %v, want ErrNoSession", err)
	}
}

func TestStartSubmissionOpenFailure(t *testing.T) {
	driver := &fakeDriver{openErr: errors.New("browser not reachable")}
	e, _, _ := testEngine(t, driver)

	result, err := e.StartSubmission(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("StartSubmission: %v", err)
	}
	if result.Status != domain.StatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if _, live := e.Registry.Get("job-1"); live {
		t.Error("failed open should not leave a registered session")
	}
}

func TestMemoryRegistry(t *testing.T) {
	r := NewMemoryRegistry()
	s := newSession("job-9", "user-1", nil)

	if err := r.Put(s); err != nil {
		t.Fatal(err)
	}
	if err := r.Put(newSession("job-9", "user-1", nil)); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("duplicate Put err = %v, want ErrSessionExists", err)
	}
	got, ok := r.Get("job-9")
	if !ok || got.ID != s.ID {
		t.Fatalf("Get returned %v, %v", got, ok)
	}
	r.Delete("job-9")
	if _, ok := r.Get("job-9"); ok {
		t.Error("session survived Delete")
	}
}
