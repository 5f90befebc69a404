// Package engine runs submissions end to end: page acquisition, auth
// roadblocks, field resolution, human answer round-trips, uploads and
// the final submit, tracked as a per-job session state machine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/khansari2403/Auto-Application-sub000/internal/activity"
	"github.com/khansari2403/Auto-Application-sub000/internal/attach"
	"github.com/khansari2403/Auto-Application-sub000/internal/auth"
	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
	"github.com/khansari2403/Auto-Application-sub000/internal/knowledge"
	"github.com/khansari2403/Auto-Application-sub000/internal/resolver"
	"github.com/khansari2403/Auto-Application-sub000/internal/store"
	"github.com/khansari2403/Auto-Application-sub000/internal/verify"
)

// ErrNotPending means ContinueSubmission was called on a session that is
// not waiting for answers.
var ErrNotPending = errors.New("engine: session is not waiting for answers")

// Engine orchestrates submissions.
type Engine struct {
	Store    *store.Store
	KB       *knowledge.Store
	Resolver *resolver.Resolver
	Uploader *attach.Uploader
	Verifier *verify.Verifier
	Driver   Driver
	Registry Registry
	Activity activity.Sink

	// How long a submitted session's page stays open before release.
	KeepAlive time.Duration

	afterFunc func(time.Duration, func()) *time.Timer
}

func New(st *store.Store, kb *knowledge.Store, res *resolver.Resolver, up *attach.Uploader, ver *verify.Verifier, driver Driver, keepAlive time.Duration) *Engine {
	return &Engine{
		Store:     st,
		KB:        kb,
		Resolver:  res,
		Uploader:  up,
		Verifier:  ver,
		Driver:    driver,
		Registry:  NewMemoryRegistry(),
		Activity:  activity.LogSink{},
		KeepAlive: keepAlive,
		afterFunc: time.AfterFunc,
	}
}

// StartSubmission opens the job's application page and runs the pipeline
// until it either needs human answers, needs human review, or finishes.
// A second start for the same job is rejected while a session is live.
func (e *Engine) StartSubmission(ctx context.Context, jobID string) (*domain.Result, error) {
	job, err := e.Store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	if job.ApplyURL == "" {
		return nil, fmt.Errorf("job %s has no application URL", jobID)
	}
	profile, err := e.Store.GetProfile(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	sess := newSession(jobID, job.UserID, profile)
	if err := e.Registry.Put(sess); err != nil {
		return nil, err
	}
	e.phase(sess, domain.PhaseStarted)
	log.Printf("[session:%s] started for job %s (%s)", sess.ID, jobID, job.ApplyURL)

	page, err := e.Driver.Open(ctx, jobID, job.ApplyURL)
	if err != nil {
		// Nothing on screen to inspect, so the session is torn down
		// instead of held for review.
		e.phase(sess, domain.PhaseFailed)
		e.Registry.Delete(jobID)
		return &domain.Result{
			Status: domain.StatusFailed,
			Reason: fmt.Sprintf("open application page: %v", err),
		}, nil
	}
	sess.mu.Lock()
	sess.page = page
	sess.mu.Unlock()

	if result, done := e.clearRoadblocks(ctx, sess, page, profile); done {
		return result, nil
	}

	e.phase(sess, domain.PhaseFormFilling)
	fields, err := page.Discover(ctx)
	if err != nil {
		return e.fail(sess, fmt.Sprintf("field discovery: %v", err)), nil
	}
	sess.mu.Lock()
	sess.fields = fields
	sess.mu.Unlock()
	sess.setStep(fmt.Sprintf("discovered %d fields", len(fields)))

	outcome, err := e.Resolver.Resolve(ctx, jobID, page.Typer(), fields, profile)
	if err != nil {
		return nil, err
	}
	e.logOutcome(sess, outcome)

	if len(outcome.Pending) > 0 {
		sess.mu.Lock()
		sess.pending = outcome.Pending
		sess.mu.Unlock()
		e.phase(sess, domain.PhaseQuestionsPending)
		return &domain.Result{
			Status:           domain.StatusQuestionsPending,
			PendingQuestions: outcome.Pending,
		}, nil
	}

	return e.finish(ctx, sess, page)
}

// ContinueSubmission resumes a session waiting on questions. Answers may
// cover any subset of the pending questions; anything left unanswered is
// discarded and the run proceeds with what it has.
func (e *Engine) ContinueSubmission(ctx context.Context, jobID string, answers []domain.AnswerSubmission) (*domain.Result, error) {
	sess, ok := e.Registry.Get(jobID)
	if !ok {
		return nil, ErrNoSession
	}
	if sess.Phase() != domain.PhaseQuestionsPending {
		return nil, ErrNotPending
	}

	sess.mu.Lock()
	page := sess.page
	fields := sess.fields
	pending := sess.pending
	sess.pending = nil
	sess.mu.Unlock()

	if discarded := len(pending) - len(answers); discarded > 0 {
		log.Printf("[session:%s] %d unanswered questions discarded", sess.ID, discarded)
	}

	e.saveAnswers(ctx, sess, pending, answers)

	e.phase(sess, domain.PhaseFormFilling)
	outcome := e.Resolver.ApplyAnswers(ctx, jobID, page.Typer(), fields, answers)
	e.logOutcome(sess, outcome)

	return e.finish(ctx, sess, page)
}

// CancelSubmission tears a session down regardless of phase, releasing
// its page. Review and failed states are exited only through this call.
func (e *Engine) CancelSubmission(jobID string) error {
	sess, ok := e.Registry.Get(jobID)
	if !ok {
		return ErrNoSession
	}
	sess.mu.Lock()
	if sess.release != nil {
		sess.release.Stop()
	}
	sess.mu.Unlock()

	e.Driver.Release(jobID)
	e.Registry.Delete(jobID)
	log.Printf("[session:%s] cancelled", sess.ID)
	e.Activity.Log(activity.EventStep, jobID, map[string]string{"step": "cancelled"})
	return nil
}

// clearRoadblocks detects and attempts to clear an auth wall before the
// form is touched. The second return is true when the run cannot proceed
// automatically.
func (e *Engine) clearRoadblocks(ctx context.Context, sess *Session, page PageHandle, profile *domain.Profile) (*domain.Result, bool) {
	text, err := page.Text(ctx)
	if err != nil {
		return e.fail(sess, fmt.Sprintf("read page: %v", err)), true
	}
	kind := auth.Detect(page.URL(), text)
	if kind == auth.RoadblockNone {
		return nil, false
	}

	sess.setStep("clearing " + string(kind) + " roadblock")
	e.Activity.Log(activity.EventStep, sess.JobID, map[string]string{"roadblock": string(kind)})

	if err := page.ClearAuth(ctx, kind, profile); err != nil {
		if errors.Is(err, auth.ErrManualRequired) {
			// Browser stays open; a human signs in, then the caller
			// starts over or cancels.
			return &domain.Result{
				Status: domain.StatusReviewNeeded,
				Reason: "authentication requires manual completion",
			}, true
		}
		return e.fail(sess, fmt.Sprintf("clear %s roadblock: %v", kind, err)), true
	}
	return nil, false
}

// finish runs uploads and the final submit for a session whose text
// fields are done.
func (e *Engine) finish(ctx context.Context, sess *Session, page PageHandle) (*domain.Result, error) {
	sess.mu.Lock()
	fields := sess.fields
	sess.mu.Unlock()

	e.phase(sess, domain.PhaseUploading)
	if e.Uploader != nil {
		if errs := e.Uploader.Upload(ctx, sess.JobID, page.FileSetter(), fields); len(errs) > 0 {
			for _, fe := range errs {
				log.Printf("[session:%s] %v", sess.ID, fe)
			}
		}
	}

	e.phase(sess, domain.PhaseReviewing)
	status, reason, err := e.Verifier.Submit(ctx, page.Submitter(), fields)
	if err != nil {
		return nil, err
	}

	switch status {
	case domain.StatusSubmitted:
		e.phase(sess, domain.PhaseSubmitted)
		if err := e.Store.MarkApplied(ctx, sess.JobID, time.Now()); err != nil {
			log.Printf("[session:%s] mark applied: %v", sess.ID, err)
		}
		e.scheduleRelease(sess)
		return &domain.Result{Status: domain.StatusSubmitted}, nil

	default:
		// The page stays open for a human; explicit cancel releases it.
		return &domain.Result{Status: domain.StatusReviewNeeded, Reason: reason}, nil
	}
}

// saveAnswers upserts flagged answers into the knowledge base so later
// runs resolve the same questions automatically.
func (e *Engine) saveAnswers(ctx context.Context, sess *Session, pending []domain.PendingQuestion, answers []domain.AnswerSubmission) {
	if e.KB == nil {
		return
	}
	byRef := make(map[string]domain.PendingQuestion, len(pending))
	for _, q := range pending {
		byRef[q.FieldRef] = q
	}
	for _, ans := range answers {
		if !ans.SaveForLater {
			continue
		}
		q, ok := byRef[ans.FieldRef]
		if !ok {
			continue
		}
		if _, err := e.KB.Upsert(ctx, q.Question, ans.Answer, q.Category, sess.JobID); err != nil {
			log.Printf("[session:%s] save answer for %q: %v", sess.ID, q.Question, err)
		}
	}
}

// scheduleRelease keeps the submitted page visible briefly, then frees
// the slot without further input.
func (e *Engine) scheduleRelease(sess *Session) {
	grace := e.KeepAlive
	if grace <= 0 {
		grace = 30 * time.Second
	}
	after := e.afterFunc
	if after == nil {
		after = time.AfterFunc
	}
	sess.mu.Lock()
	sess.release = after(grace, func() {
		e.Driver.Release(sess.JobID)
		e.Registry.Delete(sess.JobID)
		log.Printf("[session:%s] released after submission", sess.ID)
	})
	sess.mu.Unlock()
}

func (e *Engine) phase(sess *Session, p domain.Phase) {
	sess.setPhase(p)
	e.Activity.Log(activity.EventPhase, sess.JobID, map[string]string{"phase": string(p)})
	log.Printf("[session:%s] phase %s", sess.ID, p)
}

func (e *Engine) fail(sess *Session, reason string) *domain.Result {
	e.phase(sess, domain.PhaseFailed)
	e.Activity.Log(activity.EventError, sess.JobID, map[string]string{"reason": reason})
	return &domain.Result{Status: domain.StatusFailed, Reason: reason}
}

func (e *Engine) logOutcome(sess *Session, out *resolver.Outcome) {
	sess.setStep(fmt.Sprintf("filled %d fields, %d pending, %d errors",
		out.Filled, len(out.Pending), len(out.Errors)))
	e.Activity.Log(activity.EventStep, sess.JobID, map[string]interface{}{
		"filled": out.Filled, "pending": len(out.Pending), "errors": len(out.Errors),
	})
}
