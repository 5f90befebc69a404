// Package resolver maps discovered form fields to known values and types
// them into the live page, escalating anything unresolved to a human.
package resolver

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/khansari2403/Auto-Application-sub000/internal/activity"
	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
	"github.com/khansari2403/Auto-Application-sub000/internal/knowledge"
	"github.com/khansari2403/Auto-Application-sub000/internal/retry"
)

// Typer writes one value into a live form control. The rod-backed
// implementation lives in typer.go; tests inject fakes.
type Typer interface {
	Type(ctx context.Context, field domain.DiscoveredField, value string) error
}

// FieldError records a single control that could not be filled. Field
// errors never abort the run.
type FieldError struct {
	FieldRef string
	Err      error
}

// Outcome summarizes one resolution pass.
type Outcome struct {
	Filled  int
	Pending []domain.PendingQuestion
	Errors  []FieldError
}

// Resolver resolves non-file fields in the fixed order: deterministic
// profile mapping, knowledge-base lookup, escalation.
type Resolver struct {
	KB       *knowledge.Store
	Activity activity.Sink

	// Pacing between typed fields, randomized per field.
	DelayMin time.Duration
	DelayMax time.Duration
	Sleeper  retry.SleepFunc // nil means real time

	rng *rand.Rand
}

func New(kb *knowledge.Store, sink activity.Sink, delayMin, delayMax time.Duration) *Resolver {
	if sink == nil {
		sink = activity.LogSink{}
	}
	return &Resolver{
		KB:       kb,
		Activity: sink,
		DelayMin: delayMin,
		DelayMax: delayMax,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Resolve walks every non-submit, non-file field sequentially, typing
// resolved values with randomized pacing. Unresolved required fields and
// fields carrying an inferred question become pending questions; other
// unresolved fields are skipped silently.
func (r *Resolver) Resolve(ctx context.Context, jobID string, typer Typer, fields []domain.DiscoveredField, profile *domain.Profile) (*Outcome, error) {
	out := &Outcome{}

	for _, field := range fields {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if field.Kind == domain.KindSubmit || field.Kind == domain.KindFile {
			continue
		}

		value, resolved := r.resolveValue(ctx, field, profile)
		if !resolved {
			if q := r.escalate(field); q != nil {
				out.Pending = append(out.Pending, *q)
			}
			continue
		}
		if value == "" {
			// A matching rule with an empty profile value: nothing to type.
			continue
		}

		if err := r.typeValue(ctx, jobID, typer, field, value); err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			out.Errors = append(out.Errors, FieldError{FieldRef: field.Ref, Err: err})
			continue
		}
		out.Filled++
	}
	return out, nil
}

// resolveValue applies the fixed resolution order: profile rules first,
// then a same-category knowledge-base search.
func (r *Resolver) resolveValue(ctx context.Context, field domain.DiscoveredField, profile *domain.Profile) (string, bool) {
	if value, ok := MapProfile(field.Label, profile); ok {
		return value, true
	}

	if r.KB == nil {
		return "", false
	}
	question := DeriveQuestion(field)
	if question == "" {
		return "", false
	}
	category := field.Category
	if category == "" {
		category = Categorize(field.Label)
	}
	entry, err := r.KB.Find(ctx, question, category)
	if err != nil {
		if !errors.Is(err, knowledge.ErrNotFound) {
			log.Printf("knowledge lookup for %q failed: %v", question, err)
		}
		return "", false
	}
	return entry.Answer, true
}

// escalate builds a pending question for an unresolved field, or nil when
// the field may be skipped silently.
func (r *Resolver) escalate(field domain.DiscoveredField) *domain.PendingQuestion {
	if !field.Required && field.Question == "" {
		return nil
	}
	question := DeriveQuestion(field)
	if question == "" {
		return nil
	}
	category := field.Category
	if category == "" {
		category = Categorize(field.Label)
	}
	return &domain.PendingQuestion{
		FieldRef: field.Ref,
		Question: question,
		Category: category,
		Options:  field.Options,
	}
}

// ApplyAnswers types human-supplied answers into their fields. Unknown
// field refs are recorded as field errors; typing failures do not abort
// the remaining answers.
func (r *Resolver) ApplyAnswers(ctx context.Context, jobID string, typer Typer, fields []domain.DiscoveredField, answers []domain.AnswerSubmission) *Outcome {
	byRef := make(map[string]domain.DiscoveredField, len(fields))
	for _, f := range fields {
		byRef[f.Ref] = f
	}

	out := &Outcome{}
	for _, ans := range answers {
		field, ok := byRef[ans.FieldRef]
		if !ok {
			out.Errors = append(out.Errors, FieldError{
				FieldRef: ans.FieldRef,
				Err:      errors.New("no discovered field with this ref"),
			})
			continue
		}
		if err := r.typeValue(ctx, jobID, typer, field, ans.Answer); err != nil {
			out.Errors = append(out.Errors, FieldError{FieldRef: ans.FieldRef, Err: err})
			continue
		}
		out.Filled++
	}
	return out
}

func (r *Resolver) typeValue(ctx context.Context, jobID string, typer Typer, field domain.DiscoveredField, value string) error {
	if err := r.pace(ctx); err != nil {
		return err
	}
	if err := typer.Type(ctx, field, value); err != nil {
		r.Activity.Log(activity.EventFieldError, jobID, map[string]string{
			"field": field.Ref, "label": field.Label, "error": err.Error(),
		})
		log.Printf("[job:%s] field %q not filled: %v", jobID, field.Label, err)
		return err
	}
	return nil
}

// pace sleeps a randomized interval between fields to emulate human
// timing.
func (r *Resolver) pace(ctx context.Context) error {
	if r.DelayMax <= 0 {
		return nil
	}
	d := r.DelayMin
	if span := r.DelayMax - r.DelayMin; span > 0 {
		d += time.Duration(r.rng.Int63n(int64(span)))
	}
	sleep := r.Sleeper
	if sleep == nil {
		sleep = retry.Sleep
	}
	return sleep(ctx, d)
}
