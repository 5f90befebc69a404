// Package verify triggers the submit control and checks whether the
// page acknowledged the application.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
	"github.com/khansari2403/Auto-Application-sub000/internal/retry"
)

// Submitter is the page surface verification needs: click a discovered
// control and read the rendered text afterwards.
type Submitter interface {
	Click(ctx context.Context, field domain.DiscoveredField) error
	Text(ctx context.Context) (string, error)
}

var confirmationPhrases = []string{
	"thank you", "thanks for applying", "application received",
	"application submitted", "successfully submitted", "we have received",
	"your application has been",
	"vielen dank", "bewerbung eingegangen", "erfolgreich gesendet",
	"merci", "candidature envoyée",
	"gracias", "solicitud enviada",
	"bedankt", "sollicitatie ontvangen",
	"grazie", "candidatura inviata",
}

// Confirmed reports whether page text reads like a submission
// acknowledgement.
func Confirmed(text string) bool {
	low := strings.ToLower(text)
	for _, p := range confirmationPhrases {
		if strings.Contains(low, p) {
			return true
		}
	}
	return false
}

// Verifier submits the form and classifies the outcome.
type Verifier struct {
	Settle  time.Duration // wait after the click before reading the page
	Sleeper retry.SleepFunc
}

func New(settle time.Duration) *Verifier {
	if settle <= 0 {
		settle = 3 * time.Second
	}
	return &Verifier{Settle: settle, Sleeper: retry.Sleep}
}

// Submit clicks the discovered submit control and waits for the page to
// settle, then scans the result. Without a submit control, or without a
// recognizable acknowledgement, the outcome is review_needed so a human
// finishes the submission by hand.
func (v *Verifier) Submit(ctx context.Context, page Submitter, fields []domain.DiscoveredField) (domain.SubmissionStatus, string, error) {
	submit, ok := findSubmit(fields)
	if !ok {
		return domain.StatusReviewNeeded, "no submit control discovered", nil
	}

	if err := page.Click(ctx, submit); err != nil {
		return domain.StatusReviewNeeded, fmt.Sprintf("submit click failed: %v", err), nil
	}

	if err := v.Sleeper(ctx, v.Settle); err != nil {
		return domain.StatusFailed, "", err
	}

	text, err := page.Text(ctx)
	if err != nil {
		return domain.StatusReviewNeeded, fmt.Sprintf("page unreadable after submit: %v", err), nil
	}
	if Confirmed(text) {
		return domain.StatusSubmitted, "", nil
	}
	return domain.StatusReviewNeeded, "no confirmation message found", nil
}

func findSubmit(fields []domain.DiscoveredField) (domain.DiscoveredField, bool) {
	for _, f := range fields {
		if f.Kind == domain.KindSubmit {
			return f, true
		}
	}
	return domain.DiscoveredField{}, false
}
