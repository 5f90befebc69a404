// Package attach matches file-upload fields to application documents
// and performs the uploads.
package attach

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/khansari2403/Auto-Application-sub000/internal/activity"
	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

// Pipeline yields the available renderings of a document for a job in
// preference order.
type Pipeline interface {
	Renderings(jobID string, doc domain.DocumentType) ([]string, error)
}

// FileSetter attaches a local file to an upload field.
type FileSetter interface {
	SetFiles(ctx context.Context, field domain.DiscoveredField, path string) error
}

// FieldError records an upload that could not be completed.
type FieldError struct {
	FieldRef string
	Err      error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("attach %s: %v", e.FieldRef, e.Err)
}

var docKeywords = []struct {
	doc   domain.DocumentType
	words []string
}{
	// motivation before cover letter so "lettre de motivation" is not
	// swallowed by the broader letter keywords
	{domain.DocMotivation, []string{"motivation", "motivazione", "motivatie"}},
	{domain.DocCoverLetter, []string{"cover letter", "coverletter", "anschreiben", "begleitschreiben", "carta de presentación"}},
	{domain.DocResume, []string{"resume", "résumé", "cv", "curriculum", "lebenslauf"}},
	{domain.DocPortfolio, []string{"portfolio", "work sample", "arbeitsprobe"}},
}

// Classify maps an upload field's label to a document type. The second
// return is false when no keyword matches.
func Classify(label string) (domain.DocumentType, bool) {
	low := strings.ToLower(label)
	for _, rule := range docKeywords {
		for _, w := range rule.words {
			if strings.Contains(low, w) {
				return rule.doc, true
			}
		}
	}
	return "", false
}

// Uploader fills the file inputs among discovered fields.
type Uploader struct {
	Docs     Pipeline
	Activity activity.Sink
}

// Upload attaches a document to every classifiable file field. A field
// that fails is recorded and the rest continue; renderings are tried in
// order until one is accepted.
func (u *Uploader) Upload(ctx context.Context, jobID string, setter FileSetter, fields []domain.DiscoveredField) []FieldError {
	var errs []FieldError
	for _, f := range fields {
		if f.Kind != domain.KindFile {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, FieldError{FieldRef: f.Ref, Err: err})
			return errs
		}

		doc, ok := Classify(f.Label)
		if !ok {
			log.Printf("[job:%s] upload field %q not recognized, skipping", jobID, f.Label)
			continue
		}

		paths, err := u.Docs.Renderings(jobID, doc)
		if err != nil {
			errs = append(errs, FieldError{FieldRef: f.Ref, Err: err})
			continue
		}

		var lastErr error
		attached := ""
		for _, p := range paths {
			if lastErr = setter.SetFiles(ctx, f, p); lastErr == nil {
				attached = p
				break
			}
			log.Printf("[job:%s] upload %s rejected %s, trying alternate: %v", jobID, f.Ref, p, lastErr)
		}
		if attached == "" {
			errs = append(errs, FieldError{FieldRef: f.Ref, Err: lastErr})
			continue
		}
		if u.Activity != nil {
			u.Activity.Log(activity.EventAttachment, jobID, map[string]string{
				"field": f.Ref,
				"doc":   string(doc),
				"path":  attached,
			})
		}
	}
	return errs
}
