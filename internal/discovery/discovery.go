// Package discovery produces the unified field list for a live form
// page: a structural DOM scan fused with an optional AI-vision pass over
// a screenshot.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

// fuseRadius is the pixel distance (on both axes) under which a
// vision-suggested field is considered a duplicate of a structural one.
const fuseRadius = 50.0

// VisionModel enumerates form fields from a screenshot. Implementations
// must tolerate arbitrary pages; errors degrade discovery to
// structural-only results.
type VisionModel interface {
	DescribeForm(ctx context.Context, screenshot []byte, structural []domain.DiscoveredField) ([]domain.DiscoveredField, error)
}

// Scanner runs the structural scan and, when a vision model is injected,
// the fusion pass.
type Scanner struct {
	Vision VisionModel // nil disables the vision pass
}

// Discover returns the fused field list for the page. The structural scan
// is authoritative; a vision failure never aborts discovery.
func (s *Scanner) Discover(ctx context.Context, page *rod.Page) ([]domain.DiscoveredField, error) {
	structural, err := s.scanStructural(ctx, page)
	if err != nil {
		return nil, err
	}

	if s.Vision == nil {
		return structural, nil
	}

	shot, err := page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		log.Printf("vision pass skipped: screenshot failed: %v", err)
		return structural, nil
	}

	visionFields, err := s.Vision.DescribeForm(ctx, shot, structural)
	if err != nil {
		log.Printf("vision pass skipped: %v", err)
		return structural, nil
	}

	return Fuse(structural, visionFields), nil
}

// Fuse appends vision fields that are not within fuseRadius (on both
// axes) of an already-known structural field.
func Fuse(structural, vision []domain.DiscoveredField) []domain.DiscoveredField {
	out := make([]domain.DiscoveredField, len(structural))
	copy(out, structural)

	for _, vf := range vision {
		duplicate := false
		for _, sf := range structural {
			if math.Abs(vf.X-sf.X) <= fuseRadius && math.Abs(vf.Y-sf.Y) <= fuseRadius {
				duplicate = true
				break
			}
		}
		if !duplicate {
			vf.Origin = domain.OriginVision
			if vf.Ref == "" {
				// Vision fields have no selector; a coordinate ref keeps them
				// addressable by answers and by the typer.
				vf.Ref = fmt.Sprintf("vision:%.0f,%.0f", vf.X, vf.Y)
			}
			out = append(out, vf)
		}
	}
	return out
}

// scannedField mirrors the JSON shape produced by the in-page scan.
type scannedField struct {
	Kind     string   `json:"kind"`
	Label    string   `json:"label"`
	Ref      string   `json:"ref"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

// scanStructural enumerates every visible input-like control plus upload
// and submit controls. Labels follow the precedence: associated label
// element > placeholder > name/id attribute > accessible label. Each
// element is tagged with a stable data attribute so later typing can find
// it again.
func (s *Scanner) scanStructural(ctx context.Context, page *rod.Page) ([]domain.DiscoveredField, error) {
	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS: `
		() => {
			const isVisible = (el) => {
				const rect = el.getBoundingClientRect();
				const style = getComputedStyle(el);
				return rect.width > 0 && rect.height > 0 &&
					style.display !== 'none' && style.visibility !== 'hidden' &&
					style.opacity !== '0';
			};

			const labelFor = (el) => {
				if (el.id) {
					const lab = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
					if (lab && lab.innerText.trim()) return lab.innerText.trim();
				}
				const wrap = el.closest('label');
				if (wrap && wrap.innerText.trim()) return wrap.innerText.trim();
				if (el.placeholder && el.placeholder.trim()) return el.placeholder.trim();
				if (el.name) return el.name;
				if (el.id) return el.id;
				const aria = el.getAttribute('aria-label');
				if (aria && aria.trim()) return aria.trim();
				return '';
			};

			const kindOf = (el) => {
				const tag = el.tagName.toLowerCase();
				if (tag === 'select') return 'select';
				if (tag === 'textarea') return 'text';
				const type = (el.type || 'text').toLowerCase();
				if (type === 'email') return 'email';
				if (type === 'tel') return 'phone';
				if (type === 'checkbox' || type === 'radio') return 'checkbox';
				if (type === 'file') return 'file';
				if (type === 'submit') return 'submit';
				return 'text';
			};

			let counter = 0;
			const refFor = (el) => {
				if (el.id) return '#' + CSS.escape(el.id);
				if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';
				const tag = 'aa-' + (counter++);
				el.setAttribute('data-autoapply-ref', tag);
				return '[data-autoapply-ref="' + tag + '"]';
			};

			const fields = [];
			const selector = 'input:not([type="hidden"]), textarea, select';
			document.querySelectorAll(selector).forEach((el) => {
				if (!isVisible(el)) return;
				const rect = el.getBoundingClientRect();
				const field = {
					kind: kindOf(el),
					label: labelFor(el).replace(/\s+/g, ' ').substring(0, 200),
					ref: refFor(el),
					x: Math.round(rect.x + rect.width / 2),
					y: Math.round(rect.y + rect.height / 2),
					required: !!el.required || el.getAttribute('aria-required') === 'true',
					options: []
				};
				if (el.tagName.toLowerCase() === 'select') {
					field.options = Array.from(el.options).map(o => o.text.trim()).filter(Boolean);
				}
				fields.push(field);
			});

			// The submit control: explicit submit inputs first, then buttons
			// whose text looks like a submission trigger.
			const submitWords = /submit|apply|send|bewerben|absenden|senden|postuler|envoyer|enviar|solliciteer|invia/i;
			const buttons = Array.from(document.querySelectorAll('button, input[type="submit"], [role="button"]'));
			let submit = buttons.find(b => (b.type || '').toLowerCase() === 'submit' && isVisible(b));
			if (!submit) {
				submit = buttons.find(b => isVisible(b) && submitWords.test(b.innerText || b.value || ''));
			}
			if (submit) {
				const rect = submit.getBoundingClientRect();
				fields.push({
					kind: 'submit',
					label: (submit.innerText || submit.value || 'submit').trim().substring(0, 100),
					ref: refFor(submit),
					x: Math.round(rect.x + rect.width / 2),
					y: Math.round(rect.y + rect.height / 2),
					required: false,
					options: []
				});
			}
			return fields;
		}
		`,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil {
		return nil, err
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var scanned []scannedField
	if err := json.Unmarshal(raw, &scanned); err != nil {
		return nil, err
	}

	fields := make([]domain.DiscoveredField, 0, len(scanned))
	for _, f := range scanned {
		fields = append(fields, domain.DiscoveredField{
			Origin:   domain.OriginStructural,
			Kind:     domain.FieldKind(f.Kind),
			Label:    f.Label,
			Ref:      f.Ref,
			X:        f.X,
			Y:        f.Y,
			Required: f.Required,
			Options:  f.Options,
		})
	}
	return fields, nil
}
