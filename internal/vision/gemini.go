// Package vision interprets a full-page screenshot with a Gemini model,
// enumerating form fields the structural scan cannot see.
package vision

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

const prompt = `You are looking at a screenshot of a job application form.
List every form field a candidate must fill in, including custom widgets
that are not native inputs. For open-ended prompts, phrase the question a
human would answer and categorize it.

Respond with ONLY a JSON array, no prose, where each element is:
{"field": "<short label>", "type": "text|email|phone|select|checkbox|file|submit",
 "required": true|false, "x": <number>, "y": <number>,
 "question": "<natural-language question, optional>",
 "category": "personal|experience|availability|salary|visa|education|skills|other"}

Coordinates are pixels from the top-left of the screenshot, pointing at
the center of the control.

Known fields already detected (do not invent duplicates far from their
real position):
%s`

// Gemini calls the vision model with retry/backoff. It implements
// discovery.VisionModel.
type Gemini struct {
	client     *genai.Client
	model      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	timeout    time.Duration
}

// NewGemini builds a client against the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("vision: API key not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("vision: create client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Gemini{
		client:     client,
		model:      model,
		maxRetries: 3,
		baseDelay:  time.Second,
		maxDelay:   30 * time.Second,
		timeout:    timeout,
	}, nil
}

// DescribeForm sends the screenshot plus a structural field summary and
// parses the returned field list. Any parse failure surfaces as an error
// so discovery can degrade to structural-only results.
func (g *Gemini) DescribeForm(ctx context.Context, screenshot []byte, structural []domain.DiscoveredField) ([]domain.DiscoveredField, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(screenshot, "image/png"),
		genai.NewPartFromText(fmt.Sprintf(prompt, summarize(structural))),
	}, genai.RoleUser)}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			delay := g.calculateBackoff(attempt)
			log.Printf("vision retry %d/%d after %v", attempt, g.maxRetries, delay)
			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return nil, fmt.Errorf("vision: timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := g.client.Models.GenerateContent(timeoutCtx, g.model, contents, genConfig)
		if err == nil {
			return parseFields(result.Text())
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, fmt.Errorf("vision: generate content: %w", err)
		}
		log.Printf("vision retryable error on attempt %d: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("vision: max retries exceeded: %w", lastErr)
}

func (g *Gemini) calculateBackoff(attempt int) time.Duration {
	delay := g.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > g.maxDelay {
		delay = g.maxDelay
	}
	return delay
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "context canceled") ||
		strings.Contains(msg, "context deadline exceeded") {
		return false
	}
	if apiErr, ok := err.(*genai.APIError); ok {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "EOF")
}

func summarize(fields []domain.DiscoveredField) string {
	if len(fields) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s %q at (%.0f, %.0f)\n", f.Kind, f.Label, f.X, f.Y)
	}
	return b.String()
}

// parseFields tolerantly extracts the field array from model output,
// which may be wrapped in markdown fences or prose.
func parseFields(text string) ([]domain.DiscoveredField, error) {
	raw := extractJSONArray(text)
	if raw == "" {
		return nil, fmt.Errorf("vision: no JSON array in model output")
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("vision: model output is not an array")
	}

	var fields []domain.DiscoveredField
	for _, item := range parsed.Array() {
		label := item.Get("field").String()
		if label == "" {
			continue
		}
		fields = append(fields, domain.DiscoveredField{
			Origin:   domain.OriginVision,
			Kind:     normalizeKind(item.Get("type").String()),
			Label:    label,
			X:        item.Get("x").Float(),
			Y:        item.Get("y").Float(),
			Required: item.Get("required").Bool(),
			Question: item.Get("question").String(),
			Category: normalizeCategory(item.Get("category").String()),
		})
	}
	return fields, nil
}

func extractJSONArray(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func normalizeKind(raw string) domain.FieldKind {
	switch domain.FieldKind(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.KindEmail:
		return domain.KindEmail
	case domain.KindPhone:
		return domain.KindPhone
	case domain.KindSelect:
		return domain.KindSelect
	case domain.KindCheckbox:
		return domain.KindCheckbox
	case domain.KindFile:
		return domain.KindFile
	case domain.KindSubmit:
		return domain.KindSubmit
	default:
		return domain.KindText
	}
}

func normalizeCategory(raw string) domain.Category {
	switch domain.Category(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.CategoryPersonal:
		return domain.CategoryPersonal
	case domain.CategoryExperience:
		return domain.CategoryExperience
	case domain.CategoryAvailability:
		return domain.CategoryAvailability
	case domain.CategorySalary:
		return domain.CategorySalary
	case domain.CategoryVisa:
		return domain.CategoryVisa
	case domain.CategoryEducation:
		return domain.CategoryEducation
	case domain.CategorySkills:
		return domain.CategorySkills
	default:
		return domain.CategoryOther
	}
}
