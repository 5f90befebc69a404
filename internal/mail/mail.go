// Package mail is the default mailbox watcher: it polls an inbox HTTP
// API for unseen messages and digs verification codes out of them.
package mail

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/khansari2403/Auto-Application-sub000/internal/activity"
)

// ErrNoCode means no unseen message carried a verification token.
var ErrNoCode = errors.New("mail: no verification code available")

// codePattern matches a 4-8 digit numeric token.
var codePattern = regexp.MustCompile(`\b(\d{4,8})\b`)

// Client talks to an inbox service exposing unseen messages as JSON:
//
//	GET {base}/api/messages?user=<id>&unseen=true
//	POST {base}/api/messages/<id>/seen
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, token string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(20 * time.Second)
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c}
}

// FetchVerificationCode returns the token from the newest unseen message
// containing one, marking that message seen so it is not replayed.
func (c *Client) FetchVerificationCode(ctx context.Context, userID string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("user", userID).
		SetQueryParam("unseen", "true").
		Get("/api/messages")
	if err != nil {
		return "", fmt.Errorf("mail: fetch messages: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return "", fmt.Errorf("mail: inbox HTTP %d", resp.StatusCode())
	}

	for _, msg := range gjson.Get(resp.String(), "messages").Array() {
		code := ExtractCode(msg.Get("subject").String() + "\n" + msg.Get("body").String())
		if code == "" {
			continue
		}
		if id := msg.Get("id").String(); id != "" {
			_, _ = c.http.R().SetContext(ctx).Post("/api/messages/" + id + "/seen")
		}
		return code, nil
	}
	return "", ErrNoCode
}

// ExtractCode pulls the first 4-8 digit numeric token out of a message.
func ExtractCode(text string) string {
	m := codePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

var confirmationWords = []string{
	"thank you for applying", "application received", "we received your application",
	"bewerbung erhalten", "candidature reçue", "recibimos tu solicitud",
}

// WatchConfirmation polls the inbox in the background for a confirmation
// reply and mirrors a found one to the activity sink. Best-effort only:
// it stops silently on context cancellation or after the given bound.
func (c *Client) WatchConfirmation(ctx context.Context, sink activity.Sink, jobID, userID string, interval, bound time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		deadline := time.Now().Add(bound)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if bound > 0 && time.Now().After(deadline) {
				return
			}

			resp, err := c.http.R().
				SetContext(ctx).
				SetQueryParam("user", userID).
				Get("/api/messages")
			if err != nil || resp.StatusCode() >= 400 {
				continue
			}
			for _, msg := range gjson.Get(resp.String(), "messages").Array() {
				text := msg.Get("subject").String() + "\n" + msg.Get("body").String()
				if containsConfirmation(text) {
					sink.Log(activity.EventMail, jobID, map[string]string{
						"kind":    "confirmation",
						"subject": msg.Get("subject").String(),
					})
					return
				}
			}
		}
	}()
}

func containsConfirmation(text string) bool {
	low := strings.ToLower(text)
	for _, w := range confirmationWords {
		if strings.Contains(low, w) {
			return true
		}
	}
	return false
}
