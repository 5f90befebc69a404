// Package auth detects and attempts to clear login or registration
// roadblocks on the way to a form. It never fabricates credentials: a
// manual checkpoint is always preferred over guessing.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
	"github.com/khansari2403/Auto-Application-sub000/internal/retry"
)

// ErrManualRequired means the roadblock needs a human (password entry or
// an unclearable registration).
var ErrManualRequired = errors.New("auth: manual completion required")

// Roadblock classifies what is blocking the page.
type Roadblock string

const (
	RoadblockNone     Roadblock = ""
	RoadblockLogin    Roadblock = "login"
	RoadblockRegister Roadblock = "register"
)

// MailboxWatcher retrieves a one-time verification code for a user, or
// an error when no unseen code is available yet.
type MailboxWatcher interface {
	FetchVerificationCode(ctx context.Context, userID string) (string, error)
}

// Flow clears authentication roadblocks on a page.
type Flow struct {
	Mail           MailboxWatcher
	Poll           retry.Policy // verification-code polling bound
	ElementTimeout time.Duration
	NavTimeout     time.Duration
}

var loginURLWords = []string{"login", "signin", "sign-in", "auth", "session"}

var loginTextWords = []string{
	"sign in", "log in", "login", "anmelden", "einloggen",
	"connexion", "se connecter", "iniciar sesión", "inloggen", "accedi",
}

var registerURLWords = []string{"register", "signup", "sign-up", "create-account"}

var registerTextWords = []string{
	"sign up", "register", "create account", "create an account",
	"registrieren", "konto erstellen", "s'inscrire", "créer un compte",
	"crear cuenta", "registrati",
}

var otpTextWords = []string{
	"verification code", "verify your email", "one-time", "otp",
	"code sent", "enter the code", "bestätigungscode", "code de vérification",
	"código de verificación", "verificatiecode",
}

// Detect classifies the roadblock from the current URL and the visible
// page text.
func Detect(url, pageText string) Roadblock {
	lowURL := strings.ToLower(url)
	lowText := strings.ToLower(pageText)

	for _, w := range registerURLWords {
		if strings.Contains(lowURL, w) {
			return RoadblockRegister
		}
	}
	for _, w := range loginURLWords {
		if strings.Contains(lowURL, w) {
			return RoadblockLogin
		}
	}
	// Text matches only count when a password control would plausibly be
	// present; pure navigation links ("Log in") on a form page should not
	// trigger the sub-flow, so require a strong phrase.
	for _, w := range registerTextWords {
		if strings.Contains(lowText, w) && strings.Contains(lowText, "password") {
			return RoadblockRegister
		}
	}
	for _, w := range loginTextWords {
		if strings.Contains(lowText, w) && strings.Contains(lowText, "password") {
			return RoadblockLogin
		}
	}
	return RoadblockNone
}

// NeedsVerificationCode reports whether the page text signals an OTP
// prompt.
func NeedsVerificationCode(pageText string) bool {
	low := strings.ToLower(pageText)
	for _, w := range otpTextWords {
		if strings.Contains(low, w) {
			return true
		}
	}
	return false
}

// Clear attempts to get past a detected roadblock. It types the known
// email, retrieves a verification code when one is requested, and stops
// with ErrManualRequired whenever a password would be needed.
func (f *Flow) Clear(ctx context.Context, page *rod.Page, kind Roadblock, profile *domain.Profile) error {
	switch kind {
	case RoadblockLogin:
		return f.clearLogin(ctx, page, profile)
	case RoadblockRegister:
		return f.clearRegistration(ctx, page, profile)
	default:
		return nil
	}
}

func (f *Flow) clearLogin(ctx context.Context, page *rod.Page, profile *domain.Profile) error {
	if el := f.find(ctx, page, `input[type="email"], input[name*="email" i], input[name*="user" i], input[type="text"][id*="email" i]`); el != nil {
		_ = el.SelectAllText()
		_ = el.Input("")
		if err := el.Input(profile.Email); err != nil {
			log.Printf("login email not typed: %v", err)
		}
	}

	text, _ := pageText(ctx, page)
	if NeedsVerificationCode(text) {
		return f.completeWithCode(ctx, page, profile)
	}

	if el := f.find(ctx, page, `input[type="password"]`); el != nil {
		// Never guess a password.
		return fmt.Errorf("%w: password entry on login page", ErrManualRequired)
	}
	return fmt.Errorf("%w: unrecognized login flow", ErrManualRequired)
}

func (f *Flow) clearRegistration(ctx context.Context, page *rod.Page, profile *domain.Profile) error {
	// Best-effort autofill of name and email.
	fills := []struct {
		selector string
		value    string
	}{
		{`input[name*="first" i]`, profile.FirstName},
		{`input[name*="last" i]`, profile.LastName},
		{`input[name*="name" i]:not([name*="first" i]):not([name*="last" i]):not([name*="user" i])`, profile.FullName},
		{`input[type="email"], input[name*="email" i]`, profile.Email},
	}
	for _, fill := range fills {
		if fill.value == "" {
			continue
		}
		if el := f.find(ctx, page, fill.selector); el != nil {
			_ = el.SelectAllText()
			_ = el.Input("")
			_ = el.Input(fill.value)
		}
	}

	if el := f.find(ctx, page, `input[type="password"]`); el != nil {
		return fmt.Errorf("%w: registration requires a password", ErrManualRequired)
	}
	return nil
}

// completeWithCode polls the mailbox for a verification code, types it,
// submits and waits for navigation within the configured bound.
func (f *Flow) completeWithCode(ctx context.Context, page *rod.Page, profile *domain.Profile) error {
	if f.Mail == nil {
		return fmt.Errorf("%w: verification code requested but no mailbox watcher configured", ErrManualRequired)
	}

	var code string
	err := f.Poll.Do(ctx, func(ctx context.Context) (bool, error) {
		c, err := f.Mail.FetchVerificationCode(ctx, profile.UserID)
		if err != nil {
			// No code yet; keep polling.
			return false, nil
		}
		code = c
		return true, nil
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			return fmt.Errorf("verification code did not arrive in time: %w", err)
		}
		return err
	}

	input := f.find(ctx, page, `input[autocomplete="one-time-code"], input[name*="code" i], input[name*="otp" i], input[type="text"]`)
	if input == nil {
		return fmt.Errorf("%w: code input not found", ErrManualRequired)
	}
	_ = input.SelectAllText()
	_ = input.Input("")
	if err := input.Input(code); err != nil {
		return fmt.Errorf("type verification code: %w", err)
	}

	if btn := f.find(ctx, page, `button[type="submit"], input[type="submit"]`); btn != nil {
		if err := btn.Click("left", 1); err != nil {
			return fmt.Errorf("submit verification code: %w", err)
		}
	}

	navTimeout := f.NavTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	if err := page.Timeout(navTimeout).WaitLoad(); err != nil {
		log.Printf("post-verification navigation wait: %v", err)
	}
	return nil
}

// find returns an element within the element timeout, or nil.
func (f *Flow) find(ctx context.Context, page *rod.Page, selector string) *rod.Element {
	timeout := f.ElementTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	el, err := page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return nil
	}
	return el
}

func pageText(ctx context.Context, page *rod.Page) (string, error) {
	res, err := page.Context(ctx).Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil || res == nil {
		return "", err
	}
	return res.Value.String(), nil
}
