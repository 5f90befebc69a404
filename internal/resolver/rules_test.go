package resolver

import (
	"testing"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

var testProfile = &domain.Profile{
	FullName:  "Jane Doe",
	FirstName: "Jane",
	LastName:  "Doe",
	Email:     "jane@example.com",
	Phone:     "+49 151 1234567",
	City:      "Berlin",
	Country:   "Germany",
	Address:   "Example Str. 1",
	Title:     "Backend Engineer",
	LinkURL:   "https://linkedin.com/in/janedoe",
	Summary:   "Engineer with 8 years of Go experience.",
}

func TestMapProfilePrecedence(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"Full Name", "Jane Doe"},
		{"Name", "Jane Doe"},
		{"First name *", "Jane"},
		{"Vorname", "Jane"},
		{"Last Name", "Doe"},
		{"Email Address", "jane@example.com"},
		{"E-Mail", "jane@example.com"},
		{"Phone number", "+49 151 1234567"},
		{"City", "Berlin"},
		{"Country of residence", "Germany"},
		{"Street address", "Example Str. 1"},
		{"Current job title", "Backend Engineer"},
		{"LinkedIn profile", "https://linkedin.com/in/janedoe"},
		{"Tell us about yourself", "Engineer with 8 years of Go experience."},
	}

	for _, tc := range cases {
		got, ok := MapProfile(tc.label, testProfile)
		if !ok {
			t.Errorf("MapProfile(%q): expected a match", tc.label)
			continue
		}
		if got != tc.want {
			t.Errorf("MapProfile(%q) = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestMapProfileDeterministic(t *testing.T) {
	// "First name" also contains "name"; the ordered rule set must land on
	// the first-name rule every run.
	for i := 0; i < 10; i++ {
		got, ok := MapProfile("First Name", testProfile)
		if !ok || got != "Jane" {
			t.Fatalf("run %d: MapProfile(First Name) = %q, %v", i, got, ok)
		}
	}
}

func TestMapProfileNoMatch(t *testing.T) {
	if _, ok := MapProfile("What are your salary expectations?", testProfile); ok {
		t.Error("salary question must not map to the profile")
	}
	if _, ok := MapProfile("", testProfile); ok {
		t.Error("empty label must not match")
	}
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		label string
		want  domain.Category
	}{
		{"What are your salary expectations?", domain.CategorySalary},
		{"Earliest start date", domain.CategoryAvailability},
		{"Notice period", domain.CategoryAvailability},
		{"Do you require visa sponsorship?", domain.CategoryVisa},
		{"Highest degree obtained", domain.CategoryEducation},
		{"Programming languages you know", domain.CategorySkills},
		{"Years of experience with Go", domain.CategoryExperience},
		{"Phone number", domain.CategoryPersonal},
		{"Favourite color", domain.CategoryOther},
	}
	for _, tc := range cases {
		if got := Categorize(tc.label); got != tc.want {
			t.Errorf("Categorize(%q) = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestDeriveQuestion(t *testing.T) {
	f := domain.DiscoveredField{Label: "Notice period"}
	if got := DeriveQuestion(f); got != "Notice period?" {
		t.Errorf("expected question mark appended, got %q", got)
	}

	f.Question = "What is your notice period?"
	if got := DeriveQuestion(f); got != "What is your notice period?" {
		t.Errorf("expected inferred question to win, got %q", got)
	}

	if got := DeriveQuestion(domain.DiscoveredField{}); got != "" {
		t.Errorf("expected empty question for unlabeled field, got %q", got)
	}
}
