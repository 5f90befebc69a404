package resolver

import (
	"strings"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

// profileRule maps a field label onto a profile value. Rules are applied
// in a fixed order; the first match wins.
type profileRule struct {
	name  string
	match func(label string) bool
	value func(p *domain.Profile) string
}

func containsAny(label string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}

// profileRules is the fixed ordered rule set; precedence is full name >
// first/last name > email > phone > city > country > address > current
// title > professional link > summary.
var profileRules = []profileRule{
	{
		name: "full_name",
		match: func(l string) bool {
			return containsAny(l, "full name", "vollständiger name", "nom complet") ||
				l == "name" || containsAny(l, "your name")
		},
		value: func(p *domain.Profile) string { return p.FullName },
	},
	{
		name: "first_name",
		match: func(l string) bool {
			return containsAny(l, "first name", "given name", "vorname", "prénom", "firstname")
		},
		value: func(p *domain.Profile) string { return p.FirstName },
	},
	{
		name: "last_name",
		match: func(l string) bool {
			return containsAny(l, "last name", "surname", "family name", "nachname", "lastname")
		},
		value: func(p *domain.Profile) string { return p.LastName },
	},
	{
		name: "email",
		match: func(l string) bool {
			return containsAny(l, "email", "e-mail", "mail address")
		},
		value: func(p *domain.Profile) string { return p.Email },
	},
	{
		name: "phone",
		match: func(l string) bool {
			return containsAny(l, "phone", "mobile", "telefon", "téléphone", "teléfono")
		},
		value: func(p *domain.Profile) string { return p.Phone },
	},
	{
		name: "city",
		match: func(l string) bool {
			return containsAny(l, "city", "stadt", "ville", "ciudad")
		},
		value: func(p *domain.Profile) string { return p.City },
	},
	{
		name: "country",
		match: func(l string) bool {
			return containsAny(l, "country", "land", "pays", "país")
		},
		value: func(p *domain.Profile) string { return p.Country },
	},
	{
		name: "address",
		match: func(l string) bool {
			return containsAny(l, "address", "street", "adresse", "straße")
		},
		value: func(p *domain.Profile) string { return p.Address },
	},
	{
		name: "current_title",
		match: func(l string) bool {
			return containsAny(l, "current title", "job title", "current position", "current role", "berufsbezeichnung", "headline")
		},
		value: func(p *domain.Profile) string { return p.Title },
	},
	{
		name: "link",
		match: func(l string) bool {
			return containsAny(l, "linkedin", "portfolio", "website", "profile url", "github", "link")
		},
		value: func(p *domain.Profile) string { return p.LinkURL },
	},
	{
		name: "summary",
		match: func(l string) bool {
			return containsAny(l, "summary", "about you", "about yourself", "introduce", "cover note", "über dich")
		},
		value: func(p *domain.Profile) string { return p.Summary },
	},
}

// MapProfile resolves a field label deterministically against the known
// profile. The second return reports whether any rule matched; a rule
// that matches but carries an empty profile value still counts as
// matched, keeping precedence fixed across runs.
func MapProfile(label string, p *domain.Profile) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return "", false
	}
	for _, rule := range profileRules {
		if rule.match(l) {
			return rule.value(p), true
		}
	}
	return "", false
}

// categoryRule buckets a label into a knowledge-base category.
type categoryRule struct {
	category domain.Category
	keywords []string
}

var categoryRules = []categoryRule{
	{domain.CategorySalary, []string{"salary", "compensation", "pay ", "gehalt", "salaire", "wage", "remuneration"}},
	{domain.CategoryAvailability, []string{"start date", "notice period", "availab", "when can you", "earliest", "kündigungsfrist", "verfügbar"}},
	{domain.CategoryVisa, []string{"visa", "sponsorship", "work permit", "work authorization", "citizen", "arbeitserlaubnis", "right to work"}},
	{domain.CategoryEducation, []string{"education", "degree", "university", "school", "diploma", "studium", "abschluss"}},
	{domain.CategorySkills, []string{"skill", "technolog", "programming", "framework", "language", "tools", "kenntnisse"}},
	{domain.CategoryExperience, []string{"experience", "years", "worked", "previous role", "erfahrung", "expérience", "background"}},
	{domain.CategoryPersonal, []string{"name", "email", "phone", "address", "city", "country", "birth", "gender", "pronoun"}},
}

// Categorize assigns a knowledge-base category to a field label.
func Categorize(label string) domain.Category {
	l := strings.ToLower(label)
	for _, rule := range categoryRules {
		if containsAny(l, rule.keywords...) {
			return rule.category
		}
	}
	return domain.CategoryOther
}

// DeriveQuestion turns a field into the question a human would be asked.
func DeriveQuestion(field domain.DiscoveredField) string {
	if field.Question != "" {
		return field.Question
	}
	label := strings.TrimSpace(field.Label)
	if label == "" {
		return ""
	}
	if strings.HasSuffix(label, "?") {
		return label
	}
	return label + "?"
}
