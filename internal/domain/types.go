package domain

import "time"

// FieldOrigin tags where a discovered field came from.
type FieldOrigin string

const (
	OriginStructural FieldOrigin = "structural"
	OriginVision     FieldOrigin = "vision"
)

// FieldKind classifies a form control.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindEmail    FieldKind = "email"
	KindPhone    FieldKind = "phone"
	KindSelect   FieldKind = "select"
	KindCheckbox FieldKind = "checkbox"
	KindFile     FieldKind = "file"
	KindSubmit   FieldKind = "submit"
)

// Category buckets a question for knowledge-base lookup.
type Category string

const (
	CategoryPersonal     Category = "personal"
	CategoryExperience   Category = "experience"
	CategoryAvailability Category = "availability"
	CategorySalary       Category = "salary"
	CategoryVisa         Category = "visa"
	CategoryEducation    Category = "education"
	CategorySkills       Category = "skills"
	CategoryOther        Category = "other"
)

// DiscoveredField is one form control found on a live page. Fields are
// ephemeral: they live only as long as the session that discovered them.
type DiscoveredField struct {
	Origin   FieldOrigin `json:"origin"`
	Kind     FieldKind   `json:"kind"`
	Label    string      `json:"label"`
	Ref      string      `json:"ref"`      // selector-style reference, empty for vision-only fields
	X        float64     `json:"x"`        // viewport coordinates (center for structural fields)
	Y        float64     `json:"y"`
	Required bool        `json:"required"`
	Options  []string    `json:"options,omitempty"`  // choice fields only
	Question string      `json:"question,omitempty"` // vision-inferred natural-language question
	Category Category    `json:"category,omitempty"` // vision-inferred category
}

// PendingQuestion is a field the engine could not resolve and must ask a
// human about.
type PendingQuestion struct {
	FieldRef string   `json:"field_ref"`
	Question string   `json:"question"`
	Category Category `json:"category"`
	Options  []string `json:"options,omitempty"`
}

// AnswerSubmission carries a human answer back into a suspended session.
type AnswerSubmission struct {
	FieldRef     string `json:"field_ref"`
	Answer       string `json:"answer"`
	SaveForLater bool   `json:"save_for_later"`
}

// DocumentType identifies a generated application artifact.
type DocumentType string

const (
	DocResume      DocumentType = "resume"
	DocCoverLetter DocumentType = "cover_letter"
	DocMotivation  DocumentType = "motivation_letter"
	DocPortfolio   DocumentType = "portfolio"
)

// Profile holds the known applicant data used for deterministic field
// mapping.
type Profile struct {
	UserID    string
	FullName  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	City      string
	Country   string
	Address   string
	Title     string
	LinkURL   string // professional link (LinkedIn, portfolio site)
	Summary   string
}

// Job is the record produced by the posting extractor that this engine
// consumes.
type Job struct {
	ID        string
	UserID    string
	Title     string
	Company   string
	ApplyURL  string
	Status    string
	AppliedAt *time.Time
	CreatedAt time.Time
}

// Phase is the session state machine position.
type Phase string

const (
	PhaseStarted          Phase = "started"
	PhaseFormFilling      Phase = "form_filling"
	PhaseQuestionsPending Phase = "questions_pending"
	PhaseUploading        Phase = "uploading"
	PhaseReviewing        Phase = "reviewing"
	PhaseSubmitted        Phase = "submitted"
	PhaseFailed           Phase = "failed"
)

// SubmissionStatus is the outcome reported across the engine boundary.
type SubmissionStatus string

const (
	StatusQuestionsPending SubmissionStatus = "questions_pending"
	StatusReviewNeeded     SubmissionStatus = "review_needed"
	StatusSubmitted        SubmissionStatus = "submitted"
	StatusFailed           SubmissionStatus = "failed"
)

// Result is returned by start/continue calls on the engine boundary.
type Result struct {
	Status           SubmissionStatus  `json:"status"`
	PendingQuestions []PendingQuestion `json:"pending_questions,omitempty"`
	Reason           string            `json:"reason,omitempty"`
}
