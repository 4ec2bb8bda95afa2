package domain

import "time"

// Criteria are the derived search parameters used to find candidate
// resumes for a vacancy.
type Criteria struct {
	Position   string   `json:"position"`
	Keywords   []string `json:"keywords"`
	MustHave   []string `json:"must_have,omitempty"`
	Exclusions []string `json:"exclusions,omitempty"`
}

// ResumeLead is one candidate resume as it comes off a board, before it
// is persisted.
type ResumeLead struct {
	ApplicantID string
	Name        string
	Title       string
	ResumeText  string
	URL         string
	PostedAt    *time.Time
	Source      string // board/email
}

// NegotiationUpdate is a single applicant response state pulled from
// the board API.
type NegotiationUpdate struct {
	ApplicantID string `json:"applicant_id"`
	State       string `json:"state"`
}

// VideoStatusUpdate reports whether an applicant has submitted their
// intro video for a vacancy.
type VideoStatusUpdate struct {
	ApplicantID string `json:"applicant_id"`
	Status      string `json:"status"` // none|requested|received
}
