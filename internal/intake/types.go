package intake

import "time"

// SubmissionRequest is a normalized, validated intake ready for persistence.
type SubmissionRequest struct {
	Name         string
	Email        string
	Destinations string
	StartDate    *string
	EndDate      *string
	Notes        *string
}

// SubmissionRecord is the stored row, as returned by the store.
type SubmissionRecord struct {
	ID           string    `json:"id"           db:"id"`
	Name         string    `json:"name"         db:"name"`
	Email        string    `json:"email"        db:"email"`
	Destinations string    `json:"destinations" db:"destinations"`
	StartDate    *string   `json:"start_date"   db:"start_date"`
	EndDate      *string   `json:"end_date"     db:"end_date"`
	Notes        *string   `json:"notes"        db:"notes"`
	CreatedAt    time.Time `json:"created_at"   db:"created_at"`
}

// Response is the JSON body written for every intake outcome.
type Response struct {
	OK          bool              `json:"ok"`
	Saved       *SubmissionRecord `json:"saved,omitempty"`
	MailWarning string            `json:"mailWarning,omitempty"`
	Error       string            `json:"error,omitempty"`
	Errors      []string          `json:"errors,omitempty"`
}

// CapturedEvent is published after a submission has been stored.
type CapturedEvent struct {
	Type         string    `json:"type"`
	Surface      string    `json:"surface"`
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Destinations string    `json:"destinations"`
	CreatedAt    time.Time `json:"created_at"`
	MailOK       bool      `json:"mail_ok"`
}
