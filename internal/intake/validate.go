package intake

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const (
	msgSpam           = "Invalid submission"
	msgEmail          = "Valid email is required"
	msgDestinations   = "At least one destination is required"
	msgStartDate      = "Start date must be YYYY-MM-DD"
	msgEndDate        = "End date must be YYYY-MM-DD"
	msgDateOrder      = "End date must not be before start date"
	msgTimestamp      = "Invalid submission timestamp"
	msgTooFast        = "Submission too fast"
	defaultMinElapsed = 3 * time.Second
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validator turns raw payloads into SubmissionRequests. It does no I/O.
type Validator struct {
	// MinElapsed is the shortest plausible time between form render and submit.
	MinElapsed time.Duration
	Now        func() time.Time
}

func NewValidator(minElapsed time.Duration) *Validator {
	if minElapsed <= 0 {
		minElapsed = defaultMinElapsed
	}
	return &Validator{MinElapsed: minElapsed, Now: time.Now}
}

// Validate checks p as read through m. Failures are returned as *ValidationError.
func (v *Validator) Validate(p Payload, m FieldMapping) (SubmissionRequest, error) {
	if p.text(m.Honeypot) != "" {
		return SubmissionRequest{}, &ValidationError{Problems: []string{msgSpam}}
	}

	var problems []string

	email := strings.ToLower(p.text(m.Email))
	if !emailRe.MatchString(email) {
		problems = append(problems, msgEmail)
	}

	dests := p.list(m.Destinations)
	if len(dests) == 0 {
		problems = append(problems, msgDestinations)
	}

	start, end := p.optional(m.StartDate), p.optional(m.EndDate)
	problems = append(problems, checkDates(start, end)...)

	if p.present(m.Timestamp) {
		if msg := v.checkTiming(p[m.Timestamp]); msg != "" {
			problems = append(problems, msg)
		}
	}

	if len(problems) > 0 {
		return SubmissionRequest{}, &ValidationError{Problems: problems}
	}

	return SubmissionRequest{
		Name:         p.text(m.Name),
		Email:        email,
		Destinations: strings.Join(dests, ", "),
		StartDate:    start,
		EndDate:      end,
		Notes:        p.optional(m.Notes),
	}, nil
}

func checkDates(start, end *string) []string {
	var problems []string
	var s, e time.Time
	var err error
	if start != nil {
		if s, err = time.Parse(dateLayout, *start); err != nil {
			problems = append(problems, msgStartDate)
		}
	}
	if end != nil {
		if e, err = time.Parse(dateLayout, *end); err != nil {
			problems = append(problems, msgEndDate)
		}
	}
	if len(problems) == 0 && start != nil && end != nil && e.Before(s) {
		problems = append(problems, msgDateOrder)
	}
	return problems
}

// checkTiming trusts the client clock; a forged timestamp passes.
func (v *Validator) checkTiming(raw any) string {
	sent, ok := parseClientTime(raw)
	if !ok {
		return msgTimestamp
	}
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	if now().Sub(sent) < v.MinElapsed {
		return msgTooFast
	}
	return ""
}

// parseClientTime accepts epoch milliseconds (number or numeric string) or RFC 3339.
func parseClientTime(raw any) (time.Time, bool) {
	switch t := raw.(type) {
	case float64:
		return time.UnixMilli(int64(t)), true
	case string:
		t = strings.TrimSpace(t)
		if ms, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.UnixMilli(ms), true
		}
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
