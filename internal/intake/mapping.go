package intake

import (
	"strconv"
	"strings"
)

// FieldMapping names the JSON keys one intake surface uses for each submission field.
type FieldMapping struct {
	Surface      string
	Name         string
	Email        string
	Destinations string
	StartDate    string
	EndDate      string
	Notes        string
	Honeypot     string
	Timestamp    string
}

var (
	// PlannerForm is the trip planner form posted to /api/intake.
	PlannerForm = FieldMapping{
		Surface:      "planner",
		Name:         "name",
		Email:        "email",
		Destinations: "destinations",
		StartDate:    "start_date",
		EndDate:      "end_date",
		Notes:        "notes",
		Honeypot:     "company",
		Timestamp:    "ts",
	}

	// ContactForm is the landing page form posted to /api/contact.
	ContactForm = FieldMapping{
		Surface:      "contact",
		Name:         "full_name",
		Email:        "email",
		Destinations: "where",
		StartDate:    "from",
		EndDate:      "to",
		Notes:        "message",
		Honeypot:     "website",
		Timestamp:    "submitted_at",
	}
)

// Payload is a decoded JSON body before normalization.
type Payload map[string]any

func (p Payload) text(key string) string {
	if key == "" {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		return strings.Join(p.list(key), ", ")
	default:
		return ""
	}
}

func (p Payload) optional(key string) *string {
	s := p.text(key)
	if s == "" {
		return nil
	}
	return &s
}

// list returns the non-empty strings of an array field, or the single string value.
func (p Payload) list(key string) []string {
	switch v := p[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	}
	return nil
}

func (p Payload) present(key string) bool {
	if key == "" {
		return false
	}
	v, ok := p[key]
	return ok && v != nil && v != ""
}
