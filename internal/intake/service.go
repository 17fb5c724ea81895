package intake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Mutter0815/TripIntake/pkg/logx"
	"github.com/Mutter0815/TripIntake/pkg/metrics"
)

// Stage is a step of the submission workflow.
type Stage int

const (
	Validating Stage = iota
	Persisting
	Notifying
	Responding
)

func (s Stage) String() string {
	switch s {
	case Validating:
		return "validating"
	case Persisting:
		return "persisting"
	case Notifying:
		return "notifying"
	case Responding:
		return "responding"
	}
	return "unknown"
}

type Store interface {
	InsertSubmission(ctx context.Context, req SubmissionRequest) (SubmissionRecord, error)
}

type Notifier interface {
	Notify(ctx context.Context, rec SubmissionRecord) error
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, body []byte) error
}

// Outcome is the decided HTTP response for one submission.
type Outcome struct {
	Status int
	Body   Response
	// Stage is where the workflow stopped; Responding unless a terminal failure occurred.
	Stage Stage
	Err   error
}

type Service struct {
	validator    *Validator
	store        Store
	notifier     Notifier
	events       EventPublisher
	storeTimeout time.Duration
	mailTimeout  time.Duration
}

type Option func(*Service)

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithTimeouts(store, mail time.Duration) Option {
	return func(s *Service) {
		if store > 0 {
			s.storeTimeout = store
		}
		if mail > 0 {
			s.mailTimeout = mail
		}
	}
}

func NewService(v *Validator, st Store, n Notifier, opts ...Option) *Service {
	s := &Service{
		validator:    v,
		store:        st,
		notifier:     n,
		storeTimeout: 10 * time.Second,
		mailTimeout:  10 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit runs validate, persist and notify for one payload and decides the response.
// Only validation, configuration and storage failures are terminal.
func (s *Service) Submit(ctx context.Context, p Payload, m FieldMapping) Outcome {
	if err := s.checkConfigured(); err != nil {
		logx.L().Errorw("intake_misconfigured", "surface", m.Surface, "error", err)
		return s.finish(m, "config_error", Outcome{
			Status: http.StatusInternalServerError,
			Body:   Response{Error: "Server misconfigured"},
			Stage:  Validating,
			Err:    err,
		})
	}

	req, err := s.validator.Validate(p, m)
	if err != nil {
		var ve *ValidationError
		errors.As(err, &ve)
		logx.L().Infow("submission_rejected", "surface", m.Surface, "problems", ve.Problems)
		return s.finish(m, "invalid", Outcome{
			Status: http.StatusBadRequest,
			Body:   Response{Error: ve.Error(), Errors: ve.Problems},
			Stage:  Validating,
			Err:    err,
		})
	}

	rec, err := s.persist(ctx, req)
	if err != nil {
		logx.L().Errorw("store_insert_error", "surface", m.Surface, "stage", Persisting.String(), "error", err)
		return s.finish(m, "storage_error", Outcome{
			Status: http.StatusInternalServerError,
			Body:   Response{Error: "Failed to save submission: " + errors.Unwrap(err).Error()},
			Stage:  Persisting,
			Err:    err,
		})
	}
	logx.L().Infow("submission_saved", "surface", m.Surface, "id", rec.ID)

	out := Outcome{
		Status: http.StatusOK,
		Body:   Response{OK: true, Saved: &rec},
		Stage:  Responding,
	}
	if err := s.notify(ctx, rec); err != nil {
		var ne *NotificationError
		errors.As(err, &ne)
		for _, f := range ne.Failures {
			metrics.MailFailuresTotal.WithLabelValues(f.Kind).Inc()
		}
		logx.L().Warnw("mail_send_error", "surface", m.Surface, "stage", Notifying.String(), "id", rec.ID, "error", err)
		out.Body.MailWarning = ne.Error()
		out.Err = ne
	}

	s.publish(m, rec, out.Err == nil)

	outcome := "saved"
	if out.Err != nil {
		outcome = "saved_mail_warning"
	}
	return s.finish(m, outcome, out)
}

func (s *Service) checkConfigured() error {
	var missing []string
	if s.validator == nil {
		missing = append(missing, "validator")
	}
	if s.store == nil {
		missing = append(missing, "store")
	}
	if s.notifier == nil {
		missing = append(missing, "notifier")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

func (s *Service) persist(ctx context.Context, req SubmissionRequest) (SubmissionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	rec, err := s.store.InsertSubmission(ctx, req)
	if err != nil {
		return SubmissionRecord{}, &StorageError{Err: err}
	}
	return rec, nil
}

func (s *Service) notify(ctx context.Context, rec SubmissionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()

	err := s.notifier.Notify(ctx, rec)
	if err == nil {
		return nil
	}
	var ne *NotificationError
	if errors.As(err, &ne) {
		return ne
	}
	return &NotificationError{Failures: []NotificationFailure{{Kind: "mail", Err: err}}}
}

func (s *Service) publish(m FieldMapping, rec SubmissionRecord, mailOK bool) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(CapturedEvent{
		Type:         "submission.captured",
		Surface:      m.Surface,
		ID:           rec.ID,
		Email:        rec.Email,
		Destinations: rec.Destinations,
		CreatedAt:    rec.CreatedAt,
		MailOK:       mailOK,
	})
	if err != nil {
		logx.L().Warnw("event_marshal_error", "id", rec.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.events.PublishJSON(ctx, body); err != nil {
		logx.L().Warnw("event_publish_error", "id", rec.ID, "error", err)
		return
	}
	metrics.EventsPublishedTotal.Inc()
}

func (s *Service) finish(m FieldMapping, outcome string, out Outcome) Outcome {
	out.Body.OK = out.Status == http.StatusOK
	metrics.SubmissionsTotal.WithLabelValues(m.Surface, outcome).Inc()
	return out
}
