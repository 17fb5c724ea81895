package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2025, 4, 1, 12, 0, 1, 0, time.UTC)

type fakeStore struct {
	calls int
	err   error
}

func (f *fakeStore) InsertSubmission(ctx context.Context, req SubmissionRequest) (SubmissionRecord, error) {
	f.calls++
	if f.err != nil {
		return SubmissionRecord{}, f.err
	}
	id := "abc123"
	if f.calls > 1 {
		id = fmt.Sprintf("abc123-%d", f.calls)
	}
	return SubmissionRecord{
		ID:           id,
		Name:         req.Name,
		Email:        req.Email,
		Destinations: req.Destinations,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Notes:        req.Notes,
		CreatedAt:    createdAt,
	}, nil
}

type fakeNotifier struct {
	calls int
	got   SubmissionRecord
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, rec SubmissionRecord) error {
	f.calls++
	f.got = rec
	return f.err
}

type fakeEvents struct {
	bodies [][]byte
	err    error
}

func (f *fakeEvents) PublishJSON(ctx context.Context, body []byte) error {
	f.bodies = append(f.bodies, body)
	return f.err
}

func newTestService(st Store, n Notifier, opts ...Option) *Service {
	return NewService(testValidator(), st, n, opts...)
}

func TestSubmit_Scenario(t *testing.T) {
	st, n := &fakeStore{}, &fakeNotifier{}
	out := newTestService(st, n).Submit(context.Background(), validPayload(), PlannerForm)

	require.Equal(t, http.StatusOK, out.Status)
	assert.Equal(t, Responding, out.Stage)
	assert.NoError(t, out.Err)

	body, err := json.Marshal(out.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"ok": true,
		"saved": {
			"id": "abc123",
			"name": "Alex",
			"email": "alex@example.com",
			"destinations": "Tokyo, Kyoto",
			"start_date": "2025-05-01",
			"end_date": "2025-05-20",
			"notes": "budget trip",
			"created_at": "2025-04-01T12:00:01Z"
		}
	}`, string(body))

	assert.Equal(t, 1, st.calls)
	assert.Equal(t, 1, n.calls)
	assert.Equal(t, "abc123", n.got.ID, "notification keyed off the stored record")
}

func TestSubmit_InvalidPayloadsMakeNoRemoteCalls(t *testing.T) {
	mutations := map[string]func(Payload){
		"missing email":       func(p Payload) { delete(p, "email") },
		"malformed email":     func(p Payload) { p["email"] = "alex@" },
		"missing destination": func(p Payload) { delete(p, "destinations") },
		"empty destination":   func(p Payload) { p["destinations"] = "" },
		"honeypot":            func(p Payload) { p["company"] = "bot" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			st, n, ev := &fakeStore{}, &fakeNotifier{}, &fakeEvents{}
			p := validPayload()
			mutate(p)

			out := newTestService(st, n, WithEvents(ev)).Submit(context.Background(), p, PlannerForm)

			assert.Equal(t, http.StatusBadRequest, out.Status)
			assert.Equal(t, Validating, out.Stage)
			assert.False(t, out.Body.OK)
			assert.NotEmpty(t, out.Body.Error)
			var ve *ValidationError
			assert.ErrorAs(t, out.Err, &ve)
			assert.Zero(t, st.calls)
			assert.Zero(t, n.calls)
			assert.Empty(t, ev.bodies)
		})
	}
}

func TestSubmit_MailFailureIsWarning(t *testing.T) {
	st := &fakeStore{}
	n := &fakeNotifier{err: errors.New("resend: rate limit exceeded")}

	out := newTestService(st, n).Submit(context.Background(), validPayload(), PlannerForm)

	require.Equal(t, http.StatusOK, out.Status)
	assert.True(t, out.Body.OK)
	assert.Equal(t, "resend: rate limit exceeded", out.Body.MailWarning)
	require.NotNil(t, out.Body.Saved)
	assert.Equal(t, "abc123", out.Body.Saved.ID)
	assert.Equal(t, createdAt, out.Body.Saved.CreatedAt)
	assert.Equal(t, Responding, out.Stage)

	var ne *NotificationError
	assert.ErrorAs(t, out.Err, &ne)
}

func TestSubmit_PartialNotificationFailure(t *testing.T) {
	n := &fakeNotifier{err: &NotificationError{Failures: []NotificationFailure{
		{Kind: "confirmation", Err: errors.New("invalid recipient")},
	}}}

	out := newTestService(&fakeStore{}, n).Submit(context.Background(), validPayload(), PlannerForm)

	assert.Equal(t, http.StatusOK, out.Status)
	assert.Equal(t, "invalid recipient", out.Body.MailWarning)
}

func TestSubmit_StorageFailure(t *testing.T) {
	st := &fakeStore{err: errors.New(`duplicate key value violates unique constraint "submissions_pkey"`)}
	n, ev := &fakeNotifier{}, &fakeEvents{}

	out := newTestService(st, n, WithEvents(ev)).Submit(context.Background(), validPayload(), PlannerForm)

	assert.Equal(t, http.StatusInternalServerError, out.Status)
	assert.Equal(t, Persisting, out.Stage)
	assert.False(t, out.Body.OK)
	assert.Nil(t, out.Body.Saved)
	assert.Contains(t, out.Body.Error, "violates unique constraint")
	var se *StorageError
	assert.ErrorAs(t, out.Err, &se)
	assert.Zero(t, n.calls, "no email after failed insert")
	assert.Empty(t, ev.bodies)
}

func TestSubmit_StoreSeesDeadline(t *testing.T) {
	st := &deadlineStore{}
	newTestService(st, &fakeNotifier{}, WithTimeouts(time.Second, time.Second)).
		Submit(context.Background(), validPayload(), PlannerForm)
	assert.True(t, st.hadDeadline)
}

type deadlineStore struct{ hadDeadline bool }

func (d *deadlineStore) InsertSubmission(ctx context.Context, req SubmissionRequest) (SubmissionRecord, error) {
	_, d.hadDeadline = ctx.Deadline()
	return SubmissionRecord{ID: "x"}, nil
}

func TestSubmit_Misconfigured(t *testing.T) {
	out := newTestService(nil, &fakeNotifier{}).Submit(context.Background(), validPayload(), PlannerForm)

	assert.Equal(t, http.StatusInternalServerError, out.Status)
	assert.Equal(t, "Server misconfigured", out.Body.Error)
	var ce *ConfigurationError
	require.ErrorAs(t, out.Err, &ce)
	assert.Equal(t, []string{"store"}, ce.Missing)
}

// No deduplication key exists: identical payloads create distinct records.
func TestSubmit_NotIdempotent(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st, &fakeNotifier{})

	first := svc.Submit(context.Background(), validPayload(), PlannerForm)
	second := svc.Submit(context.Background(), validPayload(), PlannerForm)

	require.Equal(t, http.StatusOK, first.Status)
	require.Equal(t, http.StatusOK, second.Status)
	assert.Equal(t, 2, st.calls)
	assert.NotEqual(t, first.Body.Saved.ID, second.Body.Saved.ID)
}

func TestSubmit_PublishesCapturedEvent(t *testing.T) {
	ev := &fakeEvents{}
	n := &fakeNotifier{err: errors.New("smtp down")}

	out := newTestService(&fakeStore{}, n, WithEvents(ev)).Submit(context.Background(), validPayload(), contactSurfaceMapping())

	require.Equal(t, http.StatusOK, out.Status)
	require.Len(t, ev.bodies, 1)
	var got CapturedEvent
	require.NoError(t, json.Unmarshal(ev.bodies[0], &got))
	assert.Equal(t, "submission.captured", got.Type)
	assert.Equal(t, "abc123", got.ID)
	assert.False(t, got.MailOK)
}

func TestSubmit_EventFailureDoesNotChangeResponse(t *testing.T) {
	ev := &fakeEvents{err: errors.New("channel closed")}

	out := newTestService(&fakeStore{}, &fakeNotifier{}, WithEvents(ev)).Submit(context.Background(), validPayload(), PlannerForm)

	assert.Equal(t, http.StatusOK, out.Status)
	assert.Empty(t, out.Body.MailWarning)
	assert.NoError(t, out.Err)
}

// contactSurfaceMapping reads planner-style keys under the contact surface label.
func contactSurfaceMapping() FieldMapping {
	m := PlannerForm
	m.Surface = ContactForm.Surface
	return m
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "validating", Validating.String())
	assert.Equal(t, "persisting", Persisting.String())
	assert.Equal(t, "notifying", Notifying.String())
	assert.Equal(t, "responding", Responding.String())
}
