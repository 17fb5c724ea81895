package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mutter0815/TripIntake/internal/intake"
	"github.com/Mutter0815/TripIntake/pkg/mail"
)

type fakeSender struct {
	sent []mail.Message
	fail map[string]error
}

func (f *fakeSender) Send(ctx context.Context, msg mail.Message) error {
	f.sent = append(f.sent, msg)
	return f.fail[msg.To]
}

func strp(s string) *string { return &s }

func testRecord() intake.SubmissionRecord {
	return intake.SubmissionRecord{
		ID:           "abc123",
		Name:         "Alex",
		Email:        "alex@example.com",
		Destinations: "Tokyo, Kyoto",
		StartDate:    strp("2025-05-01"),
		EndDate:      strp("2025-05-20"),
		Notes:        strp("budget <trip>"),
		CreatedAt:    time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

func testNotifier(s mail.Sender) *Notifier {
	return New(s, Config{From: "Trips <hello@trips.example>", OperatorEmail: "ops@trips.example"})
}

func TestEvents(t *testing.T) {
	evs, err := testNotifier(&fakeSender{}).Events(testRecord())
	require.NoError(t, err)
	require.Len(t, evs, 2)

	op, conf := evs[0], evs[1]
	assert.Equal(t, KindOperator, op.Kind)
	assert.Equal(t, "ops@trips.example", op.To)
	assert.Equal(t, "New trip intake: Alex", op.Subject)
	assert.Contains(t, op.HTML, "abc123")
	assert.Contains(t, op.HTML, "budget &lt;trip&gt;", "html escapes user input")
	assert.Contains(t, op.Text, "Dates: 2025-05-01 to 2025-05-20")
	assert.Contains(t, op.Text, "Received: 2025-04-01 12:00 UTC")

	assert.Equal(t, KindConfirmation, conf.Kind)
	assert.Equal(t, "alex@example.com", conf.To)
	assert.Contains(t, conf.Text, "Hi Alex,")
	assert.Contains(t, conf.Text, "trip to Tokyo, Kyoto. We have your dates as 2025-05-01 to 2025-05-20.")
}

func TestEvents_OptionalFields(t *testing.T) {
	rec := testRecord()
	rec.Name, rec.StartDate, rec.EndDate, rec.Notes = "", nil, nil, nil

	evs, err := testNotifier(&fakeSender{}).Events(rec)
	require.NoError(t, err)
	assert.Equal(t, "New trip intake: alex@example.com", evs[0].Subject)
	assert.Contains(t, evs[0].Text, "Name: (not given)")
	assert.Contains(t, evs[0].Text, "Dates: ? to ?")
	assert.Contains(t, evs[1].Text, "Hi there,")
	assert.NotContains(t, evs[1].Text, "We have your dates")
}

func TestNotify_SendsBoth(t *testing.T) {
	fs := &fakeSender{}
	require.NoError(t, testNotifier(fs).Notify(context.Background(), testRecord()))

	require.Len(t, fs.sent, 2)
	assert.Equal(t, "ops@trips.example", fs.sent[0].To)
	assert.Empty(t, fs.sent[0].ReplyTo)
	assert.Equal(t, "alex@example.com", fs.sent[1].To)
	assert.Equal(t, "ops@trips.example", fs.sent[1].ReplyTo)
	assert.Equal(t, "Trips <hello@trips.example>", fs.sent[1].From)
}

func TestNotify_IndependentSends(t *testing.T) {
	fs := &fakeSender{fail: map[string]error{"ops@trips.example": errors.New("resend: rate limited")}}

	err := testNotifier(fs).Notify(context.Background(), testRecord())

	require.Len(t, fs.sent, 2, "confirmation still attempted")
	var ne *intake.NotificationError
	require.ErrorAs(t, err, &ne)
	require.Len(t, ne.Failures, 1)
	assert.Equal(t, KindOperator, ne.Failures[0].Kind)
	assert.EqualError(t, err, "resend: rate limited")
}

func TestNotify_BothFail(t *testing.T) {
	fs := &fakeSender{fail: map[string]error{
		"ops@trips.example": errors.New("first"),
		"alex@example.com":  errors.New("second"),
	}}

	err := testNotifier(fs).Notify(context.Background(), testRecord())
	assert.EqualError(t, err, "first; second")
}
