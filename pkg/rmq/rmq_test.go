package rmq

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestPublishing(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	p := publishing([]byte(`{"id":"abc123"}`), ts)

	if p.DeliveryMode != amqp.Persistent {
		t.Fatalf("want persistent delivery, got %d", p.DeliveryMode)
	}
	if p.ContentType != "application/json" || p.Type != "submission.captured" {
		t.Fatalf("unexpected headers: %q %q", p.ContentType, p.Type)
	}
	if !p.Timestamp.Equal(ts) || string(p.Body) != `{"id":"abc123"}` {
		t.Fatalf("unexpected publishing %+v", p)
	}
}
