package amqp

import (
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// newPublishing wraps an outbox payload. The payload is already JSON; the
// event type travels both as routing key and as the message Type header.
func newPublishing(eventType, messageID string, body []byte, now time.Time) amqp091.Publishing {
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    messageID,
		Type:         eventType,
		AppId:        "ledger",
		Timestamp:    now.UTC(),
		Body:         body,
	}
}
