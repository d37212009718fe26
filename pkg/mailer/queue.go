package mailer

import (
	"context"

	"github.com/ho-ssain/HkToDoServer/pkg/helpers"
)

// QueueSender publishes email jobs to RabbitMQ instead of sending inline.
// A separate worker (cmd/email_worker) consumes the queue and delivers via
// Mailgun. A publish failure is reported to the caller so handlers can
// surface the upstream outage.
type QueueSender struct {
	Pub *helpers.RabbitPublisher
}

func NewQueueSender(pub *helpers.RabbitPublisher) *QueueSender {
	return &QueueSender{Pub: pub}
}

func (q *QueueSender) Send(ctx context.Context, to, subject, text, html string) error {
	return q.Pub.PublishJSON(ctx, EmailJob{To: to, Subject: subject, Text: text, HTML: html})
}
