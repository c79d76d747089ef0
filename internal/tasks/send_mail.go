package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/mail"
)

// SendMailTask delivers one email outside the request that produced it.
type SendMailTask struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Config returns the queue configuration for mail tasks.
func (t SendMailTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "send_mail",
		MaxAttempts: 5,
		Backoff:     time.Minute,
		Timeout:     30 * time.Second,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
			// Data stays nil: bodies carry password reset links.
		},
	}
}

func (t SendMailTask) message() mail.Message {
	return mail.Message{To: t.To, Subject: t.Subject, Body: t.Body}
}

// SendMailProcessor creates a processor function for SendMailTask.
func SendMailProcessor(sender mail.Sender) backlite.QueueProcessor[SendMailTask] {
	return func(ctx context.Context, task SendMailTask) error {
		if sender == nil {
			return fmt.Errorf("mail sender not configured")
		}
		if err := sender.Send(ctx, task.message()); err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	}
}

// NewSendMailQueue creates a backlite queue for mail tasks.
func NewSendMailQueue(sender mail.Sender) backlite.Queue {
	return backlite.NewQueue(SendMailProcessor(sender))
}

// Enqueuer adds tasks to a queue. *Client satisfies it.
type Enqueuer interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// QueuedMailer hands messages to the task queue instead of sending them
// inline. Without a queue it falls back to sending directly.
type QueuedMailer struct {
	queue  Enqueuer
	direct mail.Sender
	log    logrus.FieldLogger
}

func NewQueuedMailer(queue Enqueuer, direct mail.Sender, log logrus.FieldLogger) *QueuedMailer {
	return &QueuedMailer{queue: queue, direct: direct, log: log}
}

func (m *QueuedMailer) Send(ctx context.Context, msg mail.Message) error {
	if m.queue == nil {
		return m.direct.Send(ctx, msg)
	}

	ids, err := m.queue.Add(SendMailTask{To: msg.To, Subject: msg.Subject, Body: msg.Body}).Ctx(ctx).Save()
	if err != nil {
		return fmt.Errorf("failed to enqueue mail: %w", err)
	}
	m.log.WithFields(logrus.Fields{"task_ids": ids, "subject": msg.Subject}).Debug("mail queued")
	return nil
}
