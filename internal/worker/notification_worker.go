package worker

import (
	"context"
	"encoding/json"
	"errors"

	"brokerdesk/internal/model"
	"brokerdesk/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// EmailEnqueuer queues the mail copy of a notification.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

// NotificationWorker stores dispatched notifications and, when mail is
// configured, forwards a copy to the recipient's address.
type NotificationWorker struct {
	repo   repository.NotificationRepository
	users  repository.UserRepository
	emails EmailEnqueuer
}

// NewNotificationWorker takes a nil emails when SMTP is disabled.
func NewNotificationWorker(repo repository.NotificationRepository, users repository.UserRepository, emails EmailEnqueuer) *NotificationWorker {
	return &NotificationWorker{repo: repo, users: users, emails: emails}
}

func (w *NotificationWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var n model.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		log.Error().Err(err).Msg("notification_worker: invalid payload")
		return nil
	}

	// a retry after a partial failure finds the row already stored
	_, err := w.repo.FindByID(ctx, n.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := w.repo.Create(ctx, &n); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if w.emails == nil {
		return nil
	}
	recipient, err := w.users.FindByID(ctx, n.RecipientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return w.emails.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: recipient.Email,
		Subject: n.Title,
		Body:    n.Message,
	})
}
