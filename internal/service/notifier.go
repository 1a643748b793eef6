package service

import (
	"context"
	"time"

	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notifier hands a notification to asynchronous delivery. The worker
// dispatcher implements it.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

var now = func() time.Time { return time.Now().UTC() }

// notify never fails the calling operation: a lost notification is logged.
func notify(ctx context.Context, n Notifier, recipients []model.User, sender model.User, build func(model.User) model.Notification) {
	if n == nil {
		return
	}
	for _, r := range recipients {
		msg := build(r)
		msg.RecipientID = r.ID
		msg.RecipientName = r.Name
		senderID := sender.ID
		msg.SenderID = &senderID
		msg.SenderName = sender.Name
		if err := n.Notify(ctx, msg); err != nil {
			log.Error().Err(err).
				Str("type", string(msg.Type)).
				Str("recipient_id", r.ID.String()).
				Msg("notification dispatch failed")
		}
	}
}

func actionURL(kind string, id uuid.UUID) string { return "/" + kind + "/" + id.String() }
