package service

import (
	"context"

	"brokerdesk/internal/dto"
	"brokerdesk/internal/model"
	"brokerdesk/internal/permission"
	"brokerdesk/internal/repository"
	"brokerdesk/internal/workflow"

	"github.com/google/uuid"
)

type NotificationService interface {
	List(ctx context.Context, actor model.User, unreadOnly bool) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, actor model.User, id uuid.UUID) (*dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, actor model.User) (int64, error)
	Create(ctx context.Context, actor model.User, req dto.CreateNotificationRequest) (*dto.NotificationResponse, error)
	Delete(ctx context.Context, actor model.User, id uuid.UUID) error
	Statistics(ctx context.Context, actor model.User) (*workflow.NotificationStatistics, error)
}

type notificationService struct {
	repo   repository.NotificationRepository
	roster *Roster
}

func NewNotificationService(repo repository.NotificationRepository, roster *Roster) NotificationService {
	return &notificationService{repo: repo, roster: roster}
}

func (s *notificationService) List(ctx context.Context, actor model.User, unreadOnly bool) ([]dto.NotificationResponse, error) {
	list, err := s.repo.ListByRecipient(ctx, actor.ID, unreadOnly)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotificationResponse, len(list))
	for i, n := range list {
		out[i] = toNotificationResponse(n)
	}
	return out, nil
}

// MarkRead is limited to the recipient; a notification addressed to someone
// else reads as missing.
func (s *notificationService) MarkRead(ctx context.Context, actor model.User, id uuid.UUID) (*dto.NotificationResponse, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "notification")
	}
	if n.RecipientID != actor.ID {
		return nil, notFound("notification")
	}
	if !n.IsRead {
		at := now()
		if err := s.repo.MarkRead(ctx, id, at); err != nil {
			return nil, err
		}
		n.IsRead = true
		n.ReadAt = &at
	}
	resp := toNotificationResponse(*n)
	return &resp, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor model.User) (int64, error) {
	return s.repo.MarkAllRead(ctx, actor.ID, now())
}

func (s *notificationService) Create(ctx context.Context, actor model.User, req dto.CreateNotificationRequest) (*dto.NotificationResponse, error) {
	if !permission.IsAdmin(actor) {
		return nil, forbidden("only a super_admin can send notifications")
	}
	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		return nil, invalid("recipientId", "uuid", "recipientId is not a valid id")
	}
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}
	recipient, ok := findUser(users, recipientID)
	if !ok {
		return nil, invalid("recipientId", "exists", "recipient does not exist")
	}
	senderID := actor.ID
	n := &model.Notification{
		Type:          model.NotificationType(req.Type),
		Title:         req.Title,
		Message:       req.Message,
		RecipientID:   recipient.ID,
		RecipientName: recipient.Name,
		SenderID:      &senderID,
		SenderName:    actor.Name,
		ActionURL:     req.ActionURL,
		Metadata:      req.Metadata,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	resp := toNotificationResponse(*n)
	return &resp, nil
}

func (s *notificationService) Delete(ctx context.Context, actor model.User, id uuid.UUID) error {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupErr(err, "notification")
	}
	if n.RecipientID != actor.ID && !permission.IsAdmin(actor) {
		return notFound("notification")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeErr(err, "notification")
	}
	return nil
}

func (s *notificationService) Statistics(ctx context.Context, actor model.User) (*workflow.NotificationStatistics, error) {
	list, err := s.repo.ListByRecipient(ctx, actor.ID, false)
	if err != nil {
		return nil, err
	}
	st := workflow.NotificationStats(list)
	return &st, nil
}
