package dto

import "time"

type NotificationQuery struct {
	UnreadOnly bool `form:"unreadOnly"`
}

type CreateNotificationRequest struct {
	Type        string         `json:"type"        validate:"required,oneof=user_approval contract_review property_update commission_paid system"`
	Title       string         `json:"title"       validate:"required,min=1,max=200"`
	Message     string         `json:"message"     validate:"required,min=1,max=2000"`
	RecipientID string         `json:"recipientId" validate:"required,uuid"`
	ActionURL   string         `json:"actionUrl"   validate:"max=500"`
	Metadata    map[string]any `json:"metadata"`
}

type NotificationResponse struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Message       string         `json:"message"`
	RecipientID   string         `json:"recipientId"`
	RecipientName string         `json:"recipientName,omitempty"`
	SenderID      *string        `json:"senderId,omitempty"`
	SenderName    string         `json:"senderName,omitempty"`
	IsRead        bool           `json:"isRead"`
	CreatedAt     time.Time      `json:"createdAt"`
	ReadAt        *time.Time     `json:"readAt,omitempty"`
	ActionURL     string         `json:"actionUrl,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// MarkAllReadResponse reports how many notifications changed state.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
