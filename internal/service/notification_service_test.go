package service

import (
	"context"
	"testing"

	"brokerdesk/internal/dto"
	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) send(t *testing.T, to model.User, title string) dto.NotificationResponse {
	t.Helper()
	n, err := e.notificationSvc.Create(context.Background(), e.org.admin, dto.CreateNotificationRequest{
		Type:        string(model.NotificationSystem),
		Title:       title,
		Message:     "maintenance window tonight",
		RecipientID: to.ID.String(),
	})
	require.NoError(t, err)
	return *n
}

func TestNotificationCreate(t *testing.T) {
	e := newEnv(t)
	n := e.send(t, e.org.agent, "Heads up")

	assert.Equal(t, e.org.agent.ID.String(), n.RecipientID)
	assert.Equal(t, "Agent", n.RecipientName)
	require.NotNil(t, n.SenderID)
	assert.Equal(t, e.org.admin.ID.String(), *n.SenderID)
	assert.False(t, n.IsRead)

	_, err := e.notificationSvc.Create(context.Background(), e.org.sales, dto.CreateNotificationRequest{
		Type: "system", Title: "x", Message: "y", RecipientID: e.org.agent.ID.String(),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.notificationSvc.Create(context.Background(), e.org.admin, dto.CreateNotificationRequest{
		Type: "system", Title: "x", Message: "y", RecipientID: uuid.NewString(),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "exists", verr.Fields["recipientId"])
}

func TestNotificationReadFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first := e.send(t, e.org.agent, "one")
	e.send(t, e.org.agent, "two")
	e.send(t, e.org.sales, "other")

	list, err := e.notificationSvc.List(ctx, e.org.agent, false)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	read, err := e.notificationSvc.MarkRead(ctx, e.org.agent, uuid.MustParse(first.ID))
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.NotNil(t, read.ReadAt)

	_, err = e.notificationSvc.MarkRead(ctx, e.org.sales, uuid.MustParse(first.ID))
	assert.ErrorIs(t, err, ErrNotFound, "someone else's notification reads as missing")

	unread, err := e.notificationSvc.List(ctx, e.org.agent, true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	updated, err := e.notificationSvc.MarkAllRead(ctx, e.org.agent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	st, err := e.notificationSvc.Statistics(ctx, e.org.agent)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalNotifications)
	assert.Equal(t, 0, st.UnreadNotifications)
}

func TestNotificationDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	n := e.send(t, e.org.agent, "one")
	id := uuid.MustParse(n.ID)

	assert.ErrorIs(t, e.notificationSvc.Delete(ctx, e.org.sales, id), ErrNotFound)
	require.NoError(t, e.notificationSvc.Delete(ctx, e.org.agent, id))
	assert.ErrorIs(t, e.notificationSvc.Delete(ctx, e.org.agent, id), ErrNotFound)

	other := e.send(t, e.org.sales, "two")
	assert.NoError(t, e.notificationSvc.Delete(ctx, e.org.admin, uuid.MustParse(other.ID)))
}
