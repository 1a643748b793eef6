package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"brokerdesk/internal/model"
	"brokerdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memQueue is an in-process Queue with Redis list semantics.
type memQueue struct {
	mu    sync.Mutex
	lists map[string][]string
}

func newMemQueue() *memQueue { return &memQueue{lists: map[string][]string{}} }

func (q *memQueue) Push(_ context.Context, queue string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lists[queue] = append([]string{string(data)}, q.lists[queue]...)
	return nil
}

func (q *memQueue) Pop(ctx context.Context, timeout time.Duration, queues ...string) (string, string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		q.mu.Lock()
		for _, name := range queues {
			if l := q.lists[name]; len(l) > 0 {
				last := l[len(l)-1]
				q.lists[name] = l[:len(l)-1]
				q.mu.Unlock()
				return name, last, nil
			}
		}
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
	return "", "", ErrEmpty
}

func (q *memQueue) Len(_ context.Context, queue string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.lists[queue])), nil
}

func (q *memQueue) take(queue string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.lists[queue]
	delete(q.lists, queue)
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *fakeSender) Send(to, subject, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to+"|"+subject)
	return nil
}

// ── Dispatcher ────────────────────────────────────────────────────────────────

func TestDispatcher_NotifyAssignsID(t *testing.T) {
	q := newMemQueue()
	d := NewDispatcher(q)

	require.NoError(t, d.Notify(context.Background(), model.Notification{Title: "hi", RecipientID: uuid.New()}))

	raw := q.take(QueueNotification)
	require.Len(t, raw, 1)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(raw[0]), &job))
	assert.Equal(t, JobNotification, job.Type)
	assert.Zero(t, job.Attempts)

	var n model.Notification
	require.NoError(t, json.Unmarshal(job.Payload, &n))
	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.False(t, n.CreatedAt.IsZero())
}

// ── Retry & DLQ ───────────────────────────────────────────────────────────────

func TestPool_RetriesThenDeadLetters(t *testing.T) {
	q := newMemQueue()
	calls := 0
	p := NewPool(q, map[string]Handler{
		QueueEmail: func(context.Context, json.RawMessage) error {
			calls++
			return errors.New("smtp down")
		},
	})
	d := NewDispatcher(q)
	require.NoError(t, d.EnqueueEmail(context.Background(), EmailJobPayload{ToEmail: "a@example.com"}))

	ctx := context.Background()
	for i := 0; i < MaxJobAttempts; i++ {
		queue, raw, err := q.Pop(ctx, time.Second, QueueEmail)
		require.NoError(t, err)
		p.process(ctx, queue, raw)
	}

	assert.Equal(t, MaxJobAttempts, calls)
	n, _ := q.Len(ctx, QueueEmail)
	assert.Zero(t, n)
	dead, err := DLQLength(ctx, q, QueueEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dead)

	var entry DLQEntry
	require.NoError(t, json.Unmarshal([]byte(q.take(DLQPrefix+QueueEmail)[0]), &entry))
	assert.Equal(t, "smtp down", entry.Reason)
	assert.Equal(t, MaxJobAttempts, entry.Attempts)
}

func TestPool_MalformedJobIsDeadLettered(t *testing.T) {
	q := newMemQueue()
	p := NewPool(q, map[string]Handler{QueueEmail: func(context.Context, json.RawMessage) error { return nil }})

	p.process(context.Background(), QueueEmail, "{not json")
	dead, _ := DLQLength(context.Background(), q, QueueEmail)
	assert.Equal(t, int64(1), dead)
}

func TestPool_StartConsumesUntilCancelled(t *testing.T) {
	q := newMemQueue()
	var mu sync.Mutex
	var seen []string
	p := NewPool(q, map[string]Handler{
		QueueEmail: func(_ context.Context, raw json.RawMessage) error {
			var e EmailJobPayload
			_ = json.Unmarshal(raw, &e)
			mu.Lock()
			seen = append(seen, e.ToEmail)
			mu.Unlock()
			return nil
		},
	})
	d := NewDispatcher(q)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx, 2)

	for _, to := range []string{"a@example.com", "b@example.com"} {
		require.NoError(t, d.EnqueueEmail(ctx, EmailJobPayload{ToEmail: to}))
	}
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	p.Wait()
}

// ── Workers ───────────────────────────────────────────────────────────────────

func TestEmailWorker(t *testing.T) {
	sender := &fakeSender{}
	w := NewEmailWorker(sender)
	raw, _ := json.Marshal(EmailJobPayload{ToEmail: "a@example.com", Subject: "Commission paid"})

	require.NoError(t, w.Process(context.Background(), raw))
	assert.Equal(t, []string{"a@example.com|Commission paid"}, sender.sent)

	assert.NoError(t, w.Process(context.Background(), json.RawMessage(`{"to_email":""}`)))
	assert.NoError(t, w.Process(context.Background(), json.RawMessage(`garbage`)))

	sender.err = errors.New("refused")
	assert.Error(t, w.Process(context.Background(), raw))
}

func TestNotificationWorker_PersistsOnceAndForwardsMail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)
	notifications := repository.NewNotificationRepository(db)

	recipient := &model.User{Email: "agent@example.com", Name: "Agent", PasswordHash: "x", Role: model.RoleAgent, Status: model.UserActive}
	require.NoError(t, users.Create(ctx, recipient))

	q := newMemQueue()
	d := NewDispatcher(q)
	w := NewNotificationWorker(notifications, users, d)

	n := model.Notification{ID: uuid.New(), Type: model.NotificationCommissionPaid, Title: "Commission paid", Message: "paid", RecipientID: recipient.ID}
	raw, _ := json.Marshal(n)

	require.NoError(t, w.Process(ctx, raw))
	require.NoError(t, w.Process(ctx, raw), "a retried job does not fail on the stored row")

	stored, err := notifications.ListByRecipient(ctx, recipient.ID, false)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Commission paid", stored[0].Title)

	mails := q.take(QueueEmail)
	assert.Len(t, mails, 2)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(mails[0]), &job))
	var payload EmailJobPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "agent@example.com", payload.ToEmail)
}

func TestNotificationWorker_NoMailWhenDisabled(t *testing.T) {
	db := newTestDB(t)
	w := NewNotificationWorker(repository.NewNotificationRepository(db), repository.NewUserRepository(db), nil)

	raw, _ := json.Marshal(model.Notification{ID: uuid.New(), Type: model.NotificationSystem, Title: "t", Message: "m", RecipientID: uuid.New()})
	assert.NoError(t, w.Process(context.Background(), raw))
}
