package repository

import (
	"context"
	"testing"
	"time"

	"brokerdesk/internal/dto"
	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func seedUser(t *testing.T, repo UserRepository, email string, role model.Role, manager *uuid.UUID) *model.User {
	t.Helper()
	u := &model.User{
		Email:        email,
		Name:         email,
		PasswordHash: "x",
		Role:         role,
		ManagerID:    manager,
		Status:       model.UserActive,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

// ── Users & approvals ────────────────────────────────────────────────────────

func TestUserRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	boss := seedUser(t, repo, "Boss@Example.com", model.RoleSalesManager, nil)
	agent := seedUser(t, repo, "agent@example.com", model.RoleAgent, &boss.ID)

	found, err := repo.FindByEmail(ctx, "  BOSS@example.com ")
	require.NoError(t, err)
	assert.Equal(t, boss.ID, found.ID)
	assert.Equal(t, "boss@example.com", found.Email)

	exists, err := repo.ExistsEmail(ctx, "boss@example.com", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsEmail(ctx, "boss@example.com", boss.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	reports, err := repo.ListByManager(ctx, boss.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, agent.ID, reports[0].ID)

	agent.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, agent))
	got, err := repo.FindByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	require.NoError(t, repo.Delete(ctx, agent.ID))
	_, err = repo.FindByID(ctx, agent.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, agent.ID), gorm.ErrRecordNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserRepo_CreateWithApprovalAndResolve(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	approvals := NewApprovalRepository(db)

	mgr := seedUser(t, users, "mgr@example.com", model.RoleSalesManager, nil)
	newbie := &model.User{
		Email: "new@example.com", Name: "New", PasswordHash: "x",
		Role: model.RoleAgent, ManagerID: &mgr.ID, Status: model.UserPendingApproval,
	}
	req := &model.UserApprovalRequest{
		RequestedUserName:      "New",
		RequestedUserRole:      model.RoleAgent,
		RequestedByManagerID:   mgr.ID,
		RequestedByManagerName: mgr.Name,
		RequestedByManagerRole: mgr.Role,
		Status:                 model.ApprovalPending,
		RequestedAt:            time.Now(),
	}
	require.NoError(t, users.CreateWithApproval(ctx, newbie, req))
	assert.Equal(t, newbie.ID, req.RequestedUserID)

	pending, err := approvals.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	assert.Equal(t, newbie.ID, pending[0].RequestedUserID)

	now := time.Now()
	req.Status = model.ApprovalApproved
	req.ReviewedBy = &mgr.ID
	req.ReviewedAt = &now
	require.NoError(t, approvals.Resolve(ctx, req, model.UserActive))

	u, err := users.FindByID(ctx, newbie.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserActive, u.Status)

	// a second decision loses
	req.Status = model.ApprovalRejected
	assert.ErrorIs(t, approvals.Resolve(ctx, req, model.UserInactive), ErrConflict)
	u, _ = users.FindByID(ctx, newbie.ID)
	assert.Equal(t, model.UserActive, u.Status)

	pending, err = approvals.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// deleting the user drops the request
	require.NoError(t, users.Delete(ctx, newbie.ID))
	_, err = approvals.FindByID(ctx, req.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepo_DuplicateEmailRejected(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	seedUser(t, repo, "dup@example.com", model.RoleAgent, nil)

	err := repo.Create(context.Background(), &model.User{
		Email: "DUP@example.com", Name: "x", PasswordHash: "x", Role: model.RoleAgent,
	})
	assert.Error(t, err)
}

// ── Contracts ────────────────────────────────────────────────────────────────

func newPendingContract(agent *model.User, price int64) *model.Contract {
	id := uuid.New()
	now := time.Now().UTC()
	return &model.Contract{
		ID:               id,
		AgentID:          agent.ID,
		AgentName:        agent.Name,
		AgentRole:        agent.Role,
		CustomerName:     "Buyer",
		SellerName:       "Seller",
		FinalPrice:       decimal.NewFromInt(price),
		ContractDate:     now,
		ContractDocument: "deed.pdf",
		UploadedAt:       now,
		Status:           model.ContractPending,
		StatusHistory: []model.ContractStatusChange{{
			ContractID: id, Seq: 1, Status: model.ContractPending,
			ChangedBy: agent.ID, ChangedByName: agent.Name, ChangedAt: now, Notes: "uploaded",
		}},
	}
}

func TestContractRepo_CreateFindList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewContractRepository(db)
	a := seedUser(t, users, "a@example.com", model.RoleAgent, nil)
	b := seedUser(t, users, "b@example.com", model.RoleAgent, nil)

	c1 := newPendingContract(a, 1000)
	c2 := newPendingContract(b, 2000)
	require.NoError(t, repo.Create(ctx, c1))
	require.NoError(t, repo.Create(ctx, c2))

	got, err := repo.FindByID(ctx, c1.ID)
	require.NoError(t, err)
	assert.True(t, got.FinalPrice.Equal(decimal.NewFromInt(1000)))
	require.Len(t, got.StatusHistory, 1)
	assert.Equal(t, "uploaded", got.StatusHistory[0].Notes)
	assert.Nil(t, got.CommissionAmount)

	list, err := repo.List(ctx, dto.ContractFilter{AgentIDs: []uuid.UUID{b.ID}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c2.ID, list[0].ID)
	assert.Len(t, list[0].StatusHistory, 1)

	list, err = repo.List(ctx, dto.ContractFilter{Statuses: []model.ContractStatus{model.ContractPaid}})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestContractRepo_AppendTransition(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewContractRepository(db)
	a := seedUser(t, users, "a@example.com", model.RoleAgent, nil)
	admin := seedUser(t, users, "root@example.com", model.RoleSuperAdmin, nil)

	c := newPendingContract(a, 1000)
	require.NoError(t, repo.Create(ctx, c))

	amount := decimal.NewFromInt(50)
	now := time.Now().UTC()
	c.Status = model.ContractApproved
	c.CommissionAmount = &amount
	c.CommissionEnteredBy = &admin.ID
	c.CommissionEnteredAt = &now
	change := model.ContractStatusChange{
		Seq: 2, Status: model.ContractApproved, ChangedBy: admin.ID, ChangedByName: admin.Name, ChangedAt: now,
	}
	c.StatusHistory = append(c.StatusHistory, change)
	require.NoError(t, repo.AppendTransition(ctx, c, model.ContractPending, change))

	got, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractApproved, got.Status)
	require.NotNil(t, got.CommissionAmount)
	assert.True(t, got.CommissionAmount.Equal(amount))
	require.Len(t, got.StatusHistory, 2)
	assert.Equal(t, 1, got.StatusHistory[0].Seq)
	assert.Equal(t, model.ContractApproved, got.StatusHistory[1].Status)

	// stale from-status: nothing is written
	stale := model.ContractStatusChange{Seq: 3, Status: model.ContractRejected, ChangedBy: admin.ID, ChangedByName: admin.Name, ChangedAt: now}
	c.Status = model.ContractRejected
	assert.ErrorIs(t, repo.AppendTransition(ctx, c, model.ContractPending, stale), ErrConflict)

	got, err = repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractApproved, got.Status)
	assert.Len(t, got.StatusHistory, 2)
}

func TestContractRepo_UpdateLeavesHistory(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewContractRepository(db)
	a := seedUser(t, NewUserRepository(db), "a@example.com", model.RoleAgent, nil)

	c := newPendingContract(a, 1000)
	require.NoError(t, repo.Create(ctx, c))

	c.CustomerName = "Other Buyer"
	c.StatusHistory = nil
	require.NoError(t, repo.Update(ctx, c))

	got, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Other Buyer", got.CustomerName)
	assert.Len(t, got.StatusHistory, 1)
}

// ── Properties ───────────────────────────────────────────────────────────────

func TestPropertyRepo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := seedUser(t, NewUserRepository(db), "o@example.com", model.RoleAgent, nil)
	repo := NewPropertyRepository(db)

	beds := 3
	villa := &model.Property{
		OwnerID: owner.ID, OwnerName: owner.Name, OwnerRole: owner.Role,
		Title: "Sea view", PropertyType: model.PropertyVilla, Status: model.PropertyAvailable,
		Address: "1 Shore Rd", City: "Ayia Napa", Price: decimal.NewFromInt(900000),
		Bedrooms: &beds, Images: []string{"https://img.example.com/1.jpg"},
	}
	land := &model.Property{
		OwnerID: owner.ID, OwnerName: owner.Name, OwnerRole: owner.Role,
		Title: "Plot", PropertyType: model.PropertyLand, Status: model.PropertySold,
		Address: "Hill", City: "Paphos", Price: decimal.NewFromInt(100000),
	}
	require.NoError(t, repo.Create(ctx, villa))
	require.NoError(t, repo.Create(ctx, land))

	got, err := repo.FindByID(ctx, villa.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.example.com/1.jpg"}, got.Images)
	require.NotNil(t, got.Bedrooms)
	assert.Equal(t, 3, *got.Bedrooms)

	list, err := repo.List(ctx, dto.PropertyFilter{PropertyType: model.PropertyLand})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, land.ID, list[0].ID)

	list, err = repo.List(ctx, dto.PropertyFilter{OwnerIDs: []uuid.UUID{owner.ID}, Status: model.PropertyAvailable})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	villa.Status = model.PropertyPending
	require.NoError(t, repo.Update(ctx, villa))
	got, _ = repo.FindByID(ctx, villa.ID)
	assert.Equal(t, model.PropertyPending, got.Status)

	require.NoError(t, repo.Delete(ctx, land.ID))
	assert.ErrorIs(t, repo.Delete(ctx, land.ID), gorm.ErrRecordNotFound)
}

// ── Notifications ────────────────────────────────────────────────────────────

func TestNotificationRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(newTestDB(t))
	me, other := uuid.New(), uuid.New()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		n := &model.Notification{
			Type: model.NotificationSystem, Title: "t", Message: "m",
			RecipientID: me, CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Metadata: map[string]any{"i": i},
		}
		require.NoError(t, repo.Create(ctx, n))
	}
	require.NoError(t, repo.Create(ctx, &model.Notification{
		Type: model.NotificationSystem, Title: "t", Message: "m", RecipientID: other,
	}))

	list, err := repo.ListByRecipient(ctx, me, false)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt), "newest first")
	assert.EqualValues(t, 2, list[0].Metadata["i"])

	readAt := time.Now().UTC()
	require.NoError(t, repo.MarkRead(ctx, list[0].ID, readAt))
	unread, err := repo.ListByRecipient(ctx, me, true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	n, err := repo.MarkAllRead(ctx, me, readAt)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	unread, _ = repo.ListByRecipient(ctx, me, true)
	assert.Empty(t, unread)
	theirs, _ := repo.ListByRecipient(ctx, other, true)
	assert.Len(t, theirs, 1)

	require.NoError(t, repo.Delete(ctx, list[0].ID))
	_, err = repo.FindByID(ctx, list[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
