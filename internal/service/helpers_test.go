package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"brokerdesk/internal/config"
	"brokerdesk/internal/infra"
	"brokerdesk/internal/model"
	"brokerdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() { passwordCost = bcrypt.MinCost }

const testSecret = "test_jwt_secret_32_chars_minimum!"

func newTestCfg(t *testing.T) *config.Config {
	return &config.Config{
		JWTSecret:            testSecret,
		JWTExpirationHours:   8,
		JWTRefreshHours:      24,
		CacheTTL:             5 * time.Minute,
		StatementStoragePath: t.TempDir(),
		CompanyName:          "Test Realty",
	}
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

// recordingNotifier collects dispatched notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) to(id uuid.UUID) []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.Notification
	for _, m := range n.sent {
		if m.RecipientID == id {
			out = append(out, m)
		}
	}
	return out
}

// org is a small brokerage: admin → edu → sales → agent, plus a second
// sales manager with an agent of its own.
type org struct {
	admin, edu, sales, agent, sales2, agent2 model.User
}

// env wires real gorm repositories over sqlite into every service.
type env struct {
	db            *gorm.DB
	cfg           *config.Config
	users         repository.UserRepository
	approvals     repository.ApprovalRepository
	contracts     repository.ContractRepository
	properties    repository.PropertyRepository
	notifications repository.NotificationRepository
	roster        *Roster
	notifier      *recordingNotifier
	guard         infra.Guard

	userSvc         UserService
	contractSvc     ContractService
	propertySvc     PropertyService
	notificationSvc NotificationService
	org             org
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := newTestDB(t)
	e := &env{
		db:            db,
		cfg:           newTestCfg(t),
		users:         repository.NewUserRepository(db),
		approvals:     repository.NewApprovalRepository(db),
		contracts:     repository.NewContractRepository(db),
		properties:    repository.NewPropertyRepository(db),
		notifications: repository.NewNotificationRepository(db),
		notifier:      &recordingNotifier{},
		guard:         infra.NewMemoryGuard(),
	}
	e.roster = NewRoster(e.users, e.cfg.CacheTTL)
	e.userSvc = NewUserService(e.users, e.approvals, e.roster, e.guard, e.notifier)
	e.contractSvc = NewContractService(e.contracts, e.properties, e.roster, e.guard, e.notifier, e.cfg)
	e.propertySvc = NewPropertyService(e.properties, e.roster, e.notifier, e.cfg.CacheTTL)
	e.notificationSvc = NewNotificationService(e.notifications, e.roster)

	e.org.admin = e.seed(t, "root@example.com", "Root", model.RoleSuperAdmin, nil)
	e.org.edu = e.seed(t, "edu@example.com", "Edu", model.RoleEducationManager, &e.org.admin.ID)
	e.org.sales = e.seed(t, "sales@example.com", "Sales", model.RoleSalesManager, &e.org.edu.ID)
	e.org.agent = e.seed(t, "agent@example.com", "Agent", model.RoleAgent, &e.org.sales.ID)
	e.org.sales2 = e.seed(t, "sales2@example.com", "Sales Two", model.RoleSalesManager, &e.org.edu.ID)
	e.org.agent2 = e.seed(t, "agent2@example.com", "Agent Two", model.RoleAgent, &e.org.sales2.ID)
	return e
}

func (e *env) seed(t *testing.T, email, name string, role model.Role, manager *uuid.UUID) model.User {
	t.Helper()
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	u := &model.User{
		Email: email, Name: name, PasswordHash: hash, Role: role,
		ManagerID: manager, Status: model.UserActive,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	e.roster.Put(*u)
	return *u
}
