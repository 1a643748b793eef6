package main

import (
	"bytes"
	"context"
	"testing"

	"brokerdesk/internal/model"
	"brokerdesk/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))
	return repository.NewUserRepository(db)
}

func TestSeedAdmin_CreatesThenResets(t *testing.T) {
	ctx := context.Background()
	users := newTestRepo(t)

	require.NoError(t, seedAdmin(ctx, users, " Root@Example.com ", "Root", "first-password"))
	u, err := users.FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, u.Role)
	assert.Equal(t, model.UserActive, u.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("first-password")))

	require.NoError(t, seedAdmin(ctx, users, "root@example.com", "Root", "second-password"))
	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(all[0].PasswordHash), []byte("second-password")))
}

func TestSeedAdmin_ShortPassword(t *testing.T) {
	assert.Error(t, seedAdmin(context.Background(), newTestRepo(t), "a@b.c", "A", "short"))
}

func TestHashPasswordCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"hash-password", "s3cret-pass"})
	require.NoError(t, cmd.Execute())

	hash := bytes.TrimSpace(out.Bytes())
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("s3cret-pass")))
}
