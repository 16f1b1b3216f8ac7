package service

import (
	"testing"
	"time"

	"seogen/internal/config"
	"seogen/internal/dto"
	"seogen/internal/repository"
	"seogen/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, *repository.UserRepository) {
	t.Helper()

	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	jwtManager := utils.NewJWTManager("test-secret", "HS256", time.Hour)
	cfg := &config.Config{
		Admin: config.AdminConfig{Username: "admin", Password: "admin123456"},
	}

	return NewAuthService(userRepo, jwtManager, cfg), userRepo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)

	user, err := svc.Register(&dto.RegisterRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.IsAdmin)

	resp, err := svc.Login(&dto.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, user.ID, resp.User.ID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(&dto.RegisterRequest{Username: "alice", Password: "secret456"})
	assert.EqualError(t, err, "用户名已存在")
}

func TestRegisterInvalidUsername(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Username: "a b!", Password: "secret123"})
	assert.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{Username: "alice", Password: "wrong"})
	assert.EqualError(t, err, "用户名或密码错误")
}

func TestInitAdminIdempotent(t *testing.T) {
	svc, userRepo := newAuthService(t)

	require.NoError(t, svc.InitAdmin())
	require.NoError(t, svc.InitAdmin())

	admin, err := userRepo.GetAdmin()
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Username)
	assert.True(t, admin.IsAdmin)

	users, err := userRepo.List()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
