package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/config"
	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/queue"
	"github.com/qs3c/bookstore_go_server/internal/repository"
	"github.com/qs3c/bookstore_go_server/internal/testutil"
)

func setupAuthService(t *testing.T) (*AuthService, *gorm.DB, *queue.Queue) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	mailQueue := queue.NewQueue(client, "test_mail")

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireHours = 1
	cfg.Links.ResetPasswordURL = "https://bookstore.example.com/reset"

	userRepo := repository.NewUserRepository(db)
	return NewAuthService(userRepo, mailQueue, cfg), db, mailQueue
}

func TestAuthService_Register(t *testing.T) {
	service, db, _ := setupAuthService(t)

	resp, err := service.Register(&dto.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "password123",
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.UserID)

	var user model.User
	require.NoError(t, db.First(&user, resp.UserID).Error)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "customer", user.Role)
	// 密码必须以 bcrypt 散列存储
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	service, db, _ := setupAuthService(t)
	testutil.TestUser(t, db, testutil.WithEmail("taken@example.com"))

	_, err := service.Register(&dto.RegisterRequest{
		FirstName: "Bob",
		LastName:  "Smith",
		Email:     "taken@example.com",
		Password:  "password123",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthService_Login(t *testing.T) {
	service, db, _ := setupAuthService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	testutil.TestUser(t, db, testutil.WithEmail("login@example.com"), func(u *model.User) {
		u.PasswordHash = string(hash)
	})

	resp, err := service.Login(&dto.LoginRequest{
		Email:    "login@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "login@example.com", resp.User.Email)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	service, db, _ := setupAuthService(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	testutil.TestUser(t, db, testutil.WithEmail("login2@example.com"), func(u *model.User) {
		u.PasswordHash = string(hash)
	})

	_, err := service.Login(&dto.LoginRequest{
		Email:    "login2@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(&dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_ForgotPassword(t *testing.T) {
	service, db, mailQueue := setupAuthService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db, testutil.WithEmail("forgot@example.com"))

	require.NoError(t, service.ForgotPassword(ctx, &dto.ForgotPasswordRequest{
		Email: "forgot@example.com",
	}))

	// 令牌已写入用户记录
	var updated model.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	require.NotNil(t, updated.ResetToken)
	require.NotNil(t, updated.ResetExpiresAt)

	// 重置邮件已入队
	msg, err := mailQueue.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, queue.MailPasswordReset, msg.Kind)
	assert.Equal(t, "forgot@example.com", msg.To)
	assert.Contains(t, msg.Link, *updated.ResetToken)
}

func TestAuthService_ForgotPassword_UnknownEmail(t *testing.T) {
	service, _, mailQueue := setupAuthService(t)
	ctx := context.Background()

	// 不存在的邮箱也返回成功且不投递邮件
	require.NoError(t, service.ForgotPassword(ctx, &dto.ForgotPasswordRequest{
		Email: "ghost@example.com",
	}))

	length, err := mailQueue.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)
}

func TestAuthService_ResetPassword(t *testing.T) {
	service, db, _ := setupAuthService(t)

	token := "valid-token-123"
	expires := time.Now().Add(10 * time.Minute)
	user := testutil.TestUser(t, db, func(u *model.User) {
		u.ResetToken = &token
		u.ResetExpiresAt = &expires
	})

	require.NoError(t, service.ResetPassword(token, &dto.ResetPasswordRequest{
		NewPassword:     "new-password-1",
		ConfirmPassword: "new-password-1",
	}))

	var updated model.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("new-password-1")))
	assert.Nil(t, updated.ResetToken)
}

func TestAuthService_ResetPassword_Expired(t *testing.T) {
	service, db, _ := setupAuthService(t)

	token := "expired-token"
	expires := time.Now().Add(-time.Minute)
	testutil.TestUser(t, db, func(u *model.User) {
		u.ResetToken = &token
		u.ResetExpiresAt = &expires
	})

	err := service.ResetPassword(token, &dto.ResetPasswordRequest{
		NewPassword:     "new-password-1",
		ConfirmPassword: "new-password-1",
	})
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestAuthService_ResetPassword_Mismatch(t *testing.T) {
	service, _, _ := setupAuthService(t)

	err := service.ResetPassword("whatever", &dto.ResetPasswordRequest{
		NewPassword:     "abcdefgh1",
		ConfirmPassword: "different1",
	})
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}
