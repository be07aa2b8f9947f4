package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/config"
	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/jwt"
	"github.com/qs3c/bookstore_go_server/internal/pkg/queue"
	"github.com/qs3c/bookstore_go_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrInvalidResetToken  = errors.New("重置链接无效或已过期")
	ErrPasswordMismatch   = errors.New("两次输入的密码不一致")
)

type AuthService struct {
	userRepo  *repository.UserRepository
	mailQueue *queue.Queue
	cfg       *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, mailQueue *queue.Queue, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		mailQueue: mailQueue,
		cfg:       cfg,
	}
}

// Register 用户注册
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		PhoneNumber:  req.PhoneNumber,
		Role:         "customer",
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return &dto.RegisterResponse{UserID: user.ID}, nil
}

// Login 用户登录，成功后签发 JWT
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  buildUserInfo(user),
	}, nil
}

// ForgotPassword 生成重置令牌并投递重置邮件。
// 邮箱不存在时同样返回成功，避免探测注册情况。
func (s *AuthService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	token, err := generateRandomToken(32)
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(60 * time.Minute)
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"reset_token":      token,
		"reset_expires_at": expiresAt,
	}); err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s?token=%s", s.cfg.Links.ResetPasswordURL, token)
	return s.mailQueue.Push(ctx, &queue.MailMessage{
		Kind: queue.MailPasswordReset,
		To:   user.Email,
		Link: resetLink,
	})
}

// ResetPassword 校验令牌并更新密码
func (s *AuthService) ResetPassword(token string, req *dto.ResetPasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}

	user, err := s.userRepo.GetByResetToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	if user.ResetExpiresAt == nil || user.ResetExpiresAt.Before(time.Now()) {
		return ErrInvalidResetToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"password_hash":    string(hashedPassword),
		"reset_token":      nil,
		"reset_expires_at": nil,
	})
}

func buildUserInfo(user *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:          user.ID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role,
		HasBilling:  user.StripeCustomerID != nil,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
}

func generateRandomToken(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
