// Package auth 提供口令认证、会话管理与引导账号的初始化。
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wangdaguo68/kinghome/internal/model"
	"github.com/wangdaguo68/kinghome/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// bcryptPrefix 是 bcrypt 哈希的结构化前缀（$2a$、$2b$ 等）。
// 凭据带该前缀时走 bcrypt 校验，否则按遗留明文处理。
const bcryptPrefix = "$2"

// ServiceConfig 是认证服务的配置。
type ServiceConfig struct {
	SessionMaxAge int // 会话有效期（秒）

	// 引导账号（仅开发环境使用）
	AdminUsername string
	AdminPassword string
	AdminNickname string
	AdminEmail    string
}

// Service 提供认证相关的业务逻辑。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService 生成 Service。
func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, config ServiceConfig) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// Login 校验用户名口令并签发会话。
// 用户不存在与密码错误返回不同的提示信息（均为 401 级错误）。
func (s *Service) Login(ctx context.Context, username, password string) (*model.Session, *model.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, nil, model.NewValidationError("用户名和密码不能为空")
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil, &model.APIError{
			Code:    model.ErrCodeUnauthenticated,
			Message: "用户不存在，请先初始化用户",
		}
	}

	if !s.verifyPassword(ctx, user, password) {
		return nil, nil, &model.APIError{
			Code:    model.ErrCodeUnauthenticated,
			Message: "密码错误",
		}
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return session, user, nil
}

// verifyPassword 校验口令。
// 存储凭据是 bcrypt 哈希时用 bcrypt 的常数时间比较；
// 遗留明文用 subtle 常数时间比较，命中后立即升级为 bcrypt 哈希回写，
// 强制存量明文随首次登录迁移掉。
func (s *Service) verifyPassword(ctx context.Context, user *model.User, password string) bool {
	if strings.HasPrefix(user.Password, bcryptPrefix) {
		return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
	}

	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
		return false
	}

	// 遗留明文命中：就地升级为 bcrypt 哈希。升级失败不影响本次登录。
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err == nil {
		if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
			slog.Warn("failed to upgrade plaintext password",
				slog.Int64("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		} else {
			slog.Info("plaintext password upgraded to bcrypt", slog.Int64("user_id", user.ID))
		}
	}

	return true
}

// Logout 销毁会话。会话不存在时同样视为成功。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentUser 从会话 ID 解析当前用户。
// 会话缺失、过期或指向不存在的用户时返回 nil，匿名是正常结果，不是错误。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// BootstrapAdmin 幂等地建立或重置引导账号。
// 账号已存在时把口令重置为配置值，否则创建新账号。
// 无论哪条路径，写入的都是 bcrypt 哈希，不落明文。
// 返回 created=true 表示本次新建了账号。
func (s *Service) BootstrapAdmin(ctx context.Context) (bool, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(s.config.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	existing, err := s.userRepo.FindByUsername(ctx, s.config.AdminUsername)
	if err != nil {
		return false, fmt.Errorf("failed to find admin user: %w", err)
	}

	if existing != nil {
		if err := s.userRepo.UpdatePassword(ctx, existing.ID, string(hashed)); err != nil {
			return false, fmt.Errorf("failed to reset admin password: %w", err)
		}
		slog.Info("admin password reset", slog.Int64("user_id", existing.ID))
		return false, nil
	}

	id, err := s.userRepo.Create(ctx, &model.User{
		Username: s.config.AdminUsername,
		Password: string(hashed),
		Nickname: s.config.AdminNickname,
		Email:    s.config.AdminEmail,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}

	slog.Info("admin user created", slog.Int64("user_id", id))
	return true, nil
}

// AdminExists 检查引导账号是否存在，存在时返回用户信息。
func (s *Service) AdminExists(ctx context.Context) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, s.config.AdminUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin user: %w", err)
	}
	return user, nil
}

// createSession 生成不透明会话 ID 并持久化。
func (s *Service) createSession(ctx context.Context, userID int64) (*model.Session, error) {
	now := time.Now()
	session := &model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}
