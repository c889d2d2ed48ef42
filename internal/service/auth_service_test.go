package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tkaykim/totalmanagement-sub001/config"
	"github.com/tkaykim/totalmanagement-sub001/internal/dto"
	"github.com/tkaykim/totalmanagement-sub001/internal/model"
	"github.com/tkaykim/totalmanagement-sub001/pkg/jwt"
)

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	entries map[string]time.Duration
	err     error
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.entries[jti] = ttl
	return nil
}

// ── 测试辅助 ──

func setupTestAuthService() (AuthService, *mockUserRepo, *jwt.Manager, *mockBlacklist) {
	repo, mocks := newMockRepository()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-key-at-least-16",
			AccessTokenTTL: 15 * time.Minute,
		},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	bl := &mockBlacklist{entries: make(map[string]time.Duration)}
	svc := NewAuthService(cfg, repo, jwtMgr, bl, zap.NewNop())
	return svc, mocks.user, jwtMgr, bl
}

func createTestUser(repo *mockUserRepo, employeeNo, password string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		Name:         "测试用户",
		EmployeeNo:   employeeNo,
		Email:        employeeNo + "@example.com",
		PasswordHash: string(hash),
		Role:         "member",
	}
	repo.add(user)
	return user
}

// ── Login 测试 ──

func TestLogin_Success(t *testing.T) {
	svc, userRepo, _, _ := setupTestAuthService()
	createTestUser(userRepo, "2024001", "password123")

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		EmployeeNo: "2024001",
		Password:   "password123",
	})

	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" {
		t.Error("AccessToken 不应为空")
	}
	if result.User.EmployeeNo != "2024001" {
		t.Errorf("期望 EmployeeNo=2024001，实际=%s", result.User.EmployeeNo)
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, userRepo, _, _ := setupTestAuthService()
	createTestUser(userRepo, "2024001", "password123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		EmployeeNo: "2024001",
		Password:   "wrong_password",
	})

	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	svc, _, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		EmployeeNo: "nonexistent",
		Password:   "password123",
	})

	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

// ── Logout 测试 ──

func TestLogout_BlacklistsToken(t *testing.T) {
	svc, userRepo, jwtMgr, bl := setupTestAuthService()
	user := createTestUser(userRepo, "2024001", "password123")

	token, _ := jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	claims, err := jwtMgr.ParseToken(token)
	if err != nil {
		t.Fatalf("解析 Token 失败: %v", err)
	}

	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	ttl, ok := bl.entries[claims.ID]
	if !ok {
		t.Fatal("期望 JTI 被加入黑名单")
	}
	if ttl <= 0 || ttl > 15*time.Minute {
		t.Errorf("黑名单 TTL 应为 Token 剩余有效期，实际: %v", ttl)
	}
}

func TestLogout_BlacklistFailure(t *testing.T) {
	svc, userRepo, jwtMgr, bl := setupTestAuthService()
	user := createTestUser(userRepo, "2024001", "password123")
	bl.err = errors.New("redis 不可用")

	token, _ := jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	claims, _ := jwtMgr.ParseToken(token)

	if err := svc.Logout(context.Background(), claims); err == nil {
		t.Error("黑名单写入失败时 Logout 应返回错误")
	}
}

func TestLogout_NoBlacklistConfigured(t *testing.T) {
	repo, _ := newMockRepository()
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret-key-at-least-16", AccessTokenTTL: time.Minute}}
	svc := NewAuthService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, zap.NewNop())

	if err := svc.Logout(context.Background(), &jwt.Claims{UserID: "u1"}); err != nil {
		t.Errorf("未配置黑名单时 Logout 不应报错: %v", err)
	}
}

// ── Me 测试 ──

func TestMe(t *testing.T) {
	svc, userRepo, _, _ := setupTestAuthService()
	user := createTestUser(userRepo, "2024001", "password123")

	me, err := svc.Me(context.Background(), user.UserID)
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if me.ID != user.UserID || me.Role != "member" {
		t.Errorf("用户信息不符: %+v", me)
	}

	if _, err := svc.Me(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
