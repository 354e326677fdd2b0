package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jbbc/jbbc-api/internal/model"
)

// mockAdminRepo はAdminUserRepositoryのモック実装。
type mockAdminRepo struct {
	findByIDFunc    func(ctx context.Context, id string) (*model.AdminUser, error)
	findByEmailFunc func(ctx context.Context, email string) (*model.AdminUser, error)
	updateFunc      func(ctx context.Context, admin *model.AdminUser) error
}

func (m *mockAdminRepo) FindByID(ctx context.Context, id string) (*model.AdminUser, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockAdminRepo) FindByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	return m.findByEmailFunc(ctx, email)
}

func (m *mockAdminRepo) List(ctx context.Context) ([]*model.AdminUser, error) {
	return nil, nil
}

func (m *mockAdminRepo) Create(ctx context.Context, admin *model.AdminUser) error {
	return nil
}

func (m *mockAdminRepo) Update(ctx context.Context, admin *model.AdminUser) error {
	return m.updateFunc(ctx, admin)
}

func (m *mockAdminRepo) DeleteByID(ctx context.Context, id string) error {
	return nil
}

func newTestAdmin(t *testing.T, password string) *model.AdminUser {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	return &model.AdminUser{
		ID:           "admin-1",
		Email:        "admin@example.com",
		Name:         "管理者",
		PasswordHash: hash,
	}
}

// TestLogin_Success は正しい資格情報でログインが成功することを検証する。
func TestLogin_Success(t *testing.T) {
	admin := newTestAdmin(t, "correct-password")
	repo := &mockAdminRepo{
		findByEmailFunc: func(ctx context.Context, email string) (*model.AdminUser, error) {
			return admin, nil
		},
	}

	a := NewAuthenticator(repo, "test-secret", 30*24*time.Hour)

	identity, token, err := a.Login(context.Background(), "admin@example.com", "correct-password")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if identity.ID != "admin-1" {
		t.Errorf("identity.ID = %q, want %q", identity.ID, "admin-1")
	}
	if token == "" {
		t.Error("token is empty")
	}
}

// TestLogin_UniformFailure はメールアドレス不存在とパスワード不一致が
// 同一のエラーコードを返すことを検証する。
func TestLogin_UniformFailure(t *testing.T) {
	admin := newTestAdmin(t, "correct-password")

	tests := []struct {
		name string
		repo *mockAdminRepo
	}{
		{
			name: "メールアドレス不存在",
			repo: &mockAdminRepo{
				findByEmailFunc: func(ctx context.Context, email string) (*model.AdminUser, error) {
					return nil, nil
				},
			},
		},
		{
			name: "パスワード不一致",
			repo: &mockAdminRepo{
				findByEmailFunc: func(ctx context.Context, email string) (*model.AdminUser, error) {
					return admin, nil
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAuthenticator(tt.repo, "test-secret", time.Hour)

			_, _, err := a.Login(context.Background(), "admin@example.com", "wrong-password")
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T: %v", err, err)
			}
			if apiErr.Code != model.ErrCodeInvalidCredentials {
				t.Errorf("error code = %q, want %q", apiErr.Code, model.ErrCodeInvalidCredentials)
			}
		})
	}
}

// TestVerifyToken_RoundTrip は発行したトークンが検証を通過し、
// 管理者情報が復元されることを検証する。
func TestVerifyToken_RoundTrip(t *testing.T) {
	admin := newTestAdmin(t, "password123")
	repo := &mockAdminRepo{
		findByEmailFunc: func(ctx context.Context, email string) (*model.AdminUser, error) {
			return admin, nil
		},
	}

	a := NewAuthenticator(repo, "test-secret", time.Hour)

	_, token, err := a.Login(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	identity, err := a.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error: %v", err)
	}
	if identity.ID != admin.ID {
		t.Errorf("ID = %q, want %q", identity.ID, admin.ID)
	}
	if identity.Email != admin.Email {
		t.Errorf("Email = %q, want %q", identity.Email, admin.Email)
	}
	if identity.Name != admin.Name {
		t.Errorf("Name = %q, want %q", identity.Name, admin.Name)
	}
}

// TestVerifyToken_WrongSecret は異なるシークレットで署名されたトークンが
// 拒否されることを検証する。
func TestVerifyToken_WrongSecret(t *testing.T) {
	admin := newTestAdmin(t, "password123")
	repo := &mockAdminRepo{
		findByEmailFunc: func(ctx context.Context, email string) (*model.AdminUser, error) {
			return admin, nil
		},
	}

	issuer := NewAuthenticator(repo, "secret-a", time.Hour)
	verifier := NewAuthenticator(repo, "secret-b", time.Hour)

	_, token, err := issuer.Login(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	if _, err := verifier.VerifyToken(token); err == nil {
		t.Error("expected error for token signed with different secret")
	}
}

// TestVerifyToken_Expired は有効期限切れのトークンが拒否されることを検証する。
func TestVerifyToken_Expired(t *testing.T) {
	admin := newTestAdmin(t, "password123")
	repo := &mockAdminRepo{
		findByEmailFunc: func(ctx context.Context, email string) (*model.AdminUser, error) {
			return admin, nil
		},
	}

	a := NewAuthenticator(repo, "test-secret", -time.Minute)

	_, token, err := a.Login(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	if _, err := a.VerifyToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}

// TestVerifyToken_Garbage は不正な形式のトークンが拒否されることを検証する。
func TestVerifyToken_Garbage(t *testing.T) {
	a := NewAuthenticator(&mockAdminRepo{}, "test-secret", time.Hour)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := a.VerifyToken(token); err == nil {
			t.Errorf("VerifyToken(%q) expected error, got nil", token)
		}
	}
}

// TestChangePassword_Success はパスワード変更が成功することを検証する。
func TestChangePassword_Success(t *testing.T) {
	admin := newTestAdmin(t, "old-password")
	var updated *model.AdminUser
	repo := &mockAdminRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.AdminUser, error) {
			return admin, nil
		},
		updateFunc: func(ctx context.Context, a *model.AdminUser) error {
			updated = a
			return nil
		},
	}

	a := NewAuthenticator(repo, "test-secret", time.Hour)

	err := a.ChangePassword(context.Background(), "admin-1", "old-password", "new-password")
	if err != nil {
		t.Fatalf("ChangePassword() error: %v", err)
	}
	if updated == nil {
		t.Fatal("Update was not called")
	}
	if updated.PasswordHash == "" || updated.PasswordHash == "old-password" {
		t.Error("password hash was not regenerated")
	}
}

// TestChangePassword_WrongCurrent は現在パスワードの不一致で失敗することを検証する。
func TestChangePassword_WrongCurrent(t *testing.T) {
	admin := newTestAdmin(t, "old-password")
	repo := &mockAdminRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.AdminUser, error) {
			return admin, nil
		},
	}

	a := NewAuthenticator(repo, "test-secret", time.Hour)

	err := a.ChangePassword(context.Background(), "admin-1", "wrong-password", "new-password")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("expected INVALID_CREDENTIALS, got %v", err)
	}
}

// TestChangePassword_TooShort は短すぎる新パスワードが拒否されることを検証する。
func TestChangePassword_TooShort(t *testing.T) {
	admin := newTestAdmin(t, "old-password")
	repo := &mockAdminRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.AdminUser, error) {
			return admin, nil
		},
	}

	a := NewAuthenticator(repo, "test-secret", time.Hour)

	err := a.ChangePassword(context.Background(), "admin-1", "old-password", "short")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("expected VALIDATION_FAILED, got %v", err)
	}
}
