// Package auth は管理者の認証とセッショントークンの発行・検証を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/repository"
)

// sessionClaims はセッショントークンのクレーム。
// 管理者IDはRegisteredClaimsのSubjectに載せる。
type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Authenticator は管理者認証とステートレスなセッショントークンを管理する。
// トークンはHMAC-SHA256で署名され、サーバー側にセッション状態を持たない。
type Authenticator struct {
	adminRepo repository.AdminUserRepository
	secret    []byte
	maxAge    time.Duration
}

// NewAuthenticator はAuthenticatorを生成する。
// maxAgeは発行するトークンの有効期間。
func NewAuthenticator(adminRepo repository.AdminUserRepository, secret string, maxAge time.Duration) *Authenticator {
	return &Authenticator{
		adminRepo: adminRepo,
		secret:    []byte(secret),
		maxAge:    maxAge,
	}
}

// Login はメールアドレスとパスワードを検証し、成功時に管理者情報と
// セッショントークンを返す。
// メールアドレス不存在とパスワード不一致は呼び出し側から区別できないよう、
// どちらも同一の認証失敗エラーを返す。
func (a *Authenticator) Login(ctx context.Context, email, password string) (*model.AdminIdentity, string, error) {
	admin, err := a.adminRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("管理者の検索に失敗しました: %w", err)
	}
	if admin == nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login failed",
			slog.String("email", email),
		)
		return nil, "", model.NewInvalidCredentialsError()
	}

	identity := &model.AdminIdentity{
		ID:    admin.ID,
		Email: admin.Email,
		Name:  admin.Name,
	}

	token, err := a.issueToken(identity)
	if err != nil {
		return nil, "", fmt.Errorf("セッショントークンの発行に失敗しました: %w", err)
	}

	return identity, token, nil
}

// issueToken は管理者情報を載せた署名付きトークンを発行する。
func (a *Authenticator) issueToken(identity *model.AdminIdentity) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Email: identity.Email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// VerifyToken はセッショントークンの署名と有効期限を検証し、
// 管理者情報を返す。検証失敗時はエラーを返す。
func (a *Authenticator) VerifyToken(tokenString string) (*model.AdminIdentity, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("セッショントークンの検証に失敗しました: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("無効なセッショントークンです")
	}

	return &model.AdminIdentity{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}

// MaxAge は発行するトークンの有効期間を返す。Cookieの寿命設定に使用する。
func (a *Authenticator) MaxAge() time.Duration {
	return a.maxAge
}

// ChangePassword は現在のパスワードを検証した上で新しいパスワードに変更する。
func (a *Authenticator) ChangePassword(ctx context.Context, adminID, currentPassword, newPassword string) error {
	admin, err := a.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		return fmt.Errorf("管理者の取得に失敗しました: %w", err)
	}
	if admin == nil {
		return model.NewAdminNotFoundError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(currentPassword)); err != nil {
		return model.NewInvalidCredentialsError()
	}

	if len(newPassword) < 8 {
		return model.NewValidationError("パスワードは8文字以上で指定してください")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("パスワードハッシュの生成に失敗しました: %w", err)
	}

	admin.PasswordHash = hash
	if err := a.adminRepo.Update(ctx, admin); err != nil {
		return fmt.Errorf("パスワードの更新に失敗しました: %w", err)
	}

	slog.Info("password changed",
		slog.String("admin_id", adminID),
	)
	return nil
}

// HashPassword はbcryptでパスワードハッシュを生成する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
