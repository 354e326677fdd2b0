// Package adminuser は管理者アカウントのCRUDを提供する。
package adminuser

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/repository"
)

// パスワードの最小文字数。
const minPasswordLength = 8

// CreateInput は管理者の作成入力。
type CreateInput struct {
	Email    string
	Name     string
	Password string
}

// UpdateInput は管理者の部分更新入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Name     *string
	Password *string
}

// Service は管理者アカウント管理のビジネスロジック。
type Service struct {
	repo    repository.AdminUserRepository
	nowFunc func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.AdminUserRepository) *Service {
	return &Service{
		repo:    repo,
		nowFunc: time.Now,
	}
}

// List は全管理者を返す。
func (s *Service) List(ctx context.Context) ([]*model.AdminUser, error) {
	return s.repo.List(ctx)
}

// Get は指定IDの管理者を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.AdminUser, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("管理者の取得に失敗しました: %w", err)
	}
	if admin == nil {
		return nil, model.NewAdminNotFoundError()
	}
	return admin, nil
}

// Create は管理者を作成する。メールアドレス重複時は409エラーを返す。
func (s *Service) Create(ctx context.Context, input *CreateInput) (*model.AdminUser, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewValidationError("名前は必須です")
	}
	if len(input.Password) < minPasswordLength {
		return nil, model.NewValidationError(fmt.Sprintf("パスワードは%d文字以上で指定してください", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := s.nowFunc()
	admin := &model.AdminUser{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         input.Name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateEmailError()
		}
		return nil, fmt.Errorf("管理者の作成に失敗しました: %w", err)
	}
	return admin, nil
}

// Update は管理者の名前とパスワードを更新する。
func (s *Service) Update(ctx context.Context, id string, input *UpdateInput) (*model.AdminUser, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("管理者の取得に失敗しました: %w", err)
	}
	if admin == nil {
		return nil, model.NewAdminNotFoundError()
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, model.NewValidationError("名前は必須です")
		}
		admin.Name = *input.Name
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, model.NewValidationError(fmt.Sprintf("パスワードは%d文字以上で指定してください", minPasswordLength))
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
		}
		admin.PasswordHash = string(hash)
	}
	admin.UpdatedAt = s.nowFunc()

	if err := s.repo.Update(ctx, admin); err != nil {
		return nil, fmt.Errorf("管理者の更新に失敗しました: %w", err)
	}
	return admin, nil
}

// Delete は管理者を削除する。自分自身のアカウントは削除できない。
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	if id == requesterID {
		return model.NewSelfDeleteForbiddenError()
	}

	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("管理者の取得に失敗しました: %w", err)
	}
	if admin == nil {
		return model.NewAdminNotFoundError()
	}
	return s.repo.DeleteByID(ctx, id)
}
