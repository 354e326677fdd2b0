// Package contact はお問い合わせフォームの受付を提供する。
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/repository"
)

// Forwarder はお問い合わせ内容のスプレッドシート転送インターフェース。
// sheets.Forwarderが実装する。
type Forwarder interface {
	ForwardContact(ctx context.Context, c *model.ContactSubmission) error
}

// SubmissionInput はお問い合わせフォームの入力。
type SubmissionInput struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Message string
}

// Service はお問い合わせ受付のビジネスロジック。
type Service struct {
	repo      repository.ContactRepository
	forwarder Forwarder
	nowFunc   func() time.Time
}

// NewService はServiceを生成する。forwarderはnil可。
func NewService(repo repository.ContactRepository, forwarder Forwarder) *Service {
	return &Service{
		repo:      repo,
		forwarder: forwarder,
		nowFunc:   time.Now,
	}
}

// Submit はお問い合わせを受け付ける。
// データベースに保存した後、スプレッドシートにベストエフォートで転送する。
// 転送の失敗は受付自体の失敗にはしない。
func (s *Service) Submit(ctx context.Context, input *SubmissionInput) (*model.ContactSubmission, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewValidationError("お名前は必須です")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, model.NewValidationError("お問い合わせ内容は必須です")
	}

	c := &model.ContactSubmission{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Company:   input.Company,
		Message:   input.Message,
		CreatedAt: s.nowFunc(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("お問い合わせの保存に失敗しました: %w", err)
	}

	if s.forwarder != nil {
		if err := s.forwarder.ForwardContact(ctx, c); err != nil {
			slog.Warn("contact forwarding failed",
				slog.String("contact_id", c.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return c, nil
}

// List はお問い合わせ一覧を返す。管理画面用。
func (s *Service) List(ctx context.Context, limit, offset int) ([]*model.ContactSubmission, error) {
	return s.repo.List(ctx, limit, offset)
}
