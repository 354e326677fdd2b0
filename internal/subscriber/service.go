// Package subscriber は購読者のライフサイクル管理を提供する。
package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jbbc/jbbc-api/internal/metrics"
	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/repository"
)

// Service は購読登録・配信停止のビジネスロジック。
type Service struct {
	repo      repository.SubscriberRepository
	collector metrics.MetricsCollector
	nowFunc   func() time.Time
}

// NewService はServiceを生成する。collectorはnil可。
func NewService(repo repository.SubscriberRepository, collector metrics.MetricsCollector) *Service {
	return &Service{
		repo:      repo,
		collector: collector,
		nowFunc:   time.Now,
	}
}

// Subscribe はメールアドレスを配信リストに登録する。
// 配信停止済みの既存購読者は再アクティブ化し、
// アクティブな購読者の再登録はALREADY_SUBSCRIBEDエラーを返す。
func (s *Service) Subscribe(ctx context.Context, email string) (*model.Subscriber, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("購読者の検索に失敗しました: %w", err)
	}

	if existing != nil {
		if existing.IsActive() {
			return nil, model.NewAlreadySubscribedError()
		}
		// 配信停止済みの場合は再アクティブ化する
		if err := s.repo.SetUnsubscribed(ctx, existing.ID, false); err != nil {
			return nil, fmt.Errorf("購読の再開に失敗しました: %w", err)
		}
		existing.UnsubscribedAt = nil
		s.recordSignup()
		slog.Info("subscriber reactivated", slog.String("subscriber_id", existing.ID))
		return existing, nil
	}

	sub := &model.Subscriber{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: s.nowFunc(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		// 同時登録で一意制約に当たった場合も登録済み扱い
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewAlreadySubscribedError()
		}
		return nil, fmt.Errorf("購読者の登録に失敗しました: %w", err)
	}

	s.recordSignup()
	slog.Info("subscriber created", slog.String("subscriber_id", sub.ID))
	return sub, nil
}

// Unsubscribe はメールアドレスの配信を停止する。
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("購読者の検索に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewSubscriberNotFoundError()
	}
	if !existing.IsActive() {
		return model.NewAlreadyUnsubscribedError()
	}

	if err := s.repo.SetUnsubscribed(ctx, existing.ID, true); err != nil {
		return fmt.Errorf("配信停止に失敗しました: %w", err)
	}

	slog.Info("subscriber unsubscribed", slog.String("subscriber_id", existing.ID))
	return nil
}

// List は購読者一覧を返す。管理画面用。
func (s *Service) List(ctx context.Context, limit, offset int) ([]*model.Subscriber, error) {
	return s.repo.List(ctx, limit, offset)
}

// CountActive はアクティブな購読者数を返す。
func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}

// Delete は購読者を物理削除する。管理画面からの明示操作専用。
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("購読者の検索に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewSubscriberNotFoundError()
	}
	return s.repo.DeleteByID(ctx, id)
}

func (s *Service) recordSignup() {
	if s.collector != nil {
		s.collector.RecordSubscriberSignup()
	}
}

// normalizeEmail はメールアドレスを検証し、小文字化して返す。
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", model.NewValidationError("メールアドレスを入力してください")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	return strings.ToLower(email), nil
}
