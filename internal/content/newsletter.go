package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/repository"
	"github.com/jbbc/jbbc-api/internal/security"
)

// NewsletterInput はメールマガジンの作成入力。
type NewsletterInput struct {
	Title   string
	Slug    string
	Body    string
	Excerpt string
	Publish bool
}

// NewsletterUpdate はメールマガジンの部分更新入力。nilのフィールドは変更しない。
type NewsletterUpdate struct {
	Title   *string
	Slug    *string
	Body    *string
	Excerpt *string
	Publish *bool
}

// NewsletterService はメールマガジンのCRUDサービス。
type NewsletterService struct {
	repo             repository.NewsletterRepository
	notificationRepo repository.NotificationRepository
	sanitizer        security.ContentSanitizerService
	enqueuer         Enqueuer
	nowFunc          func() time.Time
}

// NewNewsletterService はNewsletterServiceを生成する。
func NewNewsletterService(
	repo repository.NewsletterRepository,
	notificationRepo repository.NotificationRepository,
	sanitizer security.ContentSanitizerService,
	enqueuer Enqueuer,
) *NewsletterService {
	return &NewsletterService{
		repo:             repo,
		notificationRepo: notificationRepo,
		sanitizer:        sanitizer,
		enqueuer:         enqueuer,
		nowFunc:          time.Now,
	}
}

// Create はメールマガジンを作成する。公開指定の場合は配信ジョブを登録する。
func (s *NewsletterService) Create(ctx context.Context, input *NewsletterInput) (*model.Newsletter, error) {
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if err := validateSlug(input.Slug); err != nil {
		return nil, err
	}
	if input.Body == "" {
		return nil, model.NewValidationError("本文は必須です")
	}

	now := s.nowFunc()
	n := &model.Newsletter{
		ID:        uuid.NewString(),
		Title:     input.Title,
		Slug:      input.Slug,
		Body:      s.sanitizer.Sanitize(input.Body),
		Excerpt:   input.Excerpt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Publish {
		n.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, n); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateSlugError(input.Slug)
		}
		return nil, fmt.Errorf("メールマガジンの作成に失敗しました: %w", err)
	}

	if input.Publish {
		enqueueFanout(s.enqueuer, s.payload(n))
	}
	return n, nil
}

// Update はメールマガジンを部分更新する。未公開から公開への変更時は配信ジョブを登録する。
func (s *NewsletterService) Update(ctx context.Context, id string, update *NewsletterUpdate) (*model.Newsletter, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("メールマガジンの取得に失敗しました: %w", err)
	}
	if n == nil {
		return nil, model.NewContentNotFoundError()
	}

	if update.Title != nil {
		if err := validateTitle(*update.Title); err != nil {
			return nil, err
		}
		n.Title = *update.Title
	}
	if update.Slug != nil {
		if err := validateSlug(*update.Slug); err != nil {
			return nil, err
		}
		n.Slug = *update.Slug
	}
	if update.Body != nil {
		if *update.Body == "" {
			return nil, model.NewValidationError("本文は必須です")
		}
		n.Body = s.sanitizer.Sanitize(*update.Body)
	}
	if update.Excerpt != nil {
		n.Excerpt = *update.Excerpt
	}

	now := s.nowFunc()
	justPublished := false
	if update.Publish != nil {
		if *update.Publish && n.PublishedAt == nil {
			n.PublishedAt = &now
			justPublished = true
		}
		if !*update.Publish {
			n.PublishedAt = nil
		}
	}
	n.UpdatedAt = now

	if err := s.repo.Update(ctx, n); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateSlugError(n.Slug)
		}
		return nil, fmt.Errorf("メールマガジンの更新に失敗しました: %w", err)
	}

	if justPublished {
		enqueueFanout(s.enqueuer, s.payload(n))
	}
	return n, nil
}

// Get は指定IDのメールマガジンを返す。
func (s *NewsletterService) Get(ctx context.Context, id string) (*model.Newsletter, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("メールマガジンの取得に失敗しました: %w", err)
	}
	if n == nil {
		return nil, model.NewContentNotFoundError()
	}
	return n, nil
}

// GetBySlug は指定スラッグのメールマガジンを返す。
func (s *NewsletterService) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Newsletter, error) {
	n, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("メールマガジンの取得に失敗しました: %w", err)
	}
	if n == nil || (publishedOnly && !isPublished(n.PublishedAt, s.nowFunc())) {
		return nil, model.NewContentNotFoundError()
	}
	return n, nil
}

// List はメールマガジン一覧を返す。
func (s *NewsletterService) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Newsletter, error) {
	return s.repo.List(ctx, publishedOnly, limit, offset)
}

// Delete はメールマガジンと、その配信監査レコードを削除する。
func (s *NewsletterService) Delete(ctx context.Context, id string) error {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("メールマガジンの取得に失敗しました: %w", err)
	}
	if n == nil {
		return model.NewContentNotFoundError()
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("メールマガジンの削除に失敗しました: %w", err)
	}
	if err := s.notificationRepo.DeleteByContent(ctx, model.ContentTypeNewsletter, id); err != nil {
		return fmt.Errorf("配信レコードの削除に失敗しました: %w", err)
	}
	return nil
}

// ListNotifications は指定メールマガジンの配信監査レコードを返す。
func (s *NewsletterService) ListNotifications(ctx context.Context, id string, limit, offset int) ([]*model.Notification, error) {
	return s.notificationRepo.ListByContent(ctx, model.ContentTypeNewsletter, id, limit, offset)
}

func (s *NewsletterService) payload(n *model.Newsletter) *model.NotificationPayload {
	return &model.NotificationPayload{
		ContentType: model.ContentTypeNewsletter,
		ContentID:   n.ID,
		Title:       n.Title,
		Excerpt:     n.Excerpt,
		Body:        n.Body,
		Slug:        n.Slug,
	}
}
