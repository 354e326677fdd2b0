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

// AnnouncementInput はお知らせの作成入力。
type AnnouncementInput struct {
	Title   string
	Slug    string
	Body    string
	Excerpt string
	Publish bool
}

// AnnouncementUpdate はお知らせの部分更新入力。nilのフィールドは変更しない。
type AnnouncementUpdate struct {
	Title   *string
	Slug    *string
	Body    *string
	Excerpt *string
	Publish *bool
}

// AnnouncementService はお知らせのCRUDサービス。
type AnnouncementService struct {
	repo             repository.AnnouncementRepository
	notificationRepo repository.NotificationRepository
	sanitizer        security.ContentSanitizerService
	enqueuer         Enqueuer
	nowFunc          func() time.Time
}

// NewAnnouncementService はAnnouncementServiceを生成する。
func NewAnnouncementService(
	repo repository.AnnouncementRepository,
	notificationRepo repository.NotificationRepository,
	sanitizer security.ContentSanitizerService,
	enqueuer Enqueuer,
) *AnnouncementService {
	return &AnnouncementService{
		repo:             repo,
		notificationRepo: notificationRepo,
		sanitizer:        sanitizer,
		enqueuer:         enqueuer,
		nowFunc:          time.Now,
	}
}

// Create はお知らせを作成する。公開指定の場合は配信ジョブを登録する。
func (s *AnnouncementService) Create(ctx context.Context, input *AnnouncementInput) (*model.Announcement, error) {
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
	a := &model.Announcement{
		ID:        uuid.NewString(),
		Title:     input.Title,
		Slug:      input.Slug,
		Body:      s.sanitizer.Sanitize(input.Body),
		Excerpt:   input.Excerpt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Publish {
		a.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateSlugError(input.Slug)
		}
		return nil, fmt.Errorf("お知らせの作成に失敗しました: %w", err)
	}

	if input.Publish {
		enqueueFanout(s.enqueuer, s.payload(a))
	}
	return a, nil
}

// Update はお知らせを部分更新する。未公開から公開への変更時は配信ジョブを登録する。
func (s *AnnouncementService) Update(ctx context.Context, id string, update *AnnouncementUpdate) (*model.Announcement, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("お知らせの取得に失敗しました: %w", err)
	}
	if a == nil {
		return nil, model.NewContentNotFoundError()
	}

	if update.Title != nil {
		if err := validateTitle(*update.Title); err != nil {
			return nil, err
		}
		a.Title = *update.Title
	}
	if update.Slug != nil {
		if err := validateSlug(*update.Slug); err != nil {
			return nil, err
		}
		a.Slug = *update.Slug
	}
	if update.Body != nil {
		if *update.Body == "" {
			return nil, model.NewValidationError("本文は必須です")
		}
		a.Body = s.sanitizer.Sanitize(*update.Body)
	}
	if update.Excerpt != nil {
		a.Excerpt = *update.Excerpt
	}

	now := s.nowFunc()
	justPublished := false
	if update.Publish != nil {
		if *update.Publish && a.PublishedAt == nil {
			a.PublishedAt = &now
			justPublished = true
		}
		if !*update.Publish {
			a.PublishedAt = nil
		}
	}
	a.UpdatedAt = now

	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateSlugError(a.Slug)
		}
		return nil, fmt.Errorf("お知らせの更新に失敗しました: %w", err)
	}

	// 公開済みコンテンツの編集では再配信しない
	if justPublished {
		enqueueFanout(s.enqueuer, s.payload(a))
	}
	return a, nil
}

// Get は指定IDのお知らせを返す。
func (s *AnnouncementService) Get(ctx context.Context, id string) (*model.Announcement, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("お知らせの取得に失敗しました: %w", err)
	}
	if a == nil {
		return nil, model.NewContentNotFoundError()
	}
	return a, nil
}

// GetBySlug は指定スラッグのお知らせを返す。
// publishedOnlyがtrueの場合、未公開コンテンツは見つからない扱いにする。
func (s *AnnouncementService) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Announcement, error) {
	a, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("お知らせの取得に失敗しました: %w", err)
	}
	if a == nil || (publishedOnly && !isPublished(a.PublishedAt, s.nowFunc())) {
		return nil, model.NewContentNotFoundError()
	}
	return a, nil
}

// List はお知らせ一覧を返す。
func (s *AnnouncementService) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Announcement, error) {
	return s.repo.List(ctx, publishedOnly, limit, offset)
}

// Delete はお知らせと、その配信監査レコードを削除する。
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("お知らせの取得に失敗しました: %w", err)
	}
	if a == nil {
		return model.NewContentNotFoundError()
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("お知らせの削除に失敗しました: %w", err)
	}
	if err := s.notificationRepo.DeleteByContent(ctx, model.ContentTypeAnnouncement, id); err != nil {
		return fmt.Errorf("配信レコードの削除に失敗しました: %w", err)
	}
	return nil
}

// ListNotifications は指定お知らせの配信監査レコードを返す。
func (s *AnnouncementService) ListNotifications(ctx context.Context, id string, limit, offset int) ([]*model.Notification, error) {
	return s.notificationRepo.ListByContent(ctx, model.ContentTypeAnnouncement, id, limit, offset)
}

func (s *AnnouncementService) payload(a *model.Announcement) *model.NotificationPayload {
	return &model.NotificationPayload{
		ContentType: model.ContentTypeAnnouncement,
		ContentID:   a.ID,
		Title:       a.Title,
		Excerpt:     a.Excerpt,
		Body:        a.Body,
		Slug:        a.Slug,
	}
}

// isPublished は公開日時が設定済みかつ現在時刻以前であるかを返す。
func isPublished(publishedAt *time.Time, now time.Time) bool {
	return publishedAt != nil && !publishedAt.After(now)
}
