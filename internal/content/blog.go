package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jbbc/jbbc-api/internal/metrics"
	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/repository"
	"github.com/jbbc/jbbc-api/internal/security"
)

// BlogPostInput はブログ記事の作成入力。
type BlogPostInput struct {
	Title         string
	Slug          string
	Body          string
	Excerpt       string
	CoverImageURL string
	Publish       bool
}

// BlogPostUpdate はブログ記事の部分更新入力。nilのフィールドは変更しない。
type BlogPostUpdate struct {
	Title         *string
	Slug          *string
	Body          *string
	Excerpt       *string
	CoverImageURL *string
	Publish       *bool
}

// BlogService はブログ記事のCRUDといいねトグルのサービス。
// ブログ記事はメール配信の対象外。
type BlogService struct {
	repo      repository.BlogPostRepository
	sanitizer security.ContentSanitizerService
	collector metrics.MetricsCollector
	nowFunc   func() time.Time
}

// NewBlogService はBlogServiceを生成する。collectorはnil可。
func NewBlogService(
	repo repository.BlogPostRepository,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
) *BlogService {
	return &BlogService{
		repo:      repo,
		sanitizer: sanitizer,
		collector: collector,
		nowFunc:   time.Now,
	}
}

// Create はブログ記事を作成する。
func (s *BlogService) Create(ctx context.Context, input *BlogPostInput) (*model.BlogPost, error) {
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
	p := &model.BlogPost{
		ID:            uuid.NewString(),
		Title:         input.Title,
		Slug:          input.Slug,
		Body:          s.sanitizer.Sanitize(input.Body),
		Excerpt:       input.Excerpt,
		CoverImageURL: input.CoverImageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if input.Publish {
		p.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateSlugError(input.Slug)
		}
		return nil, fmt.Errorf("ブログ記事の作成に失敗しました: %w", err)
	}
	return p, nil
}

// Update はブログ記事を部分更新する。
func (s *BlogService) Update(ctx context.Context, id string, update *BlogPostUpdate) (*model.BlogPost, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ブログ記事の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewContentNotFoundError()
	}

	if update.Title != nil {
		if err := validateTitle(*update.Title); err != nil {
			return nil, err
		}
		p.Title = *update.Title
	}
	if update.Slug != nil {
		if err := validateSlug(*update.Slug); err != nil {
			return nil, err
		}
		p.Slug = *update.Slug
	}
	if update.Body != nil {
		if *update.Body == "" {
			return nil, model.NewValidationError("本文は必須です")
		}
		p.Body = s.sanitizer.Sanitize(*update.Body)
	}
	if update.Excerpt != nil {
		p.Excerpt = *update.Excerpt
	}
	if update.CoverImageURL != nil {
		p.CoverImageURL = *update.CoverImageURL
	}

	now := s.nowFunc()
	if update.Publish != nil {
		if *update.Publish && p.PublishedAt == nil {
			p.PublishedAt = &now
		}
		if !*update.Publish {
			p.PublishedAt = nil
		}
	}
	p.UpdatedAt = now

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateSlugError(p.Slug)
		}
		return nil, fmt.Errorf("ブログ記事の更新に失敗しました: %w", err)
	}
	return p, nil
}

// Get は指定IDのブログ記事を返す。
func (s *BlogService) Get(ctx context.Context, id string) (*model.BlogPost, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ブログ記事の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewContentNotFoundError()
	}
	return p, nil
}

// GetBySlug は指定スラッグのブログ記事を返す。
func (s *BlogService) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.BlogPost, error) {
	p, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("ブログ記事の取得に失敗しました: %w", err)
	}
	if p == nil || (publishedOnly && !isPublished(p.PublishedAt, s.nowFunc())) {
		return nil, model.NewContentNotFoundError()
	}
	return p, nil
}

// List はブログ記事一覧を返す。
func (s *BlogService) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.BlogPost, error) {
	return s.repo.List(ctx, publishedOnly, limit, offset)
}

// Delete はブログ記事を削除する。
func (s *BlogService) Delete(ctx context.Context, id string) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ブログ記事の取得に失敗しました: %w", err)
	}
	if p == nil {
		return model.NewContentNotFoundError()
	}
	return s.repo.DeleteByID(ctx, id)
}

// ToggleLike は指定スラッグの記事へのいいねをトグルする。
// 同一訪問者の識別にはIPアドレスとUser-Agentから導出したキーを使用する。
// トグル後の状態と最新カウントを返す。
func (s *BlogService) ToggleLike(ctx context.Context, slug, clientIP, userAgent string) (liked bool, likeCount int, err error) {
	p, err := s.GetBySlug(ctx, slug, true)
	if err != nil {
		return false, 0, err
	}

	liked, likeCount, err = s.repo.ToggleLike(ctx, p.ID, UserKey(clientIP, userAgent))
	if err != nil {
		return false, 0, fmt.Errorf("いいねの更新に失敗しました: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordLikeToggled()
	}
	return liked, likeCount, nil
}

// UserKey はIPアドレスとUser-Agentから匿名の訪問者キーを導出する。
func UserKey(clientIP, userAgent string) string {
	sum := sha256.Sum256([]byte(clientIP + userAgent))
	return hex.EncodeToString(sum[:])
}
