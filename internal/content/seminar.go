package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/repository"
	"github.com/jbbc/jbbc-api/internal/security"
)

// SeminarInput はセミナーの作成入力。
type SeminarInput struct {
	Title           string
	Slug            string
	Body            string
	Excerpt         string
	StartsAt        time.Time
	EndsAt          *time.Time
	Location        string
	SpeakerName     string
	SpeakerTitle    string
	RegistrationURL string
	Publish         bool
}

// SeminarUpdate はセミナーの部分更新入力。nilのフィールドは変更しない。
type SeminarUpdate struct {
	Title           *string
	Slug            *string
	Body            *string
	Excerpt         *string
	StartsAt        *time.Time
	EndsAt          *time.Time
	Location        *string
	SpeakerName     *string
	SpeakerTitle    *string
	RegistrationURL *string
	Publish         *bool
}

// RegistrationInput はセミナー参加申し込みの入力。
type RegistrationInput struct {
	Name  string
	Email string
	Phone string
}

// RegistrationForwarder は申し込み内容のスプレッドシート転送インターフェース。
// sheets.Forwarderが実装する。
type RegistrationForwarder interface {
	ForwardSeminarRegistration(ctx context.Context, seminarTitle string, reg *model.SeminarRegistration) error
}

// SeminarService はセミナーのCRUDと参加申し込みのサービス。
type SeminarService struct {
	repo             repository.SeminarRepository
	notificationRepo repository.NotificationRepository
	sanitizer        security.ContentSanitizerService
	enqueuer         Enqueuer
	forwarder        RegistrationForwarder
	nowFunc          func() time.Time
}

// NewSeminarService はSeminarServiceを生成する。forwarderはnil可。
func NewSeminarService(
	repo repository.SeminarRepository,
	notificationRepo repository.NotificationRepository,
	sanitizer security.ContentSanitizerService,
	enqueuer Enqueuer,
	forwarder RegistrationForwarder,
) *SeminarService {
	return &SeminarService{
		repo:             repo,
		notificationRepo: notificationRepo,
		sanitizer:        sanitizer,
		enqueuer:         enqueuer,
		forwarder:        forwarder,
		nowFunc:          time.Now,
	}
}

// Create はセミナーを作成する。公開指定の場合は配信ジョブを登録する。
func (s *SeminarService) Create(ctx context.Context, input *SeminarInput) (*model.Seminar, error) {
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if err := validateSlug(input.Slug); err != nil {
		return nil, err
	}
	if input.Body == "" {
		return nil, model.NewValidationError("本文は必須です")
	}
	if input.StartsAt.IsZero() {
		return nil, model.NewValidationError("開催日時は必須です")
	}
	if input.EndsAt != nil && input.EndsAt.Before(input.StartsAt) {
		return nil, model.NewValidationError("終了日時は開催日時より後を指定してください")
	}

	now := s.nowFunc()
	sem := &model.Seminar{
		ID:              uuid.NewString(),
		Title:           input.Title,
		Slug:            input.Slug,
		Body:            s.sanitizer.Sanitize(input.Body),
		Excerpt:         input.Excerpt,
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		Location:        input.Location,
		SpeakerName:     input.SpeakerName,
		SpeakerTitle:    input.SpeakerTitle,
		RegistrationURL: input.RegistrationURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.Publish {
		sem.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, sem); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateSlugError(input.Slug)
		}
		return nil, fmt.Errorf("セミナーの作成に失敗しました: %w", err)
	}

	if input.Publish {
		enqueueFanout(s.enqueuer, s.payload(sem))
	}
	return sem, nil
}

// Update はセミナーを部分更新する。未公開から公開への変更時は配信ジョブを登録する。
func (s *SeminarService) Update(ctx context.Context, id string, update *SeminarUpdate) (*model.Seminar, error) {
	sem, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("セミナーの取得に失敗しました: %w", err)
	}
	if sem == nil {
		return nil, model.NewContentNotFoundError()
	}

	if update.Title != nil {
		if err := validateTitle(*update.Title); err != nil {
			return nil, err
		}
		sem.Title = *update.Title
	}
	if update.Slug != nil {
		if err := validateSlug(*update.Slug); err != nil {
			return nil, err
		}
		sem.Slug = *update.Slug
	}
	if update.Body != nil {
		if *update.Body == "" {
			return nil, model.NewValidationError("本文は必須です")
		}
		sem.Body = s.sanitizer.Sanitize(*update.Body)
	}
	if update.Excerpt != nil {
		sem.Excerpt = *update.Excerpt
	}
	if update.StartsAt != nil {
		sem.StartsAt = *update.StartsAt
	}
	if update.EndsAt != nil {
		sem.EndsAt = update.EndsAt
	}
	if update.Location != nil {
		sem.Location = *update.Location
	}
	if update.SpeakerName != nil {
		sem.SpeakerName = *update.SpeakerName
	}
	if update.SpeakerTitle != nil {
		sem.SpeakerTitle = *update.SpeakerTitle
	}
	if update.RegistrationURL != nil {
		sem.RegistrationURL = *update.RegistrationURL
	}
	if sem.EndsAt != nil && sem.EndsAt.Before(sem.StartsAt) {
		return nil, model.NewValidationError("終了日時は開催日時より後を指定してください")
	}

	now := s.nowFunc()
	justPublished := false
	if update.Publish != nil {
		if *update.Publish && sem.PublishedAt == nil {
			sem.PublishedAt = &now
			justPublished = true
		}
		if !*update.Publish {
			sem.PublishedAt = nil
		}
	}
	sem.UpdatedAt = now

	if err := s.repo.Update(ctx, sem); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateSlugError(sem.Slug)
		}
		return nil, fmt.Errorf("セミナーの更新に失敗しました: %w", err)
	}

	if justPublished {
		enqueueFanout(s.enqueuer, s.payload(sem))
	}
	return sem, nil
}

// Get は指定IDのセミナーを返す。
func (s *SeminarService) Get(ctx context.Context, id string) (*model.Seminar, error) {
	sem, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("セミナーの取得に失敗しました: %w", err)
	}
	if sem == nil {
		return nil, model.NewContentNotFoundError()
	}
	return sem, nil
}

// GetBySlug は指定スラッグのセミナーを返す。
func (s *SeminarService) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Seminar, error) {
	sem, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("セミナーの取得に失敗しました: %w", err)
	}
	if sem == nil || (publishedOnly && !isPublished(sem.PublishedAt, s.nowFunc())) {
		return nil, model.NewContentNotFoundError()
	}
	return sem, nil
}

// List はセミナー一覧を返す。
func (s *SeminarService) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Seminar, error) {
	return s.repo.List(ctx, publishedOnly, limit, offset)
}

// Delete はセミナーと、その配信監査レコードを削除する。
func (s *SeminarService) Delete(ctx context.Context, id string) error {
	sem, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("セミナーの取得に失敗しました: %w", err)
	}
	if sem == nil {
		return model.NewContentNotFoundError()
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("セミナーの削除に失敗しました: %w", err)
	}
	if err := s.notificationRepo.DeleteByContent(ctx, model.ContentTypeSeminar, id); err != nil {
		return fmt.Errorf("配信レコードの削除に失敗しました: %w", err)
	}
	return nil
}

// Register はセミナー参加申し込みを受け付ける。
// 申し込みはデータベースに保存した後、スプレッドシートにベストエフォートで転送する。
func (s *SeminarService) Register(ctx context.Context, slug string, input *RegistrationInput) (*model.SeminarRegistration, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewValidationError("お名前は必須です")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, model.NewValidationError("メールアドレスの形式が正しくありません")
	}

	sem, err := s.GetBySlug(ctx, slug, true)
	if err != nil {
		return nil, err
	}

	reg := &model.SeminarRegistration{
		ID:        uuid.NewString(),
		SeminarID: sem.ID,
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		CreatedAt: s.nowFunc(),
	}
	if err := s.repo.CreateRegistration(ctx, reg); err != nil {
		return nil, fmt.Errorf("参加申し込みの保存に失敗しました: %w", err)
	}

	if s.forwarder != nil {
		if err := s.forwarder.ForwardSeminarRegistration(ctx, sem.Title, reg); err != nil {
			slog.Warn("seminar registration forwarding failed",
				slog.String("registration_id", reg.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return reg, nil
}

// ListRegistrations は指定セミナーの参加申し込み一覧を返す。管理画面用。
func (s *SeminarService) ListRegistrations(ctx context.Context, seminarID string) ([]*model.SeminarRegistration, error) {
	return s.repo.ListRegistrations(ctx, seminarID)
}

// ListNotifications は指定セミナーの配信監査レコードを返す。
func (s *SeminarService) ListNotifications(ctx context.Context, id string, limit, offset int) ([]*model.Notification, error) {
	return s.notificationRepo.ListByContent(ctx, model.ContentTypeSeminar, id, limit, offset)
}

func (s *SeminarService) payload(sem *model.Seminar) *model.NotificationPayload {
	return &model.NotificationPayload{
		ContentType: model.ContentTypeSeminar,
		ContentID:   sem.ID,
		Title:       sem.Title,
		Excerpt:     sem.Excerpt,
		Body:        sem.Body,
		Slug:        sem.Slug,
	}
}
