package content

import (
	"context"
	"sync"

	"github.com/jbbc/jbbc-api/internal/fanout"
	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/repository"
)

// passthroughSanitizer はテスト用のContentSanitizerService実装。
// サニタイズが呼ばれたことを追跡できるようマーカーを付与する。
type passthroughSanitizer struct {
	calls []string
}

func (s *passthroughSanitizer) Sanitize(rawHTML string) string {
	s.calls = append(s.calls, rawHTML)
	return "[sanitized]" + rawHTML
}

// mockEnqueuer はEnqueuerのモック実装。
type mockEnqueuer struct {
	mu       sync.Mutex
	payloads []*model.NotificationPayload
	err      error
}

func (m *mockEnqueuer) Enqueue(payload *model.NotificationPayload) (*fanout.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.payloads = append(m.payloads, payload)
	return &fanout.Job{ID: "job-1", Status: fanout.JobStatusQueued}, nil
}

// mockAnnouncementRepo はAnnouncementRepositoryのモック実装。
type mockAnnouncementRepo struct {
	findByIDFunc   func(ctx context.Context, id string) (*model.Announcement, error)
	findBySlugFunc func(ctx context.Context, slug string) (*model.Announcement, error)
	createFunc     func(ctx context.Context, a *model.Announcement) error
	updateFunc     func(ctx context.Context, a *model.Announcement) error
	deleteFunc     func(ctx context.Context, id string) error
}

func (m *mockAnnouncementRepo) FindByID(ctx context.Context, id string) (*model.Announcement, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAnnouncementRepo) FindBySlug(ctx context.Context, slug string) (*model.Announcement, error) {
	if m.findBySlugFunc != nil {
		return m.findBySlugFunc(ctx, slug)
	}
	return nil, nil
}

func (m *mockAnnouncementRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Announcement, error) {
	return nil, nil
}

func (m *mockAnnouncementRepo) Create(ctx context.Context, a *model.Announcement) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, a)
	}
	return nil
}

func (m *mockAnnouncementRepo) Update(ctx context.Context, a *model.Announcement) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, a)
	}
	return nil
}

func (m *mockAnnouncementRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

var _ repository.AnnouncementRepository = (*mockAnnouncementRepo)(nil)

// mockNotificationRepo はNotificationRepositoryのモック実装。
type mockNotificationRepo struct {
	deletedContentIDs []string
}

func (m *mockNotificationRepo) CreateBatch(ctx context.Context, notifications []*model.Notification) error {
	return nil
}

func (m *mockNotificationRepo) ListByContent(ctx context.Context, contentType model.ContentType, contentID string, limit, offset int) ([]*model.Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) DeleteByContent(ctx context.Context, contentType model.ContentType, contentID string) error {
	m.deletedContentIDs = append(m.deletedContentIDs, contentID)
	return nil
}

var _ repository.NotificationRepository = (*mockNotificationRepo)(nil)

// mockBlogRepo はBlogPostRepositoryのモック実装。
type mockBlogRepo struct {
	findByIDFunc   func(ctx context.Context, id string) (*model.BlogPost, error)
	findBySlugFunc func(ctx context.Context, slug string) (*model.BlogPost, error)
	createFunc     func(ctx context.Context, p *model.BlogPost) error
	updateFunc     func(ctx context.Context, p *model.BlogPost) error
	toggleLikeFunc func(ctx context.Context, postID, userKey string) (bool, int, error)
}

func (m *mockBlogRepo) FindByID(ctx context.Context, id string) (*model.BlogPost, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockBlogRepo) FindBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	if m.findBySlugFunc != nil {
		return m.findBySlugFunc(ctx, slug)
	}
	return nil, nil
}

func (m *mockBlogRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.BlogPost, error) {
	return nil, nil
}

func (m *mockBlogRepo) Create(ctx context.Context, p *model.BlogPost) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	return nil
}

func (m *mockBlogRepo) Update(ctx context.Context, p *model.BlogPost) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, p)
	}
	return nil
}

func (m *mockBlogRepo) DeleteByID(ctx context.Context, id string) error {
	return nil
}

func (m *mockBlogRepo) ToggleLike(ctx context.Context, postID, userKey string) (bool, int, error) {
	if m.toggleLikeFunc != nil {
		return m.toggleLikeFunc(ctx, postID, userKey)
	}
	return false, 0, nil
}

var _ repository.BlogPostRepository = (*mockBlogRepo)(nil)

// mockSeminarRepo はSeminarRepositoryのモック実装。
type mockSeminarRepo struct {
	findByIDFunc    func(ctx context.Context, id string) (*model.Seminar, error)
	findBySlugFunc  func(ctx context.Context, slug string) (*model.Seminar, error)
	createFunc      func(ctx context.Context, s *model.Seminar) error
	updateFunc      func(ctx context.Context, s *model.Seminar) error
	registrations   []*model.SeminarRegistration
	registrationErr error
}

func (m *mockSeminarRepo) FindByID(ctx context.Context, id string) (*model.Seminar, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockSeminarRepo) FindBySlug(ctx context.Context, slug string) (*model.Seminar, error) {
	if m.findBySlugFunc != nil {
		return m.findBySlugFunc(ctx, slug)
	}
	return nil, nil
}

func (m *mockSeminarRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Seminar, error) {
	return nil, nil
}

func (m *mockSeminarRepo) Create(ctx context.Context, s *model.Seminar) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, s)
	}
	return nil
}

func (m *mockSeminarRepo) Update(ctx context.Context, s *model.Seminar) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, s)
	}
	return nil
}

func (m *mockSeminarRepo) DeleteByID(ctx context.Context, id string) error {
	return nil
}

func (m *mockSeminarRepo) CreateRegistration(ctx context.Context, reg *model.SeminarRegistration) error {
	if m.registrationErr != nil {
		return m.registrationErr
	}
	m.registrations = append(m.registrations, reg)
	return nil
}

func (m *mockSeminarRepo) ListRegistrations(ctx context.Context, seminarID string) ([]*model.SeminarRegistration, error) {
	return m.registrations, nil
}

var _ repository.SeminarRepository = (*mockSeminarRepo)(nil)
