package content

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jbbc/jbbc-api/internal/model"
)

// mockRegistrationForwarder はRegistrationForwarderのモック実装。
type mockRegistrationForwarder struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (m *mockRegistrationForwarder) ForwardSeminarRegistration(ctx context.Context, seminarTitle string, reg *model.SeminarRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = append(m.titles, seminarTitle)
	return m.err
}

func publishedSeminar(slug string) *model.Seminar {
	published := time.Now().Add(-time.Hour)
	return &model.Seminar{
		ID:          "sem-1",
		Title:       "外国人採用セミナー",
		Slug:        slug,
		Body:        "<p>本文</p>",
		StartsAt:    time.Now().Add(7 * 24 * time.Hour),
		PublishedAt: &published,
	}
}

// TestSeminarCreate_RequiresStartsAt は開催日時必須の検証を確認する。
func TestSeminarCreate_RequiresStartsAt(t *testing.T) {
	s := NewSeminarService(&mockSeminarRepo{}, &mockNotificationRepo{}, &passthroughSanitizer{}, &mockEnqueuer{}, nil)

	_, err := s.Create(context.Background(), &SeminarInput{
		Title: "セミナー",
		Slug:  "seminar",
		Body:  "<p>本文</p>",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("expected VALIDATION_FAILED, got %v", err)
	}
}

// TestSeminarCreate_EndsBeforeStarts は終了日時が開催日時より前の場合に
// 拒否されることを検証する。
func TestSeminarCreate_EndsBeforeStarts(t *testing.T) {
	s := NewSeminarService(&mockSeminarRepo{}, &mockNotificationRepo{}, &passthroughSanitizer{}, &mockEnqueuer{}, nil)

	starts := time.Now().Add(24 * time.Hour)
	ends := starts.Add(-time.Hour)
	_, err := s.Create(context.Background(), &SeminarInput{
		Title:    "セミナー",
		Slug:     "seminar",
		Body:     "<p>本文</p>",
		StartsAt: starts,
		EndsAt:   &ends,
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("expected VALIDATION_FAILED, got %v", err)
	}
}

// TestSeminarCreate_PublishEnqueuesFanout は公開指定の作成で配信ジョブが
// 登録されることを検証する。
func TestSeminarCreate_PublishEnqueuesFanout(t *testing.T) {
	enqueuer := &mockEnqueuer{}
	s := NewSeminarService(&mockSeminarRepo{}, &mockNotificationRepo{}, &passthroughSanitizer{}, enqueuer, nil)

	sem, err := s.Create(context.Background(), &SeminarInput{
		Title:    "外国人採用セミナー",
		Slug:     "recruiting-seminar",
		Body:     "<p>本文</p>",
		StartsAt: time.Now().Add(7 * 24 * time.Hour),
		Publish:  true,
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if len(enqueuer.payloads) != 1 {
		t.Fatalf("Enqueue called %d times, want 1", len(enqueuer.payloads))
	}
	if enqueuer.payloads[0].ContentType != model.ContentTypeSeminar || enqueuer.payloads[0].ContentID != sem.ID {
		t.Errorf("payload = %+v", enqueuer.payloads[0])
	}
}

// TestRegister_Success は参加申し込みの保存とスプレッドシート転送を検証する。
func TestRegister_Success(t *testing.T) {
	repo := &mockSeminarRepo{
		findBySlugFunc: func(ctx context.Context, slug string) (*model.Seminar, error) {
			return publishedSeminar(slug), nil
		},
	}
	forwarder := &mockRegistrationForwarder{}
	s := NewSeminarService(repo, &mockNotificationRepo{}, &passthroughSanitizer{}, &mockEnqueuer{}, forwarder)

	reg, err := s.Register(context.Background(), "recruiting-seminar", &RegistrationInput{
		Name:  "佐藤花子",
		Email: "sato@example.com",
		Phone: "090-0000-0000",
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if reg.SeminarID != "sem-1" {
		t.Errorf("SeminarID = %q", reg.SeminarID)
	}
	if len(repo.registrations) != 1 {
		t.Errorf("registrations = %d, want 1", len(repo.registrations))
	}
	if len(forwarder.titles) != 1 || forwarder.titles[0] != "外国人採用セミナー" {
		t.Errorf("forwarded titles = %v", forwarder.titles)
	}
}

// TestRegister_ForwardingFailureDoesNotFail は転送失敗でも申し込みが
// 成功することを検証する。
func TestRegister_ForwardingFailureDoesNotFail(t *testing.T) {
	repo := &mockSeminarRepo{
		findBySlugFunc: func(ctx context.Context, slug string) (*model.Seminar, error) {
			return publishedSeminar(slug), nil
		},
	}
	forwarder := &mockRegistrationForwarder{err: errors.New("sheets unavailable")}
	s := NewSeminarService(repo, &mockNotificationRepo{}, &passthroughSanitizer{}, &mockEnqueuer{}, forwarder)

	reg, err := s.Register(context.Background(), "recruiting-seminar", &RegistrationInput{
		Name:  "佐藤花子",
		Email: "sato@example.com",
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if reg == nil {
		t.Fatal("registration should be saved")
	}
}

// TestRegister_UnknownSeminar は存在しないセミナーへの申し込みが404になることを検証する。
func TestRegister_UnknownSeminar(t *testing.T) {
	s := NewSeminarService(&mockSeminarRepo{}, &mockNotificationRepo{}, &passthroughSanitizer{}, &mockEnqueuer{}, nil)

	_, err := s.Register(context.Background(), "missing", &RegistrationInput{
		Name:  "佐藤花子",
		Email: "sato@example.com",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeContentNotFound {
		t.Errorf("expected CONTENT_NOT_FOUND, got %v", err)
	}
}

// TestRegister_Validation は申し込み入力の検証を確認する。
func TestRegister_Validation(t *testing.T) {
	s := NewSeminarService(&mockSeminarRepo{}, &mockNotificationRepo{}, &passthroughSanitizer{}, &mockEnqueuer{}, nil)

	tests := []struct {
		name  string
		input RegistrationInput
	}{
		{"名前なし", RegistrationInput{Email: "a@example.com"}},
		{"不正なメール", RegistrationInput{Name: "佐藤", Email: "not-an-email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), "any", &tt.input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
				t.Errorf("expected VALIDATION_FAILED, got %v", err)
			}
		})
	}
}
