package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/jbbc/jbbc-api/internal/adminuser"
	"github.com/jbbc/jbbc-api/internal/auth"
	"github.com/jbbc/jbbc-api/internal/contact"
	"github.com/jbbc/jbbc-api/internal/content"
	"github.com/jbbc/jbbc-api/internal/fanout"
	"github.com/jbbc/jbbc-api/internal/mailer"
	"github.com/jbbc/jbbc-api/internal/metrics"
	"github.com/jbbc/jbbc-api/internal/middleware"
	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/repository"
	"github.com/jbbc/jbbc-api/internal/security"
	"github.com/jbbc/jbbc-api/internal/subscriber"
	"github.com/jbbc/jbbc-api/internal/upload"
)

// ---- インメモリのフェイクリポジトリ群 ----

type fakeAdminRepo struct {
	admins map[string]*model.AdminUser
}

func (f *fakeAdminRepo) FindByID(ctx context.Context, id string) (*model.AdminUser, error) {
	for _, a := range f.admins {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAdminRepo) FindByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	return f.admins[email], nil
}

func (f *fakeAdminRepo) List(ctx context.Context) ([]*model.AdminUser, error) {
	out := make([]*model.AdminUser, 0, len(f.admins))
	for _, a := range f.admins {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAdminRepo) Create(ctx context.Context, admin *model.AdminUser) error {
	if _, ok := f.admins[admin.Email]; ok {
		return repository.ErrDuplicate
	}
	f.admins[admin.Email] = admin
	return nil
}

func (f *fakeAdminRepo) Update(ctx context.Context, admin *model.AdminUser) error { return nil }
func (f *fakeAdminRepo) DeleteByID(ctx context.Context, id string) error          { return nil }

type fakeAnnouncementRepo struct {
	bySlug map[string]*model.Announcement
}

func (f *fakeAnnouncementRepo) FindByID(ctx context.Context, id string) (*model.Announcement, error) {
	for _, a := range f.bySlug {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAnnouncementRepo) FindBySlug(ctx context.Context, slug string) (*model.Announcement, error) {
	return f.bySlug[slug], nil
}

func (f *fakeAnnouncementRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Announcement, error) {
	out := make([]*model.Announcement, 0, len(f.bySlug))
	for _, a := range f.bySlug {
		if publishedOnly && a.PublishedAt == nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAnnouncementRepo) Create(ctx context.Context, a *model.Announcement) error {
	if _, ok := f.bySlug[a.Slug]; ok {
		return repository.ErrDuplicate
	}
	f.bySlug[a.Slug] = a
	return nil
}

func (f *fakeAnnouncementRepo) Update(ctx context.Context, a *model.Announcement) error { return nil }
func (f *fakeAnnouncementRepo) DeleteByID(ctx context.Context, id string) error         { return nil }

type fakeSubscriberRepo struct {
	byEmail map[string]*model.Subscriber
}

func (f *fakeSubscriberRepo) FindByID(ctx context.Context, id string) (*model.Subscriber, error) {
	for _, s := range f.byEmail {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSubscriberRepo) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	return f.byEmail[email], nil
}

func (f *fakeSubscriberRepo) Create(ctx context.Context, sub *model.Subscriber) error {
	if _, ok := f.byEmail[sub.Email]; ok {
		return repository.ErrDuplicate
	}
	f.byEmail[sub.Email] = sub
	return nil
}

func (f *fakeSubscriberRepo) SetUnsubscribed(ctx context.Context, id string, unsubscribed bool) error {
	return nil
}

func (f *fakeSubscriberRepo) List(ctx context.Context, limit, offset int) ([]*model.Subscriber, error) {
	return nil, nil
}

func (f *fakeSubscriberRepo) ListActiveAfter(ctx context.Context, afterID string, limit int) ([]*model.Subscriber, error) {
	return nil, nil
}

func (f *fakeSubscriberRepo) CountActive(ctx context.Context) (int, error) { return 0, nil }
func (f *fakeSubscriberRepo) DeleteByID(ctx context.Context, id string) error {
	return nil
}

type stubNewsletterRepo struct{}

func (stubNewsletterRepo) FindByID(ctx context.Context, id string) (*model.Newsletter, error) {
	return nil, nil
}
func (stubNewsletterRepo) FindBySlug(ctx context.Context, slug string) (*model.Newsletter, error) {
	return nil, nil
}
func (stubNewsletterRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Newsletter, error) {
	return nil, nil
}
func (stubNewsletterRepo) Create(ctx context.Context, n *model.Newsletter) error { return nil }
func (stubNewsletterRepo) Update(ctx context.Context, n *model.Newsletter) error { return nil }
func (stubNewsletterRepo) DeleteByID(ctx context.Context, id string) error       { return nil }

type stubSeminarRepo struct{}

func (stubSeminarRepo) FindByID(ctx context.Context, id string) (*model.Seminar, error) {
	return nil, nil
}
func (stubSeminarRepo) FindBySlug(ctx context.Context, slug string) (*model.Seminar, error) {
	return nil, nil
}
func (stubSeminarRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Seminar, error) {
	return nil, nil
}
func (stubSeminarRepo) Create(ctx context.Context, s *model.Seminar) error { return nil }
func (stubSeminarRepo) Update(ctx context.Context, s *model.Seminar) error { return nil }
func (stubSeminarRepo) DeleteByID(ctx context.Context, id string) error    { return nil }
func (stubSeminarRepo) CreateRegistration(ctx context.Context, reg *model.SeminarRegistration) error {
	return nil
}
func (stubSeminarRepo) ListRegistrations(ctx context.Context, seminarID string) ([]*model.SeminarRegistration, error) {
	return nil, nil
}

type stubBlogRepo struct{}

func (stubBlogRepo) FindByID(ctx context.Context, id string) (*model.BlogPost, error) {
	return nil, nil
}
func (stubBlogRepo) FindBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	return nil, nil
}
func (stubBlogRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.BlogPost, error) {
	return nil, nil
}
func (stubBlogRepo) Create(ctx context.Context, p *model.BlogPost) error { return nil }
func (stubBlogRepo) Update(ctx context.Context, p *model.BlogPost) error { return nil }
func (stubBlogRepo) DeleteByID(ctx context.Context, id string) error     { return nil }
func (stubBlogRepo) ToggleLike(ctx context.Context, postID, userKey string) (bool, int, error) {
	return false, 0, nil
}

type stubNotificationRepo struct{}

func (stubNotificationRepo) CreateBatch(ctx context.Context, notifications []*model.Notification) error {
	return nil
}
func (stubNotificationRepo) ListByContent(ctx context.Context, contentType model.ContentType, contentID string, limit, offset int) ([]*model.Notification, error) {
	return nil, nil
}
func (stubNotificationRepo) DeleteByContent(ctx context.Context, contentType model.ContentType, contentID string) error {
	return nil
}

type stubImageRepo struct{}

func (stubImageRepo) Create(ctx context.Context, img *model.UploadedImage) error { return nil }
func (stubImageRepo) List(ctx context.Context, limit, offset int) ([]*model.UploadedImage, error) {
	return nil, nil
}

type stubContactRepo struct{}

func (stubContactRepo) Create(ctx context.Context, c *model.ContactSubmission) error { return nil }
func (stubContactRepo) List(ctx context.Context, limit, offset int) ([]*model.ContactSubmission, error) {
	return nil, nil
}

type stubObjectStore struct{}

func (stubObjectStore) Write(ctx context.Context, key, contentType string, data []byte) error {
	return nil
}

// newTestRouter はインメモリ実装で全ルートを配線したルーターを返す。
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	adminRepo := &fakeAdminRepo{admins: map[string]*model.AdminUser{
		"admin@example.com": {
			ID:           "admin-1",
			Email:        "admin@example.com",
			Name:         "管理者",
			PasswordHash: string(hash),
		},
	}}

	authenticator := auth.NewAuthenticator(adminRepo, "test-secret", time.Hour)
	sanitizer := security.NewContentSanitizer()
	guard := security.NewSSRFGuard()

	renderer, err := mailer.NewRenderer("https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	subRepo := &fakeSubscriberRepo{byEmail: map[string]*model.Subscriber{}}
	runner := fanout.NewRunner(subRepo, stubNotificationRepo{}, mailer.NewMockProvider(), renderer, collector, 500, 100)
	queue := fanout.NewQueue(runner, 4)

	annSvc := content.NewAnnouncementService(&fakeAnnouncementRepo{bySlug: map[string]*model.Announcement{}}, stubNotificationRepo{}, sanitizer, queue)
	nlSvc := content.NewNewsletterService(stubNewsletterRepo{}, stubNotificationRepo{}, sanitizer, queue)
	semSvc := content.NewSeminarService(stubSeminarRepo{}, stubNotificationRepo{}, sanitizer, queue, nil)
	blogSvc := content.NewBlogService(stubBlogRepo{}, sanitizer, collector)
	subSvc := subscriber.NewService(subRepo, collector)
	contactSvc := contact.NewService(stubContactRepo{}, nil)
	adminSvc := adminuser.NewService(adminRepo)
	uploadSvc := upload.NewService(stubObjectStore{}, stubImageRepo{}, "https://cdn.example.com", 1024*1024)
	importer := upload.NewImporter(guard, uploadSvc, 5*time.Second, 1024*1024)

	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rateLimiter.Stop)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRouter(&RouterDeps{
		Logger:            logger,
		Collector:         collector,
		Gatherer:          reg,
		RateLimiter:       rateLimiter,
		TokenVerifier:     authenticator,
		Auth:              NewAuthHandler(authenticator, false, ""),
		Announcements:     NewAnnouncementHandler(annSvc),
		Newsletters:       NewNewsletterHandler(nlSvc),
		Seminars:          NewSeminarHandler(semSvc),
		Blog:              NewBlogHandler(blogSvc),
		Subscribers:       NewSubscriberHandler(subSvc),
		Contact:           NewContactHandler(contactSvc),
		Uploads:           NewUploadHandler(uploadSvc, importer, 1024*1024),
		Fanout:            NewFanoutHandler(queue),
		AdminUsers:        NewAdminUserHandler(adminSvc),
		Feed:              NewFeedHandler(annSvc, blogSvc, "https://example.com", "JBBC"),
		CORSAllowedOrigin: "http://localhost:3000",
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestRouter_Health はヘルスチェックエンドポイントを検証する。
func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// TestRouter_AdminRequiresSession は管理APIが未認証で401になることを検証する。
func TestRouter_AdminRequiresSession(t *testing.T) {
	router := newTestRouter(t)

	paths := []string{
		"/api/admin/announcements",
		"/api/admin/subscribers",
		"/api/admin/fanout/jobs",
		"/api/admin/admin-users",
	}
	for _, path := range paths {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, rec.Code)
		}
	}
}

// TestRouter_LoginFlow はログインからセッションCookieでの管理API利用までを検証する。
func TestRouter_LoginFlow(t *testing.T) {
	router := newTestRouter(t)

	// 誤ったパスワードは401
	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", rec.Code)
	}

	// 正しい認証情報でCookieが発行される
	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("session cookie was not set")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	// Cookieで管理APIにアクセスできる
	rec = doJSON(t, router, http.MethodGet, "/api/auth/me", nil, sessionCookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, want 200", rec.Code)
	}
	var me struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatal(err)
	}
	if me.Email != "admin@example.com" {
		t.Errorf("email = %q", me.Email)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/admin/announcements", nil, sessionCookie)
	if rec.Code != http.StatusOK {
		t.Errorf("admin list status = %d, want 200", rec.Code)
	}
}

// TestRouter_AnnouncementCreateAndConflict はお知らせ作成と
// スラッグ重複の409を検証する。
func TestRouter_AnnouncementCreateAndConflict(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": "password123",
	})
	cookie := rec.Result().Cookies()[0]

	body := map[string]any{
		"title": "春の新着情報",
		"slug":  "spring-2025",
		"body":  "<p>本文</p>",
	}
	rec = doJSON(t, router, http.MethodPost, "/api/admin/announcements", body, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/admin/announcements", body, cookie)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}
}

// TestRouter_SubscribeAndConflict は購読登録と再登録の409を検証する。
func TestRouter_SubscribeAndConflict(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/subscribers", map[string]string{
		"email": "reader@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("subscribe status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/subscribers", map[string]string{
		"email": "reader@example.com",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("resubscribe status = %d, want 409", rec.Code)
	}
}

// TestRouter_UnknownSlugReturns404 は未知のスラッグが404になることを検証する。
func TestRouter_UnknownSlugReturns404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/announcements/no-such-slug", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestRouter_FeedXML はRSSフィードの配信を検証する。
func TestRouter_FeedXML(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/feed.xml", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "rss") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<rss") {
		t.Error("body should contain rss element")
	}
}

// TestRouter_MetricsEndpoint はPrometheusメトリクスの公開を検証する。
func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
