package upload

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jbbc/jbbc-api/internal/model"
)

// mockObjectStore はObjectStoreのモック実装。
type mockObjectStore struct {
	writeFunc func(ctx context.Context, key, contentType string, data []byte) error
	keys      []string
}

func (m *mockObjectStore) Write(ctx context.Context, key, contentType string, data []byte) error {
	m.keys = append(m.keys, key)
	if m.writeFunc != nil {
		return m.writeFunc(ctx, key, contentType, data)
	}
	return nil
}

// mockImageRepo はUploadedImageRepositoryのモック実装。
type mockImageRepo struct {
	created []*model.UploadedImage
	listed  []*model.UploadedImage
}

func (m *mockImageRepo) Create(ctx context.Context, img *model.UploadedImage) error {
	m.created = append(m.created, img)
	return nil
}

func (m *mockImageRepo) List(ctx context.Context, limit, offset int) ([]*model.UploadedImage, error) {
	return m.listed, nil
}

func newTestService(store *mockObjectStore, repo *mockImageRepo) *Service {
	s := NewService(store, repo, "https://storage.googleapis.com/jbbc-media", 5*1024*1024)
	s.nowFunc = func() time.Time { return time.Unix(1700000000, 123) }
	return s
}

// TestUpload_Success は正常なアップロードでキーとCDN URLが組み立てられることを検証する。
func TestUpload_Success(t *testing.T) {
	store := &mockObjectStore{}
	repo := &mockImageRepo{}
	s := newTestService(store, repo)

	img, err := s.Upload(context.Background(), "cover.png", "image/png", []byte("fake-png-data"))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	if len(store.keys) != 1 {
		t.Fatalf("store.Write called %d times, want 1", len(store.keys))
	}
	if !strings.HasPrefix(store.keys[0], "uploads/") {
		t.Errorf("key = %q, want prefix uploads/", store.keys[0])
	}
	if !strings.HasSuffix(store.keys[0], "-cover.png") {
		t.Errorf("key = %q, want suffix -cover.png", store.keys[0])
	}
	if !strings.HasPrefix(img.URL, "https://storage.googleapis.com/jbbc-media/uploads/") {
		t.Errorf("URL = %q", img.URL)
	}
	if img.SizeBytes != int64(len("fake-png-data")) {
		t.Errorf("SizeBytes = %d", img.SizeBytes)
	}
	if len(repo.created) != 1 {
		t.Errorf("metadata rows = %d, want 1", len(repo.created))
	}
}

// TestUpload_TooLarge はサイズ超過が拒否されることを検証する。
func TestUpload_TooLarge(t *testing.T) {
	store := &mockObjectStore{}
	repo := &mockImageRepo{}
	s := NewService(store, repo, "https://cdn.example.com", 10)

	_, err := s.Upload(context.Background(), "big.png", "image/png", make([]byte, 11))
	if err == nil {
		t.Fatal("expected error for oversized file")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodePayloadTooLarge {
		t.Errorf("expected PAYLOAD_TOO_LARGE, got %v", err)
	}
	if len(store.keys) != 0 {
		t.Error("store.Write should not be called for rejected file")
	}
}

// TestUpload_UnsupportedMime は許可リスト外のMIMEタイプが拒否されることを検証する。
func TestUpload_UnsupportedMime(t *testing.T) {
	store := &mockObjectStore{}
	repo := &mockImageRepo{}
	s := newTestService(store, repo)

	tests := []string{"text/html", "application/zip", "video/mp4", ""}
	for _, mime := range tests {
		t.Run(mime, func(t *testing.T) {
			_, err := s.Upload(context.Background(), "file.bin", mime, []byte("data"))
			if err == nil {
				t.Fatalf("expected error for mime %q", mime)
			}
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnsupportedMedia {
				t.Errorf("expected UNSUPPORTED_MEDIA_TYPE, got %v", err)
			}
		})
	}
}

// TestUpload_AllowedMimeTypes は許可リストの全MIMEタイプが受理されることを検証する。
func TestUpload_AllowedMimeTypes(t *testing.T) {
	for mime := range allowedMimeTypes {
		t.Run(mime, func(t *testing.T) {
			store := &mockObjectStore{}
			repo := &mockImageRepo{}
			s := newTestService(store, repo)

			if _, err := s.Upload(context.Background(), "file", mime, []byte("data")); err != nil {
				t.Errorf("Upload() error for %q: %v", mime, err)
			}
		})
	}
}

// TestUpload_EmptyFile は空ファイルが拒否されることを検証する。
func TestUpload_EmptyFile(t *testing.T) {
	store := &mockObjectStore{}
	repo := &mockImageRepo{}
	s := newTestService(store, repo)

	_, err := s.Upload(context.Background(), "empty.png", "image/png", nil)
	if err == nil {
		t.Fatal("expected error for empty file")
	}
}

// TestSanitizeFileName は危険な文字が除去されることを検証する。
func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"cover.png", "cover.png"},
		{"my photo.jpg", "my-photo.jpg"},
		{"../../etc/passwd", "etc-passwd"},
		{"", "file"},
		{"...", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sanitizeFileName(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if strings.Contains(got, "/") || strings.Contains(got, "..") {
				t.Errorf("sanitizeFileName(%q) = %q, contains path characters", tt.input, got)
			}
		})
	}
}
