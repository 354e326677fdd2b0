package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jbbc/jbbc-api/internal/model"
)

// permissiveGuard はテスト用のSSRFGuardService実装。
// httptestサーバー（ループバック）へのアクセスを許可するため、
// 素のHTTPクライアントを返す。
type permissiveGuard struct {
	validateErr error
}

func (g *permissiveGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (g *permissiveGuard) ValidateURL(rawURL string) error {
	return g.validateErr
}

func newTestImporter(guard *permissiveGuard) (*Importer, *mockObjectStore, *mockImageRepo) {
	store := &mockObjectStore{}
	repo := &mockImageRepo{}
	service := newTestService(store, repo)
	importer := NewImporter(guard, service, 10*time.Second, 5*1024*1024)
	return importer, store, repo
}

// TestImportFromURL_DirectImage は画像URLの直接インポートを検証する。
func TestImportFromURL_DirectImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("fake-png-bytes"))
	}))
	defer ts.Close()

	importer, store, _ := newTestImporter(&permissiveGuard{})

	img, err := importer.ImportFromURL(context.Background(), ts.URL+"/photos/cover.png")
	if err != nil {
		t.Fatalf("ImportFromURL() error: %v", err)
	}

	if img.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", img.MimeType)
	}
	if img.FileName != "cover.png" {
		t.Errorf("FileName = %q, want cover.png", img.FileName)
	}
	if len(store.keys) != 1 {
		t.Errorf("store.Write called %d times, want 1", len(store.keys))
	}
}

// TestImportFromURL_OGImage はHTMLページのog:imageが解決されることを検証する。
func TestImportFromURL_OGImage(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><head><meta property="og:image" content="%s/images/hero.jpg"></head><body></body></html>`, srvURL)
	})
	mux.HandleFunc("/images/hero.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("fake-jpeg-bytes"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	srvURL = ts.URL

	importer, _, _ := newTestImporter(&permissiveGuard{})

	img, err := importer.ImportFromURL(context.Background(), ts.URL+"/article")
	if err != nil {
		t.Fatalf("ImportFromURL() error: %v", err)
	}

	if img.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %q, want image/jpeg", img.MimeType)
	}
	if img.FileName != "hero.jpg" {
		t.Errorf("FileName = %q, want hero.jpg", img.FileName)
	}
}

// TestImportFromURL_NoOGImage はog:imageのないHTMLページがエラーになることを検証する。
func TestImportFromURL_NoOGImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>記事</title></head><body></body></html>`))
	}))
	defer ts.Close()

	importer, _, _ := newTestImporter(&permissiveGuard{})

	_, err := importer.ImportFromURL(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("expected error for page without og:image")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeFetchFailed {
		t.Errorf("expected FETCH_FAILED, got %v", err)
	}
}

// TestImportFromURL_ValidationRejected は事前検証で拒否されたURLが
// フェッチされないことを検証する。
func TestImportFromURL_ValidationRejected(t *testing.T) {
	importer, store, _ := newTestImporter(&permissiveGuard{validateErr: fmt.Errorf("blocked host")})

	_, err := importer.ImportFromURL(context.Background(), "http://localhost/secret.png")
	if err == nil {
		t.Fatal("expected error for blocked URL")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidURL {
		t.Errorf("expected INVALID_URL, got %v", err)
	}
	if len(store.keys) != 0 {
		t.Error("store.Write should not be called for blocked URL")
	}
}

// TestImportFromURL_Non200 は非200応答がエラーになることを検証する。
func TestImportFromURL_Non200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	importer, _, _ := newTestImporter(&permissiveGuard{})

	_, err := importer.ImportFromURL(context.Background(), ts.URL+"/missing.png")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}

// TestFindOGImage はog:imageメタタグの抽出を検証する。
func TestFindOGImage(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		want   string
		wantOK bool
	}{
		{
			name:   "property属性",
			html:   `<html><head><meta property="og:image" content="https://example.com/a.png"></head></html>`,
			want:   "https://example.com/a.png",
			wantOK: true,
		},
		{
			name:   "name属性",
			html:   `<html><head><meta name="og:image" content="https://example.com/b.png"></head></html>`,
			want:   "https://example.com/b.png",
			wantOK: true,
		},
		{
			name:   "メタタグなし",
			html:   `<html><head></head><body><p>本文</p></body></html>`,
			wantOK: false,
		},
		{
			name:   "content空",
			html:   `<html><head><meta property="og:image" content=""></head></html>`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := findOGImage([]byte(tt.html))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestNormalizeContentType はContent-Typeのパラメータ除去を検証する。
func TestNormalizeContentType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"image/png", "image/png"},
		{"image/jpeg; charset=binary", "image/jpeg"},
		{"IMAGE/PNG", "image/png"},
		{" text/html ; charset=utf-8", "text/html"},
	}

	for _, tt := range tests {
		if got := normalizeContentType(tt.input); got != tt.want {
			t.Errorf("normalizeContentType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// TestFileNameFromURL はURLからのファイル名導出を検証する。
func TestFileNameFromURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://example.com/images/cover.png", "cover.png"},
		{"https://example.com/images/cover.png?v=2", "cover.png"},
		{"https://example.com/", "imported-image"},
		{"https://example.com", "imported-image"},
	}

	for _, tt := range tests {
		if got := fileNameFromURL(tt.input); got != tt.want {
			t.Errorf("fileNameFromURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
