package mailer

import (
	"strings"
	"testing"

	"github.com/jbbc/jbbc-api/internal/model"
)

// TestRender_Announcement はお知らせの件名プレフィックスとリンクを検証する。
func TestRender_Announcement(t *testing.T) {
	r, err := NewRenderer("https://www.jbbc.example.com")
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	msg, err := r.Render(&model.NotificationPayload{
		ContentType: model.ContentTypeAnnouncement,
		ContentID:   "content-1",
		Title:       "年末年始の営業について",
		Excerpt:     "12月29日から1月3日まで休業します。",
		Body:        "<p>詳細は<strong>本文</strong>をご覧ください。</p>",
		Slug:        "year-end-schedule",
	})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	if msg.Subject != "【お知らせ】年末年始の営業について" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "https://www.jbbc.example.com/news/year-end-schedule") {
		t.Errorf("HTML does not contain content URL: %q", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "https://www.jbbc.example.com/unsubscribe") {
		t.Errorf("HTML does not contain unsubscribe URL: %q", msg.HTML)
	}
	if !strings.Contains(msg.Text, "https://www.jbbc.example.com/news/year-end-schedule") {
		t.Errorf("Text does not contain content URL: %q", msg.Text)
	}
}

// TestRender_BodyNotEscaped はサニタイズ済み本文HTMLがエスケープされないことを検証する。
func TestRender_BodyNotEscaped(t *testing.T) {
	r, err := NewRenderer("https://www.jbbc.example.com")
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	msg, err := r.Render(&model.NotificationPayload{
		ContentType: model.ContentTypeNewsletter,
		Title:       "今月の採用動向",
		Body:        "<p>今月の<strong>注目トピック</strong></p>",
		Slug:        "monthly-report",
	})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	if !strings.Contains(msg.HTML, "<p>今月の<strong>注目トピック</strong></p>") {
		t.Errorf("body HTML was escaped: %q", msg.HTML)
	}
}

// TestRender_SubjectPrefixPerType はコンテンツ種別ごとの件名プレフィックスを検証する。
func TestRender_SubjectPrefixPerType(t *testing.T) {
	r, err := NewRenderer("https://www.jbbc.example.com")
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	tests := []struct {
		contentType model.ContentType
		wantPrefix  string
	}{
		{model.ContentTypeAnnouncement, "【お知らせ】"},
		{model.ContentTypeNewsletter, "【メールマガジン】"},
		{model.ContentTypeSeminar, "【セミナー】"},
	}

	for _, tt := range tests {
		t.Run(string(tt.contentType), func(t *testing.T) {
			msg, err := r.Render(&model.NotificationPayload{
				ContentType: tt.contentType,
				Title:       "タイトル",
				Body:        "<p>本文</p>",
				Slug:        "slug",
			})
			if err != nil {
				t.Fatalf("Render() error: %v", err)
			}
			if !strings.HasPrefix(msg.Subject, tt.wantPrefix) {
				t.Errorf("Subject = %q, want prefix %q", msg.Subject, tt.wantPrefix)
			}
		})
	}
}

// TestRender_UnknownContentType は未対応のコンテンツ種別でエラーになることを検証する。
func TestRender_UnknownContentType(t *testing.T) {
	r, err := NewRenderer("https://www.jbbc.example.com")
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	_, err = r.Render(&model.NotificationPayload{
		ContentType: model.ContentType("unknown"),
		Title:       "タイトル",
		Slug:        "slug",
	})
	if err == nil {
		t.Error("expected error for unknown content type")
	}
}

// TestRender_EmptyExcerptOmitted は抜粋が空の場合に段落が出力されないことを検証する。
func TestRender_EmptyExcerptOmitted(t *testing.T) {
	r, err := NewRenderer("https://www.jbbc.example.com")
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	msg, err := r.Render(&model.NotificationPayload{
		ContentType: model.ContentTypeSeminar,
		Title:       "外国人採用セミナー",
		Excerpt:     "",
		Body:        "<p>本文</p>",
		Slug:        "hiring-seminar",
	})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	if strings.Contains(msg.HTML, "<p></p>") {
		t.Errorf("empty excerpt produced empty paragraph: %q", msg.HTML)
	}
}
