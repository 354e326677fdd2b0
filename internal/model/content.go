package model

import "time"

// ContentType は配信対象コンテンツの種別を表す。
type ContentType string

const (
	// ContentTypeAnnouncement はお知らせ。
	ContentTypeAnnouncement ContentType = "announcement"
	// ContentTypeNewsletter はメールマガジン。
	ContentTypeNewsletter ContentType = "newsletter"
	// ContentTypeSeminar はセミナー。
	ContentTypeSeminar ContentType = "seminar"
)

// Announcement はお知らせを表す。
type Announcement struct {
	ID          string
	Title       string
	Slug        string
	Body        string // サニタイズ済みHTML
	Excerpt     string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Newsletter はメールマガジンを表す。
type Newsletter struct {
	ID          string
	Title       string
	Slug        string
	Body        string // サニタイズ済みHTML
	Excerpt     string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Seminar はセミナー情報を表す。
type Seminar struct {
	ID              string
	Title           string
	Slug            string
	Body            string // サニタイズ済みHTML
	Excerpt         string
	StartsAt        time.Time
	EndsAt          *time.Time
	Location        string
	SpeakerName     string
	SpeakerTitle    string
	RegistrationURL string
	PublishedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SeminarRegistration はセミナーの参加申し込みを表す。
type SeminarRegistration struct {
	ID        string
	SeminarID string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// BlogPost はブログ記事を表す。
// LikeCountは非正規化カウンタで、likesテーブルの行数と
// インクリメント/デクリメントで同期される。
type BlogPost struct {
	ID            string
	Title         string
	Slug          string
	Body          string // サニタイズ済みHTML
	Excerpt       string
	CoverImageURL string
	LikeCount     int
	PublishedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Like はブログ記事への匿名いいねを表す。
// UserKeyはIP+User-Agentから導出され、(PostID, UserKey)で一意。
type Like struct {
	ID        string
	PostID    string
	UserKey   string
	CreatedAt time.Time
}

// ContactSubmission はお問い合わせフォームの送信内容を表す。
type ContactSubmission struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Company   string
	Message   string
	CreatedAt time.Time
}

// UploadedImage はオブジェクトストレージにアップロードされたファイルのメタデータを表す。
type UploadedImage struct {
	ID        string
	FileName  string
	MimeType  string
	URL       string
	SizeBytes int64
	CreatedAt time.Time
}
