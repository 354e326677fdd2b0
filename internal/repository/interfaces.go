// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/jbbc/jbbc-api/internal/model"
)

// ErrDuplicate は一意制約違反を表すセンチネルエラー。
// PostgreSQLのunique_violation（23505）をサービス層で
// 409 Conflictに変換するために使用する。
var ErrDuplicate = errors.New("duplicate key")

// AdminUserRepository は管理者データの永続化インターフェース。
type AdminUserRepository interface {
	// FindByID は指定IDの管理者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.AdminUser, error)

	// FindByEmail はメールアドレスで管理者を検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.AdminUser, error)

	// List は全管理者を作成日時昇順で返す。
	List(ctx context.Context) ([]*model.AdminUser, error)

	// Create は管理者を作成する。メールアドレス重複時はErrDuplicateを返す。
	Create(ctx context.Context, admin *model.AdminUser) error

	// Update は管理者の名前とパスワードハッシュを更新する。
	Update(ctx context.Context, admin *model.AdminUser) error

	// DeleteByID は指定IDの管理者を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// SubscriberRepository は購読者データの永続化インターフェース。
type SubscriberRepository interface {
	// FindByID は指定IDの購読者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Subscriber, error)

	// FindByEmail はメールアドレスで購読者を検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Subscriber, error)

	// Create は購読者を作成する。メールアドレス重複時はErrDuplicateを返す。
	Create(ctx context.Context, sub *model.Subscriber) error

	// SetUnsubscribed は購読者のunsubscribed_atを設定（配信停止）またはクリア（再開）する。
	SetUnsubscribed(ctx context.Context, id string, unsubscribed bool) error

	// List は購読者一覧をlimit/offsetで返す。
	List(ctx context.Context, limit, offset int) ([]*model.Subscriber, error)

	// ListActiveAfter はアクティブな購読者をid昇順でカーソルページングして返す。
	// afterIDが空の場合は先頭から取得する。ファンアウトのページングの要であり、
	// 1ページあたりのメモリをO(limit)に抑える。
	ListActiveAfter(ctx context.Context, afterID string, limit int) ([]*model.Subscriber, error)

	// CountActive はアクティブな購読者数を返す。
	CountActive(ctx context.Context) (int, error)

	// DeleteByID は指定IDの購読者を物理削除する。管理画面からの明示操作専用。
	DeleteByID(ctx context.Context, id string) error
}

// AnnouncementRepository はお知らせの永続化インターフェース。
type AnnouncementRepository interface {
	FindByID(ctx context.Context, id string) (*model.Announcement, error)
	FindBySlug(ctx context.Context, slug string) (*model.Announcement, error)
	// List はお知らせ一覧を返す。publishedOnlyがtrueの場合は公開済みのみ。
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Announcement, error)
	// Create はお知らせを作成する。スラッグ重複時はErrDuplicateを返す。
	Create(ctx context.Context, a *model.Announcement) error
	// Update はお知らせを更新する。スラッグ重複時はErrDuplicateを返す。
	Update(ctx context.Context, a *model.Announcement) error
	DeleteByID(ctx context.Context, id string) error
}

// NewsletterRepository はメールマガジンの永続化インターフェース。
type NewsletterRepository interface {
	FindByID(ctx context.Context, id string) (*model.Newsletter, error)
	FindBySlug(ctx context.Context, slug string) (*model.Newsletter, error)
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Newsletter, error)
	Create(ctx context.Context, n *model.Newsletter) error
	Update(ctx context.Context, n *model.Newsletter) error
	DeleteByID(ctx context.Context, id string) error
}

// SeminarRepository はセミナーの永続化インターフェース。
type SeminarRepository interface {
	FindByID(ctx context.Context, id string) (*model.Seminar, error)
	FindBySlug(ctx context.Context, slug string) (*model.Seminar, error)
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Seminar, error)
	Create(ctx context.Context, s *model.Seminar) error
	Update(ctx context.Context, s *model.Seminar) error
	DeleteByID(ctx context.Context, id string) error

	// CreateRegistration はセミナー参加申し込みを作成する。
	CreateRegistration(ctx context.Context, reg *model.SeminarRegistration) error
	// ListRegistrations は指定セミナーの申し込み一覧を返す。
	ListRegistrations(ctx context.Context, seminarID string) ([]*model.SeminarRegistration, error)
}

// BlogPostRepository はブログ記事の永続化インターフェース。
type BlogPostRepository interface {
	FindByID(ctx context.Context, id string) (*model.BlogPost, error)
	FindBySlug(ctx context.Context, slug string) (*model.BlogPost, error)
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.BlogPost, error)
	Create(ctx context.Context, p *model.BlogPost) error
	Update(ctx context.Context, p *model.BlogPost) error
	DeleteByID(ctx context.Context, id string) error

	// ToggleLike は(postID, userKey)のいいねをトグルする。
	// 既存のいいねがあれば削除してカウンタをデクリメント、
	// なければ挿入してインクリメントする。どちらも同一トランザクションで行い、
	// カウンタは0未満にならない。トグル後の状態（true=いいね済み）と
	// 最新のカウント値を返す。
	ToggleLike(ctx context.Context, postID, userKey string) (liked bool, likeCount int, err error)
}

// NotificationRepository は配信監査レコードの永続化インターフェース。
type NotificationRepository interface {
	// CreateBatch は配信レコードをまとめて挿入する（追記専用）。
	CreateBatch(ctx context.Context, notifications []*model.Notification) error

	// ListByContent は指定コンテンツの配信レコードを返す。監査表示用。
	ListByContent(ctx context.Context, contentType model.ContentType, contentID string, limit, offset int) ([]*model.Notification, error)

	// DeleteByContent は指定コンテンツの配信レコードを削除する。
	// コンテンツ削除時のカスケード用。
	DeleteByContent(ctx context.Context, contentType model.ContentType, contentID string) error
}

// UploadedImageRepository はアップロード済みファイルメタデータの永続化インターフェース。
type UploadedImageRepository interface {
	Create(ctx context.Context, img *model.UploadedImage) error
	List(ctx context.Context, limit, offset int) ([]*model.UploadedImage, error)
}

// ContactRepository はお問い合わせ送信内容の永続化インターフェース。
type ContactRepository interface {
	Create(ctx context.Context, c *model.ContactSubmission) error
	List(ctx context.Context, limit, offset int) ([]*model.ContactSubmission, error)
}
