// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, subscriber, upload, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeValidation          = "VALIDATION_FAILED"
	ErrCodeDuplicateSlug       = "DUPLICATE_SLUG"
	ErrCodeDuplicateEmail      = "DUPLICATE_EMAIL"
	ErrCodeContentNotFound     = "CONTENT_NOT_FOUND"
	ErrCodeSubscriberNotFound  = "SUBSCRIBER_NOT_FOUND"
	ErrCodeAlreadyUnsubscribed = "ALREADY_UNSUBSCRIBED"
	ErrCodeAlreadySubscribed   = "ALREADY_SUBSCRIBED"
	ErrCodeAdminNotFound       = "ADMIN_NOT_FOUND"
	ErrCodeSelfDeleteForbidden = "SELF_DELETE_FORBIDDEN"
	ErrCodeUnsupportedMedia    = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	ErrCodeInvalidURL          = "INVALID_URL"
	ErrCodeSSRFBlocked         = "SSRF_BLOCKED"
	ErrCodeFetchFailed         = "FETCH_FAILED"
	ErrCodeJobNotFound         = "JOB_NOT_FOUND"
)

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレス不存在とパスワード不一致を呼び出し側で区別させないため、
// どちらの場合も同一のエラー値を返すこと。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", detail),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewDuplicateSlugError はスラッグ重複エラーを生成する。
func NewDuplicateSlugError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateSlug,
		Message:  fmt.Sprintf("同じスラッグのコンテンツが既に存在します: %s", slug),
		Category: "content",
		Action:   "別のスラッグを指定してください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを指定してください。",
	}
}

// NewContentNotFoundError はコンテンツ未検出エラーを生成する。
func NewContentNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeContentNotFound,
		Message:  "指定されたコンテンツが見つかりません。",
		Category: "content",
		Action:   "スラッグまたはIDを確認してください。",
	}
}

// NewSubscriberNotFoundError は購読者未検出エラーを生成する。
func NewSubscriberNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSubscriberNotFound,
		Message:  "指定されたメールアドレスの購読者が見つかりません。",
		Category: "subscriber",
		Action:   "メールアドレスを確認してください。",
	}
}

// NewAlreadyUnsubscribedError は解除済み購読者への再解除エラーを生成する。
func NewAlreadyUnsubscribedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyUnsubscribed,
		Message:  "このメールアドレスは既に配信停止されています。",
		Category: "subscriber",
		Action:   "再開する場合は再度ご登録ください。",
	}
}

// NewAlreadySubscribedError は登録済み購読者への再登録エラーを生成する。
func NewAlreadySubscribedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadySubscribed,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "subscriber",
		Action:   "配信は現在有効です。",
	}
}

// NewAdminNotFoundError は管理者未検出エラーを生成する。
func NewAdminNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAdminNotFound,
		Message:  "指定された管理者が見つかりません。",
		Category: "auth",
		Action:   "管理者IDを確認してください。",
	}
}

// NewSelfDeleteForbiddenError は自分自身の管理者アカウント削除エラーを生成する。
func NewSelfDeleteForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfDeleteForbidden,
		Message:  "自分自身のアカウントは削除できません。",
		Category: "auth",
		Action:   "別の管理者に削除を依頼してください。",
	}
}

// NewUnsupportedMediaError は非対応MIMEタイプエラーを生成する。
func NewUnsupportedMediaError(mime string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedMedia,
		Message:  fmt.Sprintf("対応していないファイル形式です: %s", mime),
		Category: "upload",
		Action:   "JPEG、PNG、GIF、WebP、SVG、PDFのいずれかをアップロードしてください。",
	}
}

// NewPayloadTooLargeError はサイズ超過エラーを生成する。
func NewPayloadTooLargeError(maxBytes int64) *APIError {
	return &APIError{
		Code:     ErrCodePayloadTooLarge,
		Message:  fmt.Sprintf("ファイルサイズが上限（%dバイト）を超えています。", maxBytes),
		Category: "upload",
		Action:   "ファイルを小さくして再度アップロードしてください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。",
	}
}

// NewFetchFailedError は外部URL取得失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("URLの取得に失敗しました: %s", reason),
		Category: "upload",
		Action:   "URLが正しいか確認し、しばらく待ってから再度お試しください。",
	}
}

// NewJobNotFoundError は配信ジョブ未検出エラーを生成する。
func NewJobNotFoundError(jobID string) *APIError {
	return &APIError{
		Code:     ErrCodeJobNotFound,
		Message:  fmt.Sprintf("指定された配信ジョブが見つかりません: %s", jobID),
		Category: "system",
		Action:   "ジョブIDを確認してください。",
	}
}
