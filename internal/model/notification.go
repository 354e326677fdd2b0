package model

import "time"

// Notification は配信監査レコードを表す。
// バッチ送信が成功するたびに受信者1人につき1行追記される。
// 監査専用であり、配信ロジックから読み戻されることはない
// （送信前の冪等性チェックは行わない）。
type Notification struct {
	ID          string
	ContentType ContentType
	ContentID   string
	Recipient   string
	SentAt      time.Time
}

// NotificationPayload は配信メールの内容を表す。
// ディスパッチャがHTML/テキストメールのレンダリングに使用する。
type NotificationPayload struct {
	ContentType ContentType
	ContentID   string
	Title       string
	Excerpt     string
	Body        string
	Slug        string
}
