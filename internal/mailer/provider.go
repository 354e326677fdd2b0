// Package mailer はメール配信の本文レンダリングと送信プロバイダを提供する。
package mailer

import "context"

// Message はレンダリング済みのメール内容。
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Provider はメール送信プロバイダのインターフェース。
// SendBatchは1回のAPI呼び出しで複数受信者に同一内容を送信する。
// 呼び出し側が受信者数の上限を守る責任を持つ。
// 送信失敗時のリトライは行わない。失敗したバッチの扱いは呼び出し側が決める。
type Provider interface {
	SendBatch(ctx context.Context, recipients []string, msg *Message) error
}
