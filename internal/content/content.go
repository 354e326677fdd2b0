// Package content はお知らせ・メールマガジン・セミナー・ブログ記事の
// CRUDサービスを提供する。本文は保存前にサニタイズされ、
// 公開時にメール配信ジョブが登録される。
package content

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/jbbc/jbbc-api/internal/fanout"
	"github.com/jbbc/jbbc-api/internal/model"
)

// slugPattern はURLに使用できるスラッグの形式。
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Enqueuer は配信ジョブの登録インターフェース。fanout.Queueが実装する。
type Enqueuer interface {
	Enqueue(payload *model.NotificationPayload) (*fanout.Job, error)
}

// validateSlug はスラッグの形式を検証する。
func validateSlug(slug string) error {
	if slug == "" {
		return model.NewValidationError("スラッグは必須です")
	}
	if len(slug) > 200 {
		return model.NewValidationError("スラッグが長すぎます")
	}
	if !slugPattern.MatchString(slug) {
		return model.NewValidationError("スラッグは小文字英数字とハイフンのみ使用できます")
	}
	return nil
}

// validateTitle はタイトルを検証する。
func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return model.NewValidationError("タイトルは必須です")
	}
	return nil
}

// enqueueFanout は配信ジョブを登録する。キュー満杯などの登録失敗は
// コンテンツ保存自体の失敗にはせず、ログに残すだけにする。
func enqueueFanout(enqueuer Enqueuer, payload *model.NotificationPayload) {
	if enqueuer == nil {
		return
	}
	if _, err := enqueuer.Enqueue(payload); err != nil {
		slog.Warn("failed to enqueue fanout job",
			slog.String("content_type", string(payload.ContentType)),
			slog.String("content_id", payload.ContentID),
			slog.String("error", err.Error()),
		)
	}
}
