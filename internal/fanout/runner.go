// Package fanout はコンテンツ公開時のメール一斉配信を提供する。
//
// 配信はアクティブ購読者をカーソルページングで読み出しながら、
// ページをプロバイダ上限以下のバッチに分割して送信する。
// バッチ送信が失敗してもジョブ全体は中断せず、次のバッチへ進む。
// 失敗したバッチの受信者には再送しない（配信はベストエフォート）。
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jbbc/jbbc-api/internal/mailer"
	"github.com/jbbc/jbbc-api/internal/metrics"
	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/repository"
)

// RunResult は1回のファンアウト実行の集計結果。
type RunResult struct {
	Pages         int // 読み出した購読者ページ数
	Batches       int // 送信を試行したバッチ数
	SentBatches   int // 送信に成功したバッチ数
	FailedBatches int // 送信に失敗したバッチ数
	Recipients    int // 送信に成功した受信者数
}

// Runner はファンアウトの実行本体。
type Runner struct {
	subscriberRepo   repository.SubscriberRepository
	notificationRepo repository.NotificationRepository
	provider         mailer.Provider
	renderer         *mailer.Renderer
	collector        metrics.MetricsCollector
	pageSize         int
	batchSize        int
}

// NewRunner はRunnerを生成する。
// pageSizeは購読者の1ページあたりの読み出し件数、
// batchSizeは1回のAPI呼び出しで送信する受信者数の上限。
func NewRunner(
	subscriberRepo repository.SubscriberRepository,
	notificationRepo repository.NotificationRepository,
	provider mailer.Provider,
	renderer *mailer.Renderer,
	collector metrics.MetricsCollector,
	pageSize, batchSize int,
) *Runner {
	return &Runner{
		subscriberRepo:   subscriberRepo,
		notificationRepo: notificationRepo,
		provider:         provider,
		renderer:         renderer,
		collector:        collector,
		pageSize:         pageSize,
		batchSize:        batchSize,
	}
}

// Run は指定コンテンツの配信をアクティブ購読者全員に対して実行する。
// メール内容は1回だけレンダリングし、全バッチで共有する。
// 戻り値のRunResultは部分失敗を含む集計。レンダリング失敗や
// 購読者ページの読み出し失敗などジョブを継続できないエラーのみerrorで返す。
func (r *Runner) Run(ctx context.Context, payload *model.NotificationPayload) (*RunResult, error) {
	start := time.Now()

	msg, err := r.renderer.Render(payload)
	if err != nil {
		return nil, fmt.Errorf("メール内容のレンダリングに失敗しました: %w", err)
	}

	result := &RunResult{}
	afterID := ""

	for {
		// キャンセルはページ境界でのみ確認する。バッチ途中では中断しない。
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("配信が中断されました: %w", err)
		}

		subs, err := r.subscriberRepo.ListActiveAfter(ctx, afterID, r.pageSize)
		if err != nil {
			return nil, fmt.Errorf("購読者ページの読み出しに失敗しました: %w", err)
		}
		if len(subs) == 0 {
			break
		}
		result.Pages++

		// ページをバッチ上限以下に分割して送信
		for begin := 0; begin < len(subs); begin += r.batchSize {
			end := begin + r.batchSize
			if end > len(subs) {
				end = len(subs)
			}
			r.sendBatch(ctx, payload, msg, subs[begin:end], result)
		}

		// 最終ページの最後のIDを次のカーソルにする
		afterID = subs[len(subs)-1].ID

		if len(subs) < r.pageSize {
			break
		}
	}

	r.collector.RecordFanoutCompleted(time.Since(start))

	slog.Info("fanout completed",
		slog.String("content_type", string(payload.ContentType)),
		slog.String("content_id", payload.ContentID),
		slog.Int("pages", result.Pages),
		slog.Int("batches", result.Batches),
		slog.Int("failed_batches", result.FailedBatches),
		slog.Int("recipients", result.Recipients),
	)

	return result, nil
}

// sendBatch は1バッチを送信し、成功時は配信監査レコードを追記する。
// 失敗はログとメトリクスに記録し、呼び出し元には伝播しない。
func (r *Runner) sendBatch(ctx context.Context, payload *model.NotificationPayload, msg *mailer.Message, subs []*model.Subscriber, result *RunResult) {
	result.Batches++

	recipients := make([]string, 0, len(subs))
	for _, sub := range subs {
		recipients = append(recipients, sub.Email)
	}

	if err := r.provider.SendBatch(ctx, recipients, msg); err != nil {
		result.FailedBatches++
		r.collector.RecordBatchFailure(string(payload.ContentType))
		slog.Error("mail batch send failed",
			slog.String("content_type", string(payload.ContentType)),
			slog.String("content_id", payload.ContentID),
			slog.Int("recipients", len(recipients)),
			slog.String("error", err.Error()),
		)
		return
	}

	result.SentBatches++
	result.Recipients += len(recipients)
	r.collector.RecordBatchSent(len(recipients))

	now := time.Now()
	notifications := make([]*model.Notification, 0, len(recipients))
	for _, email := range recipients {
		notifications = append(notifications, &model.Notification{
			ID:          uuid.NewString(),
			ContentType: payload.ContentType,
			ContentID:   payload.ContentID,
			Recipient:   email,
			SentAt:      now,
		})
	}

	if err := r.notificationRepo.CreateBatch(ctx, notifications); err != nil {
		// 送信自体は成功しているため監査レコードの失敗はログにとどめる
		slog.Error("failed to record notifications",
			slog.String("content_id", payload.ContentID),
			slog.Int("count", len(notifications)),
			slog.String("error", err.Error()),
		)
	}
}
