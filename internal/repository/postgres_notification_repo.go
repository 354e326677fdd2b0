package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jbbc/jbbc-api/internal/model"
)

// PostgresNotificationRepo はPostgreSQLを使用した配信監査レコードリポジトリ。
type PostgresNotificationRepo struct {
	db *sql.DB
}

// NewPostgresNotificationRepo はPostgresNotificationRepoを生成する。
func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

// CreateBatch は配信レコードをまとめて挿入する。
// バッチ全体を1トランザクションで追記し、部分的な書き込みを残さない。
func (r *PostgresNotificationRepo) CreateBatch(ctx context.Context, notifications []*model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO notifications (id, content_type, content_id, recipient, sent_at)
		 VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("挿入ステートメントの準備に失敗しました: %w", err)
	}
	defer stmt.Close()

	for _, n := range notifications {
		if _, err := stmt.ExecContext(ctx, n.ID, string(n.ContentType), n.ContentID, n.Recipient, n.SentAt); err != nil {
			return fmt.Errorf("配信レコードの挿入に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// ListByContent は指定コンテンツの配信レコードを送信日時降順で返す。
func (r *PostgresNotificationRepo) ListByContent(ctx context.Context, contentType model.ContentType, contentID string, limit, offset int) ([]*model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, content_type, content_id, recipient, sent_at
		 FROM notifications
		 WHERE content_type = $1 AND content_id = $2
		 ORDER BY sent_at DESC LIMIT $3 OFFSET $4`,
		string(contentType), contentID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("配信レコード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.Notification
	for rows.Next() {
		n := &model.Notification{}
		var ct string
		if err := rows.Scan(&n.ID, &ct, &n.ContentID, &n.Recipient, &n.SentAt); err != nil {
			return nil, fmt.Errorf("配信レコード行の読み取りに失敗しました: %w", err)
		}
		n.ContentType = model.ContentType(ct)
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("配信レコード一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// DeleteByContent は指定コンテンツの配信レコードを削除する。
func (r *PostgresNotificationRepo) DeleteByContent(ctx context.Context, contentType model.ContentType, contentID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE content_type = $1 AND content_id = $2`,
		string(contentType), contentID,
	)
	if err != nil {
		return fmt.Errorf("配信レコードの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
