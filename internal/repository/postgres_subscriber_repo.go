package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jbbc/jbbc-api/internal/model"
)

// PostgresSubscriberRepo はPostgreSQLを使用した購読者リポジトリ。
type PostgresSubscriberRepo struct {
	db *sql.DB
}

// NewPostgresSubscriberRepo はPostgresSubscriberRepoを生成する。
func NewPostgresSubscriberRepo(db *sql.DB) *PostgresSubscriberRepo {
	return &PostgresSubscriberRepo{db: db}
}

const subscriberColumns = `id, email, verified_at, unsubscribed_at, created_at`

func scanSubscriber(row interface{ Scan(...any) error }) (*model.Subscriber, error) {
	sub := &model.Subscriber{}
	err := row.Scan(&sub.ID, &sub.Email, &sub.VerifiedAt, &sub.UnsubscribedAt, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// FindByID は指定IDの購読者を取得する。見つからない場合はnilを返す。
func (r *PostgresSubscriberRepo) FindByID(ctx context.Context, id string) (*model.Subscriber, error) {
	sub, err := scanSubscriber(r.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("購読者の取得に失敗しました: %w", err)
	}
	return sub, nil
}

// FindByEmail はメールアドレスで購読者を検索する。見つからない場合はnilを返す。
func (r *PostgresSubscriberRepo) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	sub, err := scanSubscriber(r.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メールアドレスによる購読者の検索に失敗しました: %w", err)
	}
	return sub, nil
}

// Create は購読者を作成する。メールアドレス重複時はErrDuplicateを返す。
func (r *PostgresSubscriberRepo) Create(ctx context.Context, sub *model.Subscriber) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscribers (id, email, verified_at, unsubscribed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, sub.Email, sub.VerifiedAt, sub.UnsubscribedAt, sub.CreatedAt,
	)
	if err != nil {
		return wrapIfDuplicate(err, "購読者の作成に失敗しました")
	}
	return nil
}

// SetUnsubscribed は購読者のunsubscribed_atを設定（配信停止）またはクリア（再開）する。
func (r *PostgresSubscriberRepo) SetUnsubscribed(ctx context.Context, id string, unsubscribed bool) error {
	var query string
	if unsubscribed {
		query = `UPDATE subscribers SET unsubscribed_at = NOW() WHERE id = $1`
	} else {
		query = `UPDATE subscribers SET unsubscribed_at = NULL WHERE id = $1`
	}

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("購読状態の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("購読者が見つかりません: %s", id)
	}
	return nil
}

// List は購読者一覧を作成日時降順でlimit/offsetページングして返す。
func (r *PostgresSubscriberRepo) List(ctx context.Context, limit, offset int) ([]*model.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("購読者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectSubscribers(rows)
}

// ListActiveAfter はアクティブな購読者をid昇順でカーソルページングして返す。
// afterIDが空の場合は先頭から取得する。
// OFFSETスキャンを避け、1ページあたりのメモリをO(limit)に抑えるための
// カーソル方式であり、ファンアウトの各ページ取得に使用される。
func (r *PostgresSubscriberRepo) ListActiveAfter(ctx context.Context, afterID string, limit int) ([]*model.Subscriber, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if afterID == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+subscriberColumns+` FROM subscribers
			 WHERE unsubscribed_at IS NULL
			 ORDER BY id ASC LIMIT $1`,
			limit,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+subscriberColumns+` FROM subscribers
			 WHERE unsubscribed_at IS NULL AND id > $1
			 ORDER BY id ASC LIMIT $2`,
			afterID, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("アクティブ購読者ページの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectSubscribers(rows)
}

// CountActive はアクティブな購読者数を返す。
func (r *PostgresSubscriberRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscribers WHERE unsubscribed_at IS NULL`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("アクティブ購読者数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// DeleteByID は指定IDの購読者を物理削除する。
func (r *PostgresSubscriberRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM subscribers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("購読者の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("購読者が見つかりません: %s", id)
	}
	return nil
}

func collectSubscribers(rows *sql.Rows) ([]*model.Subscriber, error) {
	var subs []*model.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("購読者行の読み取りに失敗しました: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("購読者一覧の走査に失敗しました: %w", err)
	}
	return subs, nil
}

// compile-time interface check
var _ SubscriberRepository = (*PostgresSubscriberRepo)(nil)
