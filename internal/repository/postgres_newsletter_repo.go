package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jbbc/jbbc-api/internal/model"
)

// PostgresNewsletterRepo はPostgreSQLを使用したメールマガジンリポジトリ。
type PostgresNewsletterRepo struct {
	db *sql.DB
}

// NewPostgresNewsletterRepo はPostgresNewsletterRepoを生成する。
func NewPostgresNewsletterRepo(db *sql.DB) *PostgresNewsletterRepo {
	return &PostgresNewsletterRepo{db: db}
}

const newsletterColumns = `id, title, slug, body, COALESCE(excerpt, ''), published_at, created_at, updated_at`

func scanNewsletter(row interface{ Scan(...any) error }) (*model.Newsletter, error) {
	n := &model.Newsletter{}
	err := row.Scan(&n.ID, &n.Title, &n.Slug, &n.Body, &n.Excerpt, &n.PublishedAt, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// FindByID は指定IDのメールマガジンを取得する。見つからない場合はnilを返す。
func (r *PostgresNewsletterRepo) FindByID(ctx context.Context, id string) (*model.Newsletter, error) {
	n, err := scanNewsletter(r.db.QueryRowContext(ctx,
		`SELECT `+newsletterColumns+` FROM newsletters WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メールマガジンの取得に失敗しました: %w", err)
	}
	return n, nil
}

// FindBySlug はスラッグでメールマガジンを検索する。見つからない場合はnilを返す。
func (r *PostgresNewsletterRepo) FindBySlug(ctx context.Context, slug string) (*model.Newsletter, error) {
	n, err := scanNewsletter(r.db.QueryRowContext(ctx,
		`SELECT `+newsletterColumns+` FROM newsletters WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スラッグによるメールマガジンの検索に失敗しました: %w", err)
	}
	return n, nil
}

// List はメールマガジン一覧を公開日時降順で返す。publishedOnlyがtrueの場合は公開済みのみ。
func (r *PostgresNewsletterRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Newsletter, error) {
	query := `SELECT ` + newsletterColumns + ` FROM newsletters`
	if publishedOnly {
		query += ` WHERE published_at IS NOT NULL AND published_at <= NOW()`
	}
	query += ` ORDER BY COALESCE(published_at, created_at) DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("メールマガジン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.Newsletter
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, fmt.Errorf("メールマガジン行の読み取りに失敗しました: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("メールマガジン一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// Create はメールマガジンを作成する。スラッグ重複時はErrDuplicateを返す。
func (r *PostgresNewsletterRepo) Create(ctx context.Context, n *model.Newsletter) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO newsletters (id, title, slug, body, excerpt, published_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`,
		n.ID, n.Title, n.Slug, n.Body, n.Excerpt, n.PublishedAt, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return wrapIfDuplicate(err, "メールマガジンの作成に失敗しました")
	}
	return nil
}

// Update はメールマガジンを更新する。スラッグ重複時はErrDuplicateを返す。
func (r *PostgresNewsletterRepo) Update(ctx context.Context, n *model.Newsletter) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE newsletters
		 SET title = $2, slug = $3, body = $4, excerpt = NULLIF($5, ''), published_at = $6, updated_at = NOW()
		 WHERE id = $1`,
		n.ID, n.Title, n.Slug, n.Body, n.Excerpt, n.PublishedAt,
	)
	if err != nil {
		return wrapIfDuplicate(err, "メールマガジンの更新に失敗しました")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("メールマガジンが見つかりません: %s", n.ID)
	}
	return nil
}

// DeleteByID は指定IDのメールマガジンを削除する。
func (r *PostgresNewsletterRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM newsletters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("メールマガジンの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("メールマガジンが見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ NewsletterRepository = (*PostgresNewsletterRepo)(nil)
