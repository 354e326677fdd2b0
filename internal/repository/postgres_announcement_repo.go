package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jbbc/jbbc-api/internal/model"
)

// PostgresAnnouncementRepo はPostgreSQLを使用したお知らせリポジトリ。
type PostgresAnnouncementRepo struct {
	db *sql.DB
}

// NewPostgresAnnouncementRepo はPostgresAnnouncementRepoを生成する。
func NewPostgresAnnouncementRepo(db *sql.DB) *PostgresAnnouncementRepo {
	return &PostgresAnnouncementRepo{db: db}
}

const announcementColumns = `id, title, slug, body, COALESCE(excerpt, ''), published_at, created_at, updated_at`

func scanAnnouncement(row interface{ Scan(...any) error }) (*model.Announcement, error) {
	a := &model.Announcement{}
	err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Body, &a.Excerpt, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindByID は指定IDのお知らせを取得する。見つからない場合はnilを返す。
func (r *PostgresAnnouncementRepo) FindByID(ctx context.Context, id string) (*model.Announcement, error) {
	a, err := scanAnnouncement(r.db.QueryRowContext(ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("お知らせの取得に失敗しました: %w", err)
	}
	return a, nil
}

// FindBySlug はスラッグでお知らせを検索する。見つからない場合はnilを返す。
func (r *PostgresAnnouncementRepo) FindBySlug(ctx context.Context, slug string) (*model.Announcement, error) {
	a, err := scanAnnouncement(r.db.QueryRowContext(ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スラッグによるお知らせの検索に失敗しました: %w", err)
	}
	return a, nil
}

// List はお知らせ一覧を公開日時降順で返す。publishedOnlyがtrueの場合は公開済みのみ。
func (r *PostgresAnnouncementRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements`
	if publishedOnly {
		query += ` WHERE published_at IS NOT NULL AND published_at <= NOW()`
	}
	query += ` ORDER BY COALESCE(published_at, created_at) DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("お知らせ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("お知らせ行の読み取りに失敗しました: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("お知らせ一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// Create はお知らせを作成する。スラッグ重複時はErrDuplicateを返す。
func (r *PostgresAnnouncementRepo) Create(ctx context.Context, a *model.Announcement) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO announcements (id, title, slug, body, excerpt, published_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`,
		a.ID, a.Title, a.Slug, a.Body, a.Excerpt, a.PublishedAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return wrapIfDuplicate(err, "お知らせの作成に失敗しました")
	}
	return nil
}

// Update はお知らせを更新する。スラッグ重複時はErrDuplicateを返す。
func (r *PostgresAnnouncementRepo) Update(ctx context.Context, a *model.Announcement) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE announcements
		 SET title = $2, slug = $3, body = $4, excerpt = NULLIF($5, ''), published_at = $6, updated_at = NOW()
		 WHERE id = $1`,
		a.ID, a.Title, a.Slug, a.Body, a.Excerpt, a.PublishedAt,
	)
	if err != nil {
		return wrapIfDuplicate(err, "お知らせの更新に失敗しました")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("お知らせが見つかりません: %s", a.ID)
	}
	return nil
}

// DeleteByID は指定IDのお知らせを削除する。
func (r *PostgresAnnouncementRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("お知らせの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("お知らせが見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ AnnouncementRepository = (*PostgresAnnouncementRepo)(nil)
