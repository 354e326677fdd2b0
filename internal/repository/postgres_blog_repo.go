package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jbbc/jbbc-api/internal/model"
)

// PostgresBlogPostRepo はPostgreSQLを使用したブログ記事リポジトリ。
type PostgresBlogPostRepo struct {
	db *sql.DB
}

// NewPostgresBlogPostRepo はPostgresBlogPostRepoを生成する。
func NewPostgresBlogPostRepo(db *sql.DB) *PostgresBlogPostRepo {
	return &PostgresBlogPostRepo{db: db}
}

const blogPostColumns = `id, title, slug, body, COALESCE(excerpt, ''), cover_image_url,
	like_count, published_at, created_at, updated_at`

func scanBlogPost(row interface{ Scan(...any) error }) (*model.BlogPost, error) {
	p := &model.BlogPost{}
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.Excerpt, &p.CoverImageURL,
		&p.LikeCount, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID は指定IDのブログ記事を取得する。見つからない場合はnilを返す。
func (r *PostgresBlogPostRepo) FindByID(ctx context.Context, id string) (*model.BlogPost, error) {
	p, err := scanBlogPost(r.db.QueryRowContext(ctx,
		`SELECT `+blogPostColumns+` FROM blog_posts WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ブログ記事の取得に失敗しました: %w", err)
	}
	return p, nil
}

// FindBySlug はスラッグでブログ記事を検索する。見つからない場合はnilを返す。
func (r *PostgresBlogPostRepo) FindBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	p, err := scanBlogPost(r.db.QueryRowContext(ctx,
		`SELECT `+blogPostColumns+` FROM blog_posts WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スラッグによるブログ記事の検索に失敗しました: %w", err)
	}
	return p, nil
}

// List はブログ記事一覧を公開日時降順で返す。publishedOnlyがtrueの場合は公開済みのみ。
func (r *PostgresBlogPostRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.BlogPost, error) {
	query := `SELECT ` + blogPostColumns + ` FROM blog_posts`
	if publishedOnly {
		query += ` WHERE published_at IS NOT NULL AND published_at <= NOW()`
	}
	query += ` ORDER BY COALESCE(published_at, created_at) DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ブログ記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.BlogPost
	for rows.Next() {
		p, err := scanBlogPost(rows)
		if err != nil {
			return nil, fmt.Errorf("ブログ記事行の読み取りに失敗しました: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ブログ記事一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// Create はブログ記事を作成する。スラッグ重複時はErrDuplicateを返す。
func (r *PostgresBlogPostRepo) Create(ctx context.Context, p *model.BlogPost) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blog_posts (id, title, slug, body, excerpt, cover_image_url, like_count, published_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10)`,
		p.ID, p.Title, p.Slug, p.Body, p.Excerpt, p.CoverImageURL, p.LikeCount, p.PublishedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return wrapIfDuplicate(err, "ブログ記事の作成に失敗しました")
	}
	return nil
}

// Update はブログ記事を更新する。like_countは更新対象外（ToggleLike専用）。
func (r *PostgresBlogPostRepo) Update(ctx context.Context, p *model.BlogPost) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE blog_posts
		 SET title = $2, slug = $3, body = $4, excerpt = NULLIF($5, ''), cover_image_url = $6,
		     published_at = $7, updated_at = NOW()
		 WHERE id = $1`,
		p.ID, p.Title, p.Slug, p.Body, p.Excerpt, p.CoverImageURL, p.PublishedAt,
	)
	if err != nil {
		return wrapIfDuplicate(err, "ブログ記事の更新に失敗しました")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ブログ記事が見つかりません: %s", p.ID)
	}
	return nil
}

// DeleteByID は指定IDのブログ記事を削除する。いいねはON DELETE CASCADEで削除される。
func (r *PostgresBlogPostRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ブログ記事の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ブログ記事が見つかりません: %s", id)
	}
	return nil
}

// ToggleLike は(postID, userKey)のいいねを単一トランザクションでトグルする。
// 既存行があれば削除してカウンタをデクリメント、なければ挿入してインクリメントする。
// デクリメントはGREATESTで0未満への低下を防ぐ。
func (r *PostgresBlogPostRepo) ToggleLike(ctx context.Context, postID, userKey string) (bool, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	var likeID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM likes WHERE post_id = $1 AND user_key = $2`,
		postID, userKey,
	).Scan(&likeID)

	var liked bool
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO likes (id, post_id, user_key, created_at) VALUES ($1, $2, $3, NOW())`,
			uuid.NewString(), postID, userKey,
		)
		if err != nil {
			// 同一キーの同時トグルで挿入が競合した場合も一意制約違反になる
			return false, 0, wrapIfDuplicate(err, "いいねの登録に失敗しました")
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE blog_posts SET like_count = like_count + 1 WHERE id = $1`, postID)
		if err != nil {
			return false, 0, fmt.Errorf("いいね数の加算に失敗しました: %w", err)
		}
		liked = true
	case err != nil:
		return false, 0, fmt.Errorf("いいねの検索に失敗しました: %w", err)
	default:
		_, err = tx.ExecContext(ctx,
			`DELETE FROM likes WHERE id = $1`, likeID)
		if err != nil {
			return false, 0, fmt.Errorf("いいねの削除に失敗しました: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE blog_posts SET like_count = GREATEST(like_count - 1, 0) WHERE id = $1`, postID)
		if err != nil {
			return false, 0, fmt.Errorf("いいね数の減算に失敗しました: %w", err)
		}
		liked = false
	}

	var likeCount int
	err = tx.QueryRowContext(ctx,
		`SELECT like_count FROM blog_posts WHERE id = $1`, postID,
	).Scan(&likeCount)
	if err != nil {
		return false, 0, fmt.Errorf("いいね数の取得に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return liked, likeCount, nil
}

// compile-time interface check
var _ BlogPostRepository = (*PostgresBlogPostRepo)(nil)
