package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jbbc/jbbc-api/internal/model"
)

// PostgresContactRepo はPostgreSQLを使用したお問い合わせリポジトリ。
type PostgresContactRepo struct {
	db *sql.DB
}

// NewPostgresContactRepo はPostgresContactRepoを生成する。
func NewPostgresContactRepo(db *sql.DB) *PostgresContactRepo {
	return &PostgresContactRepo{db: db}
}

// Create はお問い合わせ送信内容を保存する。
func (r *PostgresContactRepo) Create(ctx context.Context, c *model.ContactSubmission) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contact_submissions (id, name, email, phone, company, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Email, c.Phone, c.Company, c.Message, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("お問い合わせの保存に失敗しました: %w", err)
	}
	return nil
}

// List はお問い合わせ一覧を作成日時降順で返す。
func (r *PostgresContactRepo) List(ctx context.Context, limit, offset int) ([]*model.ContactSubmission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, phone, company, message, created_at
		 FROM contact_submissions ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("お問い合わせ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.ContactSubmission
	for rows.Next() {
		c := &model.ContactSubmission{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("お問い合わせ行の読み取りに失敗しました: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("お問い合わせ一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// compile-time interface check
var _ ContactRepository = (*PostgresContactRepo)(nil)
