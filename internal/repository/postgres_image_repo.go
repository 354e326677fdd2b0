package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jbbc/jbbc-api/internal/model"
)

// PostgresUploadedImageRepo はPostgreSQLを使用したアップロード済みファイルメタデータリポジトリ。
type PostgresUploadedImageRepo struct {
	db *sql.DB
}

// NewPostgresUploadedImageRepo はPostgresUploadedImageRepoを生成する。
func NewPostgresUploadedImageRepo(db *sql.DB) *PostgresUploadedImageRepo {
	return &PostgresUploadedImageRepo{db: db}
}

// Create はアップロード済みファイルのメタデータを保存する。
func (r *PostgresUploadedImageRepo) Create(ctx context.Context, img *model.UploadedImage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO uploaded_images (id, file_name, mime_type, url, size_bytes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		img.ID, img.FileName, img.MimeType, img.URL, img.SizeBytes, img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("アップロードメタデータの保存に失敗しました: %w", err)
	}
	return nil
}

// List はアップロード済みファイル一覧を作成日時降順で返す。
func (r *PostgresUploadedImageRepo) List(ctx context.Context, limit, offset int) ([]*model.UploadedImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, file_name, mime_type, url, size_bytes, created_at
		 FROM uploaded_images ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("アップロード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.UploadedImage
	for rows.Next() {
		img := &model.UploadedImage{}
		if err := rows.Scan(&img.ID, &img.FileName, &img.MimeType, &img.URL, &img.SizeBytes, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("アップロード行の読み取りに失敗しました: %w", err)
		}
		items = append(items, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アップロード一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// compile-time interface check
var _ UploadedImageRepository = (*PostgresUploadedImageRepo)(nil)
