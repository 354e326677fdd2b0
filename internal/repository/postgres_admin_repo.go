package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jbbc/jbbc-api/internal/model"
)

// PostgresAdminUserRepo はPostgreSQLを使用した管理者リポジトリ。
type PostgresAdminUserRepo struct {
	db *sql.DB
}

// NewPostgresAdminUserRepo はPostgresAdminUserRepoを生成する。
func NewPostgresAdminUserRepo(db *sql.DB) *PostgresAdminUserRepo {
	return &PostgresAdminUserRepo{db: db}
}

const adminUserColumns = `id, email, name, password_hash, created_at, updated_at`

func scanAdminUser(row interface{ Scan(...any) error }) (*model.AdminUser, error) {
	admin := &model.AdminUser{}
	err := row.Scan(&admin.ID, &admin.Email, &admin.Name, &admin.PasswordHash, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// FindByID は指定IDの管理者を取得する。見つからない場合はnilを返す。
func (r *PostgresAdminUserRepo) FindByID(ctx context.Context, id string) (*model.AdminUser, error) {
	admin, err := scanAdminUser(r.db.QueryRowContext(ctx,
		`SELECT `+adminUserColumns+` FROM admin_users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("管理者の取得に失敗しました: %w", err)
	}
	return admin, nil
}

// FindByEmail はメールアドレスで管理者を検索する。見つからない場合はnilを返す。
func (r *PostgresAdminUserRepo) FindByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	admin, err := scanAdminUser(r.db.QueryRowContext(ctx,
		`SELECT `+adminUserColumns+` FROM admin_users WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メールアドレスによる管理者の検索に失敗しました: %w", err)
	}
	return admin, nil
}

// List は全管理者を作成日時昇順で返す。
func (r *PostgresAdminUserRepo) List(ctx context.Context) ([]*model.AdminUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+adminUserColumns+` FROM admin_users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("管理者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var admins []*model.AdminUser
	for rows.Next() {
		admin, err := scanAdminUser(rows)
		if err != nil {
			return nil, fmt.Errorf("管理者行の読み取りに失敗しました: %w", err)
		}
		admins = append(admins, admin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("管理者一覧の走査に失敗しました: %w", err)
	}
	return admins, nil
}

// Create は管理者を作成する。メールアドレス重複時はErrDuplicateを返す。
func (r *PostgresAdminUserRepo) Create(ctx context.Context, admin *model.AdminUser) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_users (id, email, name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		admin.ID, admin.Email, admin.Name, admin.PasswordHash, admin.CreatedAt, admin.UpdatedAt,
	)
	if err != nil {
		return wrapIfDuplicate(err, "管理者の作成に失敗しました")
	}
	return nil
}

// Update は管理者の名前とパスワードハッシュを更新する。
func (r *PostgresAdminUserRepo) Update(ctx context.Context, admin *model.AdminUser) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE admin_users SET name = $2, password_hash = $3, updated_at = NOW() WHERE id = $1`,
		admin.ID, admin.Name, admin.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("管理者の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("管理者が見つかりません: %s", admin.ID)
	}
	return nil
}

// DeleteByID は指定IDの管理者を削除する。
func (r *PostgresAdminUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM admin_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("管理者の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("管理者が見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ AdminUserRepository = (*PostgresAdminUserRepo)(nil)
