package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jbbc/jbbc-api/internal/model"
)

// PostgresSeminarRepo はPostgreSQLを使用したセミナーリポジトリ。
type PostgresSeminarRepo struct {
	db *sql.DB
}

// NewPostgresSeminarRepo はPostgresSeminarRepoを生成する。
func NewPostgresSeminarRepo(db *sql.DB) *PostgresSeminarRepo {
	return &PostgresSeminarRepo{db: db}
}

const seminarColumns = `id, title, slug, body, COALESCE(excerpt, ''), starts_at, ends_at,
	location, speaker_name, speaker_title, registration_url, published_at, created_at, updated_at`

func scanSeminar(row interface{ Scan(...any) error }) (*model.Seminar, error) {
	s := &model.Seminar{}
	err := row.Scan(&s.ID, &s.Title, &s.Slug, &s.Body, &s.Excerpt, &s.StartsAt, &s.EndsAt,
		&s.Location, &s.SpeakerName, &s.SpeakerTitle, &s.RegistrationURL, &s.PublishedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FindByID は指定IDのセミナーを取得する。見つからない場合はnilを返す。
func (r *PostgresSeminarRepo) FindByID(ctx context.Context, id string) (*model.Seminar, error) {
	s, err := scanSeminar(r.db.QueryRowContext(ctx,
		`SELECT `+seminarColumns+` FROM seminars WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("セミナーの取得に失敗しました: %w", err)
	}
	return s, nil
}

// FindBySlug はスラッグでセミナーを検索する。見つからない場合はnilを返す。
func (r *PostgresSeminarRepo) FindBySlug(ctx context.Context, slug string) (*model.Seminar, error) {
	s, err := scanSeminar(r.db.QueryRowContext(ctx,
		`SELECT `+seminarColumns+` FROM seminars WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スラッグによるセミナーの検索に失敗しました: %w", err)
	}
	return s, nil
}

// List はセミナー一覧を開催日時降順で返す。publishedOnlyがtrueの場合は公開済みのみ。
func (r *PostgresSeminarRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*model.Seminar, error) {
	query := `SELECT ` + seminarColumns + ` FROM seminars`
	if publishedOnly {
		query += ` WHERE published_at IS NOT NULL AND published_at <= NOW()`
	}
	query += ` ORDER BY starts_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("セミナー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.Seminar
	for rows.Next() {
		s, err := scanSeminar(rows)
		if err != nil {
			return nil, fmt.Errorf("セミナー行の読み取りに失敗しました: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("セミナー一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// Create はセミナーを作成する。スラッグ重複時はErrDuplicateを返す。
func (r *PostgresSeminarRepo) Create(ctx context.Context, s *model.Seminar) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO seminars (id, title, slug, body, excerpt, starts_at, ends_at,
		   location, speaker_name, speaker_title, registration_url, published_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.Title, s.Slug, s.Body, s.Excerpt, s.StartsAt, s.EndsAt,
		s.Location, s.SpeakerName, s.SpeakerTitle, s.RegistrationURL, s.PublishedAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return wrapIfDuplicate(err, "セミナーの作成に失敗しました")
	}
	return nil
}

// Update はセミナーを更新する。スラッグ重複時はErrDuplicateを返す。
func (r *PostgresSeminarRepo) Update(ctx context.Context, s *model.Seminar) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE seminars
		 SET title = $2, slug = $3, body = $4, excerpt = NULLIF($5, ''), starts_at = $6, ends_at = $7,
		     location = $8, speaker_name = $9, speaker_title = $10, registration_url = $11,
		     published_at = $12, updated_at = NOW()
		 WHERE id = $1`,
		s.ID, s.Title, s.Slug, s.Body, s.Excerpt, s.StartsAt, s.EndsAt,
		s.Location, s.SpeakerName, s.SpeakerTitle, s.RegistrationURL, s.PublishedAt,
	)
	if err != nil {
		return wrapIfDuplicate(err, "セミナーの更新に失敗しました")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("セミナーが見つかりません: %s", s.ID)
	}
	return nil
}

// DeleteByID は指定IDのセミナーを削除する。申し込みはON DELETE CASCADEで削除される。
func (r *PostgresSeminarRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM seminars WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("セミナーの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("セミナーが見つかりません: %s", id)
	}
	return nil
}

// CreateRegistration はセミナー参加申し込みを作成する。
func (r *PostgresSeminarRepo) CreateRegistration(ctx context.Context, reg *model.SeminarRegistration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO seminar_registrations (id, seminar_id, name, email, phone, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		reg.ID, reg.SeminarID, reg.Name, reg.Email, reg.Phone, reg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("セミナー申し込みの作成に失敗しました: %w", err)
	}
	return nil
}

// ListRegistrations は指定セミナーの申し込み一覧を作成日時昇順で返す。
func (r *PostgresSeminarRepo) ListRegistrations(ctx context.Context, seminarID string) ([]*model.SeminarRegistration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, seminar_id, name, email, phone, created_at
		 FROM seminar_registrations WHERE seminar_id = $1 ORDER BY created_at ASC`,
		seminarID,
	)
	if err != nil {
		return nil, fmt.Errorf("セミナー申し込み一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var regs []*model.SeminarRegistration
	for rows.Next() {
		reg := &model.SeminarRegistration{}
		if err := rows.Scan(&reg.ID, &reg.SeminarID, &reg.Name, &reg.Email, &reg.Phone, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("セミナー申し込み行の読み取りに失敗しました: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("セミナー申し込み一覧の走査に失敗しました: %w", err)
	}
	return regs, nil
}

// compile-time interface check
var _ SeminarRepository = (*PostgresSeminarRepo)(nil)
