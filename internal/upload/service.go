package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/repository"
)

// allowedMimeTypes はアップロードを許可するMIMEタイプ。
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
	"application/pdf": true,
}

// Service はファイルアップロードのビジネスロジック。
// 検証済みファイルをオブジェクトストレージに書き込み、
// メタデータをデータベースに保存する。
type Service struct {
	store      ObjectStore
	imageRepo  repository.UploadedImageRepository
	cdnBaseURL string
	maxSize    int64
	nowFunc    func() time.Time
}

// NewService はServiceを生成する。
// cdnBaseURLは公開URL組み立てに使用するベースURL（末尾スラッシュなし）。
func NewService(store ObjectStore, imageRepo repository.UploadedImageRepository, cdnBaseURL string, maxSize int64) *Service {
	return &Service{
		store:      store,
		imageRepo:  imageRepo,
		cdnBaseURL: strings.TrimSuffix(cdnBaseURL, "/"),
		maxSize:    maxSize,
		nowFunc:    time.Now,
	}
}

// Upload はファイルを検証してストレージに保存し、メタデータを返す。
// MIMEタイプが許可リスト外の場合、サイズ超過の場合はAPIErrorを返す。
func (s *Service) Upload(ctx context.Context, fileName, mimeType string, data []byte) (*model.UploadedImage, error) {
	if len(data) == 0 {
		return nil, model.NewValidationError("ファイルが空です")
	}
	if int64(len(data)) > s.maxSize {
		return nil, model.NewPayloadTooLargeError(s.maxSize)
	}
	if !allowedMimeTypes[mimeType] {
		return nil, model.NewUnsupportedMediaError(mimeType)
	}

	now := s.nowFunc()
	key := fmt.Sprintf("uploads/%d-%s", now.UnixNano(), sanitizeFileName(fileName))

	if err := s.store.Write(ctx, key, mimeType, data); err != nil {
		return nil, fmt.Errorf("ストレージへの保存に失敗しました: %w", err)
	}

	img := &model.UploadedImage{
		ID:        uuid.NewString(),
		FileName:  fileName,
		MimeType:  mimeType,
		URL:       fmt.Sprintf("%s/%s", s.cdnBaseURL, key),
		SizeBytes: int64(len(data)),
		CreatedAt: now,
	}

	if err := s.imageRepo.Create(ctx, img); err != nil {
		return nil, fmt.Errorf("アップロードメタデータの保存に失敗しました: %w", err)
	}

	return img, nil
}

// List はアップロード済みファイル一覧を返す。
func (s *Service) List(ctx context.Context, limit, offset int) ([]*model.UploadedImage, error) {
	return s.imageRepo.List(ctx, limit, offset)
}

// sanitizeFileName はオブジェクトキーに安全な文字だけを残す。
// 許可外の文字はハイフンに置換し、パストラバーサルを防ぐ。
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	sanitized := strings.Trim(b.String(), ".-")
	if sanitized == "" {
		return "file"
	}
	return sanitized
}
