// Package upload はファイルアップロードとオブジェクトストレージ連携を提供する。
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"
)

// ObjectStore はオブジェクトストレージへの書き込みインターフェース。
type ObjectStore interface {
	// Write は指定キーにデータを書き込む。
	Write(ctx context.Context, key, contentType string, data []byte) error
}

// GCSStore はGoogle Cloud Storageを使用するObjectStore実装。
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore はGCSStoreを生成する。
func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{
		client: client,
		bucket: bucket,
	}
}

// Write は指定キーにデータを書き込む。一時的な障害に備えてリトライする。
func (s *GCSStore) Write(ctx context.Context, key, contentType string, data []byte) error {
	return retry.Do(
		func() error {
			w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
			w.ContentType = contentType
			if _, writeErr := w.Write(data); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					slog.Warn("failed to close storage writer after error",
						slog.String("key", key),
						slog.String("error", closeErr.Error()),
					)
				}
				return fmt.Errorf("オブジェクトの書き込みに失敗しました: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("ストレージライターのクローズに失敗しました: %w", closeErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("retrying object write",
				slog.String("key", key),
				slog.Uint64("attempt", uint64(n)),
				slog.String("error", err.Error()),
			)
		}),
	)
}

// compile-time interface check
var _ ObjectStore = (*GCSStore)(nil)
