// Package sheets はお問い合わせ・セミナー申し込みのGoogleスプレッドシート転送を提供する。
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/jbbc/jbbc-api/internal/model"
)

// 転送先シート名。スプレッドシート側に同名のシートが存在すること。
const (
	contactSheetRange = "お問い合わせ!A:G"
	seminarSheetRange = "セミナー申し込み!A:F"
	valueInputOption  = "USER_ENTERED"
	insertDataOption  = "INSERT_ROWS"
	timestampLayout   = "2006-01-02 15:04:05"
)

// ValuesAppender はスプレッドシートへの行追記インターフェース。
type ValuesAppender interface {
	// Append は指定レンジに行を追記する。
	Append(ctx context.Context, spreadsheetID, rangeName string, values [][]any) error
}

// apiAppender はSheets APIを使用するValuesAppender実装。
type apiAppender struct {
	svc *sheetsapi.Service
}

// NewAPIAppender はSheets APIクライアントをラップしたValuesAppenderを生成する。
func NewAPIAppender(svc *sheetsapi.Service) ValuesAppender {
	return &apiAppender{svc: svc}
}

// Append は指定レンジに行を追記する。
func (a *apiAppender) Append(ctx context.Context, spreadsheetID, rangeName string, values [][]any) error {
	vr := &sheetsapi.ValueRange{Values: values}
	_, err := a.svc.Spreadsheets.Values.Append(spreadsheetID, rangeName, vr).
		ValueInputOption(valueInputOption).
		InsertDataOption(insertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("スプレッドシートへの追記に失敗しました: %w", err)
	}
	return nil
}

// Forwarder はフォーム送信内容をスプレッドシートに転送する。
// spreadsheetIDが空の場合は転送を行わない（無効化）。
// 転送はデータベース保存後のベストエフォートであり、
// 失敗してもフォーム送信自体は成功として扱う。
type Forwarder struct {
	appender      ValuesAppender
	spreadsheetID string
	logger        *slog.Logger
}

// NewForwarder はForwarderを生成する。
func NewForwarder(appender ValuesAppender, spreadsheetID string, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		appender:      appender,
		spreadsheetID: spreadsheetID,
		logger:        logger,
	}
}

// Enabled は転送が有効かどうかを返す。
func (f *Forwarder) Enabled() bool {
	return f.spreadsheetID != "" && f.appender != nil
}

// ForwardContact はお問い合わせ送信内容を1行追記する。
func (f *Forwarder) ForwardContact(ctx context.Context, c *model.ContactSubmission) error {
	if !f.Enabled() {
		return nil
	}
	row := []any{
		c.CreatedAt.Format(timestampLayout),
		c.Name,
		c.Email,
		c.Phone,
		c.Company,
		c.Message,
		c.ID,
	}
	return f.append(ctx, contactSheetRange, row)
}

// ForwardSeminarRegistration はセミナー参加申し込みを1行追記する。
func (f *Forwarder) ForwardSeminarRegistration(ctx context.Context, seminarTitle string, reg *model.SeminarRegistration) error {
	if !f.Enabled() {
		return nil
	}
	row := []any{
		reg.CreatedAt.Format(timestampLayout),
		seminarTitle,
		reg.Name,
		reg.Email,
		reg.Phone,
		reg.ID,
	}
	return f.append(ctx, seminarSheetRange, row)
}

// append は一時的な障害に備えてリトライしながら1行追記する。
func (f *Forwarder) append(ctx context.Context, rangeName string, row []any) error {
	err := retry.Do(
		func() error {
			return f.appender.Append(ctx, f.spreadsheetID, rangeName, [][]any{row})
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Info("retrying sheet append",
				slog.String("range", rangeName),
				slog.Uint64("attempt", uint64(n)),
				slog.String("error", err.Error()),
			)
		}),
	)
	if err != nil {
		f.logger.Error("sheet forwarding failed",
			slog.String("range", rangeName),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
