package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// brevoEndpoint はBrevoのトランザクショナルメール送信エンドポイント。
const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// BrevoProvider はBrevo（旧Sendinblue）APIによるメール送信プロバイダ。
type BrevoProvider struct {
	apiKey   string
	fromAddr string
	fromName string
	endpoint string
	client   *http.Client
}

// NewBrevoProvider はBrevoProviderを生成する。
func NewBrevoProvider(apiKey, fromAddr, fromName string) *BrevoProvider {
	return &BrevoProvider{
		apiKey:   apiKey,
		fromAddr: fromAddr,
		fromName: fromName,
		endpoint: brevoEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// brevoContact はBrevo APIの連絡先表現。
type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// brevoMessageVersion は受信者ごとの宛先バリエーション。
// 受信者同士にアドレスが見えないよう、1受信者1バージョンで送信する。
type brevoMessageVersion struct {
	To []brevoContact `json:"to"`
}

// brevoSendRequest はBrevoのメール送信リクエストボディ。
type brevoSendRequest struct {
	Sender          brevoContact          `json:"sender"`
	Subject         string                `json:"subject"`
	HTML            string                `json:"htmlContent"`
	Text            string                `json:"textContent,omitempty"`
	MessageVersions []brevoMessageVersion `json:"messageVersions"`
}

// SendBatch は1回のAPI呼び出しで全受信者に同一内容を送信する。
// 非2xx応答はエラーとして返す。リトライは行わない。
func (b *BrevoProvider) SendBatch(ctx context.Context, recipients []string, msg *Message) error {
	if len(recipients) == 0 {
		return nil
	}

	versions := make([]brevoMessageVersion, 0, len(recipients))
	for _, email := range recipients {
		versions = append(versions, brevoMessageVersion{
			To: []brevoContact{{Email: email}},
		})
	}

	reqBody := brevoSendRequest{
		Sender: brevoContact{
			Email: b.fromAddr,
			Name:  b.fromName,
		},
		Subject:         msg.Subject,
		HTML:            msg.HTML,
		Text:            msg.Text,
		MessageVersions: versions,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("メール送信リクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// エラー詳細はログにのみ残す
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Warn("brevo returned non-2xx status",
			slog.Int("status", resp.StatusCode),
			slog.Int("recipients", len(recipients)),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("メール送信APIがエラーを返しました: HTTP %d", resp.StatusCode)
	}

	slog.Info("mail batch sent",
		slog.Int("recipients", len(recipients)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// compile-time interface check
var _ Provider = (*BrevoProvider)(nil)
