package mailer

import (
	"context"
	"sync"
)

// SentBatch はMockProviderが記録した1回の送信内容。
type SentBatch struct {
	Recipients []string
	Message    *Message
}

// MockProvider はテスト用のProvider実装。
// 送信内容を記録し、SendBatchFuncで失敗を注入できる。
type MockProvider struct {
	mu            sync.Mutex
	batches       []SentBatch
	SendBatchFunc func(ctx context.Context, recipients []string, msg *Message) error
}

// NewMockProvider はMockProviderを生成する。
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// SendBatch は送信内容を記録する。SendBatchFuncが設定されていれば
// その結果を返し、エラー時は記録しない。
func (m *MockProvider) SendBatch(ctx context.Context, recipients []string, msg *Message) error {
	if m.SendBatchFunc != nil {
		if err := m.SendBatchFunc(ctx, recipients, msg); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]string, len(recipients))
	copy(copied, recipients)
	m.batches = append(m.batches, SentBatch{Recipients: copied, Message: msg})
	return nil
}

// Batches は記録された送信バッチのコピーを返す。
func (m *MockProvider) Batches() []SentBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentBatch, len(m.batches))
	copy(out, m.batches)
	return out
}

// TotalRecipients は記録された全バッチの受信者数の合計を返す。
func (m *MockProvider) TotalRecipients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, b := range m.batches {
		total += len(b.Recipients)
	}
	return total
}

// compile-time interface check
var _ Provider = (*MockProvider)(nil)
