package model

import "time"

// Subscriber はメール配信の購読者を表す。
// UnsubscribedAtがnilの購読者のみが配信対象（アクティブ）となる。
type Subscriber struct {
	ID             string
	Email          string
	VerifiedAt     *time.Time
	UnsubscribedAt *time.Time
	CreatedAt      time.Time
}

// IsActive は購読者が配信対象かどうかを返す。
func (s *Subscriber) IsActive() bool {
	return s.UnsubscribedAt == nil
}
