// Package model はドメインモデルを定義する。
package model

import "time"

// AdminUser は管理画面にログインできる管理者を表す。
type AdminUser struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AdminIdentity はセッショントークンに載せる管理者情報。
// ステートレスな署名付きトークンのクレームとして運ばれる。
type AdminIdentity struct {
	ID    string
	Email string
	Name  string
}
