// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jbbc/jbbc-api/internal/model"
)

// SessionCookieName は管理画面セッショントークンを格納するCookie名。
const SessionCookieName = "admin_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// adminContextKey はリクエストコンテキストに管理者情報を格納するためのキー。
var adminContextKey = contextKey("admin_identity")

// TokenVerifier はセッショントークンの検証に必要なインターフェース。
// auth.Authenticatorの部分集合として定義する。
type TokenVerifier interface {
	VerifyToken(token string) (*model.AdminIdentity, error)
}

// NewSessionMiddleware はHTTP Only Cookieから署名付きセッショントークンを
// 読み取り、検証するミドルウェアを返す。
// 検証済みの管理者情報をリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 署名・有効期限の検証。失敗理由はクライアントに返さない。
			identity, err := verifier.VerifyToken(cookie.Value)
			if err != nil || identity == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext はリクエストコンテキストから管理者情報を取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func AdminFromContext(ctx context.Context) (*model.AdminIdentity, error) {
	identity, ok := ctx.Value(adminContextKey).(*model.AdminIdentity)
	if !ok || identity == nil || identity.ID == "" {
		return nil, fmt.Errorf("admin identity not found in context")
	}
	return identity, nil
}

// ContextWithAdmin はコンテキストに管理者情報を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAdmin(ctx context.Context, identity *model.AdminIdentity) context.Context {
	return context.WithValue(ctx, adminContextKey, identity)
}
