package handler

import (
	"net/http"

	"github.com/jbbc/jbbc-api/internal/auth"
	"github.com/jbbc/jbbc-api/internal/middleware"
	"github.com/jbbc/jbbc-api/internal/model"
)

// AuthHandler は管理者認証のHTTPハンドラー。
type AuthHandler struct {
	authenticator *auth.Authenticator
	cookieSecure  bool
	cookieDomain  string
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(authenticator *auth.Authenticator, cookieSecure bool, cookieDomain string) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		cookieSecure:  cookieSecure,
		cookieDomain:  cookieDomain,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login はメールアドレスとパスワードを検証し、セッションCookieを発行する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	identity, token, err := h.authenticator.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   int(h.authenticator.MaxAge().Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, &identityResponse{
		ID:    identity.ID,
		Email: identity.Email,
		Name:  identity.Name,
	})
}

// Logout はセッションCookieを破棄する。
// トークンはステートレスなのでサーバー側の無効化は行わない。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me はログイン中の管理者情報を返す。
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.AdminFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
		return
	}
	writeJSON(w, http.StatusOK, &identityResponse{
		ID:    identity.ID,
		Email: identity.Email,
		Name:  identity.Name,
	})
}

// ChangePassword はログイン中の管理者のパスワードを変更する。
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.AdminFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.authenticator.ChangePassword(r.Context(), identity.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "changed"})
}
