package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jbbc/jbbc-api/internal/adminuser"
	"github.com/jbbc/jbbc-api/internal/middleware"
	"github.com/jbbc/jbbc-api/internal/model"
)

// AdminUserHandler は管理者アカウント管理のHTTPハンドラー。
type AdminUserHandler struct {
	service *adminuser.Service
}

// NewAdminUserHandler はAdminUserHandlerを生成する。
func NewAdminUserHandler(service *adminuser.Service) *AdminUserHandler {
	return &AdminUserHandler{service: service}
}

type adminCreateRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type adminUpdateRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// List は全管理者を返す。
func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*adminUserResponse, 0, len(admins))
	for _, a := range admins {
		out = append(out, toAdminUserResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get は指定IDの管理者を返す。
func (h *AdminUserHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminUserResponse(a))
}

// Create は管理者を作成する。
func (h *AdminUserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req adminCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.service.Create(r.Context(), &adminuser.CreateInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdminUserResponse(a))
}

// Update は管理者の名前とパスワードを更新する。
func (h *AdminUserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req adminUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &adminuser.UpdateInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminUserResponse(a))
}

// Delete は管理者を削除する。自分自身のアカウントは削除できない。
func (h *AdminUserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.AdminFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), identity.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
