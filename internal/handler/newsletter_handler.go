package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jbbc/jbbc-api/internal/content"
)

// NewsletterHandler はメールマガジンのHTTPハンドラー。
type NewsletterHandler struct {
	service *content.NewsletterService
}

// NewNewsletterHandler はNewsletterHandlerを生成する。
func NewNewsletterHandler(service *content.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{service: service}
}

type newsletterCreateRequest struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Body    string `json:"body"`
	Excerpt string `json:"excerpt"`
	Publish bool   `json:"publish"`
}

type newsletterUpdateRequest struct {
	Title   *string `json:"title"`
	Slug    *string `json:"slug"`
	Body    *string `json:"body"`
	Excerpt *string `json:"excerpt"`
	Publish *bool   `json:"publish"`
}

// ListPublic は公開済みメールマガジン一覧を返す。
func (h *NewsletterHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, err := h.service.List(r.Context(), true, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsletterResponses(items))
}

// GetPublic は公開済みメールマガジンをスラッグで返す。
func (h *NewsletterHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsletterResponse(n))
}

// ListAdmin は下書きを含む全メールマガジン一覧を返す。
func (h *NewsletterHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, err := h.service.List(r.Context(), false, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsletterResponses(items))
}

// GetAdmin はメールマガジンをIDで返す。
func (h *NewsletterHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsletterResponse(n))
}

// Create はメールマガジンを作成する。
func (h *NewsletterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req newsletterCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.service.Create(r.Context(), &content.NewsletterInput{
		Title:   req.Title,
		Slug:    req.Slug,
		Body:    req.Body,
		Excerpt: req.Excerpt,
		Publish: req.Publish,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNewsletterResponse(n))
}

// Update はメールマガジンを部分更新する。
func (h *NewsletterHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req newsletterUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &content.NewsletterUpdate{
		Title:   req.Title,
		Slug:    req.Slug,
		Body:    req.Body,
		Excerpt: req.Excerpt,
		Publish: req.Publish,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsletterResponse(n))
}

// ListNotifications は指定メールマガジンの配信監査レコードを返す。
func (h *NewsletterHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, err := h.service.ListNotifications(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationResponses(items))
}

// Delete はメールマガジンを削除する。
func (h *NewsletterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
