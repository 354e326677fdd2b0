package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jbbc/jbbc-api/internal/content"
)

// AnnouncementHandler はお知らせのHTTPハンドラー。
type AnnouncementHandler struct {
	service *content.AnnouncementService
}

// NewAnnouncementHandler はAnnouncementHandlerを生成する。
func NewAnnouncementHandler(service *content.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: service}
}

type announcementCreateRequest struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Body    string `json:"body"`
	Excerpt string `json:"excerpt"`
	Publish bool   `json:"publish"`
}

type announcementUpdateRequest struct {
	Title   *string `json:"title"`
	Slug    *string `json:"slug"`
	Body    *string `json:"body"`
	Excerpt *string `json:"excerpt"`
	Publish *bool   `json:"publish"`
}

// ListPublic は公開済みお知らせ一覧を返す。
func (h *AnnouncementHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, err := h.service.List(r.Context(), true, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnnouncementResponses(items))
}

// GetPublic は公開済みお知らせをスラッグで返す。
func (h *AnnouncementHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnnouncementResponse(a))
}

// ListAdmin は下書きを含む全お知らせ一覧を返す。
func (h *AnnouncementHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, err := h.service.List(r.Context(), false, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnnouncementResponses(items))
}

// GetAdmin はお知らせをIDで返す。
func (h *AnnouncementHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnnouncementResponse(a))
}

// Create はお知らせを作成する。
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req announcementCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.service.Create(r.Context(), &content.AnnouncementInput{
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
	writeJSON(w, http.StatusCreated, toAnnouncementResponse(a))
}

// Update はお知らせを部分更新する。
func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req announcementUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &content.AnnouncementUpdate{
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
	writeJSON(w, http.StatusOK, toAnnouncementResponse(a))
}

// ListNotifications は指定お知らせの配信監査レコードを返す。
func (h *AnnouncementHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, err := h.service.ListNotifications(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationResponses(items))
}

// Delete はお知らせを削除する。
func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
