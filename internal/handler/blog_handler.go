package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jbbc/jbbc-api/internal/content"
	"github.com/jbbc/jbbc-api/internal/middleware"
)

// BlogHandler はブログ記事といいねのHTTPハンドラー。
type BlogHandler struct {
	service *content.BlogService
}

// NewBlogHandler はBlogHandlerを生成する。
func NewBlogHandler(service *content.BlogService) *BlogHandler {
	return &BlogHandler{service: service}
}

type blogCreateRequest struct {
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Body          string `json:"body"`
	Excerpt       string `json:"excerpt"`
	CoverImageURL string `json:"cover_image_url"`
	Publish       bool   `json:"publish"`
}

type blogUpdateRequest struct {
	Title         *string `json:"title"`
	Slug          *string `json:"slug"`
	Body          *string `json:"body"`
	Excerpt       *string `json:"excerpt"`
	CoverImageURL *string `json:"cover_image_url"`
	Publish       *bool   `json:"publish"`
}

type likeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// ListPublic は公開済みブログ記事一覧を返す。
func (h *BlogHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, err := h.service.List(r.Context(), true, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlogPostResponses(items))
}

// GetPublic は公開済みブログ記事をスラッグで返す。
func (h *BlogHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlogPostResponse(p))
}

// ToggleLike は記事へのいいねをトグルする。公開エンドポイント。
// 訪問者の識別にはクライアントIPとUser-Agentを使用する。
func (h *BlogHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	liked, count, err := h.service.ToggleLike(
		r.Context(),
		chi.URLParam(r, "slug"),
		middleware.ClientIP(r),
		r.UserAgent(),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &likeResponse{Liked: liked, LikeCount: count})
}

// ListAdmin は下書きを含む全ブログ記事一覧を返す。
func (h *BlogHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, err := h.service.List(r.Context(), false, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlogPostResponses(items))
}

// GetAdmin はブログ記事をIDで返す。
func (h *BlogHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlogPostResponse(p))
}

// Create はブログ記事を作成する。
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req blogCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.service.Create(r.Context(), &content.BlogPostInput{
		Title:         req.Title,
		Slug:          req.Slug,
		Body:          req.Body,
		Excerpt:       req.Excerpt,
		CoverImageURL: req.CoverImageURL,
		Publish:       req.Publish,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBlogPostResponse(p))
}

// Update はブログ記事を部分更新する。
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req blogUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &content.BlogPostUpdate{
		Title:         req.Title,
		Slug:          req.Slug,
		Body:          req.Body,
		Excerpt:       req.Excerpt,
		CoverImageURL: req.CoverImageURL,
		Publish:       req.Publish,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlogPostResponse(p))
}

// Delete はブログ記事を削除する。
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
