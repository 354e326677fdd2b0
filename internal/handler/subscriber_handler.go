package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jbbc/jbbc-api/internal/subscriber"
)

// SubscriberHandler は購読登録・配信停止のHTTPハンドラー。
type SubscriberHandler struct {
	service *subscriber.Service
}

// NewSubscriberHandler はSubscriberHandlerを生成する。
func NewSubscriberHandler(service *subscriber.Service) *SubscriberHandler {
	return &SubscriberHandler{service: service}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

// Subscribe はメールアドレスを配信リストに登録する。公開エンドポイント。
func (h *SubscriberHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sub, err := h.service.Subscribe(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriberResponse(sub))
}

// Unsubscribe はメールアドレスの配信を停止する。公開エンドポイント。
func (h *SubscriberHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.Unsubscribe(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

// ListAdmin は購読者一覧を返す。管理画面用。
func (h *SubscriberHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	subs, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*subscriberResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubscriberResponse(sub))
	}
	writeJSON(w, http.StatusOK, out)
}

// CountActive はアクティブな購読者数を返す。管理画面用。
func (h *SubscriberHandler) CountActive(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountActive(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"active_count": count})
}

// Delete は購読者を物理削除する。管理画面用。
func (h *SubscriberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
