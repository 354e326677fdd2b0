package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jbbc/jbbc-api/internal/fanout"
	"github.com/jbbc/jbbc-api/internal/model"
)

// FanoutHandler は配信ジョブ状態照会のHTTPハンドラー。
type FanoutHandler struct {
	queue *fanout.Queue
}

// NewFanoutHandler はFanoutHandlerを生成する。
func NewFanoutHandler(queue *fanout.Queue) *FanoutHandler {
	return &FanoutHandler{queue: queue}
}

// List は全配信ジョブを登録時刻の降順で返す。
func (h *FanoutHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.queue.List()

	out := make([]*fanoutJobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toFanoutJobResponse(job))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get は指定IDの配信ジョブを返す。
func (h *FanoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := h.queue.Get(id)
	if job == nil {
		writeError(w, r, model.NewJobNotFoundError(id))
		return
	}
	writeJSON(w, http.StatusOK, toFanoutJobResponse(job))
}
