package handler

import (
	"net/http"
	"time"

	"github.com/jbbc/jbbc-api/internal/contact"
	"github.com/jbbc/jbbc-api/internal/model"
)

// ContactHandler はお問い合わせフォームのHTTPハンドラー。
type ContactHandler struct {
	service *contact.Service
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(service *contact.Service) *ContactHandler {
	return &ContactHandler{service: service}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Message string `json:"message"`
}

type contactResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func toContactResponse(c *model.ContactSubmission) *contactResponse {
	return &contactResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Message:   c.Message,
		CreatedAt: c.CreatedAt,
	}
}

// Submit はお問い合わせを受け付ける。公開エンドポイント。
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.service.Submit(r.Context(), &contact.SubmissionInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Message: req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContactResponse(c))
}

// ListAdmin はお問い合わせ一覧を返す。管理画面用。
func (h *ContactHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*contactResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toContactResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}
