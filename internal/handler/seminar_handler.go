package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jbbc/jbbc-api/internal/content"
	"github.com/jbbc/jbbc-api/internal/model"
)

// SeminarHandler はセミナーと参加申し込みのHTTPハンドラー。
type SeminarHandler struct {
	service *content.SeminarService
}

// NewSeminarHandler はSeminarHandlerを生成する。
func NewSeminarHandler(service *content.SeminarService) *SeminarHandler {
	return &SeminarHandler{service: service}
}

type seminarCreateRequest struct {
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Body            string     `json:"body"`
	Excerpt         string     `json:"excerpt"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	Location        string     `json:"location"`
	SpeakerName     string     `json:"speaker_name"`
	SpeakerTitle    string     `json:"speaker_title"`
	RegistrationURL string     `json:"registration_url"`
	Publish         bool       `json:"publish"`
}

type seminarUpdateRequest struct {
	Title           *string    `json:"title"`
	Slug            *string    `json:"slug"`
	Body            *string    `json:"body"`
	Excerpt         *string    `json:"excerpt"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	Location        *string    `json:"location"`
	SpeakerName     *string    `json:"speaker_name"`
	SpeakerTitle    *string    `json:"speaker_title"`
	RegistrationURL *string    `json:"registration_url"`
	Publish         *bool      `json:"publish"`
}

type registrationRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type registrationResponse struct {
	ID        string    `json:"id"`
	SeminarID string    `json:"seminar_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toRegistrationResponse(reg *model.SeminarRegistration) *registrationResponse {
	return &registrationResponse{
		ID:        reg.ID,
		SeminarID: reg.SeminarID,
		Name:      reg.Name,
		Email:     reg.Email,
		Phone:     reg.Phone,
		CreatedAt: reg.CreatedAt,
	}
}

// ListPublic は公開済みセミナー一覧を返す。
func (h *SeminarHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, err := h.service.List(r.Context(), true, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSeminarResponses(items))
}

// GetPublic は公開済みセミナーをスラッグで返す。
func (h *SeminarHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSeminarResponse(s))
}

// Register はセミナー参加申し込みを受け付ける。公開エンドポイント。
func (h *SeminarHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reg, err := h.service.Register(r.Context(), chi.URLParam(r, "slug"), &content.RegistrationInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRegistrationResponse(reg))
}

// ListAdmin は下書きを含む全セミナー一覧を返す。
func (h *SeminarHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, err := h.service.List(r.Context(), false, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSeminarResponses(items))
}

// GetAdmin はセミナーをIDで返す。
func (h *SeminarHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSeminarResponse(s))
}

// Create はセミナーを作成する。
func (h *SeminarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req seminarCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.service.Create(r.Context(), &content.SeminarInput{
		Title:           req.Title,
		Slug:            req.Slug,
		Body:            req.Body,
		Excerpt:         req.Excerpt,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		Location:        req.Location,
		SpeakerName:     req.SpeakerName,
		SpeakerTitle:    req.SpeakerTitle,
		RegistrationURL: req.RegistrationURL,
		Publish:         req.Publish,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSeminarResponse(s))
}

// Update はセミナーを部分更新する。
func (h *SeminarHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req seminarUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &content.SeminarUpdate{
		Title:           req.Title,
		Slug:            req.Slug,
		Body:            req.Body,
		Excerpt:         req.Excerpt,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		Location:        req.Location,
		SpeakerName:     req.SpeakerName,
		SpeakerTitle:    req.SpeakerTitle,
		RegistrationURL: req.RegistrationURL,
		Publish:         req.Publish,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSeminarResponse(s))
}

// Delete はセミナーを削除する。
func (h *SeminarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotifications は指定セミナーの配信監査レコードを返す。
func (h *SeminarHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, err := h.service.ListNotifications(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationResponses(items))
}

// ListRegistrations は指定セミナーの参加申し込み一覧を返す。管理画面用。
func (h *SeminarHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.service.ListRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*registrationResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, toRegistrationResponse(reg))
	}
	writeJSON(w, http.StatusOK, out)
}
