package handler

import (
	"io"
	"net/http"

	"github.com/jbbc/jbbc-api/internal/model"
	"github.com/jbbc/jbbc-api/internal/upload"
)

// UploadHandler はファイルアップロードと外部URLインポートのHTTPハンドラー。
type UploadHandler struct {
	service  *upload.Service
	importer *upload.Importer
	maxSize  int64
}

// NewUploadHandler はUploadHandlerを生成する。
func NewUploadHandler(service *upload.Service, importer *upload.Importer, maxSize int64) *UploadHandler {
	return &UploadHandler{
		service:  service,
		importer: importer,
		maxSize:  maxSize,
	}
}

type importRequest struct {
	URL string `json:"url"`
}

// Upload はmultipart/form-dataのファイルをアップロードする。
// フォームフィールド名は"file"。
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// 上限+1バイトでフォーム全体を制限し、超過を確実に検出する
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+1024)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		writeError(w, r, model.NewPayloadTooLargeError(h.maxSize))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, model.NewValidationError("フォームフィールド'file'が必要です"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	img, err := h.service.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUploadedImageResponse(img))
}

// Import は外部URLから画像を取り込む。
// URLがHTMLページの場合はog:imageを解決する。
func (h *UploadHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	img, err := h.importer.ImportFromURL(r.Context(), req.URL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUploadedImageResponse(img))
}

// List はアップロード済みファイル一覧を返す。
func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	imgs, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*uploadedImageResponse, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, toUploadedImageResponse(img))
	}
	writeJSON(w, http.StatusOK, out)
}
