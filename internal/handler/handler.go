// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jbbc/jbbc-api/internal/middleware"
	"github.com/jbbc/jbbc-api/internal/model"
)

// 一覧取得のページングのデフォルトと上限。
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// errorStatusCodes はAPIエラーコードからHTTPステータスコードへの対応。
var errorStatusCodes = map[string]int{
	model.ErrCodeInvalidCredentials:  http.StatusUnauthorized,
	model.ErrCodeValidation:          http.StatusBadRequest,
	model.ErrCodeDuplicateSlug:       http.StatusConflict,
	model.ErrCodeDuplicateEmail:      http.StatusConflict,
	model.ErrCodeContentNotFound:     http.StatusNotFound,
	model.ErrCodeSubscriberNotFound:  http.StatusNotFound,
	model.ErrCodeAlreadyUnsubscribed: http.StatusConflict,
	model.ErrCodeAlreadySubscribed:   http.StatusConflict,
	model.ErrCodeAdminNotFound:       http.StatusNotFound,
	model.ErrCodeSelfDeleteForbidden: http.StatusForbidden,
	model.ErrCodeUnsupportedMedia:    http.StatusUnsupportedMediaType,
	model.ErrCodePayloadTooLarge:     http.StatusRequestEntityTooLarge,
	model.ErrCodeInvalidURL:          http.StatusBadRequest,
	model.ErrCodeSSRFBlocked:         http.StatusBadRequest,
	model.ErrCodeFetchFailed:         http.StatusBadRequest,
	model.ErrCodeJobNotFound:         http.StatusNotFound,
}

// writeError はエラーを統一フォーマットのHTTPレスポンスに変換する。
// APIError以外のエラーは詳細をログに残し、一般的な500を返す。
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		status, ok := errorStatusCodes[apiErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		middleware.WriteErrorResponse(w, status, apiErr)
		return
	}

	slog.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをJSONとしてデコードする。
// 不正なボディはバリデーションエラーとして扱う。
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return model.NewValidationError("リクエストボディの形式が正しくありません")
	}
	return nil
}

// parsePagination はクエリパラメータからlimit/offsetを読み取る。
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
