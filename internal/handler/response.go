package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wangdaguo68/kinghome/internal/middleware"
	"github.com/wangdaguo68/kinghome/internal/model"
)

// successResponse 是成功响应的统一信封。
type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// writeJSONResponse 以 {success: true, data} 信封写出成功响应。
func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(successResponse{
		Success: true,
		Data:    data,
	})
}

// writeErrorResponse 以 {success: false, error} 信封写出错误响应。
func writeErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError 把服务层错误转换为 HTTP 响应。
// APIError 按错误码映射状态码；其余错误记日志后统一返回 500。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	writeErrorResponse(w, http.StatusInternalServerError, model.NewStoreUnavailableError())
}

// mapAPIErrorToHTTPStatus 把错误码映射为 HTTP 状态码。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeDuplicateName:
		return http.StatusBadRequest
	case model.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
