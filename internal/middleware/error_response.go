package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/wangdaguo68/kinghome/internal/model"
)

// ErrorResponseBody 是 API 错误响应的统一格式。
// 所有端点都使用 {success, error} 信封。
type ErrorResponseBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WriteErrorResponse 以统一信封写出错误响应。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Success: false,
		Error:   apiErr.Message,
	})
}

// WriteInternalServerError 写出 500 的统一响应。
// 细节只进日志，不向调用方透出存储层的原始错误文本。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewStoreUnavailableError())
}
