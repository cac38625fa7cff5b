package model

import "fmt"

// APIError 表示统一的 API 错误。
// Message 面向调用方展示；底层存储错误只进日志，不透出原始文本。
type APIError struct {
	Code    string // 错误码
	Message string // 面向调用方的错误信息
}

// Error 实现 error 接口。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 预定义错误码
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthenticated  = "UNAUTHENTICATED"
	ErrCodeDuplicateName    = "DUPLICATE_NAME"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
)

// NewValidationError 生成字段校验错误，信息中点名出错的字段。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// NewNotFoundError 生成资源不存在错误。
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NewUnauthenticatedError 生成未登录错误。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthenticated,
		Message: "请先登录",
	}
}

// NewDuplicateNameError 生成分类名称重复错误。
// 与普通校验错误区分，调用方需要单独提示。
func NewDuplicateNameError(name string) *APIError {
	return &APIError{
		Code:    ErrCodeDuplicateName,
		Message: fmt.Sprintf("分类名称已存在: %s", name),
	}
}

// NewStoreUnavailableError 生成存储层错误。原始错误只记录日志。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:    ErrCodeStoreUnavailable,
		Message: "服务暂时不可用，请稍后重试",
	}
}
