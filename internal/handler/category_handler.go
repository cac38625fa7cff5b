package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wangdaguo68/kinghome/internal/model"
)

// CategoryServiceInterface 是分类处理器所需的服务接口。
type CategoryServiceInterface interface {
	List(ctx context.Context) ([]*model.Category, error)
	Create(ctx context.Context, name, description string) (int64, error)
}

// CategoryHandler 处理分类相关的 HTTP 请求。
type CategoryHandler struct {
	service CategoryServiceInterface
}

// NewCategoryHandler 生成 CategoryHandler。
func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// categoryResponse 是分类的 API 响应。
type categoryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

// createCategoryRequest 是创建分类请求的 body。
type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListCategories 返回全部分类，按名称升序。
// GET /categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, toCategoryResponse(c))
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// CreateCategory 创建分类。名称重复返回 400。
// POST /categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, model.NewValidationError("请求格式非法"))
		return
	}

	id, err := h.service.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{"id": id})
}

// toCategoryResponse 把 model.Category 转换为 API 响应。
func toCategoryResponse(c *model.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
