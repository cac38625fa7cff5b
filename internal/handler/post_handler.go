package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wangdaguo68/kinghome/internal/metrics"
	"github.com/wangdaguo68/kinghome/internal/middleware"
	"github.com/wangdaguo68/kinghome/internal/model"
	"github.com/wangdaguo68/kinghome/internal/post"
)

// defaultLatestCategory 是最新复盘查询的默认分类。
// 新建复盘页用上一篇日复盘预填 summary/plan。
const defaultLatestCategory = "日复盘"

// PostServiceInterface 是复盘处理器所需的服务接口。
type PostServiceInterface interface {
	List(ctx context.Context, filter model.PostFilter) (*post.ListResult, error)
	GetDetail(ctx context.Context, id int64) (*post.Detail, error)
	Create(ctx context.Context, userID int64, input post.CreateInput) (int64, error)
	Update(ctx context.Context, id int64, input post.UpdateInput) error
	Delete(ctx context.Context, id int64) error
	BatchDelete(ctx context.Context, ids []int64) error
	LatestInCategory(ctx context.Context, userID int64, categoryName string) (*model.Post, error)
}

// PostHandler 处理复盘相关的 HTTP 请求。
type PostHandler struct {
	service PostServiceInterface
	metrics metrics.MetricsCollector
}

// NewPostHandler 生成 PostHandler。
func NewPostHandler(service PostServiceInterface, collector metrics.MetricsCollector) *PostHandler {
	return &PostHandler{
		service: service,
		metrics: collector,
	}
}

// postResponse 是复盘的 API 响应。
type postResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Summary   string `json:"summary"`
	Plan      string `json:"plan"`
	Mood      string `json:"mood"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	Views     int64  `json:"views"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// paginationResponse 是分页信息的 API 响应。
type paginationResponse struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// listPostsResponse 是列表查询的 API 响应。
// 分页未生效时 Pagination 为空。
type listPostsResponse struct {
	Posts      []postResponse      `json:"posts"`
	Total      int64               `json:"total"`
	Pagination *paginationResponse `json:"pagination,omitempty"`
}

// createPostRequest 是创建复盘请求的 body。
type createPostRequest struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Summary     string  `json:"summary"`
	Plan        string  `json:"plan"`
	Mood        string  `json:"mood"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
	CategoryIDs []int64 `json:"categoryIds"`
}

// updatePostRequest 是部分更新请求的 body。
// 未出现的字段保持不变；categoryIds 出现时整体替换关联（空数组表示清空）。
type updatePostRequest struct {
	Title       *string  `json:"title"`
	Content     *string  `json:"content"`
	Summary     *string  `json:"summary"`
	Plan        *string  `json:"plan"`
	Mood        *string  `json:"mood"`
	Date        *string  `json:"date"`
	Status      *string  `json:"status"`
	CategoryIDs *[]int64 `json:"categoryIds"`
}

// batchDeleteRequest 是批量删除请求的 body。
type batchDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// ListPosts 按过滤条件返回复盘列表。
// GET /posts?status=&date=&categoryId=&page=&pageSize=
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := model.PostFilter{
		Status: model.StatusFilter(q.Get("status")),
		Date:   q.Get("date"),
	}
	if v := q.Get("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, model.NewValidationError("categoryId 非法"))
			return
		}
		filter.CategoryID = id
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, model.NewValidationError("page 非法"))
			return
		}
		filter.Page = page
	}
	if v := q.Get("pageSize"); v != "" {
		pageSize, err := strconv.Atoi(v)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, model.NewValidationError("pageSize 非法"))
			return
		}
		filter.PageSize = pageSize
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := listPostsResponse{
		Posts: make([]postResponse, 0, len(result.Posts)),
		Total: result.Total,
	}
	for _, p := range result.Posts {
		resp.Posts = append(resp.Posts, toPostResponse(p))
	}
	if result.PageSize > 0 {
		resp.Pagination = &paginationResponse{
			Page:       result.Page,
			PageSize:   result.PageSize,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// GetPost 返回复盘详情，浏览计数加一。
// GET /posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetDetail(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if detail == nil {
		writeErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("笔记不存在"))
		return
	}
	h.metrics.RecordPostView()

	categories := make([]categoryResponse, 0, len(detail.Categories))
	for _, c := range detail.Categories {
		categories = append(categories, toCategoryResponse(c))
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"post":       toPostResponse(detail.Post),
		"categories": categories,
	})
}

// CreatePost 创建复盘。
// POST /posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, model.NewValidationError("请求格式非法"))
		return
	}

	id, err := h.service.Create(r.Context(), userID, post.CreateInput{
		Title:       req.Title,
		Content:     req.Content,
		Summary:     req.Summary,
		Plan:        req.Plan,
		Mood:        req.Mood,
		Date:        req.Date,
		Status:      model.PostStatus(req.Status),
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.metrics.RecordPostCreated()

	writeJSONResponse(w, http.StatusCreated, map[string]any{"id": id})
}

// UpdatePost 按请求中出现的字段做部分更新。
// PUT /posts/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, model.NewValidationError("请求格式非法"))
		return
	}

	input := post.UpdateInput{
		Fields: model.PostUpdate{
			Title:   req.Title,
			Content: req.Content,
			Summary: req.Summary,
			Plan:    req.Plan,
			Mood:    req.Mood,
			Date:    req.Date,
		},
	}
	if req.Status != nil {
		status := model.PostStatus(*req.Status)
		input.Fields.Status = &status
	}
	if req.CategoryIDs != nil {
		input.ReplaceCats = true
		input.CategoryIDs = *req.CategoryIDs
	}

	if err := h.service.Update(r.Context(), id, input); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, nil)
}

// DeletePost 删除单篇复盘。目标不存在时同样返回成功。
// DELETE /posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, nil)
}

// BatchDeletePosts 按 ID 集合批量删除。
// POST /posts/batch-delete
func (h *PostHandler) BatchDeletePosts(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, model.NewValidationError("请求格式非法"))
		return
	}

	if err := h.service.BatchDelete(r.Context(), req.IDs); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, nil)
}

// LatestInCategory 返回当前用户在指定分类下最新的一篇复盘。
// 没有时 data 为 null。
// GET /posts/latest-in-category?category=
func (h *PostHandler) LatestInCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	categoryName := r.URL.Query().Get("category")
	if categoryName == "" {
		categoryName = defaultLatestCategory
	}

	p, err := h.service.LatestInCategory(r.Context(), userID, categoryName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if p == nil {
		writeJSONResponse(w, http.StatusOK, nil)
		return
	}
	writeJSONResponse(w, http.StatusOK, toPostResponse(p))
}

// parseIDParam 解析路径中的 {id}。非法时写出 400 并返回 false。
func parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeErrorResponse(w, http.StatusBadRequest, model.NewValidationError("ID 非法"))
		return 0, false
	}
	return id, true
}

// toPostResponse 把 model.Post 转换为 API 响应。
func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		Title:     p.Title,
		Content:   p.Content,
		Summary:   p.Summary,
		Plan:      p.Plan,
		Mood:      p.Mood,
		Date:      p.Date,
		Status:    string(p.Status),
		Views:     p.Views,
		CreatedAt: p.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: p.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
