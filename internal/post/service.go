// Package post 提供复盘的业务逻辑。
package post

import (
	"context"
	"fmt"
	"strings"

	"github.com/wangdaguo68/kinghome/internal/model"
	"github.com/wangdaguo68/kinghome/internal/repository"
	"github.com/wangdaguo68/kinghome/internal/security"
)

// Service 提供复盘的查询与变更逻辑。
// 富文本字段在持久化前统一经过清洗；仓库层不做任何授权检查，
// 鉴权由路由层的会话门卫完成。
type Service struct {
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
	sanitizer    security.ContentSanitizerService
}

// NewService 生成 Service。
func NewService(
	postRepo repository.PostRepository,
	categoryRepo repository.CategoryRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		sanitizer:    sanitizer,
	}
}

// ListResult 是列表查询的结果。
// 分页生效时附带分页信息，TotalPages = ceil(Total / PageSize)。
type ListResult struct {
	Posts      []*model.Post
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// List 按过滤条件返回复盘列表和去重总数。
// 超出末页的页码返回空列表，不报错。
func (s *Service) List(ctx context.Context, filter model.PostFilter) (*ListResult, error) {
	filter = filter.Normalize()

	posts, err := s.postRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	total, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	result := &ListResult{
		Posts: posts,
		Total: total,
	}
	if filter.PageSize > 0 {
		result.Page = filter.Page
		result.PageSize = filter.PageSize
		result.TotalPages = int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	}

	return result, nil
}

// Detail 是详情查询的结果，复盘及其关联分类。
type Detail struct {
	Post       *model.Post
	Categories []*model.Category
}

// GetDetail 返回复盘详情并把浏览计数加一。
// 返回的 Views 是计入本次访问之后的值。不存在时返回 nil。
func (s *Service) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	p, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if p == nil {
		return nil, nil
	}

	if err := s.postRepo.IncrementViews(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to increment views: %w", err)
	}
	p.Views++

	categories, err := s.categoryRepo.ListForPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list post categories: %w", err)
	}

	return &Detail{Post: p, Categories: categories}, nil
}

// CreateInput 是创建复盘的输入。
type CreateInput struct {
	Title       string
	Content     string
	Summary     string
	Plan        string
	Mood        string
	Date        string
	Status      model.PostStatus
	CategoryIDs []int64
}

// Create 创建复盘并建立分类关联，返回新分配的 ID。
// title、content、date 为必填；status 缺省为 published。
func (s *Service) Create(ctx context.Context, userID int64, input CreateInput) (int64, error) {
	if strings.TrimSpace(input.Title) == "" {
		return 0, model.NewValidationError("标题不能为空")
	}
	if strings.TrimSpace(input.Content) == "" {
		return 0, model.NewValidationError("内容不能为空")
	}
	if strings.TrimSpace(input.Date) == "" {
		return 0, model.NewValidationError("日期不能为空")
	}
	if input.Status != "" && !input.Status.Valid() {
		return 0, model.NewValidationError("状态取值非法")
	}

	id, err := s.postRepo.Create(ctx, &model.Post{
		UserID:  userID,
		Title:   input.Title,
		Content: s.sanitizer.Sanitize(input.Content),
		Summary: s.sanitizer.Sanitize(input.Summary),
		Plan:    s.sanitizer.Sanitize(input.Plan),
		Mood:    input.Mood,
		Date:    input.Date,
		Status:  input.Status,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create post: %w", err)
	}

	if len(input.CategoryIDs) > 0 {
		if err := s.categoryRepo.ReplaceForPost(ctx, id, input.CategoryIDs); err != nil {
			return 0, fmt.Errorf("failed to set post categories: %w", err)
		}
	}

	return id, nil
}

// UpdateInput 是部分更新的输入。
// CategoryIDs 为 nil 表示不动关联；非 nil（含空切片）表示整体替换。
type UpdateInput struct {
	Fields      model.PostUpdate
	CategoryIDs []int64
	ReplaceCats bool
}

// Update 按输入做部分更新。
// 没有任何待更新字段时返回校验错误，调用方据此返回 400 而不是 500。
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) error {
	fields := input.Fields
	if fields.Content != nil {
		clean := s.sanitizer.Sanitize(*fields.Content)
		fields.Content = &clean
	}
	if fields.Summary != nil {
		clean := s.sanitizer.Sanitize(*fields.Summary)
		fields.Summary = &clean
	}
	if fields.Plan != nil {
		clean := s.sanitizer.Sanitize(*fields.Plan)
		fields.Plan = &clean
	}
	if fields.Status != nil && !fields.Status.Valid() {
		return model.NewValidationError("状态取值非法")
	}

	applied, err := s.postRepo.Update(ctx, id, fields)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if !applied {
		return model.NewValidationError("没有要更新的字段")
	}

	if input.ReplaceCats {
		if err := s.categoryRepo.ReplaceForPost(ctx, id, input.CategoryIDs); err != nil {
			return fmt.Errorf("failed to replace post categories: %w", err)
		}
	}

	return nil
}

// Delete 删除单篇复盘。目标不存在时同样视为成功。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// BatchDelete 按 ID 集合批量删除。空集合是校验错误。
func (s *Service) BatchDelete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return model.NewValidationError("请选择要删除的笔记")
	}

	if err := s.postRepo.DeleteMany(ctx, ids); err != nil {
		return fmt.Errorf("failed to batch delete posts: %w", err)
	}
	return nil
}

// LatestInCategory 返回指定用户在指定分类下最新的一篇复盘。
// 新建复盘页用它预填上一篇的 summary/plan。没有时返回 nil。
func (s *Service) LatestInCategory(ctx context.Context, userID int64, categoryName string) (*model.Post, error) {
	p, err := s.postRepo.LatestInCategory(ctx, userID, categoryName)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest post in category: %w", err)
	}
	return p, nil
}
