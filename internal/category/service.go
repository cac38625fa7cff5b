// Package category 提供分类的业务逻辑。
package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/wangdaguo68/kinghome/internal/model"
	"github.com/wangdaguo68/kinghome/internal/repository"
)

// Service 提供分类的查询与创建。
// 分类在应用层只增不删。
type Service struct {
	categoryRepo repository.CategoryRepository
}

// NewService 生成 Service。
func NewService(categoryRepo repository.CategoryRepository) *Service {
	return &Service{categoryRepo: categoryRepo}
}

// List 返回全部分类，按名称升序。
func (s *Service) List(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Create 创建分类并返回新分配的 ID。
// 名称去除首尾空白后不得为空；重复名称返回 DuplicateName 错误。
func (s *Service) Create(ctx context.Context, name, description string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, model.NewValidationError("分类名称不能为空")
	}

	id, err := s.categoryRepo.Create(ctx, name, description)
	if err != nil {
		return 0, err
	}

	return id, nil
}
